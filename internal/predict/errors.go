package predict

// #region imports
import (
	"fmt"
)

// #endregion

// #region upstream-error

// UpstreamError reports a predictor that is unreachable or answered
// with an error status. Status is 0 for transport-level failures.
type UpstreamError struct {
	Status int
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("predict: predictor returned HTTP %d: %s", e.Status, e.Reason)
	}
	return "predict: " + e.Reason
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// #endregion upstream-error
