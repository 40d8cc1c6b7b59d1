package evaluate

// #region imports
import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"hiceval/internal/config"
	"hiceval/internal/score"
	"hiceval/internal/tile"
)

// #endregion

// #region failure-kind

// FailureKind classifies a window-level failure. Failures never abort
// a run; they become report rows.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureSequence    FailureKind = "sequence"
	FailureUpstream    FailureKind = "upstream"
	FailureDecode      FailureKind = "decode"
	FailureShape       FailureKind = "shape_mismatch"
	FailureMissingData FailureKind = "missing_data"
)

// #endregion failure-kind

// #region window-result

// WindowResult is one report row: a scored window, a skipped partial
// window, or a recorded failure.
type WindowResult struct {
	Window  tile.Window
	Skipped bool
	Failure FailureKind
	Reason  string
	Score   score.Record
	Raw     []byte // response payload when capture is enabled
}

// Scored reports whether the window produced a correlation record.
func (r WindowResult) Scored() bool {
	return !r.Skipped && r.Failure == FailureNone
}

// #endregion window-result

// #region report

// Report is the immutable outcome of one evaluator run. Windows are
// ordered by chromosome then ascending start, independent of worker
// completion order.
type Report struct {
	RunID         string
	Set           config.EvaluatorSet
	Params        config.Params
	PredictorName string
	StartedAt     time.Time
	FinishedAt    time.Time

	Windows []WindowResult

	ScoredWindows  int
	FailedWindows  int
	SkippedWindows int
	MeanR          float64 // NaN when nothing was scored
	MedianR        float64
}

// summarize fills the aggregate fields from the window rows.
// NaN correlations (zero variance, too few valid bins) count as
// scored but are left out of the mean and median.
func (r *Report) summarize() {
	var rs []float64
	for _, w := range r.Windows {
		switch {
		case w.Skipped:
			r.SkippedWindows++
		case w.Failure != FailureNone:
			r.FailedWindows++
		default:
			r.ScoredWindows++
			if !math.IsNaN(w.Score.Correlation) {
				rs = append(rs, w.Score.Correlation)
			}
		}
	}
	if len(rs) == 0 {
		r.MeanR = math.NaN()
		r.MedianR = math.NaN()
		return
	}
	r.MeanR = stat.Mean(rs, nil)
	sort.Float64s(rs)
	r.MedianR = stat.Quantile(0.5, stat.Empirical, rs, nil)
}

// #endregion report
