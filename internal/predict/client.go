// Package predict is the HTTP client for contact-matrix prediction
// services: format negotiation, bounded retry and response decoding.
package predict

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"

	"hiceval/internal/wire"
)

// #endregion

// #region formats

// MIME types the evaluator can speak. JSON is the format every
// predictor and evaluator must support; msgpack is preferred on the
// request side and msgpack-numpy on the response side.
const (
	FormatJSON         = "application/json"
	FormatMsgpack      = "application/msgpack"
	FormatMsgpackNumpy = "application/msgpack-numpy"
)

// #endregion formats

// #region options

// Options tunes client behavior. Zero Timeout, RetryInterval and Log
// select the defaults; Retries uses a negative sentinel so that zero
// can mean "fail on the first connection error".
type Options struct {
	Timeout       time.Duration // per-call HTTP timeout
	Retries       int           // extra attempts after a connection failure; 0 disables, negative selects the default
	RetryInterval time.Duration // constant wait between attempts
	Log           *logrus.Logger
}

const (
	defaultTimeout       = 60 * time.Second
	defaultRetries       = 5
	defaultRetryInterval = 2 * time.Second
)

// #endregion options

// #region client-struct

// Client talks to a predictor over its REST surface.
type Client struct {
	base     string
	http     *http.Client
	retries  int
	interval time.Duration
	log      *logrus.Logger

	reqFormat     string
	respFormat    string
	predictorName string
}

// #endregion client-struct

// #region constructor

// NewClient builds a client for a predictor at addr (host:port or a
// full URL). Call Negotiate before Predict to settle wire formats;
// without it the client assumes the preferred formats.
func NewClient(addr string, opts Options) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = defaultRetries
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Client{
		base:       strings.TrimRight(addr, "/"),
		http:       &http.Client{Timeout: opts.Timeout},
		retries:    opts.Retries,
		interval:   opts.RetryInterval,
		log:        opts.Log,
		reqFormat:  FormatMsgpack,
		respFormat: FormatMsgpackNumpy,
	}
}

// #endregion constructor

// #region negotiate

type formatsPayload struct {
	PredictorName   string   `json:"predictor_name"`
	RequestFormats  []string `json:"predictor_supported_request_formats"`
	ResponseFormats []string `json:"predictor_supported_response_formats"`
}

// Negotiate asks GET /formats which MIME types the predictor supports
// and fixes the request and response formats for later Predict calls.
// JSON is always treated as supported on both sides.
func (c *Client) Negotiate(ctx context.Context) error {
	resp, err := c.doRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/formats", nil)
	})
	if err != nil {
		return err
	}
	body, err := drain(resp)
	if err != nil {
		return &UpstreamError{Reason: "read formats response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{Status: resp.StatusCode, Reason: truncate(body)}
	}

	var formats formatsPayload
	if err := json.Unmarshal(body, &formats); err != nil {
		return &UpstreamError{Reason: fmt.Sprintf("malformed formats payload: %v", err)}
	}
	c.predictorName = formats.PredictorName

	c.reqFormat = pick(formats.RequestFormats, FormatMsgpack)
	if c.reqFormat != FormatMsgpack {
		c.log.Warnf("predictor does not accept %s requests, falling back to JSON", FormatMsgpack)
	}
	c.respFormat = pick(formats.ResponseFormats, FormatMsgpackNumpy)
	if c.respFormat != FormatMsgpackNumpy {
		c.log.Warnf("predictor does not send %s responses, falling back to JSON", FormatMsgpackNumpy)
	}
	c.log.WithFields(logrus.Fields{
		"request":  c.reqFormat,
		"response": c.respFormat,
	}).Info("negotiated predictor formats")
	return nil
}

// pick returns preferred when the predictor advertises it, else JSON.
func pick(advertised []string, preferred string) string {
	for _, f := range advertised {
		if strings.EqualFold(strings.TrimSpace(f), preferred) {
			return preferred
		}
	}
	return FormatJSON
}

// Formats returns the settled request and response MIME types.
func (c *Client) Formats() (request, response string) {
	return c.reqFormat, c.respFormat
}

// PredictorName returns the name the predictor advertised, if any.
func (c *Client) PredictorName() string {
	return c.predictorName
}

// #endregion negotiate

// #region predict

// predictRequest is the envelope posted to /predict. The field set
// mirrors what interaction-matrix predictors already accept.
type predictRequest struct {
	Request   string            `json:"request" msgpack:"request"`
	Readout   string            `json:"readout" msgpack:"readout"`
	Sequences map[string]string `json:"sequences" msgpack:"sequences"`
}

// Prediction is one decoded predictor response.
type Prediction struct {
	Matrix        *mat.Dense
	PredictorName string
	ContentType   string
	Raw           []byte
}

// Predict posts one window's sequence and decodes the returned contact
// matrix. Identical sequences yield identical matrices as long as the
// predictor itself is deterministic; the client adds no state.
func (c *Client) Predict(ctx context.Context, key, sequence string) (*Prediction, error) {
	env := predictRequest{
		Request:   "predict",
		Readout:   "interaction_matrix",
		Sequences: map[string]string{key: sequence},
	}
	var (
		payload []byte
		err     error
	)
	if c.reqFormat == FormatMsgpack {
		payload, err = msgpack.Marshal(env)
	} else {
		payload, err = json.Marshal(env)
	}
	if err != nil {
		return nil, fmt.Errorf("predict: encode request: %w", err)
	}

	resp, err := c.doRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/predict", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", c.reqFormat)
		req.Header.Set("Accept", c.respFormat)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	body, err := drain(resp)
	if err != nil {
		return nil, &UpstreamError{Reason: "read predict response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		// Logical error from the predictor, never retried.
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: truncate(body)}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType == "" {
		c.log.Warn("predictor response has no Content-Type, assuming negotiated format")
		contentType = c.respFormat
	} else if !strings.Contains(contentType, c.respFormat) {
		c.log.Warnf("predictor answered %s, negotiated %s", contentType, c.respFormat)
	}

	var m *mat.Dense
	if strings.Contains(contentType, "msgpack") {
		m, err = wire.DecodeNDArray(body)
	} else {
		m, err = wire.DecodeJSONMatrix(body)
	}
	if err != nil {
		return nil, err
	}

	name := resp.Header.Get("X-Predictor-Name")
	if name == "" {
		name = c.predictorName
	}
	return &Prediction{
		Matrix:        m,
		PredictorName: name,
		ContentType:   contentType,
		Raw:           body,
	}, nil
}

// #endregion predict

// #region retry

// doRetry runs a request with bounded constant-interval retry.
// Only connection-level failures retry; any received response, error
// status included, is returned to the caller untouched.
func (c *Client) doRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	attempts := c.retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("predict: build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		c.log.Warnf("predictor request failed (attempt %d/%d): %v, retrying in %s",
			attempt, attempts, err, c.interval)
		select {
		case <-time.After(c.interval):
		case <-ctx.Done():
			return nil, &UpstreamError{Reason: "canceled while waiting to retry", Err: ctx.Err()}
		}
	}
	return nil, &UpstreamError{
		Reason: fmt.Sprintf("predictor unreachable after %d attempts", attempts),
		Err:    lastErr,
	}
}

// #endregion retry

// #region helpers

func drain(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func truncate(body []byte) string {
	const max = 500
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// #endregion helpers
