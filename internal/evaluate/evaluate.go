// Package evaluate runs prediction models against measured Hi-C
// matrices: tile each chromosome, fetch reference sequence, predict,
// and correlate against the measured matrix.
package evaluate

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hiceval/internal/config"
	"hiceval/internal/genome"
	"hiceval/internal/measured"
	"hiceval/internal/predict"
	"hiceval/internal/score"
	"hiceval/internal/tile"
	"hiceval/internal/wire"
)

// #endregion

// #region predictor

// Predictor is the prediction surface the evaluator needs. Satisfied
// by *predict.Client.
type Predictor interface {
	Predict(ctx context.Context, key, sequence string) (*predict.Prediction, error)
}

// #endregion predictor

// #region evaluator-struct

// Evaluator wires the tiler, sequence source, predictor, measured
// source and scorer for one run. Fields are set once before Run.
type Evaluator struct {
	Genome     genome.Source
	Measured   measured.Source
	Predictor  Predictor
	Params     config.Params
	Region     *config.Region // nil means full chromosome
	Workers    int            // parallel windows, 1 when <= 0
	CaptureRaw bool
	Log        *logrus.Logger
}

// #endregion evaluator-struct

// #region run

// Run evaluates every chromosome in the set and returns the report.
// Only configuration problems (unknown chromosome, bad tiling
// parameters) fail the run; per-window failures become report rows.
// Cancelling ctx stops the run between windows; windows already
// dispatched finish and appear in the report.
func (e *Evaluator) Run(ctx context.Context, set config.EvaluatorSet) (*Report, error) {
	if err := e.Params.Validate(); err != nil {
		return nil, err
	}
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var windows []tile.Window
	for _, chrom := range set.Chromosomes {
		length, err := e.chromLength(chrom)
		if err != nil {
			return nil, err
		}
		offset := 0
		if e.Region != nil {
			reg, err := e.Region.Clamp(length)
			if err != nil {
				return nil, err
			}
			offset, length = reg.Start, reg.End-reg.Start
		}
		ws, err := tile.Tile(chrom, length, e.Params.WindowSize, e.Params.Stride)
		if err != nil {
			return nil, config.Errorf("tiling %s: %v", chrom, err)
		}
		for i := range ws {
			ws[i].Start += offset
			ws[i].End += offset
		}
		log.WithFields(logrus.Fields{
			"chrom":   chrom,
			"length":  length,
			"offset":  offset,
			"windows": len(ws),
		}).Info("tiled chromosome")
		windows = append(windows, ws...)
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		Set:       set,
		Params:    e.Params,
		StartedAt: time.Now().UTC(),
	}

	// Result slots are indexed by window position, so report order is
	// ascending start regardless of worker completion order.
	results := make([]WindowResult, len(windows))
	attempted := make([]bool, len(windows))

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(windows) && len(windows) > 0 {
		workers = len(windows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.evalWindow(ctx, log, windows[i])
				attempted[i] = true
			}
		}()
	}

dispatch:
	for i := range windows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i, res := range results {
		if attempted[i] {
			rep.Windows = append(rep.Windows, res)
		}
	}
	rep.FinishedAt = time.Now().UTC()
	rep.summarize()

	if name := e.predictorName(); name != "" {
		rep.PredictorName = name
	}
	log.WithFields(logrus.Fields{
		"run":     rep.RunID,
		"scored":  rep.ScoredWindows,
		"failed":  rep.FailedWindows,
		"skipped": rep.SkippedWindows,
		"mean_r":  rep.MeanR,
	}).Info("run complete")

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run aborted: %w", err)
	}
	return rep, nil
}

func (e *Evaluator) chromLength(chrom string) (int, error) {
	if n, ok := e.Genome.Length(chrom); ok {
		return n, nil
	}
	return config.ChromLength(chrom)
}

func (e *Evaluator) predictorName() string {
	if c, ok := e.Predictor.(*predict.Client); ok && c.PredictorName() != "" {
		return c.PredictorName()
	}
	return ""
}

// #endregion run

// #region eval-window

func (e *Evaluator) evalWindow(ctx context.Context, log *logrus.Logger, w tile.Window) WindowResult {
	res := WindowResult{Window: w}

	if w.Span() < e.Params.WindowSize && !e.Params.IncludePartial {
		res.Skipped = true
		res.Reason = fmt.Sprintf("partial window (%d < %d bases)", w.Span(), e.Params.WindowSize)
		return res
	}

	seq, err := e.Genome.Fetch(ctx, w.Chrom, w.Start, w.End)
	if err != nil {
		return fail(res, FailureSequence, err)
	}

	pred, err := e.Predictor.Predict(ctx, w.String(), seq)
	if err != nil {
		return fail(res, classify(err), err)
	}
	if e.CaptureRaw {
		res.Raw = pred.Raw
	}

	meas, err := e.Measured.Matrix(w)
	if err != nil {
		if errors.Is(err, measured.ErrMissing) {
			return fail(res, FailureMissingData, err)
		}
		// A present but unreadable matrix is a decode problem, not
		// missing data.
		return fail(res, FailureDecode, err)
	}

	rec, err := score.Correlate(w, pred.Matrix, meas)
	if err != nil {
		return fail(res, classify(err), err)
	}
	res.Score = rec
	log.WithFields(logrus.Fields{
		"window":     w.String(),
		"pearson_r":  rec.Correlation,
		"valid_bins": rec.ValidBins,
	}).Debug("scored window")
	return res
}

func fail(res WindowResult, kind FailureKind, err error) WindowResult {
	res.Failure = kind
	res.Reason = err.Error()
	return res
}

// classify maps component errors onto report failure kinds.
func classify(err error) FailureKind {
	var (
		upErr    *predict.UpstreamError
		decErr   *wire.DecodeError
		shapeErr *score.ShapeMismatchError
	)
	switch {
	case errors.As(err, &upErr):
		return FailureUpstream
	case errors.As(err, &decErr):
		return FailureDecode
	case errors.As(err, &shapeErr):
		return FailureShape
	case errors.Is(err, measured.ErrMissing):
		return FailureMissingData
	}
	return FailureUpstream
}

// #endregion eval-window
