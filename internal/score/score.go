// Package score computes the per-window correlation between predicted
// and measured contact matrices.
package score

// #region imports
import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"hiceval/internal/tile"
)

// #endregion

// #region shape-error

// ShapeMismatchError reports that predicted and measured matrices
// disagree on dimension.
type ShapeMismatchError struct {
	PredRows, PredCols int
	MeasRows, MeasCols int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("score: predicted %dx%d vs measured %dx%d",
		e.PredRows, e.PredCols, e.MeasRows, e.MeasCols)
}

// #endregion shape-error

// #region record

// Record is the correlation result for one window. Correlation is NaN
// when fewer than two jointly valid bin pairs remain or either series
// has zero variance; that is a defined result, not an error.
type Record struct {
	Window      tile.Window
	Correlation float64
	ValidBins   int
}

// #endregion record

// #region correlate

// Correlate computes the Pearson correlation between the full predicted
// and measured matrices over bin pairs where both values are finite.
func Correlate(w tile.Window, predicted, measured *mat.Dense) (Record, error) {
	pr, pc := predicted.Dims()
	mr, mc := measured.Dims()
	if pr != mr || pc != mc {
		return Record{}, &ShapeMismatchError{PredRows: pr, PredCols: pc, MeasRows: mr, MeasCols: mc}
	}

	xs := make([]float64, 0, pr*pc)
	ys := make([]float64, 0, pr*pc)
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			p, m := predicted.At(i, j), measured.At(i, j)
			if !isFinite(p) || !isFinite(m) {
				continue
			}
			xs = append(xs, p)
			ys = append(ys, m)
		}
	}

	rec := Record{Window: w, ValidBins: len(xs)}
	if len(xs) < 2 {
		rec.Correlation = math.NaN()
		return rec, nil
	}
	// Zero variance in either series yields NaN here, as required.
	rec.Correlation = stat.Correlation(xs, ys, nil)
	return rec, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion correlate
