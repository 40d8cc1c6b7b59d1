package score

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"hiceval/internal/tile"
)

var testWindow = tile.Window{Chrom: "chr8", Start: 0, End: 1_000_000}

func dense(n int, vals ...float64) *mat.Dense {
	return mat.NewDense(n, n, vals)
}

func TestCorrelate_SelfIsOne(t *testing.T) {
	m := dense(3, 1, 2, 3, 4, 5, 6, 7, 8, 10)
	rec, err := Correlate(testWindow, m, m)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if math.Abs(rec.Correlation-1.0) > 1e-9 {
		t.Errorf("self correlation = %v, want 1.0", rec.Correlation)
	}
	if rec.ValidBins != 9 {
		t.Errorf("valid bins = %d, want 9", rec.ValidBins)
	}
}

func TestCorrelate_NegationIsMinusOne(t *testing.T) {
	m := dense(3, 1, 2, 3, 4, 5, 6, 7, 8, 10)
	var neg mat.Dense
	neg.Scale(-1, m)
	rec, err := Correlate(testWindow, m, &neg)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if math.Abs(rec.Correlation+1.0) > 1e-9 {
		t.Errorf("negation correlation = %v, want -1.0", rec.Correlation)
	}
}

func TestCorrelate_ZeroVarianceIsNaN(t *testing.T) {
	constant := dense(2, 5, 5, 5, 5)
	other := dense(2, 1, 2, 3, 4)
	rec, err := Correlate(testWindow, constant, other)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if !math.IsNaN(rec.Correlation) {
		t.Errorf("zero-variance correlation = %v, want NaN", rec.Correlation)
	}
	if rec.ValidBins != 4 {
		t.Errorf("valid bins = %d, want 4", rec.ValidBins)
	}
}

func TestCorrelate_ShapeMismatch(t *testing.T) {
	_, err := Correlate(testWindow, dense(3, make([]float64, 9)...), dense(4, make([]float64, 16)...))
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if shapeErr.PredRows != 3 || shapeErr.MeasRows != 4 {
		t.Errorf("unexpected error detail: %+v", shapeErr)
	}
}

func TestCorrelate_NaNExclusion(t *testing.T) {
	nan := math.NaN()
	predicted := dense(3, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	measured := dense(3,
		2, nan, 6,
		8, 10, nan,
		14, 16, 18)

	rec, err := Correlate(testWindow, predicted, measured)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if rec.ValidBins != 7 {
		t.Errorf("valid bins = %d, want 7 (two NaN pairs excluded)", rec.ValidBins)
	}
	// measured = 2*predicted on the surviving pairs
	if math.Abs(rec.Correlation-1.0) > 1e-9 {
		t.Errorf("correlation = %v, want 1.0 over valid pairs", rec.Correlation)
	}
}

func TestCorrelate_InfExcludedToo(t *testing.T) {
	predicted := dense(2, 1, 2, 3, 4)
	measured := dense(2, 2, math.Inf(1), 6, 8)
	rec, err := Correlate(testWindow, predicted, measured)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if rec.ValidBins != 3 {
		t.Errorf("valid bins = %d, want 3", rec.ValidBins)
	}
}

func TestCorrelate_TooFewPairs(t *testing.T) {
	nan := math.NaN()
	predicted := dense(2, 1, nan, nan, nan)
	measured := dense(2, 2, 4, 6, 8)
	rec, err := Correlate(testWindow, predicted, measured)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if rec.ValidBins != 1 {
		t.Errorf("valid bins = %d, want 1", rec.ValidBins)
	}
	if !math.IsNaN(rec.Correlation) {
		t.Errorf("correlation = %v, want NaN with <2 pairs", rec.Correlation)
	}
}
