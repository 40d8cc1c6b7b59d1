package tile

// #region imports
import (
	"fmt"
)

// #endregion

// #region window

// Window is a half-open genomic interval [Start, End) on a chromosome.
// Start is 0-based.
type Window struct {
	Chrom string
	Start int
	End   int
}

// String renders the window in samtools region notation.
func (w Window) String() string {
	return fmt.Sprintf("%s:%d-%d", w.Chrom, w.Start, w.End)
}

// Span returns the number of bases the window covers.
func (w Window) Span() int {
	return w.End - w.Start
}

// #endregion window

// #region tile

// Tile splits a chromosome into windows of windowSize bases, advancing by
// stride, in ascending Start order. The trailing window is clamped to
// chromLength and retained; callers decide whether clamped windows are
// scored. With stride == windowSize the tiling is contiguous and
// non-overlapping and its union covers [0, chromLength).
func Tile(chrom string, chromLength, windowSize, stride int) ([]Window, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("tile: window size %d must be positive", windowSize)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("tile: stride %d must be positive", stride)
	}
	if chromLength < 0 {
		return nil, fmt.Errorf("tile: chromosome length %d must be non-negative", chromLength)
	}

	var windows []Window
	for start := 0; start < chromLength; start += stride {
		end := start + windowSize
		if end > chromLength {
			end = chromLength
		}
		windows = append(windows, Window{Chrom: chrom, Start: start, End: end})
	}
	return windows, nil
}

// #endregion tile
