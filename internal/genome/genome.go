package genome

// #region imports
import (
	"context"
	"fmt"
	"strings"
)

// #endregion

// #region source

// Source returns reference sequence for a coordinate range.
// Fetch returns exactly end-start bases: ranges running past the
// chromosome end are padded with N so window-sized requests always
// yield window-sized sequences.
type Source interface {
	Fetch(ctx context.Context, chrom string, start, end int) (string, error)
	// Length reports the chromosome's length, false if unknown.
	Length(chrom string) (int, bool)
}

// #endregion source

// #region memory

// Memory is an in-memory Source keyed by chromosome name. Used for
// small assemblies and tests.
type Memory map[string]string

// Fetch returns the uppercased subsequence, N-padded past the end.
func (m Memory) Fetch(_ context.Context, chrom string, start, end int) (string, error) {
	seq, ok := m[chrom]
	if !ok {
		return "", fmt.Errorf("genome: unknown chromosome %q", chrom)
	}
	return extract(seq, chrom, start, end)
}

// Length reports the stored chromosome length.
func (m Memory) Length(chrom string) (int, bool) {
	seq, ok := m[chrom]
	if !ok {
		return 0, false
	}
	return len(seq), true
}

// #endregion memory

// #region extract

func extract(seq, chrom string, start, end int) (string, error) {
	if start < 0 || end < start {
		return "", fmt.Errorf("genome: invalid range %s:%d-%d", chrom, start, end)
	}
	if start >= len(seq) {
		return strings.Repeat("N", end-start), nil
	}
	stop := end
	if stop > len(seq) {
		stop = len(seq)
	}
	out := strings.ToUpper(seq[start:stop])
	if pad := end - stop; pad > 0 {
		out += strings.Repeat("N", pad)
	}
	return out, nil
}

// #endregion extract
