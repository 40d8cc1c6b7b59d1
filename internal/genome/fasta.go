package genome

// #region imports
import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// #endregion

// #region fasta-struct

// Fasta is a Source backed by a FASTA reference assembly loaded into
// memory. Record IDs are taken up to the first whitespace, so both
// ">chr8" and ">chr8 AC:..." headers resolve as "chr8".
type Fasta struct {
	seqs map[string]string
}

// #endregion fasta-struct

// #region open

// OpenFasta loads a plain or gzip-compressed FASTA file.
func OpenFasta(path string) (*Fasta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("genome: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("genome: gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadFasta(r)
}

// ReadFasta parses FASTA records from r.
func ReadFasta(r io.Reader) (*Fasta, error) {
	seqs := make(map[string]string)
	var (
		id  string
		buf strings.Builder
	)
	flush := func() {
		if id != "" {
			seqs[id] = buf.String()
		}
		buf.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<26)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("genome: FASTA header with no record ID")
			}
			id = fields[0]
			continue
		}
		if id == "" {
			return nil, fmt.Errorf("genome: sequence data before first FASTA header")
		}
		buf.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("genome: scan fasta: %w", err)
	}
	flush()

	if len(seqs) == 0 {
		return nil, fmt.Errorf("genome: no FASTA records found")
	}
	return &Fasta{seqs: seqs}, nil
}

// #endregion open

// #region fetch

// Fetch returns the uppercased reference sequence for chrom:[start,end),
// N-padded past the chromosome end.
func (f *Fasta) Fetch(ctx context.Context, chrom string, start, end int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	seq, ok := f.seqs[chrom]
	if !ok {
		return "", fmt.Errorf("genome: unknown chromosome %q", chrom)
	}
	return extract(seq, chrom, start, end)
}

// Length reports a chromosome's length in the loaded assembly.
func (f *Fasta) Length(chrom string) (int, bool) {
	seq, ok := f.seqs[chrom]
	if !ok {
		return 0, false
	}
	return len(seq), true
}

// Chromosomes lists the loaded record IDs.
func (f *Fasta) Chromosomes() []string {
	out := make([]string, 0, len(f.seqs))
	for id := range f.seqs {
		out = append(out, id)
	}
	return out
}

// #endregion fetch
