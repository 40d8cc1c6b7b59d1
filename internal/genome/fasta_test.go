package genome

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFasta = `>chrA test assembly record
acgtACGTacgt
ACGT
>chrB
NNNNacgt
`

func TestReadFasta_Fetch(t *testing.T) {
	f, err := ReadFasta(strings.NewReader(testFasta))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if n, ok := f.Length("chrA"); !ok || n != 16 {
		t.Errorf("chrA length = %d, %v", n, ok)
	}

	seq, err := f.Fetch(context.Background(), "chrA", 2, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if seq != "GTACGTAC" {
		t.Errorf("got %q, want uppercased GTACGTAC", seq)
	}
}

func TestFasta_PadsPastChromosomeEnd(t *testing.T) {
	f, err := ReadFasta(strings.NewReader(testFasta))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	seq, err := f.Fetch(context.Background(), "chrB", 4, 12)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if seq != "ACGTNNNN" {
		t.Errorf("got %q, want ACGTNNNN", seq)
	}
	if len(seq) != 8 {
		t.Errorf("padded fetch length %d, want requested span", len(seq))
	}
}

func TestFasta_UnknownChromosome(t *testing.T) {
	f, err := ReadFasta(strings.NewReader(testFasta))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "chrZ", 0, 10); err == nil {
		t.Error("expected error for unknown chromosome")
	}
	if _, ok := f.Length("chrZ"); ok {
		t.Error("expected false for unknown chromosome")
	}
}

func TestFasta_InvalidRange(t *testing.T) {
	f, err := ReadFasta(strings.NewReader(testFasta))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "chrA", 10, 2); err == nil {
		t.Error("expected error for end < start")
	}
	if _, err := f.Fetch(context.Background(), "chrA", -1, 2); err == nil {
		t.Error("expected error for negative start")
	}
}

func TestOpenFasta_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(testFasta)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	ref, err := OpenFasta(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seq, err := ref.Fetch(context.Background(), "chrB", 0, 4)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if seq != "NNNN" {
		t.Errorf("got %q", seq)
	}
}

func TestMemorySource(t *testing.T) {
	src := Memory{"chr1": "acgtacgt"}
	seq, err := src.Fetch(context.Background(), "chr1", 0, 4)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if seq != "ACGT" {
		t.Errorf("got %q", seq)
	}
	if n, ok := src.Length("chr1"); !ok || n != 8 {
		t.Errorf("length = %d, %v", n, ok)
	}
}
