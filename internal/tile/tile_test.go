package tile

import (
	"testing"
)

func TestTile_ContiguousWithClampedTail(t *testing.T) {
	windows, err := Tile("chr8", 2_500_000, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}

	want := []Window{
		{Chrom: "chr8", Start: 0, End: 1_000_000},
		{Chrom: "chr8", Start: 1_000_000, End: 2_000_000},
		{Chrom: "chr8", Start: 2_000_000, End: 2_500_000},
	}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d", len(windows), len(want))
	}
	for i, w := range windows {
		if w != want[i] {
			t.Errorf("window %d: got %v, want %v", i, w, want[i])
		}
	}

	// Union covers [0, chromLength) with no overlap at stride == size.
	covered := 0
	for i, w := range windows {
		if i > 0 && w.Start != windows[i-1].End {
			t.Errorf("window %d starts at %d, previous ended at %d", i, w.Start, windows[i-1].End)
		}
		covered += w.Span()
	}
	if covered != 2_500_000 {
		t.Errorf("coverage %d, want 2500000", covered)
	}
}

func TestTile_AscendingStarts(t *testing.T) {
	windows, err := Tile("chr9", 10_000_000, 1_000_000, 500_000)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Start <= windows[i-1].Start {
			t.Fatalf("window %d start %d not after %d", i, windows[i].Start, windows[i-1].Start)
		}
	}
}

func TestTile_ExactMultiple(t *testing.T) {
	windows, err := Tile("chr1", 3_000_000, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for _, w := range windows {
		if w.Span() != 1_000_000 {
			t.Errorf("window %v span %d, want full", w, w.Span())
		}
	}
}

func TestTile_EmptyChromosome(t *testing.T) {
	windows, err := Tile("chrM", 0, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if len(windows) != 0 {
		t.Fatalf("got %d windows for empty chromosome, want 0", len(windows))
	}
}

func TestTile_InvalidParameters(t *testing.T) {
	cases := []struct {
		name                        string
		length, windowSize, stride int
	}{
		{"zero window", 1000, 0, 100},
		{"negative window", 1000, -1, 100},
		{"zero stride", 1000, 100, 0},
		{"negative length", -1, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Tile("chr1", tc.length, tc.windowSize, tc.stride); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWindow_String(t *testing.T) {
	w := Window{Chrom: "chr10", Start: 2_000_000, End: 3_000_000}
	if got := w.String(); got != "chr10:2000000-3000000" {
		t.Errorf("got %q", got)
	}
}
