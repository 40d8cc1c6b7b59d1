package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinSets(t *testing.T) {
	sets := BuiltinSets()
	if len(sets) != 3 {
		t.Fatalf("got %d sets, want 3", len(sets))
	}

	chr8, err := FindSet(sets, "test-chr8")
	if err != nil {
		t.Fatalf("find test-chr8: %v", err)
	}
	if chr8.Role != RoleTest || len(chr8.Chromosomes) != 1 || chr8.Chromosomes[0] != "chr8" {
		t.Errorf("unexpected test-chr8 set: %+v", chr8)
	}

	val, err := FindSet(sets, "validation-chr10")
	if err != nil {
		t.Fatalf("find validation-chr10: %v", err)
	}
	if val.Role != RoleValidation {
		t.Errorf("validation-chr10 role = %q", val.Role)
	}
}

func TestFindSet_Unknown(t *testing.T) {
	_, err := FindSet(BuiltinSets(), "test-chr99")
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
}

func TestChromLength(t *testing.T) {
	n, err := ChromLength("chr8")
	if err != nil {
		t.Fatalf("chr8: %v", err)
	}
	if n != 145138636 {
		t.Errorf("chr8 length = %d", n)
	}
	if _, err := ChromLength("chrZ"); err == nil {
		t.Error("expected error for chrZ")
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("default params invalid: %v", err)
	}
	if err := (Params{WindowSize: 0, Stride: 1}).Validate(); err == nil {
		t.Error("expected error for zero window size")
	}
	if err := (Params{WindowSize: 1000, Stride: -5}).Validate(); err == nil {
		t.Error("expected error for negative stride")
	}
}

func TestLoadSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets.yaml")
	doc := `sets:
  - name: test-chr7
    role: test
    chromosomes: [chr7]
  - name: validation-xy
    role: validation
    chromosomes: [chrX, chrY]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	sets, err := LoadSets(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets", len(sets))
	}
	if sets[1].Name != "validation-xy" || len(sets[1].Chromosomes) != 2 {
		t.Errorf("unexpected set: %+v", sets[1])
	}
}

func TestLoadSets_BadRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets.yaml")
	doc := `sets:
  - name: broken
    role: training
    chromosomes: [chr1]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSets(path); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseRegion(t *testing.T) {
	cases := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{in: "0-1000000", start: 0, end: 1_000_000},
		{in: "2500000-4500000", start: 2_500_000, end: 4_500_000},
		{in: "1000000", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "5000-5000", wantErr: true},
		{in: "9000-100", wantErr: true},
		{in: "-100-200", wantErr: true},
	}
	for _, tc := range cases {
		r, err := ParseRegion(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRegion(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRegion(%q): %v", tc.in, err)
			continue
		}
		if r.Start != tc.start || r.End != tc.end {
			t.Errorf("ParseRegion(%q) = %+v", tc.in, r)
		}
	}
}

func TestRegionClamp(t *testing.T) {
	r, err := Region{Start: 1000, End: 9000}.Clamp(5000)
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}
	if r.Start != 1000 || r.End != 5000 {
		t.Errorf("got %+v", r)
	}

	if _, err := (Region{Start: 6000, End: 9000}).Clamp(5000); err == nil {
		t.Error("expected error for region past chromosome end")
	}
}
