package config

// #region imports
import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region errors

// Error is a fatal configuration error. Runs never start when one is
// raised; everything else is recorded per window and the run continues.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "config: " + e.Reason
}

// Errorf builds a configuration error from a format string.
func Errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// #endregion errors

// #region sets

// Role distinguishes test sets from the held-out validation set.
type Role string

const (
	RoleTest       Role = "test"
	RoleValidation Role = "validation"
)

// EvaluatorSet names a group of target chromosomes and its role.
// Sets are value objects built at startup and passed into the
// evaluator; there is no package-level mutable registry.
type EvaluatorSet struct {
	Name        string   `yaml:"name"`
	Role        Role     `yaml:"role"`
	Chromosomes []string `yaml:"chromosomes"`
}

// BuiltinSets returns the three shipped evaluator sets.
func BuiltinSets() []EvaluatorSet {
	return []EvaluatorSet{
		{Name: "test-chr8", Role: RoleTest, Chromosomes: []string{"chr8"}},
		{Name: "test-chr9", Role: RoleTest, Chromosomes: []string{"chr9"}},
		{Name: "validation-chr10", Role: RoleValidation, Chromosomes: []string{"chr10"}},
	}
}

// FindSet resolves a set by name.
func FindSet(sets []EvaluatorSet, name string) (EvaluatorSet, error) {
	for _, s := range sets {
		if s.Name == name {
			return s, nil
		}
	}
	return EvaluatorSet{}, Errorf("unknown evaluator set %q", name)
}

// LoadSets reads additional evaluator sets from a YAML file.
func LoadSets(path string) ([]EvaluatorSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf("read sets file: %v", err)
	}
	var doc struct {
		Sets []EvaluatorSet `yaml:"sets"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, Errorf("parse sets file %s: %v", path, err)
	}
	for _, s := range doc.Sets {
		if s.Name == "" {
			return nil, Errorf("sets file %s: set with empty name", path)
		}
		if len(s.Chromosomes) == 0 {
			return nil, Errorf("sets file %s: set %q has no chromosomes", path, s.Name)
		}
		if s.Role != RoleTest && s.Role != RoleValidation {
			return nil, Errorf("sets file %s: set %q has unknown role %q", path, s.Name, s.Role)
		}
	}
	return doc.Sets, nil
}

// #endregion sets

// #region params

// DefaultWindowSize matches the 1 Mb receptive field of the contact
// prediction models this evaluator targets.
const DefaultWindowSize = 1_000_000

// Params holds tiling parameters for a run.
type Params struct {
	WindowSize     int
	Stride         int
	IncludePartial bool // score clamped trailing windows too
}

// DefaultParams returns contiguous 1 Mb tiling with partial windows
// excluded from scoring.
func DefaultParams() Params {
	return Params{WindowSize: DefaultWindowSize, Stride: DefaultWindowSize}
}

// Validate checks tiling parameters before any window is processed.
func (p Params) Validate() error {
	if p.WindowSize <= 0 {
		return Errorf("window size %d must be positive", p.WindowSize)
	}
	if p.Stride <= 0 {
		return Errorf("stride %d must be positive", p.Stride)
	}
	return nil
}

// #endregion params

// #region region

// Region restricts a run to part of each target chromosome instead of
// its full length. Coordinates are 0-based half-open.
type Region struct {
	Start int
	End   int
}

// ParseRegion parses "START-END" coordinate notation.
func ParseRegion(s string) (Region, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return Region{}, Errorf("malformed region %q, want START-END", s)
	}
	start, err := strconv.Atoi(lo)
	if err != nil {
		return Region{}, Errorf("malformed region start %q", lo)
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return Region{}, Errorf("malformed region end %q", hi)
	}
	r := Region{Start: start, End: end}
	if r.Start < 0 || r.End <= r.Start {
		return Region{}, Errorf("invalid region %d-%d", r.Start, r.End)
	}
	return r, nil
}

// Clamp bounds the region to a chromosome length.
func (r Region) Clamp(chromLength int) (Region, error) {
	if r.Start >= chromLength {
		return Region{}, Errorf("region start %d beyond chromosome length %d", r.Start, chromLength)
	}
	if r.End > chromLength {
		r.End = chromLength
	}
	return r, nil
}

// #endregion region

// #region lengths

// grch38 holds primary-assembly chromosome lengths for hg38.
var grch38 = map[string]int{
	"chr1":  248956422,
	"chr2":  242193529,
	"chr3":  198295559,
	"chr4":  190214555,
	"chr5":  181538259,
	"chr6":  170805979,
	"chr7":  159345973,
	"chr8":  145138636,
	"chr9":  138394717,
	"chr10": 133797422,
	"chr11": 135086622,
	"chr12": 133275309,
	"chr13": 114364328,
	"chr14": 107043718,
	"chr15": 101991189,
	"chr16": 90338345,
	"chr17": 83257441,
	"chr18": 80373285,
	"chr19": 58617616,
	"chr20": 64444167,
	"chr21": 46709983,
	"chr22": 50818468,
	"chrX":  156040895,
	"chrY":  57227415,
}

// ChromLength returns the hg38 length of a chromosome.
func ChromLength(chrom string) (int, error) {
	n, ok := grch38[chrom]
	if !ok {
		return 0, Errorf("unknown chromosome %q", chrom)
	}
	return n, nil
}

// #endregion lengths
