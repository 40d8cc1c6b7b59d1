package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"hiceval/internal/config"
	"hiceval/internal/tile"
)

// #endregion

// #region main

func main() {
	setName := flag.String("set", "", "evaluator set to export coordinates for")
	setsFile := flag.String("sets-file", "", "YAML file with additional evaluator sets")
	windowSize := flag.Int("window", config.DefaultWindowSize, "window size in bases")
	stride := flag.Int("stride", 0, "stride in bases (default: window size)")
	outPath := flag.String("out", "-", "output JSON path ('-' for stdout)")
	flag.Parse()

	if *setName == "" {
		fmt.Fprintln(os.Stderr, "usage: coords -set NAME [-sets-file sets.yaml] [-window N] [-stride N] [-out file.json]")
		os.Exit(2)
	}
	if *stride == 0 {
		*stride = *windowSize
	}

	if err := run(*setName, *setsFile, *windowSize, *stride, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

// #endregion main

// #region export

// requestPayload is the prediction request document predictors accept
// in batch mode: a task descriptor plus window start coordinates.
type requestPayload struct {
	Request         string           `json:"request"`
	Readout         string           `json:"readout"`
	PredictionTasks []taskDescriptor `json:"prediction_tasks"`
	Coordinates     map[string]any   `json:"sequence_coordinates"`
}

type taskDescriptor struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	CellType string `json:"cell_type"`
	Scale    string `json:"scale"`
	Species  string `json:"species"`
}

func run(setName, setsFile string, windowSize, stride int, outPath string) error {
	sets := config.BuiltinSets()
	if setsFile != "" {
		extra, err := config.LoadSets(setsFile)
		if err != nil {
			return err
		}
		sets = append(sets, extra...)
	}
	set, err := config.FindSet(sets, setName)
	if err != nil {
		return err
	}

	coords := make(map[string]any)
	n := 0
	for _, chrom := range set.Chromosomes {
		length, err := config.ChromLength(chrom)
		if err != nil {
			return err
		}
		windows, err := tile.Tile(chrom, length, windowSize, stride)
		if err != nil {
			return err
		}
		for _, w := range windows {
			if w.Span() < windowSize {
				continue // request files carry full windows only
			}
			n++
			coords[fmt.Sprintf("seq%d", n)] = []any{w.Chrom, w.Start}
		}
	}

	payload := requestPayload{
		Request: "predict",
		Readout: "interaction_matrix",
		PredictionTasks: []taskDescriptor{{
			Name:     set.Name + "-eval",
			Type:     "chromatin_conformation",
			CellType: "H1",
			Scale:    "log",
			Species:  "homo_sapiens",
		}},
		Coordinates: coords,
	}

	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// #endregion export
