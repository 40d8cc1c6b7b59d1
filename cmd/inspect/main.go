package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"hiceval/internal/results"
)

// #endregion

// #region main

func main() {
	dbPath := flag.String("db", "", "path to results database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show per-window detail for one run")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect -db path/to/results.db [-last N] [-run id] [-json]")
		os.Exit(2)
	}

	store, err := results.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *results.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSET\tROLE\tPREDICTOR\tFINISHED\tMEAN_R\tSCORED\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.SetName, r.Role, r.Predictor,
			r.FinishedAt.Format("2006-01-02 15:04:05"),
			formatR(r.MeanR), r.Scored, r.Failed, r.Skipped)
	}
	return tw.Flush()
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *results.Store, runID string, jsonOut bool) error {
	windows, err := store.RunWindows(runID)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		return fmt.Errorf("no windows for run %s", runID)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(windows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tSTATUS\tFAILURE\tPEARSON_R\tVALID_BINS\tREASON")
	for _, w := range windows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			w.Window, w.Status, w.Failure, formatR(w.Correlation), w.ValidBins, w.Reason)
	}
	return tw.Flush()
}

// #endregion detail-mode

// #region helpers

func formatR(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}

// #endregion helpers
