// Package report renders evaluation reports: the per-window table,
// the aggregate metrics row, and optional raw payload dumps.
package report

// #region imports
import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"hiceval/internal/evaluate"
)

// #endregion

// #region table

// WriteTable writes the per-window report as tab-separated rows in
// ascending window order, followed by a summary line.
func WriteTable(w io.Writer, rep *evaluate.Report) error {
	if _, err := fmt.Fprintln(w, "chrom\tstart\tend\tstatus\tfailure\tpearson_r\tvalid_bins\treason"); err != nil {
		return err
	}
	for _, row := range rep.Windows {
		status := "scored"
		corr, bins := "", ""
		switch {
		case row.Skipped:
			status = "skipped"
		case row.Failure != evaluate.FailureNone:
			status = "failed"
		default:
			corr = formatR(row.Score.Correlation)
			bins = strconv.Itoa(row.Score.ValidBins)
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			row.Window.Chrom, row.Window.Start, row.Window.End,
			status, string(row.Failure), corr, bins, row.Reason)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "# run=%s set=%s predictor=%s scored=%d failed=%d skipped=%d mean_pearson_r=%s median_pearson_r=%s\n",
		rep.RunID, rep.Set.Name, predictorLabel(rep),
		rep.ScoredWindows, rep.FailedWindows, rep.SkippedWindows,
		formatR(rep.MeanR), formatR(rep.MedianR))
	return err
}

func formatR(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// #endregion table

// #region metrics

// WriteMetricsRow writes the run's aggregate metrics row in the shape
// downstream tooling ingests: evaluator name, predictor name,
// timestamp, metric name and value. The header is emitted only when
// withHeader is set.
func WriteMetricsRow(w io.Writer, rep *evaluate.Report, withHeader bool) error {
	records := [][]string{
		{"Evaluator_Name", "Predictor_Name", "Time_Stamp", "Metric", "Value", "Windows_Scored", "Windows_Failed", "Windows_Skipped"},
		{
			rep.Set.Name,
			predictorLabel(rep),
			rep.FinishedAt.Format("20060102-150405.000000"),
			"pearson_r",
			formatR(rep.MeanR),
			strconv.Itoa(rep.ScoredWindows),
			strconv.Itoa(rep.FailedWindows),
			strconv.Itoa(rep.SkippedWindows),
		},
	}
	df := dataframe.LoadRecords(records)
	if df.Err != nil {
		return fmt.Errorf("report: build metrics frame: %w", df.Err)
	}
	return df.WriteCSV(w, dataframe.WriteHeader(withHeader))
}

// AppendMetricsRow appends the run's metrics row to path so the file
// accumulates one row per run. The header is written only when the
// file is new or empty.
func AppendMetricsRow(path string, rep *evaluate.Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open metrics: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("report: stat metrics: %w", err)
	}
	if err := WriteMetricsRow(f, rep, st.Size() == 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// predictorLabel is the predictor name made filename- and field-safe.
func predictorLabel(rep *evaluate.Report) string {
	name := rep.PredictorName
	if name == "" {
		name = "UnknownPredictor"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// #endregion metrics

// #region raw

// SaveRaw dumps captured response payloads into dir, one file per
// window, with the extension matching the response format.
func SaveRaw(dir string, rep *evaluate.Report, respFormat string) error {
	ext := ".json"
	if strings.Contains(respFormat, "msgpack") {
		ext = ".msgpack"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w", dir, err)
	}
	for _, row := range rep.Windows {
		if len(row.Raw) == 0 {
			continue
		}
		name := fmt.Sprintf("%s_%s_%d_%d%s",
			predictorLabel(rep), row.Window.Chrom, row.Window.Start, row.Window.End, ext)
		if err := os.WriteFile(filepath.Join(dir, name), row.Raw, 0o644); err != nil {
			return fmt.Errorf("report: save raw payload: %w", err)
		}
	}
	return nil
}

// #endregion raw

// #region filenames

// TableFilename names the per-window report file for a run.
func TableFilename(rep *evaluate.Report) string {
	return fmt.Sprintf("%s_windows_from_%s.tsv", rep.Set.Name, predictorLabel(rep))
}

// MetricsFilename names the aggregate metrics file for a run.
func MetricsFilename(rep *evaluate.Report) string {
	return fmt.Sprintf("%s_from_%s.csv", rep.Set.Name, predictorLabel(rep))
}

// #endregion filenames
