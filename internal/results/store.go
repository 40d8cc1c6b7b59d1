// Package results persists per-window and aggregate scores across
// evaluation runs in SQLite.
package results

// #region imports
import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"hiceval/internal/evaluate"
	"hiceval/internal/tile"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	set_name     TEXT NOT NULL,
	role         TEXT NOT NULL,
	predictor    TEXT,
	window_size  INTEGER NOT NULL,
	stride       INTEGER NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	mean_r       REAL,
	median_r     REAL,
	scored       INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	skipped      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS window_scores (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	chrom        TEXT NOT NULL,
	start        INTEGER NOT NULL,
	"end"        INTEGER NOT NULL,
	status       TEXT NOT NULL,
	failure      TEXT,
	reason       TEXT,
	correlation  REAL,
	valid_bins   INTEGER,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store-struct

// Store manages run history in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region save

// SaveReport inserts a run and its window rows atomically.
// NaN correlations are stored as NULL.
func (s *Store) SaveReport(rep *evaluate.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, set_name, role, predictor, window_size, stride,
		                   started_at, finished_at, mean_r, median_r, scored, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.Set.Name, string(rep.Set.Role), rep.PredictorName,
		rep.Params.WindowSize, rep.Params.Stride,
		rep.StartedAt.Format(time.RFC3339Nano), rep.FinishedAt.Format(time.RFC3339Nano),
		nullFloat(rep.MeanR), nullFloat(rep.MedianR),
		rep.ScoredWindows, rep.FailedWindows, rep.SkippedWindows,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, row := range rep.Windows {
		status := "scored"
		var corr sql.NullFloat64
		var bins sql.NullInt64
		switch {
		case row.Skipped:
			status = "skipped"
		case row.Failure != evaluate.FailureNone:
			status = "failed"
		default:
			corr = nullFloat(row.Score.Correlation)
			bins = sql.NullInt64{Int64: int64(row.Score.ValidBins), Valid: true}
		}
		_, err = tx.Exec(
			`INSERT INTO window_scores (run_id, chrom, start, "end", status, failure, reason, correlation, valid_bins)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID, row.Window.Chrom, row.Window.Start, row.Window.End,
			status, string(row.Failure), row.Reason, corr, bins,
		)
		if err != nil {
			return fmt.Errorf("insert window %s: %w", row.Window, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// #endregion save

// #region list

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID      string
	SetName    string
	Role       string
	Predictor  string
	FinishedAt time.Time
	MeanR      float64 // NaN when no window scored
	Scored     int
	Failed     int
	Skipped    int
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(last int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT run_id, set_name, role, predictor, finished_at, mean_r, scored, failed, skipped
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, last,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r        RunSummary
			finished string
			meanR    sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.SetName, &r.Role, &r.Predictor, &finished,
			&meanR, &r.Scored, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.MeanR = math.NaN()
		if meanR.Valid {
			r.MeanR = meanR.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion list

// #region windows

// WindowRow is one stored per-window result.
type WindowRow struct {
	Window      tile.Window
	Status      string
	Failure     string
	Reason      string
	Correlation float64 // NaN when unscored or undefined
	ValidBins   int
}

// RunWindows returns a run's window rows in ascending window order.
func (s *Store) RunWindows(runID string) ([]WindowRow, error) {
	rows, err := s.db.Query(
		`SELECT chrom, start, "end", status, failure, reason, correlation, valid_bins
		 FROM window_scores WHERE run_id = ? ORDER BY chrom, start`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("run windows: %w", err)
	}
	defer rows.Close()

	var out []WindowRow
	for rows.Next() {
		var (
			r    WindowRow
			corr sql.NullFloat64
			bins sql.NullInt64
		)
		if err := rows.Scan(&r.Window.Chrom, &r.Window.Start, &r.Window.End,
			&r.Status, &r.Failure, &r.Reason, &corr, &bins); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		r.Correlation = math.NaN()
		if corr.Valid {
			r.Correlation = corr.Float64
		}
		if bins.Valid {
			r.ValidBins = int(bins.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion windows
