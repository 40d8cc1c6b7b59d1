package main

// #region imports
import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hiceval/internal/config"
	"hiceval/internal/evaluate"
	"hiceval/internal/genome"
	"hiceval/internal/measured"
	"hiceval/internal/predict"
	"hiceval/internal/report"
	"hiceval/internal/results"
)

// #endregion

// #region main

func main() {
	setName := flag.String("set", "", "evaluator set (test-chr8, test-chr9, validation-chr10, or a name from -sets-file)")
	setsFile := flag.String("sets-file", "", "YAML file with additional evaluator sets")
	predictorAddr := flag.String("predictor", envOr("HICEVAL_PREDICTOR", ""), "predictor address (host:port or URL)")
	fastaPath := flag.String("fasta", envOr("HICEVAL_FASTA", ""), "reference genome FASTA (.fa or .fa.gz)")
	measuredPath := flag.String("measured", "", "measured Hi-C matrices (.npz keyed by window region)")
	outDir := flag.String("out", "out", "output directory")
	dbPath := flag.String("db", "", "optional SQLite run-history database")
	windowSize := flag.Int("window", config.DefaultWindowSize, "window size in bases")
	stride := flag.Int("stride", 0, "stride in bases (default: window size)")
	workers := flag.Int("workers", 1, "parallel windows")
	timeout := flag.Duration("timeout", 60*time.Second, "per-call predictor timeout")
	retries := flag.Int("retries", 5, "retries after a connection failure (0 disables)")
	retryInterval := flag.Duration("retry-interval", 2*time.Second, "wait between connection retries")
	region := flag.String("region", "", "restrict each chromosome to START-END (0-based, half-open)")
	saveRaw := flag.Bool("save-raw", false, "save raw predictor payloads per window")
	includePartial := flag.Bool("include-partial", false, "score clamped trailing windows")
	verbose := flag.Bool("verbose", false, "per-window debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *setName == "" || *predictorAddr == "" || *fastaPath == "" || *measuredPath == "" {
		fmt.Fprintln(os.Stderr, "usage: hiceval -set NAME -predictor HOST:PORT -fasta ref.fa -measured hic.npz [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	os.Exit(run(log, options{
		setName:        *setName,
		setsFile:       *setsFile,
		predictorAddr:  *predictorAddr,
		fastaPath:      *fastaPath,
		measuredPath:   *measuredPath,
		outDir:         *outDir,
		dbPath:         *dbPath,
		windowSize:     *windowSize,
		stride:         *stride,
		workers:        *workers,
		timeout:        *timeout,
		retries:        *retries,
		retryInterval:  *retryInterval,
		region:         *region,
		saveRaw:        *saveRaw,
		includePartial: *includePartial,
	}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion main

// #region run

type options struct {
	setName, setsFile       string
	predictorAddr           string
	fastaPath, measuredPath string
	outDir, dbPath          string
	region                  string
	windowSize, stride      int
	workers                 int
	timeout, retryInterval  time.Duration
	retries                 int
	saveRaw, includePartial bool
}

// run returns the process exit code: 0 for a completed run (failed
// windows included), 2 for configuration errors, 1 for everything
// else fatal.
func run(log *logrus.Logger, opts options) int {
	sets := config.BuiltinSets()
	if opts.setsFile != "" {
		extra, err := config.LoadSets(opts.setsFile)
		if err != nil {
			log.Error(err)
			return 2
		}
		sets = append(sets, extra...)
	}
	set, err := config.FindSet(sets, opts.setName)
	if err != nil {
		log.Error(err)
		return 2
	}

	params := config.Params{
		WindowSize:     opts.windowSize,
		Stride:         opts.stride,
		IncludePartial: opts.includePartial,
	}
	if params.Stride == 0 {
		params.Stride = params.WindowSize
	}
	if err := params.Validate(); err != nil {
		log.Error(err)
		return 2
	}
	var region *config.Region
	if opts.region != "" {
		r, err := config.ParseRegion(opts.region)
		if err != nil {
			log.Error(err)
			return 2
		}
		region = &r
	}

	log.WithField("fasta", opts.fastaPath).Info("loading reference genome")
	ref, err := genome.OpenFasta(opts.fastaPath)
	if err != nil {
		log.Error(err)
		return 1
	}
	meas, err := measured.OpenNPZ(opts.measuredPath)
	if err != nil {
		log.Error(err)
		return 1
	}
	defer meas.Close()

	var store *results.Store
	if opts.dbPath != "" {
		if store, err = results.NewStore(opts.dbPath); err != nil {
			log.Errorf("open run history: %v", err)
			return 1
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := predict.NewClient(opts.predictorAddr, predict.Options{
		Timeout:       opts.timeout,
		Retries:       opts.retries,
		RetryInterval: opts.retryInterval,
		Log:           log,
	})
	if err := client.Negotiate(ctx); err != nil {
		log.Errorf("format negotiation with predictor failed: %v", err)
		return 1
	}

	ev := &evaluate.Evaluator{
		Genome:     ref,
		Measured:   meas,
		Predictor:  client,
		Params:     params,
		Region:     region,
		Workers:    opts.workers,
		CaptureRaw: opts.saveRaw,
		Log:        log,
	}

	rep, err := ev.Run(ctx, set)
	aborted := false
	if err != nil {
		var cfgErr *config.Error
		switch {
		case errors.As(err, &cfgErr):
			log.Error(err)
			return 2
		case rep != nil:
			// Canceled mid-run: keep the partial report.
			log.Warn(err)
			aborted = true
		default:
			log.Error(err)
			return 1
		}
	}

	if err := writeOutputs(log, opts, client, rep); err != nil {
		log.Error(err)
		return 1
	}
	if store != nil {
		if err := store.SaveReport(rep); err != nil {
			log.Errorf("save run history: %v", err)
			return 1
		}
	}
	if aborted {
		return 1
	}
	return 0
}

// #endregion run

// #region outputs

func writeOutputs(log *logrus.Logger, opts options, client *predict.Client, rep *evaluate.Report) error {
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tablePath := filepath.Join(opts.outDir, report.TableFilename(rep))
	tf, err := os.Create(tablePath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteTable(tf, rep); err != nil {
		tf.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tf.Close(); err != nil {
		return err
	}

	// Metrics accumulate across runs, one row per run.
	metricsPath := filepath.Join(opts.outDir, report.MetricsFilename(rep))
	if err := report.AppendMetricsRow(metricsPath, rep); err != nil {
		return err
	}

	if opts.saveRaw {
		_, respFormat := client.Formats()
		if err := report.SaveRaw(filepath.Join(opts.outDir, "raw"), rep, respFormat); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"report":  tablePath,
		"metrics": metricsPath,
	}).Info("outputs written")
	return nil
}

// #endregion outputs
