package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/loader"
	"iris-ml/internal/metrics"
	"iris-ml/internal/pipeline"
	"iris-ml/internal/report"
	"iris-ml/internal/sink"
	"iris-ml/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config (defaults to CONFIG_FILE or environment)")
		input       = flag.String("input", "", "CSV or JSON-lines input file (overrides database source)")
		outputPath  = flag.String("output", "", "Output directory for reports")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		metricsPort = flag.Int("metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")
		timeout     = flag.Duration("timeout", 0, "Abort the run after this duration (0 uses config)")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c, err := loadSettings(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *outputPath != "" {
		c.OutputPath = *outputPath
	}
	if *metricsPort != 0 {
		c.MetricsPort = *metricsPort
	}
	if *timeout != 0 {
		c.RunTimeout = *timeout
	}
	if err := c.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	fmt.Println("=== Conditioning Configuration ===")
	fmt.Printf("Input: %s\n", describeInput(c, *input))
	fmt.Printf("Target: %s (%s)\n", c.TargetField, c.ModelKind)
	fmt.Printf("Balancing: %s (order %d)\n", c.Balancing.Method, c.Balancing.ExecutionOrder)
	fmt.Printf("Selection: %s (order %d)\n", c.Selection.Method, c.Selection.ExecutionOrder)
	fmt.Printf("Sink: %s\n", c.Sink.Kind)
	fmt.Printf("Output Directory: %s\n", c.OutputPath)
	fmt.Println("==================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.MetricsPort > 0 {
		startMetricsServer(ctx, c.MetricsPort)
	}

	store := initializeStorage(c, *input)
	if store != nil {
		defer store.Close()
	}

	src, closeSource, err := loader.Open(c, *input, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data source")
	}
	defer closeSource()

	out, closeSink, err := sink.New(c, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sink")
	}
	defer closeSink()

	if c.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RunTimeout)
		defer cancel()
	}

	res, err := run(ctx, c, src, out)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Fatal().Dur("timeout", c.RunTimeout).Msg("Conditioning timed out")
		}
		log.Fatal().Err(err).Msg("Conditioning failed")
	}

	if store != nil {
		if err := store.SaveRun(res.Summary()); err != nil {
			log.Warn().Err(err).Msg("Failed to save run summary")
		}
	}

	reporter := report.NewReporter(res, c.OutputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Error().Err(err).Msg("Failed to generate reports")
	}
	reporter.PrintSummary(os.Stdout)

	log.Info().
		Str("run_id", res.RunID()).
		Str("output", c.OutputPath).
		Msg("Conditioning completed successfully")
}

func loadSettings(path string) (cfg.Settings, error) {
	if path != "" {
		return cfg.LoadFile(path)
	}
	return cfg.Load()
}

type outcome struct {
	res *pipeline.ProcessedDataset
	err error
}

// run loads the source and conditions it in a goroutine raced against ctx,
// so a stage that never checks ctx still cannot outlive the deadline.
func run(ctx context.Context, c cfg.Settings, src loader.Source, out pipeline.Sink) (*pipeline.ProcessedDataset, error) {
	total, err := src.Count(ctx, c.Database.Where)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	if total == 0 {
		return nil, errors.New("no rows match the configured source")
	}
	log.Info().Int64("rows", total).Msg("Rows available")

	candidates := c.CandidateFeatures()
	d, err := src.Load(ctx, candidates, c.TargetField, c.Database.Where)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}

	output := pipeline.Output{ModelKind: c.ModelKind}
	if c.Sink.Kind != cfg.SinkNone {
		output.Table = c.Database.OutputTableName
	}
	conditioner := pipeline.New(output, out, metrics.NewWrapper(metrics.New()))

	done := make(chan outcome, 1)
	go func() {
		res, err := conditioner.Condition(ctx, d, candidates, c.TargetField, c.Balancing, c.Selection)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// initializeStorage opens the embedded store for run history and bolt
// sources or sinks. Failure only matters when bolt is actually configured.
func initializeStorage(c cfg.Settings, input string) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("Failed to create data directory, continuing without persistence")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		needed := c.Sink.Kind == cfg.SinkBolt || (input == "" && c.Database.Driver == cfg.DriverBolt)
		if needed {
			log.Fatal().Err(err).Msg("Failed to open storage")
		}
		log.Warn().Err(err).Msg("Storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// startMetricsServer serves /metrics and /health until ctx is done.
func startMetricsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown metrics server")
		}
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	log.Info().Int("port", port).Msg("Metrics server started")
}

func describeInput(c cfg.Settings, input string) string {
	switch {
	case input != "":
		return input
	case c.Database.Driver == cfg.DriverBolt:
		return fmt.Sprintf("bolt table %s", c.Database.TableName)
	case c.Database.Driver != "":
		return fmt.Sprintf("%s table %s", c.Database.Driver, c.Database.TableName)
	default:
		return "none"
	}
}
