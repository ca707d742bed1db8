// Command xover finds satellite altimetry crossovers.
//
//	xover [serve]                 run the HTTP API
//	xover run -source GSFC ...    process a range of days and print a JSON report
//	xover version                 print build metadata
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/config"
	logpkg "github.com/kailas-cloud/xover/internal/logger"
	"github.com/kailas-cloud/xover/internal/metrics"
	chiTransport "github.com/kailas-cloud/xover/internal/transport/chi"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	"github.com/kailas-cloud/xover/internal/version"
)

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(args)
	case "run":
		err = runRange(args, os.Stdout)
	case "version":
		fmt.Println(version.String())
	default:
		err = fmt.Errorf("unknown command %q (want serve, run or version)", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "xover:", err)
		os.Exit(1)
	}
}

// setup loads the config (from -config or config/<ENV>.yaml) and builds the logger.
func setup(configPath string) (config.Config, *zap.Logger, string, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, env, nil
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default config/<ENV>.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, env, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting xover API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	metrics.RegisterHTTPMetrics()

	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(a.server(), cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// runReport is the JSON printed by the run command.
type runReport struct {
	RunID    string      `json:"run_id"`
	Results  []runResult `json:"results"`
	Failures []string    `json:"failures"`
}

type runResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Crossovers int    `json:"crossovers"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	Error      string `json:"error,omitempty"`
}

func runRange(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default config/<ENV>.yaml)")
	source := fs.String("source", "", "first satellite (required)")
	source2 := fs.String("source2", "", "second satellite (default: same as -source)")
	dfVersion := fs.String("df-version", "", "daily file version (required)")
	processing := fs.String("processing", "", "processing mode (default: update)")
	first := fs.String("first-day", "", "first day, YYYY-MM-DD (required)")
	last := fs.String("last-day", "", "day after the last processed day, YYYY-MM-DD (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rr, err := rangeRequest(*source, *source2, *dfVersion, *processing, *first, *last)
	if err != nil {
		return err
	}

	cfg, logger, _, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.batch.RunRange(ctx, rr)
	if err != nil {
		return err
	}

	if err := writeReport(out, report); err != nil {
		return err
	}
	if n := len(report.Failures()); n > 0 {
		return fmt.Errorf("%d of %d days failed", n, len(report.Results))
	}
	return nil
}

func rangeRequest(source, source2, dfVersion, processing, first, last string) (batchuc.RangeRequest, error) {
	if source == "" || dfVersion == "" || first == "" || last == "" {
		return batchuc.RangeRequest{}, errors.New("-source, -df-version, -first-day and -last-day are required")
	}
	from, err := time.Parse(time.DateOnly, first)
	if err != nil {
		return batchuc.RangeRequest{}, fmt.Errorf("-first-day: %w", err)
	}
	to, err := time.Parse(time.DateOnly, last)
	if err != nil {
		return batchuc.RangeRequest{}, fmt.Errorf("-last-day: %w", err)
	}
	return batchuc.RangeRequest{
		Source1:    source,
		Source2:    source2,
		Version:    dfVersion,
		Processing: processing,
		First:      from,
		Last:       to,
	}, nil
}

func writeReport(w io.Writer, report batchuc.Report) error {
	out := runReport{
		RunID:    report.RunID,
		Results:  make([]runResult, 0, len(report.Results)),
		Failures: report.Failures(),
	}
	if out.Failures == nil {
		out.Failures = []string{}
	}
	for _, r := range report.Results {
		rr := runResult{
			ID:         r.ID(),
			Status:     string(r.Status()),
			Crossovers: r.Crossovers(),
			ElapsedMS:  r.Elapsed().Milliseconds(),
		}
		if err := r.Err(); err != nil {
			rr.Error = err.Error()
		}
		out.Results = append(out.Results, rr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
