package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/config"
	dbRedis "github.com/kailas-cloud/xover/internal/db/redis"
	"github.com/kailas-cloud/xover/internal/metrics"
	crossoverrepo "github.com/kailas-cloud/xover/internal/repository/crossover"
	"github.com/kailas-cloud/xover/internal/repository/dailyfile"
	stagerepo "github.com/kailas-cloud/xover/internal/repository/stage"
	chiTransport "github.com/kailas-cloud/xover/internal/transport/chi"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	crossoveruc "github.com/kailas-cloud/xover/internal/usecase/crossover"
	healthuc "github.com/kailas-cloud/xover/internal/usecase/health"
)

// app is the assembled service graph shared by serve and run.
type app struct {
	batch      *batchuc.Service
	health     *healthuc.Service
	crossovers *crossoverrepo.Repo
	stages     *stagerepo.Store // nil when the database is disabled
	close      func()
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterCrossoverMetrics()

	opts, err := cfg.Crossover.Options()
	if err != nil {
		return nil, err
	}

	a := &app{close: func() {}}

	var store *dbRedis.Store
	if cfg.Database.Driver == config.DriverRedis {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		a.close = store.Close

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		a.stages = stagerepo.New(store, cfg.Storage.KeyPrefix)
	} else {
		logger.Warn("Database disabled, stage bookkeeping is off")
	}

	daily := dailyfile.New(cfg.Storage.DailyFilesDir)
	for name, sc := range cfg.Satellites {
		daily.WithSatellite(name, satellite(sc))
	}
	a.crossovers = crossoverrepo.New(cfg.Storage.CrossoversDir)

	// nil interfaces, not typed nil pointers, when the database is off
	var stageStore crossoveruc.StageStore
	var pinger healthuc.DBPinger
	if a.stages != nil {
		stageStore = a.stages
		pinger = store
	}

	days := crossoveruc.New(daily, a.crossovers, stageStore, opts)
	a.batch = batchuc.New(days, daily, cfg.Workers).WithMaxBatchSize(cfg.Crossover.MaxBatchSize)
	a.health = healthuc.New(pinger).
		WithStorage("daily_files", daily).
		WithStorage("crossovers", a.crossovers)

	logger.Info("Crossover engine ready",
		zap.String("daily_files_dir", cfg.Storage.DailyFilesDir),
		zap.String("crossovers_dir", cfg.Storage.CrossoversDir),
		zap.Int("workers", cfg.Workers),
		zap.Int("window_size_days", opts.WindowSizeDays),
		zap.Float64("km_cutoff", opts.KMCutoff),
	)
	return a, nil
}

// server wires the HTTP transport onto the service graph.
func (a *app) server() *chiTransport.Server {
	var stages chiTransport.StageReader
	if a.stages != nil {
		stages = a.stages
	}
	return chiTransport.NewServer(a.batch, stages, a.crossovers, a.health)
}

// satellite converts the config section into reader settings.
func satellite(sc config.SatelliteConfig) dailyfile.Satellite {
	s := dailyfile.DefaultSatellite()
	if sc.SSHColumn == config.SSHRaw {
		s.SSHColumn = dailyfile.ColumnSSH
	}
	if sc.FillValue != nil {
		s.FillValue = *sc.FillValue
	}
	s.UseFlag = sc.UseFlag
	return s
}
