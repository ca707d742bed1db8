package xover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/db"
	dbRedis "github.com/kailas-cloud/xover/internal/db/redis"
	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/logger"
	crossoverrepo "github.com/kailas-cloud/xover/internal/repository/crossover"
	"github.com/kailas-cloud/xover/internal/repository/dailyfile"
	stagerepo "github.com/kailas-cloud/xover/internal/repository/stage"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	crossoveruc "github.com/kailas-cloud/xover/internal/usecase/crossover"
	healthuc "github.com/kailas-cloud/xover/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "xover:"
)

// Internal interfaces so tests can substitute the engine.
type dayUseCase interface {
	Process(ctx context.Context, j job.Job) (crossoveruc.Outcome, error)
}

type batchUseCase interface {
	Run(ctx context.Context, reqs []job.Request) batchuc.Report
	RunRange(ctx context.Context, rr batchuc.RangeRequest) (batchuc.Report, error)
}

type crossoverReader interface {
	Read(ctx context.Context, key record.FileKey) ([]record.Record, record.Metadata, error)
}

type stageReader interface {
	Get(ctx context.Context, name string) (map[string]job.Stage, error)
}

// Client is the xover SDK entry point.
type Client struct {
	store      db.Store // nil without WithRedis
	daySvc     dayUseCase
	batchSvc   batchUseCase
	crossovers crossoverReader
	stages     stageReader // nil without WithRedis
	healthSvc  healthUseCase
	log        *zap.Logger
	obs        *observer
}

// New creates a Client. With WithRedis it connects to the database and
// the provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dailyDir == "" {
		return nil, errors.New("xover: daily files directory required (use WithDailyFiles)")
	}
	if cfg.crossoversDir == "" {
		return nil, errors.New("xover: crossovers directory required (use WithCrossoversDir)")
	}
	searchOpts, err := cfg.options()
	if err != nil {
		return nil, fmt.Errorf("xover: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if len(cfg.addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("xover: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("xover: database not ready: %w", err)
		}
	}

	return wireClient(store, cfg, searchOpts, obs), nil
}

// options applies the overrides to the default search settings.
func (cfg *clientConfig) options() (domain.Options, error) {
	opts := domain.DefaultOptions()
	if !cfg.epoch.IsZero() {
		opts.Epoch = cfg.epoch.UTC()
	}
	if cfg.windowSize != 0 {
		opts.WindowSizeDays = cfg.windowSize
	}
	if cfg.windowPadding != nil {
		opts.WindowPaddingDays = *cfg.windowPadding
	}
	if cfg.cycleLength != 0 {
		opts.CycleLengthDays = cfg.cycleLength
	}
	if cfg.kmCutoff != 0 {
		opts.KMCutoff = cfg.kmCutoff
	}
	if cfg.maxPerDay != 0 {
		opts.MaxCrossoversPerDay = cfg.maxPerDay
	}
	return opts, opts.Validate()
}

func wireClient(store *dbRedis.Store, cfg *clientConfig, opts domain.Options, obs *observer) *Client {
	daily := dailyfile.New(cfg.dailyDir)
	for name, s := range cfg.satellites {
		daily.WithSatellite(name, s.reader())
	}
	crossovers := crossoverrepo.New(cfg.crossoversDir)

	c := &Client{
		crossovers: crossovers,
		log:        cfg.zapLogger,
		obs:        obs,
	}

	// Interfaces stay nil rather than holding a nil *Store.
	var stageStore crossoveruc.StageStore
	var pinger healthuc.DBPinger
	if store != nil {
		stages := stagerepo.New(store, cfg.keyPrefix)
		c.store, c.stages = store, stages
		stageStore, pinger = stages, store
	}

	days := crossoveruc.New(daily, crossovers, stageStore, opts)
	c.daySvc = days
	c.batchSvc = batchuc.New(days, daily, cfg.workers).WithMaxBatchSize(cfg.maxBatchSize)
	c.healthSvc = healthuc.New(pinger).
		WithStorage("daily_files", daily).
		WithStorage("crossovers", crossovers)
	return c
}

func (s Satellite) reader() dailyfile.Satellite {
	out := dailyfile.DefaultSatellite()
	if s.RawSSH {
		out.SSHColumn = dailyfile.ColumnSSH
	}
	if s.FillValue != 0 {
		out.FillValue = s.FillValue
	}
	out.UseFlag = s.UseFlag
	return out
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

func (c *Client) context(ctx context.Context) context.Context {
	if c.log == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.log)
}

// ProcessDay finds, writes and returns the summary of one day's crossovers.
func (c *Client) ProcessDay(ctx context.Context, j Job) (res DayResult, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("process_day", start, err,
			slog.String("day", j.Day.Format(time.DateOnly)), slog.String("source", j.Source))
	}()

	parsed, err := job.Parse(j.request())
	if err != nil {
		return DayResult{}, err
	}
	out, err := c.daySvc.Process(c.context(ctx), parsed)
	if err != nil {
		return DayResult{}, fmt.Errorf("process day: %w", err)
	}
	return dayResultFromOutcome(parsed.Day, out), nil
}

// Run processes a batch of days concurrently. Results follow the job order.
func (c *Client) Run(ctx context.Context, jobs []Job) Report {
	start := time.Now()

	reqs := make([]job.Request, len(jobs))
	for i, j := range jobs {
		reqs[i] = j.request()
	}
	report := reportFromBatch(c.batchSvc.Run(c.context(ctx), reqs))

	var err error
	if n := len(report.Failures); n > 0 {
		err = fmt.Errorf("%d of %d days failed", n, len(jobs))
	}
	c.obs.observe("run", start, err, slog.Int("jobs", len(jobs)))
	return report
}

// RunRange processes every day in [First, Last) for which both sources have input files.
func (c *Client) RunRange(ctx context.Context, r RangeJob) (report Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("run_range", start, err, slog.String("source", r.Source)) }()

	br, err := c.batchSvc.RunRange(c.context(ctx), r.request())
	if err != nil {
		return Report{}, fmt.Errorf("run range: %w", err)
	}
	return reportFromBatch(br), nil
}

// Crossovers reads back the file written for one day.
// An empty sat2 reads sat1's self-crossovers.
func (c *Client) Crossovers(
	ctx context.Context, version, sat1, sat2 string, day time.Time,
) (rows []Crossover, meta Metadata, err error) {
	start := time.Now()
	defer func() { c.obs.observe("crossovers", start, err) }()

	if sat2 == "" {
		sat2 = sat1
	}
	key := record.FileKey{Version: version, Sat1: sat1, Sat2: sat2, Day: domain.TruncateDay(day)}
	recs, m, err := c.crossovers.Read(ctx, key)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("read crossovers: %w", err)
	}
	return crossoversFromRecords(recs), metadataFromRecord(m), nil
}

// Stages returns the recorded status of every processed day of a daily file version,
// keyed by "<sources>_<date>".
func (c *Client) Stages(ctx context.Context, version string) (stages map[string]string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stages", start, err) }()

	if c.stages == nil {
		return nil, ErrStagesDisabled
	}
	got, err := c.stages.Get(ctx, job.StageName(version))
	if err != nil {
		return nil, fmt.Errorf("get stages: %w", err)
	}
	out := make(map[string]string, len(got))
	for k, v := range got {
		out[k] = string(v)
	}
	return out, nil
}
