package xover

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dailyDir      string
	crossoversDir string

	addrs     []string
	password  string
	keyPrefix string

	epoch         time.Time
	windowSize    int
	windowPadding *int
	cycleLength   float64
	kmCutoff      float64
	maxPerDay     int

	satellites   map[string]Satellite
	workers      int
	maxBatchSize int

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// Satellite configures how one source's daily files are read.
type Satellite struct {
	// RawSSH reads the unsmoothed height column.
	RawSSH bool
	// FillValue marks missing heights. Zero keeps the float64 maximum.
	FillValue float64
	// UseFlag drops raw samples with a non-zero quality flag. It has no
	// effect on smoothed heights.
	UseFlag bool
}

// WithDailyFiles sets the root of the daily input files. Required.
func WithDailyFiles(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyDir = dir
	})
}

// WithCrossoversDir sets where per-day crossover files are written. Required.
func WithCrossoversDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.crossoversDir = dir
	})
}

// WithRedis enables stage bookkeeping on a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the prefix of stage keys. Default: "xover:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEpoch sets the reference time of crossover timestamps.
// Default: 1990-01-01T00:00:00Z.
func WithEpoch(t time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.epoch = t
	})
}

// WithWindow sets the nominal window length and its padding, in days.
// Defaults: 10 and 2.
func WithWindow(sizeDays, paddingDays int) Option {
	return optionFunc(func(c *clientConfig) {
		c.windowSize = sizeDays
		c.windowPadding = &paddingDays
	})
}

// WithCycleLength sets the repeat cycle used for cross-satellite windows.
func WithCycleLength(days float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.cycleLength = days
	})
}

// WithKMCutoff sets the maximum distance between a crossover and its bracketing samples.
func WithKMCutoff(km float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.kmCutoff = km
	})
}

// WithMaxCrossoversPerDay sets the count above which a day is flagged as overflowing.
func WithMaxCrossoversPerDay(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxPerDay = n
	})
}

// WithSatellite overrides the read settings of one source.
func WithSatellite(name string, s Satellite) Option {
	return optionFunc(func(c *clientConfig) {
		if c.satellites == nil {
			c.satellites = make(map[string]Satellite)
		}
		c.satellites[name] = s
	})
}

// WithWorkers sets the number of days processed concurrently. Default: one per CPU.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithMaxBatchSize sets the maximum number of days per batch. Default: 1000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZapLogger passes a zap logger to the engine for per-day logs.
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
