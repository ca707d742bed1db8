package crossover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/domain/track"
	"github.com/kailas-cloud/xover/internal/logger"
	"github.com/kailas-cloud/xover/internal/metrics"
)

// Outcome summarizes one processed day.
type Outcome struct {
	Path                string
	Crossovers          int
	Evaluated           int
	MultipleSignChanges int
	Overflow            bool
	Samples1            int
	Samples2            int
}

// Service runs the crossover search for single days.
type Service struct {
	loader SampleLoader
	writer RecordWriter
	stages StageStore
	opts   domain.Options
	now    func() time.Time
}

// New creates a crossover service. stages can be nil when stage bookkeeping is disabled.
func New(loader SampleLoader, writer RecordWriter, stages StageStore, opts domain.Options) *Service {
	return &Service{
		loader: loader,
		writer: writer,
		stages: stages,
		opts:   opts,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for output timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Options returns the base search settings.
func (s *Service) Options() domain.Options { return s.opts }

// Process finds and writes the crossovers of one job's day.
// For update jobs the outcome is recorded as Complete or Failed.
func (s *Service) Process(ctx context.Context, j job.Job) (Outcome, error) {
	log := logger.FromContext(ctx).With(
		zap.String("day", j.Day.Format(time.DateOnly)),
		zap.String("satellites", j.Sources()),
		zap.String("version", j.Version),
	)
	ctx = logger.ContextWithLogger(ctx, log)

	start := time.Now()
	out, err := s.processDay(ctx, j)
	metrics.DayDuration.WithLabelValues(j.Sources()).Observe(time.Since(start).Seconds())

	if j.UpdatesStage() && s.stages != nil {
		stage := job.StageComplete
		if err != nil {
			stage = job.StageFailed
		}
		if serr := s.stages.Set(ctx, j.StageName(), j.StageField(), stage); serr != nil {
			log.Error("Stage update failed", zap.String("stage", string(stage)), zap.Error(serr))
			err = errors.Join(err, fmt.Errorf("update stage: %w", serr))
		}
	}

	if err != nil {
		metrics.DaysProcessedTotal.WithLabelValues(string(job.StatusError)).Inc()
		log.Error("Day failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return out, domain.NewDayError(j.Day, err)
	}

	metrics.DaysProcessedTotal.WithLabelValues(string(job.StatusOK)).Inc()
	metrics.CrossoversTotal.WithLabelValues(j.Sources()).Add(float64(out.Crossovers))
	log.Info("Day complete",
		zap.Int("crossovers", out.Crossovers),
		zap.Int("pairs", out.Evaluated),
		zap.String("path", out.Path),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (s *Service) processDay(ctx context.Context, j job.Job) (Outcome, error) {
	log := logger.FromContext(ctx)
	opts := s.opts.ForSatellites(j.Source1, j.Source2)
	r1, r2 := opts.SearchWindows(j.Day)
	key := record.FileKey{Version: j.Version, Sat1: j.Source1, Sat2: j.Source2, Day: domain.TruncateDay(j.Day)}

	w1, in, err := s.window(ctx, j.Version, j.Source1, r1)
	if errors.Is(err, domain.ErrNoInputData) {
		log.Warn("No input files for day, writing empty output", zap.String("satellite", j.Source1))
		return s.write(ctx, key, nil, record.NewMetadata(opts, j.Source1, j.Source2, r1.Days(), record.Inputs{}, s.now()))
	}
	if err != nil {
		return Outcome{}, err
	}

	w2 := w1
	if !opts.SelfCrossovers {
		var in2 record.Inputs
		w2, in2, err = s.window(ctx, j.Version, j.Source2, r2)
		if errors.Is(err, domain.ErrNoInputData) {
			log.Warn("No input files for day, writing empty output", zap.String("satellite", j.Source2))
			return s.write(ctx, key, nil, record.NewMetadata(opts, j.Source1, j.Source2, r1.Days(), in, s.now()))
		}
		if err != nil {
			return Outcome{}, err
		}
		in = in.Merge(in2)
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("search: %w", err)
	}
	res := FindDayCrossovers(j.Day, w1, w2, opts)

	if res.MultipleSignChanges > 0 {
		metrics.AnomaliesTotal.WithLabelValues(metrics.AnomalyMultipleSignChanges).Add(float64(res.MultipleSignChanges))
		log.Warn("Pairs with more than one crossing candidate", zap.Int("count", res.MultipleSignChanges))
	}
	if res.Overflow {
		metrics.AnomaliesTotal.WithLabelValues(metrics.AnomalyDayOverflow).Inc()
		log.Warn("Crossovers exceed daily maximum",
			zap.Int("found", res.Found),
			zap.Int("max", opts.MaxCrossoversPerDay),
		)
	}
	pairs := float64(res.Evaluated)
	metrics.PairEvaluationsTotal.WithLabelValues("found").Add(float64(res.Found))
	metrics.PairEvaluationsTotal.WithLabelValues("rejected").Add(pairs - float64(res.Found))

	meta := record.NewMetadata(opts, j.Source1, j.Source2, r1.Days(), in, s.now())
	out, err := s.write(ctx, key, res.Records, meta)
	out.Evaluated = res.Evaluated
	out.MultipleSignChanges = res.MultipleSignChanges
	out.Overflow = res.Overflow
	out.Samples1 = w1.Len()
	out.Samples2 = w2.Len()
	return out, err
}

func (s *Service) window(
	ctx context.Context, version, satellite string, days domain.DateRange,
) (*track.Window, record.Inputs, error) {
	samples, in, err := s.loader.Load(ctx, version, satellite, days)
	if err != nil {
		return nil, record.Inputs{}, fmt.Errorf("load %s: %w", satellite, err)
	}
	metrics.WindowSamples.WithLabelValues(satellite).Observe(float64(len(samples)))

	w, err := track.NewWindow(satellite, days.First, days.Last, samples)
	if err != nil {
		return nil, record.Inputs{}, fmt.Errorf("build %s window: %w", satellite, err)
	}
	return w, in, nil
}

func (s *Service) write(
	ctx context.Context, key record.FileKey, records []record.Record, meta record.Metadata,
) (Outcome, error) {
	if records == nil {
		records = []record.Record{}
	}
	path, err := s.writer.Write(ctx, key, records, meta)
	if err != nil {
		return Outcome{}, fmt.Errorf("write crossovers: %w", err)
	}
	return Outcome{Path: path, Crossovers: len(records)}, nil
}
