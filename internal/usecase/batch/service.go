package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/logger"
	"github.com/kailas-cloud/xover/internal/metrics"
)

// MaxBatchSize is the maximum number of jobs per batch request.
const MaxBatchSize = 1000

// Report is the outcome of one batch run.
type Report struct {
	RunID   string
	Results []job.Result
}

// Failures returns the ids of items that failed and should be retried.
func (r Report) Failures() []string { return job.Failures(r.Results) }

// RangeRequest asks for every day in [First, Last) between two sources.
type RangeRequest struct {
	Source1    string
	Source2    string
	Version    string
	Processing string
	First      time.Time
	Last       time.Time
}

// Service runs batches of day jobs on a fixed pool of workers.
// Days are independent; each worker builds its own windows.
type Service struct {
	days         DayProcessor
	availability AvailabilityReader
	workers      int
	maxBatchSize int
}

// New creates a batch service. workers <= 0 uses one worker per CPU.
func New(days DayProcessor, availability AvailabilityReader, workers int) *Service {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Service{
		days:         days,
		availability: availability,
		workers:      workers,
		maxBatchSize: MaxBatchSize,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Run parses and processes a batch of requests. Results follow the request order.
// Unparseable requests are reported as invalid and never reach a worker.
// Cancelling ctx stops dispatching new days; undispatched days report the context error.
func (s *Service) Run(ctx context.Context, reqs []job.Request) Report {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With(zap.String("run_id", runID))
	ctx = logger.ContextWithLogger(ctx, log)

	results := make([]job.Result, len(reqs))

	if len(reqs) > s.maxBatchSize {
		for i, r := range reqs {
			results[i] = job.NewInvalid(r.ID, fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidJob))
		}
		return Report{RunID: runID, Results: results}
	}

	jobs := make([]job.Job, 0, len(reqs))
	index := make([]int, 0, len(reqs))
	for i, r := range reqs {
		j, err := job.Parse(r)
		if err != nil {
			log.Error("Rejected job", zap.String("id", r.ID), zap.Error(err))
			metrics.DaysProcessedTotal.WithLabelValues(string(job.StatusInvalid)).Inc()
			results[i] = job.NewInvalid(r.ID, err)
			continue
		}
		jobs = append(jobs, j)
		index = append(index, i)
	}

	log.Info("Batch started", zap.Int("jobs", len(jobs)), zap.Int("workers", s.workers))
	start := time.Now()

	for k, res := range s.runJobs(ctx, jobs) {
		results[index[k]] = res
	}

	failed := len(job.Failures(results))
	log.Info("Batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
	return Report{RunID: runID, Results: results}
}

// RunRange processes every day in [First, Last) for which both sources have input files.
func (s *Service) RunRange(ctx context.Context, rr RangeRequest) (Report, error) {
	if rr.Source2 == "" {
		rr.Source2 = rr.Source1
	}
	days, err := s.clamp(ctx, rr)
	if err != nil {
		return Report{}, err
	}

	reqs := make([]job.Request, 0, days.Days()+1)
	for d := days.First; !d.After(days.Last); d = d.AddDate(0, 0, 1) {
		reqs = append(reqs, job.Request{
			Date:       d.Format(time.DateOnly),
			Source:     rr.Source1,
			Source2:    rr.Source2,
			DFVersion:  rr.Version,
			Processing: rr.Processing,
		})
	}
	if len(reqs) > s.maxBatchSize {
		return Report{}, fmt.Errorf("range of %d days exceeds %d: %w", len(reqs), s.maxBatchSize, domain.ErrInvalidJob)
	}
	return s.Run(ctx, reqs), nil
}

// clamp narrows [First, Last) to the days where both sources have data.
func (s *Service) clamp(ctx context.Context, rr RangeRequest) (domain.DateRange, error) {
	if !rr.Last.After(rr.First) {
		return domain.DateRange{}, fmt.Errorf("empty range %s..%s: %w",
			rr.First.Format(time.DateOnly), rr.Last.Format(time.DateOnly), domain.ErrInvalidJob)
	}
	days := domain.NewDateRange(rr.First, rr.Last.Add(-domain.Day))

	sats := []string{rr.Source1}
	if rr.Source2 != rr.Source1 {
		sats = append(sats, rr.Source2)
	}
	for _, sat := range sats {
		avail, err := s.availability.Available(ctx, rr.Version, sat)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("availability of %s: %w", sat, err)
		}
		var ok bool
		if days, ok = days.Intersect(avail); !ok {
			return domain.DateRange{}, fmt.Errorf("no %s data between %s and %s: %w",
				sat, rr.First.Format(time.DateOnly), rr.Last.Format(time.DateOnly), domain.ErrNoInputData)
		}
	}
	return days, nil
}

type dayTask struct {
	pos int
	job job.Job
}

type dayResult struct {
	pos    int
	result job.Result
}

// runJobs fans the jobs out to the worker pool and returns results in job order.
func (s *Service) runJobs(ctx context.Context, jobs []job.Job) []job.Result {
	out := make([]job.Result, len(jobs))
	if len(jobs) == 0 {
		return out
	}
	done := make([]bool, len(jobs))

	tasks := make(chan dayTask, s.workers*2)
	results := make(chan dayResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results <- dayResult{pos: t.pos, result: s.runDay(ctx, t.job)}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for pos, j := range jobs {
			select {
			case tasks <- dayTask{pos: pos, job: j}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.pos] = r.result
		done[r.pos] = true
	}

	for pos, ok := range done {
		if !ok {
			out[pos] = job.NewError(jobs[pos].ID, fmt.Errorf("not started: %w", ctx.Err()))
		}
	}
	return out
}

func (s *Service) runDay(ctx context.Context, j job.Job) job.Result {
	if err := ctx.Err(); err != nil {
		return job.NewError(j.ID, fmt.Errorf("not started: %w", err))
	}
	start := time.Now()
	out, err := s.days.Process(ctx, j)
	if err != nil {
		return job.NewError(j.ID, err)
	}
	return job.NewOK(j.ID, out.Crossovers, time.Since(start))
}
