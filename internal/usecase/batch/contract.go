package batch

import (
	"context"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/usecase/crossover"
)

// DayProcessor runs the crossover search for one day.
type DayProcessor interface {
	Process(ctx context.Context, j job.Job) (crossover.Outcome, error)
}

// AvailabilityReader reports the days for which a satellite has input files.
type AvailabilityReader interface {
	Available(ctx context.Context, version, satellite string) (domain.DateRange, error)
}
