package crossover

import (
	"context"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/domain/track"
)

// SampleLoader reads one satellite's quality-filtered samples for a range of days.
// It returns domain.ErrNoInputData when no input file falls in the range.
type SampleLoader interface {
	Load(ctx context.Context, version, satellite string, days domain.DateRange) ([]track.Sample, record.Inputs, error)
}

// RecordWriter persists a day's crossovers and returns where they were stored.
type RecordWriter interface {
	Write(ctx context.Context, key record.FileKey, records []record.Record, meta record.Metadata) (string, error)
}

// StageStore records the outcome of a processed day.
type StageStore interface {
	Set(ctx context.Context, name, field string, stage job.Stage) error
}
