package xover

import (
	"time"

	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	crossoveruc "github.com/kailas-cloud/xover/internal/usecase/crossover"
)

// Job asks for one day's crossovers between Source and Source2.
// An empty Source2 searches Source's self-crossovers.
type Job struct {
	ID         string
	Day        time.Time
	Source     string
	Source2    string
	Version    string // daily file version, e.g. "p3"
	Processing string // "update" (default) records the day's stage
}

// RangeJob asks for every day in [First, Last) that both sources have data for.
type RangeJob struct {
	Source     string
	Source2    string
	Version    string
	Processing string
	First      time.Time
	Last       time.Time
}

// DayResult summarizes one processed day.
type DayResult struct {
	Day                 time.Time
	Path                string
	Crossovers          int
	Evaluated           int
	MultipleSignChanges int
	Overflow            bool
}

// ItemResult is the outcome of one job in a batch.
type ItemResult struct {
	ID         string
	Status     string // "ok", "invalid", "error"
	Crossovers int
	Elapsed    time.Duration
	Err        error
}

// Report is the outcome of a batch.
type Report struct {
	RunID    string
	Items    []ItemResult
	Failures []string // ids worth retrying
}

// Crossover is one intersection of two passes. Times are nanoseconds since the epoch.
type Crossover struct {
	Time1  int64
	Time2  int64
	Lon    float64
	Lat    float64
	SSH1   float64
	SSH2   float64
	Cycle1 int32
	Pass1  int32
	Cycle2 int32
	Pass2  int32
}

// Metadata describes a day's crossover file.
type Metadata struct {
	Title                       string
	Subtitle                    string
	WindowLength                string
	CreatedOn                   time.Time
	InputFilenames              string
	InputHistories              string
	InputProductGenerationSteps string
	SatelliteNames              string
	TimeUnits                   string
}

func (j Job) request() job.Request {
	r := job.Request{
		ID:         j.ID,
		Source:     j.Source,
		Source2:    j.Source2,
		DFVersion:  j.Version,
		Processing: j.Processing,
	}
	if !j.Day.IsZero() {
		r.Date = j.Day.Format(time.DateOnly)
	}
	return r
}

func (r RangeJob) request() batchuc.RangeRequest {
	return batchuc.RangeRequest{
		Source1:    r.Source,
		Source2:    r.Source2,
		Version:    r.Version,
		Processing: r.Processing,
		First:      r.First,
		Last:       r.Last,
	}
}

func dayResultFromOutcome(day time.Time, o crossoveruc.Outcome) DayResult {
	return DayResult{
		Day:                 day,
		Path:                o.Path,
		Crossovers:          o.Crossovers,
		Evaluated:           o.Evaluated,
		MultipleSignChanges: o.MultipleSignChanges,
		Overflow:            o.Overflow,
	}
}

func reportFromBatch(r batchuc.Report) Report {
	out := Report{
		RunID:    r.RunID,
		Items:    make([]ItemResult, len(r.Results)),
		Failures: r.Failures(),
	}
	for i, res := range r.Results {
		out.Items[i] = ItemResult{
			ID:         res.ID(),
			Status:     string(res.Status()),
			Crossovers: res.Crossovers(),
			Elapsed:    res.Elapsed(),
			Err:        res.Err(),
		}
	}
	return out
}

func crossoversFromRecords(rs []record.Record) []Crossover {
	out := make([]Crossover, len(rs))
	for i, r := range rs {
		out[i] = Crossover(r)
	}
	return out
}

func metadataFromRecord(m record.Metadata) Metadata {
	return Metadata(m)
}
