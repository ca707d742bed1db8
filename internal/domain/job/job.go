// Package job describes day-level crossover jobs and their bookkeeping.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/xover/internal/domain"
)

// Processing selects how a job interacts with stage bookkeeping.
type Processing string

// ProcessingUpdate is the default mode. Only update jobs record their stage.
const ProcessingUpdate Processing = "update"

// Stage is the recorded status of a processed day.
type Stage string

// Stage values.
const (
	StageComplete Stage = "Complete"
	StageFailed   Stage = "Failed"
)

// Request is a job as received from a queue or the HTTP API.
type Request struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Source     string `json:"source"`
	Source2    string `json:"source2,omitempty"`
	DFVersion  string `json:"df_version"`
	Processing string `json:"processing,omitempty"`
}

// Job is a validated request to find one day's crossovers.
type Job struct {
	ID         string
	Day        time.Time
	Source1    string
	Source2    string
	Version    string
	Processing Processing
}

// Parse validates a request. Source2 defaults to Source (self-crossovers).
func Parse(r Request) (Job, error) {
	var missing []string
	if r.Date == "" {
		missing = append(missing, "date")
	}
	if r.Source == "" {
		missing = append(missing, "source")
	}
	if r.DFVersion == "" {
		missing = append(missing, "df_version")
	}
	if len(missing) > 0 {
		return Job{}, fmt.Errorf("missing job parameters %s: %w", strings.Join(missing, ", "), domain.ErrInvalidJob)
	}

	day, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return Job{}, fmt.Errorf("unable to parse date %q: %w", r.Date, domain.ErrInvalidJob)
	}

	j := Job{
		ID:         r.ID,
		Day:        day,
		Source1:    r.Source,
		Source2:    r.Source2,
		Version:    r.DFVersion,
		Processing: Processing(r.Processing),
	}
	if j.Source2 == "" {
		j.Source2 = j.Source1
	}
	if j.Processing == "" {
		j.Processing = ProcessingUpdate
	}
	if j.ID == "" {
		j.ID = j.StageField()
	}
	return j, nil
}

// SelfCrossovers reports whether both sources are the same satellite.
func (j Job) SelfCrossovers() bool { return j.Source1 == j.Source2 }

// Sources joins the satellite names the way output paths and stage fields use them.
func (j Job) Sources() string {
	if j.SelfCrossovers() {
		return j.Source1
	}
	return j.Source1 + "_" + j.Source2
}

// StageName is the stage hash for the job's daily file version.
func (j Job) StageName() string { return StageName(j.Version) }

// StageField identifies the job's day within its stage.
func (j Job) StageField() string {
	return j.Sources() + "_" + j.Day.Format(time.DateOnly)
}

// UpdatesStage reports whether the outcome is recorded.
func (j Job) UpdatesStage() bool { return j.Processing == ProcessingUpdate }

// StageName returns the stage hash name for a daily file version.
func StageName(version string) string { return "xover_" + version }
