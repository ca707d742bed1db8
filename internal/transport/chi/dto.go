package chi

import (
	"time"

	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/usecase/batch"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeNoInputData      ErrorCode = "no_input_data"
	CodeNotImplemented   ErrorCode = "not_implemented"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// JobsRequest carries a batch of day jobs, one per queue message.
type JobsRequest struct {
	Jobs []job.Request `json:"jobs"`
}

// RangeRunRequest asks for every day in [first_day, last_day).
type RangeRunRequest struct {
	Source     string `json:"source"`
	Source2    string `json:"source2,omitempty"`
	DFVersion  string `json:"df_version"`
	Processing string `json:"processing,omitempty"`
	FirstDay   string `json:"first_day"`
	LastDay    string `json:"last_day"`
}

// JobResult is the outcome of one job.
type JobResult struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Crossovers int     `json:"crossovers"`
	ElapsedMS  float64 `json:"elapsed_ms"`
	Error      string  `json:"error,omitempty"`
}

// ItemFailure names a job the caller should retry.
type ItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

// JobsResponse reports a batch run.
type JobsResponse struct {
	RunID             string        `json:"run_id"`
	Results           []JobResult   `json:"results"`
	BatchItemFailures []ItemFailure `json:"batchItemFailures"`
}

// StagesResponse lists the recorded stage of each (sources, day) for one version.
type StagesResponse struct {
	Name   string            `json:"name"`
	Stages map[string]string `json:"stages"`
}

// StageNamesResponse lists the stage names with recorded entries.
type StageNamesResponse struct {
	Names []string `json:"names"`
}

// CrossoverRow is one record of a day's crossover file.
type CrossoverRow struct {
	Time1  int64   `json:"time1"`
	Time2  int64   `json:"time2"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	SSH1   float64 `json:"ssh1"`
	SSH2   float64 `json:"ssh2"`
	Cycle1 int32   `json:"cycle1"`
	Pass1  int32   `json:"pass1"`
	Cycle2 int32   `json:"cycle2"`
	Pass2  int32   `json:"pass2"`
}

// CrossoversResponse is a day's crossover file.
type CrossoversResponse struct {
	Metadata map[string]string `json:"metadata"`
	Records  []CrossoverRow    `json:"records"`
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func reportToResponse(r batch.Report) JobsResponse {
	resp := JobsResponse{
		RunID:             r.RunID,
		Results:           make([]JobResult, len(r.Results)),
		BatchItemFailures: make([]ItemFailure, 0),
	}
	for i, res := range r.Results {
		jr := JobResult{
			ID:         res.ID(),
			Status:     string(res.Status()),
			Crossovers: res.Crossovers(),
			ElapsedMS:  float64(res.Elapsed()) / float64(time.Millisecond),
		}
		if err := res.Err(); err != nil {
			jr.Error = err.Error()
		}
		resp.Results[i] = jr
	}
	for _, id := range r.Failures() {
		resp.BatchItemFailures = append(resp.BatchItemFailures, ItemFailure{ItemIdentifier: id})
	}
	return resp
}

func recordsToResponse(records []record.Record, meta record.Metadata) CrossoversResponse {
	rows := make([]CrossoverRow, len(records))
	for i, r := range records {
		rows[i] = CrossoverRow(r)
	}
	return CrossoversResponse{Metadata: meta.KeyValues(), Records: rows}
}
