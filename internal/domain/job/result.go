package job

import "time"

// ItemStatus is the processing outcome of a single job in a batch.
type ItemStatus string

// Batch item status values.
const (
	StatusOK ItemStatus = "ok"
	// StatusInvalid marks a request that could not be parsed. It is not retried.
	StatusInvalid ItemStatus = "invalid"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one job in a batch.
type Result struct {
	id         string
	status     ItemStatus
	crossovers int
	elapsed    time.Duration
	err        error
}

// NewOK creates a successful job result.
func NewOK(id string, crossovers int, elapsed time.Duration) Result {
	return Result{id: id, status: StatusOK, crossovers: crossovers, elapsed: elapsed}
}

// NewInvalid creates a result for a request rejected before processing.
func NewInvalid(id string, err error) Result {
	return Result{id: id, status: StatusInvalid, err: err}
}

// NewError creates a failed job result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Crossovers returns the number of records written for the day.
func (r Result) Crossovers() int { return r.crossovers }

// Elapsed returns how long the day took.
func (r Result) Elapsed() time.Duration { return r.elapsed }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Failures returns the ids of failed items that should be retried.
// Invalid requests are not included.
func Failures(results []Result) []string {
	ids := make([]string, 0)
	for _, r := range results {
		if r.status == StatusError {
			ids = append(ids, r.id)
		}
	}
	return ids
}
