package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidOptions signals unusable search settings.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidSample signals a sample that violates the track id contract.
	ErrInvalidSample = errors.New("invalid sample")
	// ErrInvalidJob signals a malformed day job request.
	ErrInvalidJob = errors.New("invalid job")
	// ErrNoInputData signals that no input files exist for a source.
	ErrNoInputData = errors.New("no input data")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// DayError wraps a failure of a single processing day.
type DayError struct {
	Day time.Time
	Err error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day %s: %s", e.Day.Format(time.DateOnly), e.Err.Error())
}

func (e *DayError) Unwrap() error { return e.Err }

// NewDayError creates a day failure error.
func NewDayError(day time.Time, err error) error {
	return &DayError{Day: day, Err: err}
}
