package domain

import (
	"fmt"
	"time"
)

// Day is the length of one processing day.
const Day = 24 * time.Hour

// DefaultEpoch is the reference instant for sample timestamps (1990-01-01T00:00:00Z).
var DefaultEpoch = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options holds the crossover search settings for one run.
// Options is passed by value and never mutated after construction.
type Options struct {
	SelfCrossovers      bool
	Epoch               time.Time
	WindowSizeDays      int
	WindowPaddingDays   int
	CycleLengthDays     float64
	MaxCrossoversPerDay int
	KMCutoff            float64
}

// DefaultOptions returns the settings tuned for the TOPEX/Jason reference orbit.
func DefaultOptions() Options {
	return Options{
		SelfCrossovers:      true,
		Epoch:               DefaultEpoch,
		WindowSizeDays:      10,
		WindowPaddingDays:   2,
		CycleLengthDays:     9.9156,
		MaxCrossoversPerDay: 2500,
		KMCutoff:            30.0,
	}
}

// ForSatellites returns a copy with SelfCrossovers derived from the two satellite names.
func (o Options) ForSatellites(sat1, sat2 string) Options {
	o.SelfCrossovers = sat1 == sat2
	return o
}

// MaxStartDiff is the cycle length in nanoseconds, the largest allowed gap between pass start times.
func (o Options) MaxStartDiff() int64 {
	return int64(o.CycleLengthDays * float64(Day))
}

// Ticks converts an instant to nanoseconds since Epoch.
func (o Options) Ticks(t time.Time) int64 {
	return t.Sub(o.Epoch).Nanoseconds()
}

// Time converts nanoseconds since Epoch back to an instant.
func (o Options) Time(ticks int64) time.Time {
	return o.Epoch.Add(time.Duration(ticks))
}

// Validate checks the options for values the search cannot work with.
func (o Options) Validate() error {
	if o.WindowSizeDays <= 0 {
		return fmt.Errorf("window size must be positive, got %d: %w", o.WindowSizeDays, ErrInvalidOptions)
	}
	if o.WindowPaddingDays < 0 {
		return fmt.Errorf("window padding must not be negative, got %d: %w", o.WindowPaddingDays, ErrInvalidOptions)
	}
	if o.CycleLengthDays <= 0 {
		return fmt.Errorf("cycle length must be positive, got %g: %w", o.CycleLengthDays, ErrInvalidOptions)
	}
	if o.MaxCrossoversPerDay <= 0 {
		return fmt.Errorf("max crossovers per day must be positive, got %d: %w", o.MaxCrossoversPerDay, ErrInvalidOptions)
	}
	if o.KMCutoff <= 0 {
		return fmt.Errorf("km cutoff must be positive, got %g: %w", o.KMCutoff, ErrInvalidOptions)
	}
	if o.Epoch.IsZero() {
		return fmt.Errorf("epoch is required: %w", ErrInvalidOptions)
	}
	return nil
}
