// Package track groups satellite samples into passes for the crossover search.
package track

import (
	"fmt"

	"github.com/kailas-cloud/xover/internal/domain"
)

// MaxPass is the largest pass number that keeps track ids unique.
const MaxPass = 9999

// Sample is one along-track altimetry measurement.
// Time is nanoseconds since the run epoch.
type Sample struct {
	Time  int64
	Lon   float64
	Lat   float64
	SSH   float64
	Cycle int32
	Pass  int32
}

// ID identifies a pass within a satellite record: cycle*10000 + pass.
type ID int64

// NewID builds a track id, rejecting pass numbers that would collide with the next cycle.
func NewID(cycle, pass int32) (ID, error) {
	if pass < 0 || pass > MaxPass {
		return 0, fmt.Errorf("pass %d outside [0, %d]: %w", pass, MaxPass, domain.ErrInvalidSample)
	}
	return ID(int64(cycle)*10000 + int64(pass)), nil
}

// Cycle returns the cycle number encoded in the id.
func (id ID) Cycle() int32 { return int32(id / 10000) }

// Pass returns the pass number encoded in the id.
func (id ID) Pass() int32 { return int32(id % 10000) }

// Ascending reports the parity used to tell ascending from descending passes.
func (id ID) Ascending() bool { return id%2 != 0 }
