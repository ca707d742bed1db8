// Package record defines the crossover output row and assembles a day's rows.
package record

import (
	"cmp"
	"slices"
)

// Record is one crossover in a day's output. Times are nanoseconds since the run epoch.
// Side 1 is always the pass that was iterated first in the pairing.
type Record struct {
	Time1  int64   `parquet:"time1"`
	Time2  int64   `parquet:"time2"`
	Lon    float64 `parquet:"lon"`
	Lat    float64 `parquet:"lat"`
	SSH1   float64 `parquet:"ssh1"`
	SSH2   float64 `parquet:"ssh2"`
	Cycle1 int32   `parquet:"cycle1"`
	Pass1  int32   `parquet:"pass1"`
	Cycle2 int32   `parquet:"cycle2"`
	Pass2  int32   `parquet:"pass2"`
}

// Assemble keeps records with dayStart <= Time1 < dayEnd and sorts them by Time1.
// The sort is stable, so records with equal Time1 keep their search order.
// Crossovers dated on later days are dropped; that day's run picks them up.
func Assemble(raw []Record, dayStart, dayEnd int64) []Record {
	out := make([]Record, 0, len(raw))
	for _, r := range raw {
		if r.Time1 >= dayStart && r.Time1 < dayEnd {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int { return cmp.Compare(a.Time1, b.Time1) })
	return out
}
