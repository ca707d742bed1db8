package crossover

import (
	"time"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/geometry"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/domain/track"
)

// DayResult is the outcome of searching one day.
type DayResult struct {
	// Records are the day's crossovers, filtered to the day and sorted by Time1.
	Records []record.Record
	// Evaluated counts pass pairs handed to the geometry engine.
	Evaluated int
	// Found counts crossovers before the day filter.
	Found int
	// MultipleSignChanges counts crossovers resolved from more than one candidate.
	MultipleSignChanges int
	// Overflow is set when Found exceeded MaxCrossoversPerDay. No record is dropped.
	Overflow bool
}

// FindDayCrossovers pairs the passes of w1 that start on day with the passes of w2
// and collects their crossovers. In self mode w1 and w2 are the same window.
// The search is single-threaded and deterministic.
func FindDayCrossovers(day time.Time, w1, w2 *track.Window, opts domain.Options) DayResult {
	dayStart := opts.Ticks(domain.TruncateDay(day))
	nextDay := dayStart + int64(domain.Day)
	maxDiff := opts.MaxStartDiff()

	ids1, starts1 := w1.IDs(), w1.Starts()
	ids2, starts2 := w2.IDs(), w2.Starts()
	tracks2 := make(map[track.ID]geometry.Track)

	var res DayResult
	raw := make([]record.Record, 0, 256)

	for i, id1 := range ids1 {
		if starts1[i] >= nextDay || w1.Size(id1) < 2 {
			continue
		}
		t1 := w1.Track(id1)

		for j, id2 := range ids2 {
			if !isCandidate(id1, id2, starts2[j]-starts1[i], maxDiff, opts.SelfCrossovers) {
				continue
			}
			if w2.Size(id2) < 2 {
				continue
			}
			t2, ok := tracks2[id2]
			if !ok {
				t2 = w2.Track(id2)
				tracks2[id2] = t2
			}

			res.Evaluated++
			x, ok := geometry.FindCrossover(t1, t2, opts.KMCutoff)
			if !ok {
				continue
			}
			if x.MultipleSignChanges {
				res.MultipleSignChanges++
			}
			raw = append(raw, record.Record{
				Time1:  int64(x.Time1),
				Time2:  int64(x.Time2),
				Lon:    x.Lon,
				Lat:    x.Lat,
				SSH1:   x.SSH1,
				SSH2:   x.SSH2,
				Cycle1: id1.Cycle(),
				Pass1:  id1.Pass(),
				Cycle2: id2.Cycle(),
				Pass2:  id2.Pass(),
			})
		}
	}

	res.Found = len(raw)
	res.Overflow = res.Found > opts.MaxCrossoversPerDay
	res.Records = record.Assemble(raw, dayStart, nextDay)
	return res
}

// isCandidate applies the pairing filters to two passes whose start times differ by startDiff.
// Self mode skips the same and adjacent pass, requires opposite parity and only
// looks forward in time so each pair is tried once. Cross mode looks both ways.
func isCandidate(id1, id2 track.ID, startDiff, maxDiff int64, self bool) bool {
	if !self {
		return startDiff > -maxDiff && startDiff <= maxDiff
	}
	gap := id1 - id2
	if gap < 0 {
		gap = -gap
	}
	return gap > 1 &&
		id1.Ascending() != id2.Ascending() &&
		startDiff > 0 && startDiff <= maxDiff
}
