package track

import (
	"slices"
	"time"

	"github.com/kailas-cloud/xover/internal/domain/geometry"
)

// Window holds one satellite's samples for a date range, grouped into tracks.
// A Window is built once per processing day and only read afterwards.
type Window struct {
	satellite string
	start     time.Time
	end       time.Time

	time []int64
	lon  []float64
	lat  []float64
	ssh  []float64

	ids    []ID
	starts []int64
	index  map[ID][]int
}

// NewWindow groups samples into tracks. Samples must already be free of fill values.
// An empty sample set yields a window with no tracks.
func NewWindow(satellite string, start, end time.Time, samples []Sample) (*Window, error) {
	n := len(samples)
	w := &Window{
		satellite: satellite,
		start:     start,
		end:       end,
		time:      make([]int64, n),
		lon:       make([]float64, n),
		lat:       make([]float64, n),
		ssh:       make([]float64, n),
		index:     make(map[ID][]int),
	}

	for i, s := range samples {
		id, err := NewID(s.Cycle, s.Pass)
		if err != nil {
			return nil, err
		}
		w.time[i] = s.Time
		w.lon[i] = s.Lon
		w.lat[i] = s.Lat
		w.ssh[i] = s.SSH
		w.index[id] = append(w.index[id], i)
	}

	w.ids = make([]ID, 0, len(w.index))
	for id := range w.index {
		w.ids = append(w.ids, id)
	}
	slices.Sort(w.ids)

	w.starts = make([]int64, len(w.ids))
	for k, id := range w.ids {
		idx := w.index[id]
		slices.SortStableFunc(idx, func(a, b int) int {
			switch {
			case w.time[a] < w.time[b]:
				return -1
			case w.time[a] > w.time[b]:
				return 1
			}
			return 0
		})
		w.starts[k] = w.time[idx[0]]
	}

	return w, nil
}

// Satellite returns the satellite identifier.
func (w *Window) Satellite() string { return w.satellite }

// Start returns the first day covered by the window.
func (w *Window) Start() time.Time { return w.start }

// End returns the last day covered by the window.
func (w *Window) End() time.Time { return w.end }

// Len returns the number of samples in the window.
func (w *Window) Len() int { return len(w.time) }

// IDs returns the unique track ids in ascending order.
func (w *Window) IDs() []ID { return w.ids }

// Starts returns the start time of each track, parallel to IDs.
func (w *Window) Starts() []int64 { return w.starts }

// Size returns the number of samples in a track, or 0 for an unknown id.
func (w *Window) Size(id ID) int { return len(w.index[id]) }

// Track gathers a track's samples in time order for the geometry engine.
func (w *Window) Track(id ID) geometry.Track {
	idx := w.index[id]
	t := geometry.Track{
		Lon:  make([]float64, len(idx)),
		Lat:  make([]float64, len(idx)),
		SSH:  make([]float64, len(idx)),
		Time: make([]float64, len(idx)),
	}
	for k, i := range idx {
		t.Lon[k] = w.lon[i]
		t.Lat[k] = w.lat[i]
		t.SSH[k] = w.ssh[i]
		t.Time[k] = float64(w.time[i])
	}
	return t
}
