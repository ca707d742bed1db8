// Package geometry locates the crossing point of two satellite ground tracks.
package geometry

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/xover/internal/domain/geo"
)

// latMargin widens the latitude box around the inner endpoint latitudes, in degrees.
const latMargin = 0.1

// segmentTolerance absorbs rounding when a solved crossing sits on a segment end.
const segmentTolerance = 1e-9

// Track is one pass in time order. All slices have the same length.
// Time holds nanoseconds since the run epoch.
type Track struct {
	Lon  []float64
	Lat  []float64
	SSH  []float64
	Time []float64
}

// Len returns the number of samples.
func (t Track) Len() int { return len(t.Lon) }

func (t Track) mustBeAligned(name string) {
	n := len(t.Lon)
	if len(t.Lat) != n || len(t.SSH) != n || len(t.Time) != n {
		panic(fmt.Sprintf("geometry: %s has mismatched lengths lon=%d lat=%d ssh=%d time=%d",
			name, n, len(t.Lat), len(t.SSH), len(t.Time)))
	}
}

func (t Track) subset(idx []int) Track {
	s := Track{
		Lon:  make([]float64, len(idx)),
		Lat:  make([]float64, len(idx)),
		SSH:  make([]float64, len(idx)),
		Time: make([]float64, len(idx)),
	}
	for k, i := range idx {
		s.Lon[k] = t.Lon[i]
		s.Lat[k] = t.Lat[i]
		s.SSH[k] = t.SSH[i]
		s.Time[k] = t.Time[i]
	}
	return s
}

func (t Track) byTime() Track {
	if slices.IsSorted(t.Time) {
		return t
	}
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(t.Time[a], t.Time[b]) })
	return t.subset(idx)
}

func (t Track) where(values []float64, keep func(float64) bool) Track {
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if keep(v) {
			idx = append(idx, i)
		}
	}
	return t.subset(idx)
}

// Point is a crossover location with both passes' values interpolated to it.
type Point struct {
	Lon   float64
	Lat   float64
	SSH1  float64
	SSH2  float64
	Time1 float64
	Time2 float64
}

// Result is a found crossover plus how it was resolved.
type Result struct {
	Point

	Orientation1 Orientation
	Orientation2 Orientation
	Resolution1  Resolution
	Resolution2  Resolution
	// MultipleSignChanges is set when a pass had more than one candidate crossing.
	// The first candidate along the pass is used.
	MultipleSignChanges bool
}

// FindCrossover finds where two passes cross, if they do within kmCutoff of
// the samples bracketing the crossing. It is a pure function of its inputs.
// It panics when a track's slices differ in length.
func FindCrossover(t1, t2 Track, kmCutoff float64) (Result, bool) {
	t1.mustBeAligned("track 1")
	t2.mustBeAligned("track 2")
	if t1.Len() == 0 || t2.Len() == 0 {
		return Result{}, false
	}
	t1, t2 = t1.byTime(), t2.byTime()

	o1, ok := Classify(t1.Lon[t1.Len()-1] - t1.Lon[0])
	if !ok {
		return Result{}, false
	}
	o2, ok := Classify(t2.Lon[t2.Len()-1] - t2.Lon[0])
	if !ok {
		return Result{}, false
	}

	l1min, l1max := extent(t1.Lon, o1)
	l2min, l2max := extent(t2.Lon, o2)
	box, ok := overlapBox(o1, o2, l1min, l1max, l2min, l2max)
	if !ok {
		return Result{}, false
	}
	s1 := t1.where(t1.Lon, box.contains)
	s2 := t2.where(t2.Lon, box.contains)
	if s1.Len() < 2 || s2.Len() < 2 {
		return Result{}, false
	}

	lats := []float64{s1.Lat[0], s1.Lat[s1.Len()-1], s2.Lat[0], s2.Lat[s2.Len()-1]}
	slices.Sort(lats)
	lo, hi := lats[1]-latMargin, lats[2]+latMargin
	inLat := func(v float64) bool { return v >= lo && v <= hi }
	s1 = s1.where(s1.Lat, inLat)
	s2 = s2.where(s2.Lat, inLat)
	if s1.Len() < 2 || s2.Len() < 2 {
		return Result{}, false
	}

	g1 := newGrid(s1.Lon, s1.Lat, o1)
	g2 := newGrid(s2.Lon, s2.Lat, o2)

	r2, multi2, ok := findSignChange(latDiff(s2.Lon, s2.Lat, g1))
	if !ok {
		return Result{}, false
	}
	r1, multi1, ok := findSignChange(latDiff(s1.Lon, s1.Lat, g2))
	if !ok {
		return Result{}, false
	}

	p, ok := solve(segmentAt(s1, r1), segmentAt(s2, r2), kmCutoff, above180(t1.Lon) || above180(t2.Lon))
	if !ok {
		return Result{}, false
	}
	return Result{
		Point:               p,
		Orientation1:        o1,
		Orientation2:        o2,
		Resolution1:         r1,
		Resolution2:         r2,
		MultipleSignChanges: multi1 || multi2,
	}, true
}

// segment is the pair of samples bracketing a crossing, or a single sample twice for an exact match.
type segment struct {
	lon, lat  [2]float64
	ssh, time [2]float64
	exact     bool
}

func segmentAt(t Track, r Resolution) segment {
	i, j := r.I, r.I
	if r.Kind == Interpolated {
		j = i + 1
	}
	return segment{
		lon:   [2]float64{t.Lon[i], t.Lon[j]},
		lat:   [2]float64{t.Lat[i], t.Lat[j]},
		ssh:   [2]float64{t.SSH[i], t.SSH[j]},
		time:  [2]float64{t.Time[i], t.Time[j]},
		exact: r.Kind == ExactMatch,
	}
}

// valueAt interpolates v linearly to (x, y) along the segment.
// A point off either end of the segment yields NaN.
func (s segment) valueAt(x, y float64, v [2]float64) float64 {
	if s.exact {
		return v[0]
	}
	dx, dy := s.lon[1]-s.lon[0], s.lat[1]-s.lat[0]
	var f float64
	switch {
	case dx == 0 && dy == 0:
		return v[0]
	case math.Abs(dx) >= math.Abs(dy):
		f = (x - s.lon[0]) / dx
	default:
		f = (y - s.lat[0]) / dy
	}
	if f < -segmentTolerance || f > 1+segmentTolerance {
		return math.NaN()
	}
	f = math.Min(math.Max(f, 0), 1)
	return v[0] + f*(v[1]-v[0])
}

// above180 reports whether a pass uses the [0,360) longitude convention.
func above180(lon []float64) bool {
	for _, l := range lon {
		if l > 180 {
			return true
		}
	}
	return false
}

// solve intersects the bracketing segments and maps the result into [0,360)
// when native360 is set, [-180,180) otherwise.
func solve(a, b segment, kmCutoff float64, native360 bool) (Point, bool) {

	// work in a seam-free frame around the first bracketing sample
	ref := a.lon[0]
	a.lon[1] = geo.AlignLon(a.lon[1], ref)
	b.lon[0] = geo.AlignLon(b.lon[0], ref)
	b.lon[1] = geo.AlignLon(b.lon[1], ref)

	var x, y float64
	switch {
	case a.exact:
		x, y = a.lon[0], a.lat[0]
	case b.exact:
		x, y = b.lon[0], b.lat[0]
	default:
		var ok bool
		if x, y, ok = intersect(a, b); !ok {
			return Point{}, false
		}
	}
	if !finite(x) || !finite(y) {
		return Point{}, false
	}

	for k := 0; k < 2; k++ {
		if geo.PlanarDistanceKM(a.lat[k], a.lon[k], y, x) > kmCutoff ||
			geo.PlanarDistanceKM(b.lat[k], b.lon[k], y, x) > kmCutoff {
			return Point{}, false
		}
	}

	p := Point{
		Lat:   y,
		SSH1:  a.valueAt(x, y, a.ssh),
		SSH2:  b.valueAt(x, y, b.ssh),
		Time1: a.valueAt(x, y, a.time),
		Time2: b.valueAt(x, y, b.time),
	}
	if math.IsNaN(p.SSH1) || math.IsNaN(p.SSH2) || math.IsNaN(p.Time1) || math.IsNaN(p.Time2) {
		return Point{}, false
	}
	if native360 {
		p.Lon = geo.NormalizeLon360(x)
	} else {
		p.Lon = geo.NormalizeLon180(x)
	}
	return p, true
}

// intersect solves the two segment lines
//
//	dy1*x - dx1*y = dy1*x1 - dx1*y1
//	dy2*x - dx2*y = dy2*x3 - dx2*y3
//
// and fails for parallel or degenerate segments.
func intersect(a, b segment) (x, y float64, ok bool) {
	dx1, dy1 := a.lon[1]-a.lon[0], a.lat[1]-a.lat[0]
	dx2, dy2 := b.lon[1]-b.lon[0], b.lat[1]-b.lat[0]

	lhs := mat.NewDense(2, 2, []float64{
		dy1, -dx1,
		dy2, -dx2,
	})
	rhs := mat.NewVecDense(2, []float64{
		dy1*a.lon[0] - dx1*a.lat[0],
		dy2*b.lon[0] - dx2*b.lat[0],
	})

	var v mat.VecDense
	if err := v.SolveVec(lhs, rhs); err != nil {
		return 0, 0, false
	}
	return v.AtVec(0), v.AtVec(1), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
