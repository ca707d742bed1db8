package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// grid is a latitude-versus-longitude curve with ascending knots.
// NaN knot values mark gaps that must not be interpolated across.
type grid struct {
	x []float64
	y []float64
}

// newGrid builds the interpolation curve of a pass. A wrapped pass gets anchor
// knots on both sides of every seam jump plus a NaN knot between them, so
// points near the seam interpolate against the continued pass and points in
// the gap yield NaN.
func newGrid(lon, lat []float64, o Orientation) grid {
	x := append([]float64(nil), lon...)
	y := append([]float64(nil), lat...)

	if o.Wrapped() {
		shift := 360.0
		if !o.Prograde() {
			shift = -360
		}
		for j := 0; j+1 < len(lon); j++ {
			if math.Abs(lon[j+1]-lon[j]) <= 180 {
				continue
			}
			end := lon[j+1] + shift
			start := lon[j] - shift
			x = append(x, end, start, end/2+start/2)
			y = append(y, lat[j+1], lat[j], math.NaN())
		}
	}

	order := make([]int, len(x))
	floats.Argsort(x, order)
	sorted := make([]float64, len(y))
	for i, k := range order {
		sorted[i] = y[k]
	}
	return grid{x: x, y: sorted}
}

// at evaluates the curve at lon. Outside the knot range the result is NaN,
// an exact knot hit returns the knot value, and NaN neighbours propagate.
func (g grid) at(lon float64) float64 {
	n := len(g.x)
	if n == 0 || math.IsNaN(lon) || lon < g.x[0] || lon > g.x[n-1] {
		return math.NaN()
	}
	j := sort.SearchFloat64s(g.x, lon)
	if g.x[j] == lon {
		return g.y[j]
	}
	x0, x1 := g.x[j-1], g.x[j]
	y0, y1 := g.y[j-1], g.y[j]
	return y0 + (y1-y0)*(lon-x0)/(x1-x0)
}

// latDiff returns lat[i] minus the other pass's curve evaluated at lon[i].
func latDiff(lon, lat []float64, other grid) []float64 {
	d := make([]float64, len(lon))
	for i := range lon {
		d[i] = lat[i] - other.at(lon[i])
	}
	return d
}

// ResolutionKind tells how a sign change of the latitude difference was located.
type ResolutionKind uint8

const (
	// Interpolated means the crossing lies between samples I and I+1.
	Interpolated ResolutionKind = iota + 1
	// ExactMatch means the difference is exactly zero at sample I.
	ExactMatch
)

// Resolution locates the crossing on one pass.
type Resolution struct {
	Kind ResolutionKind
	I    int
}

// findSignChange scans a latitude difference series for the first sign change.
// multiple reports that more than one candidate existed.
func findSignChange(d []float64) (res Resolution, multiple, ok bool) {
	n := len(d)
	found := 0
	for i := 0; i < n; i++ {
		var cand Resolution
		switch {
		case i > 0 && i+1 < n && d[i] == 0 && sign(d[i-1])*sign(d[i+1]) == -1:
			cand = Resolution{Kind: ExactMatch, I: i}
		case i+1 < n && math.Abs(sign(d[i+1])-sign(d[i])) == 2:
			cand = Resolution{Kind: Interpolated, I: i}
		default:
			continue
		}
		if found == 0 {
			res = cand
		}
		found++
	}
	return res, found > 1, found > 0
}

// sign returns -1, 0 or 1 and keeps NaN.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return v
}
