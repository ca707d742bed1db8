package geometry

import "math"

// Orientation describes how a pass moves in longitude and whether it crosses the longitude seam.
type Orientation uint8

// Orientation values. The zero value is not a valid orientation.
const (
	ProgradeUnwrapped Orientation = iota + 1
	RetrogradeUnwrapped
	ProgradeWrapped
	RetrogradeWrapped
)

// Classify derives the orientation from the first-to-last longitude change of a pass.
// Passes are assumed to span less than 180 degrees, so a larger jump means the seam was crossed.
// A change of exactly 0 or ±180, or NaN, has no orientation.
func Classify(dlon float64) (Orientation, bool) {
	switch {
	case dlon > 180:
		return RetrogradeWrapped, true
	case dlon < -180:
		return ProgradeWrapped, true
	case dlon > 0 && dlon < 180:
		return ProgradeUnwrapped, true
	case dlon < 0 && dlon > -180:
		return RetrogradeUnwrapped, true
	}
	return 0, false
}

// Prograde reports increasing longitude along the pass.
func (o Orientation) Prograde() bool {
	return o == ProgradeUnwrapped || o == ProgradeWrapped
}

// Wrapped reports whether the pass crosses the longitude seam.
func (o Orientation) Wrapped() bool {
	return o == ProgradeWrapped || o == RetrogradeWrapped
}

func (o Orientation) String() string {
	switch o {
	case ProgradeUnwrapped:
		return "prograde"
	case RetrogradeUnwrapped:
		return "retrograde"
	case ProgradeWrapped:
		return "prograde-wrapped"
	case RetrogradeWrapped:
		return "retrograde-wrapped"
	}
	return "unknown"
}

// extent returns the first and last longitude of a pass in travel order.
// For wrapped passes lmin > lmax numerically.
func extent(lon []float64, o Orientation) (lmin, lmax float64) {
	first, last := lon[0], lon[len(lon)-1]
	if o.Prograde() {
		return first, last
	}
	return last, first
}

// lonBox is the longitude range where two passes can meet.
// When outside is set the box covers the seam: lon >= hi or lon <= lo.
type lonBox struct {
	lo, hi  float64
	outside bool
}

func (b lonBox) contains(lon float64) bool {
	if b.outside {
		return lon >= b.hi || lon <= b.lo
	}
	return lon >= b.lo && lon <= b.hi
}

// overlapBox computes the shared longitude box of two passes, false when they cannot overlap.
func overlapBox(o1, o2 Orientation, l1min, l1max, l2min, l2max float64) (lonBox, bool) {
	switch {
	case !o1.Wrapped() && !o2.Wrapped():
		if l1max < l2min || l2max < l1min {
			return lonBox{}, false
		}
		return lonBox{lo: math.Max(l1min, l2min), hi: math.Min(l1max, l2max)}, true

	case o1.Wrapped() && !o2.Wrapped():
		if l2min > l1max && l2max < l1min {
			return lonBox{}, false
		}
		var box lonBox
		if l2min <= l1max {
			box = lonBox{lo: l2min, hi: l1max}
		}
		if l2max >= l1min {
			box = lonBox{lo: l1min, hi: l2max}
		}
		return box, true

	case !o1.Wrapped() && o2.Wrapped():
		if l2min > l1max && l2max < l1min {
			return lonBox{}, false
		}
		var box lonBox
		if l1min <= l2max {
			box = lonBox{lo: l1min, hi: l2max}
		}
		if l1max >= l2min {
			box = lonBox{lo: l2min, hi: l1max}
		}
		return box, true

	default:
		// both wrapped: they always meet near the seam
		return lonBox{
			lo:      math.Min(l1max, l2max),
			hi:      math.Max(l1min, l2min),
			outside: true,
		}, true
	}
}
