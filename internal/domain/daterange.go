package domain

import "time"

// DateRange is an inclusive range of UTC calendar days.
type DateRange struct {
	First time.Time
	Last  time.Time
}

// NewDateRange truncates both ends to whole days.
func NewDateRange(first, last time.Time) DateRange {
	return DateRange{First: TruncateDay(first), Last: TruncateDay(last)}
}

// Days returns the number of days between First and Last.
func (r DateRange) Days() int {
	return int(r.Last.Sub(r.First) / Day)
}

// Contains reports whether day falls within the range.
func (r DateRange) Contains(day time.Time) bool {
	day = TruncateDay(day)
	return !day.Before(r.First) && !day.After(r.Last)
}

// Intersect returns the overlap of two ranges, false if they do not overlap.
func (r DateRange) Intersect(o DateRange) (DateRange, bool) {
	out := r
	if o.First.After(out.First) {
		out.First = o.First
	}
	if o.Last.Before(out.Last) {
		out.Last = o.Last
	}
	if out.First.After(out.Last) {
		return DateRange{}, false
	}
	return out, true
}

// TruncateDay returns midnight UTC of t's day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SearchWindows returns the day ranges each satellite must cover to search day.
// In self mode both windows look ahead by size plus padding. In cross mode the
// first window only covers the day itself plus padding and the second looks
// both ways, since either satellite's pass may come first.
func (o Options) SearchWindows(day time.Time) (w1, w2 DateRange) {
	day = TruncateDay(day)
	span := o.WindowSizeDays + o.WindowPaddingDays
	if o.SelfCrossovers {
		w1 = DateRange{First: day, Last: day.AddDate(0, 0, span)}
		return w1, w1
	}
	w1 = DateRange{First: day, Last: day.AddDate(0, 0, 1+o.WindowPaddingDays)}
	w2 = DateRange{First: day.AddDate(0, 0, -span), Last: day.AddDate(0, 0, span)}
	return w1, w2
}
