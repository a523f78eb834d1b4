package schedule

import "time"

// Span is the inclusive instant range an item occupies after
// normalization: a missing endpoint is substituted by the other one,
// reversed endpoints are swapped, and an end landing exactly on
// midnight is stretched to the last nanosecond of its own date so the
// end date stays inclusive.
type Span struct {
	Start time.Time
	End   time.Time
}

// NewSpan normalizes optional endpoints into a span. ok is false when
// both endpoints are missing; such items are not schedulable and stay
// out of day filtering and lane assignment.
func NewSpan(start, end *time.Time) (Span, bool) {
	if start == nil && end == nil {
		return Span{}, false
	}
	s := start
	e := end
	if s == nil {
		s = e
	}
	if e == nil {
		e = s
	}
	sv, ev := *s, *e
	if sv.After(ev) {
		sv, ev = ev, sv
	}
	// A late-evening item ending exactly at midnight (23:00 -> 00:00)
	// therefore covers both dates and renders in the all-day strip,
	// not the hour grid. Instantaneous midnight items stay instants.
	if h, m, sec := ev.Clock(); h == 0 && m == 0 && sec == 0 && ev.Nanosecond() == 0 && !ev.Equal(sv) {
		ev = endOfDay(ev)
	}
	return Span{Start: sv, End: ev}, true
}

// OverlapsDay reports whether the span touches the calendar date of day.
// Comparison is date-only; time-of-day never matters here.
func (s Span) OverlapsDay(day time.Time) bool {
	d := startOfDay(day)
	return !startOfDay(s.Start).After(d) && !startOfDay(s.End).Before(d)
}

// Overlaps reports whether two spans share any instant, endpoints included.
func (s Span) Overlaps(o Span) bool {
	return !s.Start.After(o.End) && !o.Start.After(s.End)
}

// MultiDay reports whether the span crosses a calendar date boundary.
// Multi-day items render in the all-day strip instead of the hour grid.
func (s Span) MultiDay() bool {
	return !startOfDay(s.Start).Equal(startOfDay(s.End))
}

// DaySpan widens the span to full calendar days. Month and quarter
// views assign lanes on day granularity, so touching dates conflict.
func (s Span) DaySpan() Span {
	return Span{Start: startOfDay(s.Start), End: endOfDay(s.End)}
}
