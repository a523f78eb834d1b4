package schedule

import "time"

// BusinessHours is the clock window new items land in by default.
// Offsets are minutes of day; both boundaries are inclusive, so an
// item may end exactly at closing time.
type BusinessHours struct {
	OpenMinute  int `json:"open_minute"`
	CloseMinute int `json:"close_minute"`
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{OpenMinute: 8 * 60, CloseMinute: 17 * 60}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Contains reports whether the instant's clock time lies inside the
// window, boundaries included.
func (w BusinessHours) Contains(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= w.OpenMinute && m <= w.CloseMinute
}

// Clamp fits a quick-create request of the given duration into the
// window. A start outside the window snaps to opening time of the same
// day; an end past closing time shifts the whole range backward so the
// end lands exactly on the boundary. Duration is always preserved. The
// opening boundary is not re-checked after the shift; with a window
// shorter than the duration the start can land before opening.
func (w BusinessHours) Clamp(start time.Time, duration time.Duration) (time.Time, time.Time) {
	if !w.Contains(start) {
		day := startOfDay(start)
		start = day.Add(time.Duration(w.OpenMinute) * time.Minute)
	}
	end := start.Add(duration)
	if over := minuteOfDay(start) + int(duration/time.Minute) - w.CloseMinute; over > 0 {
		start = start.Add(-time.Duration(over) * time.Minute)
		end = end.Add(-time.Duration(over) * time.Minute)
	}
	return start, end
}

// RejectReason is the closed set of user-correctable reasons an
// explicit create or edit is refused. The zero value means accepted.
type RejectReason string

const (
	RejectNone           RejectReason = ""
	TitleRequired        RejectReason = "title_required"
	StartAndEndRequired  RejectReason = "start_and_end_required"
	EndBeforeStart       RejectReason = "end_before_start"
	OutsideBusinessHours RejectReason = "outside_business_hours"
)

// ValidateItem checks an explicit create or edit. Unlike Clamp it
// never adjusts anything: out-of-window or reversed times are rejected
// outright and surfaced to the user.
func (w BusinessHours) ValidateItem(title string, start, end *time.Time) RejectReason {
	if title == "" {
		return TitleRequired
	}
	if start == nil || end == nil {
		return StartAndEndRequired
	}
	if !end.After(*start) {
		return EndBeforeStart
	}
	if !w.Contains(*start) || !w.Contains(*end) {
		return OutsideBusinessHours
	}
	return RejectNone
}
