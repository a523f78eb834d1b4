package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestComputeRangeWeekStartsMonday(t *testing.T) {
	w := ComputeRange(date(2025, time.March, 15), ViewWeek)
	if !w.From.Equal(date(2025, time.March, 10)) {
		t.Fatalf("week from = %v, want Monday 2025-03-10", w.From)
	}
	if w.To.Day() != 16 || w.To.Month() != time.March {
		t.Fatalf("week to = %v, want Sunday 2025-03-16", w.To)
	}
	// a Monday anchor is already the week start
	w = ComputeRange(date(2025, time.March, 10), ViewWeek)
	if !w.From.Equal(date(2025, time.March, 10)) {
		t.Fatalf("monday anchor shifted to %v", w.From)
	}
	// a Sunday anchor belongs to the week that began six days earlier
	w = ComputeRange(date(2025, time.March, 16), ViewWeek)
	if !w.From.Equal(date(2025, time.March, 10)) {
		t.Fatalf("sunday anchor week from = %v", w.From)
	}
}

func TestComputeRangeMonthAndList(t *testing.T) {
	for _, mode := range []ViewMode{ViewMonth, ViewList} {
		w := ComputeRange(date(2024, time.February, 14), mode)
		if w.From.Day() != 1 || w.To.Day() != 29 {
			t.Fatalf("%s: got [%v, %v], want Feb 1-29 2024", mode, w.From, w.To)
		}
	}
}

func TestComputeRangeQuarterSlides(t *testing.T) {
	w := ComputeRange(date(2025, time.January, 15), ViewQuarter)
	if w.From.Day() != 1 || w.From.Month() != time.January {
		t.Fatalf("quarter from = %v", w.From)
	}
	if w.To.Day() != 31 || w.To.Month() != time.March {
		t.Fatalf("quarter to = %v, want Mar 31", w.To)
	}
	// anchored mid-quarter the window slides, it does not snap back
	w = ComputeRange(date(2025, time.February, 10), ViewQuarter)
	if w.From.Month() != time.February || w.To.Month() != time.April || w.To.Day() != 30 {
		t.Fatalf("sliding quarter = [%v, %v], want Feb 1 - Apr 30", w.From, w.To)
	}
}

func TestComputeRangeDay(t *testing.T) {
	w := ComputeRange(at(2025, time.June, 3, 14, 30), ViewDay)
	if !w.From.Equal(date(2025, time.June, 3)) || w.To.Day() != 3 {
		t.Fatalf("day window = [%v, %v]", w.From, w.To)
	}
	if w.From.After(w.To) {
		t.Fatalf("from after to")
	}
}

func TestQuarterLabel(t *testing.T) {
	if got := QuarterLabel(date(2025, time.February, 10)); got != "Q1 2025" {
		t.Fatalf("label = %q", got)
	}
	if got := QuarterLabel(date(2025, time.November, 1)); got != "Q4 2025" {
		t.Fatalf("label = %q", got)
	}
}

func TestSpanNormalization(t *testing.T) {
	s := at(2025, time.October, 20, 9, 0)
	e := at(2025, time.October, 21, 10, 0)
	sp, ok := NewSpan(&e, &s)
	if !ok {
		t.Fatalf("span rejected")
	}
	if !sp.Start.Equal(s) || sp.End.Day() != 21 {
		t.Fatalf("reversed endpoints not swapped: %+v", sp)
	}
	if _, ok := NewSpan(nil, nil); ok {
		t.Fatalf("span from nothing")
	}
	only := at(2025, time.October, 20, 9, 0)
	sp, ok = NewSpan(&only, nil)
	if !ok || !sp.Start.Equal(sp.End) {
		t.Fatalf("start-only item should be instantaneous: %+v", sp)
	}
}

func TestMidnightEndIsInclusive(t *testing.T) {
	start := date(2025, time.October, 20)
	end := date(2025, time.October, 23)
	sp, _ := NewSpan(&start, &end)
	if !sp.OverlapsDay(date(2025, time.October, 23)) {
		t.Fatalf("midnight end should cover its own date")
	}
	if sp.OverlapsDay(date(2025, time.October, 24)) {
		t.Fatalf("midnight end leaked into the next day")
	}
	if !sp.MultiDay() {
		t.Fatalf("three day span not flagged multi-day")
	}
}

func TestLateEveningMidnightEndSpansBothDays(t *testing.T) {
	s := at(2025, time.July, 1, 23, 0)
	e := date(2025, time.July, 2)
	sp, _ := NewSpan(&s, &e)
	// a 23:00 -> midnight item stretches over the end's own date and
	// renders in the all-day strip, not the hour grid
	if !sp.MultiDay() {
		t.Fatalf("23:00 -> 00:00 should be multi-day after normalization")
	}
	if !sp.OverlapsDay(date(2025, time.July, 1)) || !sp.OverlapsDay(date(2025, time.July, 2)) {
		t.Fatalf("span should touch both July 1 and July 2")
	}
	if sp.OverlapsDay(date(2025, time.July, 3)) {
		t.Fatalf("span leaked past July 2")
	}
}

func TestOverlapsDayIgnoresClock(t *testing.T) {
	s := at(2025, time.July, 1, 23, 55)
	e := at(2025, time.July, 2, 0, 5)
	sp, _ := NewSpan(&s, &e)
	if !sp.OverlapsDay(date(2025, time.July, 1)) || !sp.OverlapsDay(date(2025, time.July, 2)) {
		t.Fatalf("span crossing midnight should touch both days")
	}
	if sp.OverlapsDay(date(2025, time.July, 3)) {
		t.Fatalf("span leaked past its end date")
	}
}

func TestAssignLanesReusesLowestFreeLane(t *testing.T) {
	mk := func(id string, sh, sm, eh, em int) LaneItem {
		return LaneItem{ID: id, Span: Span{
			Start: at(2025, time.May, 5, sh, sm),
			End:   at(2025, time.May, 5, eh, em),
		}}
	}
	a := AssignLanes([]LaneItem{
		mk("a", 9, 0, 10, 0),
		mk("b", 9, 30, 11, 0),
		mk("c", 10, 30, 12, 0),
	})
	if a.Lanes["a"] != 0 || a.Lanes["b"] != 1 || a.Lanes["c"] != 0 {
		t.Fatalf("lanes = %v, want a:0 b:1 c:0", a.Lanes)
	}
	if a.Count != 2 {
		t.Fatalf("lane count = %d, want 2", a.Count)
	}
}

func TestAssignLanesTouchingSpansConflict(t *testing.T) {
	d1, _ := NewSpan(ptr(date(2025, time.May, 1)), ptr(date(2025, time.May, 2)))
	d2, _ := NewSpan(ptr(date(2025, time.May, 2)), ptr(date(2025, time.May, 4)))
	a := AssignLanes([]LaneItem{
		{ID: "x", Span: d1.DaySpan()},
		{ID: "y", Span: d2.DaySpan()},
	})
	if a.Lanes["x"] == a.Lanes["y"] {
		t.Fatalf("items sharing a date got the same lane: %v", a.Lanes)
	}
}

func TestAssignLanesTieBreaks(t *testing.T) {
	sp := Span{Start: at(2025, time.May, 5, 9, 0), End: at(2025, time.May, 5, 10, 0)}
	a := AssignLanes([]LaneItem{
		{ID: "untracked", Span: sp, Title: "aaa"},
		{ID: "older", Span: sp, CreatedAt: "2025-01-01T00:00:00Z", Title: "zzz"},
	})
	if a.Lanes["older"] != 0 || a.Lanes["untracked"] != 1 {
		t.Fatalf("creation time should win the tie: %v", a.Lanes)
	}
}

func TestCollapse(t *testing.T) {
	sp := Span{Start: at(2025, time.May, 5, 9, 0), End: at(2025, time.May, 5, 12, 0)}
	items := []LaneItem{
		{ID: "a", Span: sp, Title: "a"},
		{ID: "b", Span: sp, Title: "b"},
		{ID: "c", Span: sp, Title: "c"},
		{ID: "d", Span: sp, Title: "d"},
	}
	a := AssignLanes(items)
	inline, more := Collapse(items, a, 2)
	if len(inline) != 2 || more != 2 {
		t.Fatalf("collapse = %d inline, %d more", len(inline), more)
	}
}

func TestClampShiftsToFit(t *testing.T) {
	w := DefaultBusinessHours()
	start, end := w.Clamp(at(2025, time.April, 7, 16, 40), 60*time.Minute)
	if start.Hour() != 16 || start.Minute() != 0 || end.Hour() != 17 || end.Minute() != 0 {
		t.Fatalf("clamp = %v - %v, want 16:00-17:00", start, end)
	}
	if end.Sub(start) != 60*time.Minute {
		t.Fatalf("duration not preserved")
	}
}

func TestClampIsNoOpOnValidInput(t *testing.T) {
	w := DefaultBusinessHours()
	in := at(2025, time.April, 7, 10, 15)
	start, end := w.Clamp(in, 45*time.Minute)
	if !start.Equal(in) || end.Sub(start) != 45*time.Minute {
		t.Fatalf("valid input was adjusted: %v - %v", start, end)
	}
}

func TestClampSnapsEarlyStartToOpening(t *testing.T) {
	w := DefaultBusinessHours()
	start, end := w.Clamp(at(2025, time.April, 7, 6, 30), 30*time.Minute)
	if start.Hour() != 8 || start.Minute() != 0 {
		t.Fatalf("start = %v, want 08:00", start)
	}
	if end.Hour() != 8 || end.Minute() != 30 {
		t.Fatalf("end = %v, want 08:30", end)
	}
}

func TestContainsBoundariesInclusive(t *testing.T) {
	w := DefaultBusinessHours()
	if !w.Contains(at(2025, time.April, 7, 8, 0)) || !w.Contains(at(2025, time.April, 7, 17, 0)) {
		t.Fatalf("boundaries should be inside the window")
	}
	if w.Contains(at(2025, time.April, 7, 17, 1)) || w.Contains(at(2025, time.April, 7, 7, 59)) {
		t.Fatalf("instants outside the window accepted")
	}
}

func TestValidateItem(t *testing.T) {
	w := DefaultBusinessHours()
	s := at(2025, time.April, 7, 9, 0)
	e := at(2025, time.April, 7, 10, 0)
	cases := []struct {
		name  string
		title string
		start *time.Time
		end   *time.Time
		want  RejectReason
	}{
		{"ok", "standup", &s, &e, RejectNone},
		{"no title", "", &s, &e, TitleRequired},
		{"missing end", "standup", &s, nil, StartAndEndRequired},
		{"reversed", "standup", &e, &s, EndBeforeStart},
		{"equal", "standup", &s, &s, EndBeforeStart},
		{"after hours", "standup", ptr(at(2025, time.April, 7, 18, 0)), ptr(at(2025, time.April, 7, 19, 0)), OutsideBusinessHours},
	}
	for _, tc := range cases {
		if got := w.ValidateItem(tc.title, tc.start, tc.end); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMapDropCarriedDurationWins(t *testing.T) {
	w := DefaultBusinessHours()
	start, end := MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 9 * 60,
		Carried:    Carry{Kind: MoveExisting, ID: "ev-1", Duration: 90 * time.Minute},
	}, w)
	if start.Hour() != 9 || end.Sub(start) != 90*time.Minute {
		t.Fatalf("move drop = %v - %v", start, end)
	}
}

func TestMapDropDefaults(t *testing.T) {
	w := DefaultBusinessHours()
	_, end := MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 10 * 60,
		Carried:    Carry{Kind: CreateFromTask, ID: "task-1"},
	}, w)
	if end.Hour() != 11 {
		t.Fatalf("task drop should default to 60 minutes, end = %v", end)
	}
	_, end = MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 10 * 60,
		Carried:    Carry{Kind: CreateFromActivity, ID: "act-1"},
	}, w)
	if end.Minute() != 30 {
		t.Fatalf("activity drop should default to 30 minutes, end = %v", end)
	}
}

func TestMapDropCarriedDurationOnCreate(t *testing.T) {
	w := DefaultBusinessHours()
	start, end := MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 9 * 60,
		Carried:    Carry{Kind: CreateFromTask, ID: "task-1", Duration: 45 * time.Minute},
	}, w)
	if start.Hour() != 9 || end.Sub(start) != 45*time.Minute {
		t.Fatalf("task drop with carried duration = %v - %v, want 45 minutes", start, end)
	}
	start, end = MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 16*60 + 30,
		Carried:    Carry{Kind: CreateFromActivity, ID: "act-1", Duration: 45 * time.Minute},
	}, w)
	// carried create durations still clamp to closing time
	if start.Hour() != 16 || start.Minute() != 15 || end.Hour() != 17 {
		t.Fatalf("late drop = %v - %v, want 16:15-17:00", start, end)
	}
}

func TestMapDropClampsLateDefaults(t *testing.T) {
	w := DefaultBusinessHours()
	start, end := MapDrop(DropIntent{
		Day:        date(2025, time.April, 7),
		SlotMinute: 16*60 + 40,
		Carried:    Carry{Kind: CreateFromTask, ID: "task-1"},
	}, w)
	if start.Hour() != 16 || start.Minute() != 0 || end.Hour() != 17 {
		t.Fatalf("late task drop = %v - %v, want 16:00-17:00", start, end)
	}
}

func TestSnapToSlot(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0}, {14, 0}, {15, 30}, {30, 30}, {44, 30}, {45, 60}, {59, 60},
	}
	for _, tc := range cases {
		got := SnapToSlot(at(2025, time.April, 7, 10, tc.in))
		want := at(2025, time.April, 7, 10, 0).Add(time.Duration(tc.want) * time.Minute)
		if !got.Equal(want) {
			t.Fatalf("snap 10:%02d = %v, want %v", tc.in, got, want)
		}
	}
}

func TestSnapRoundTripOnGrid(t *testing.T) {
	on := at(2025, time.April, 7, 9, 30)
	if !SnapToSlot(on).Equal(on) {
		t.Fatalf("on-grid time moved")
	}
}

func TestSlots(t *testing.T) {
	got := Slots(DefaultBusinessHours(), 30*time.Minute)
	if len(got) != 19 {
		t.Fatalf("slot count = %d, want 19", len(got))
	}
	if got[0] != 8*60 || got[len(got)-1] != 17*60 {
		t.Fatalf("slots span %d..%d", got[0], got[len(got)-1])
	}
}

func TestClockRoundTrip(t *testing.T) {
	m, err := ParseClock("08:30")
	if err != nil || m != 510 {
		t.Fatalf("parse = %d, %v", m, err)
	}
	if FormatClock(510) != "08:30" {
		t.Fatalf("format = %q", FormatClock(510))
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Fatalf("invalid hour accepted")
	}
}

func ptr(t time.Time) *time.Time { return &t }
