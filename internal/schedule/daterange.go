// Package schedule holds the pure calendar math: view date windows,
// day overlap, lane assignment, business hours and drop slot mapping.
// Everything here is side-effect free and operates on time.Time.
package schedule

import (
	"fmt"
	"time"
)

type ViewMode string

const (
	ViewDay     ViewMode = "day"
	ViewWeek    ViewMode = "week"
	ViewMonth   ViewMode = "month"
	ViewQuarter ViewMode = "quarter"
	ViewList    ViewMode = "list"
)

// DateWindow is an inclusive calendar window. From is the first day at
// 00:00:00, To is the last day at the final nanosecond.
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ComputeRange returns the visible window for a view anchored at ref.
// Weeks start on Monday. The quarter view is a sliding three month
// window beginning at the anchor's month, not a calendar quarter.
func ComputeRange(ref time.Time, mode ViewMode) DateWindow {
	switch mode {
	case ViewWeek:
		back := (int(ref.Weekday()) + 6) % 7
		monday := startOfDay(ref).AddDate(0, 0, -back)
		return DateWindow{From: monday, To: endOfDay(monday.AddDate(0, 0, 6))}
	case ViewMonth, ViewList:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		last := time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, ref.Location())
		return DateWindow{From: first, To: endOfDay(last)}
	case ViewQuarter:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		last := time.Date(ref.Year(), ref.Month()+3, 0, 0, 0, 0, 0, ref.Location())
		return DateWindow{From: first, To: endOfDay(last)}
	default:
		return DateWindow{From: startOfDay(ref), To: endOfDay(ref)}
	}
}

// Contains reports whether the calendar date of t falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	d := startOfDay(t)
	return !d.Before(startOfDay(w.From)) && !d.After(startOfDay(w.To))
}

// Days lists every calendar day of the window at 00:00:00.
func (w DateWindow) Days() []time.Time {
	var out []time.Time
	for d := startOfDay(w.From); !d.After(w.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// QuarterLabel names the calendar quarter the anchor month falls in.
// Display only; the quarter window itself slides month by month.
func QuarterLabel(ref time.Time) string {
	q := (int(ref.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d %d", q, ref.Year())
}
