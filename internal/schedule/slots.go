package schedule

import (
	"fmt"
	"time"
)

// Default durations applied when a drop carries no duration of its own.
const (
	DefaultTaskDuration        = 60 * time.Minute
	DefaultActivityDuration    = 30 * time.Minute
	DefaultQuickCreateDuration = 30 * time.Minute
)

// CarryKind tags what a drop payload carries. The three kinds are
// mutually exclusive variants of the same payload, not separate flows.
type CarryKind string

const (
	MoveExisting       CarryKind = "move_existing"
	CreateFromTask     CarryKind = "create_from_task"
	CreateFromActivity CarryKind = "create_from_activity"
)

// Carry identifies what was dragged onto the grid. Duration is the
// carried length: the item's current span for MoveExisting, the
// configured default for the create variants. Zero falls back to the
// package defaults.
type Carry struct {
	Kind     CarryKind
	ID       string
	Duration time.Duration
}

// DropIntent is a resolved drop target: a day column plus a quantized
// slot expressed as a minute-of-day offset.
type DropIntent struct {
	Day        time.Time
	SlotMinute int
	Carried    Carry
}

// MapDrop turns a drop into a proposed (start, end) pair. A moved item
// keeps its carried duration unclamped; create variants use the carried
// duration (or the kind's default when none is carried) and the result
// is clamped into the business hours window.
func MapDrop(intent DropIntent, w BusinessHours) (time.Time, time.Time) {
	start := startOfDay(intent.Day).Add(time.Duration(intent.SlotMinute) * time.Minute)
	if intent.Carried.Kind == MoveExisting && intent.Carried.Duration > 0 {
		return start, start.Add(intent.Carried.Duration)
	}
	d := intent.Carried.Duration
	if d <= 0 {
		d = DefaultQuickCreateDuration
		switch intent.Carried.Kind {
		case CreateFromTask:
			d = DefaultTaskDuration
		case CreateFromActivity:
			d = DefaultActivityDuration
		}
	}
	return w.Clamp(start, d)
}

// SnapToSlot rounds a free-form time entry to the half-hour grid:
// minutes 0-14 round down to :00, 15-44 to :30, 45-59 up to the next
// hour's :00. Already on-grid times pass through unchanged.
func SnapToSlot(t time.Time) time.Time {
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	switch m := t.Minute(); {
	case m < 15:
		return base
	case m < 45:
		return base.Add(30 * time.Minute)
	default:
		return base.Add(time.Hour)
	}
}

// Slots lists the minute-of-day offsets of an hour grid covering the
// window at the given step, closing boundary included.
func Slots(w BusinessHours, step time.Duration) []int {
	stepMin := int(step / time.Minute)
	if stepMin <= 0 {
		stepMin = 30
	}
	var out []int
	for m := w.OpenMinute; m <= w.CloseMinute; m += stepMin {
		out = append(out, m)
	}
	return out
}

// ParseClock converts "HH:MM" to a minute-of-day offset.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts a minute-of-day offset back to "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
