package engine

import (
	"context"
	"time"

	"planline/internal/domain"
	"planline/internal/repo"
	"planline/internal/schedule"
)

// AgendaEntry is one laid-out item: the item plus its assigned lane.
type AgendaEntry struct {
	Item domain.CalendarItem `json:"item"`
	Lane int                 `json:"lane"`
}

// AgendaDay is the layout for one visible day. Multi-day items land in
// the all-day strip with day-granular lanes; the rest fill the hour
// grid with instant-granular lanes.
type AgendaDay struct {
	Date        string        `json:"date" format:"date"`
	AllDay      []AgendaEntry `json:"all_day,omitempty"`
	AllDayMore  int           `json:"all_day_more,omitempty"`
	AllDayLanes int           `json:"all_day_lanes"`
	Timed       []AgendaEntry `json:"timed,omitempty"`
	TimedLanes  int           `json:"timed_lanes"`
}

// Agenda is a fully laid-out window ready to render.
type Agenda struct {
	Mode       string                `json:"mode"`
	Label      string                `json:"label,omitempty"`
	From       string                `json:"from" format:"date"`
	To         string                `json:"to" format:"date"`
	Days       []AgendaDay           `json:"days"`
	Unattached []domain.CalendarItem `json:"unattached,omitempty"`
}

type agendaItem struct {
	item domain.CalendarItem
	span schedule.Span
}

// ComputeAgenda resolves the window for the anchor and view, loads the
// window's items and lays every day out. Items with malformed
// timestamps are not schedulable and join the unattached tray.
func (e Engine) ComputeAgenda(ctx context.Context, anchor time.Time, mode schedule.ViewMode) (Agenda, error) {
	window := schedule.ComputeRange(anchor, mode)
	out := Agenda{
		Mode: string(mode),
		From: window.From.Format("2006-01-02"),
		To:   window.To.Format("2006-01-02"),
	}
	if mode == schedule.ViewQuarter {
		out.Label = schedule.QuarterLabel(anchor)
	}

	items, err := e.Repo.ListItems(ctx, repo.ItemFilters{
		From:  window.From.UTC().Format(time.RFC3339),
		To:    window.To.UTC().Format(time.RFC3339),
		Limit: 1000,
	})
	if err != nil {
		return Agenda{}, err
	}

	var scheduled []agendaItem
	for _, it := range items {
		start, errS := parseTime(it.Start)
		end, errE := parseTime(it.End)
		if errS != nil || errE != nil {
			out.Unattached = append(out.Unattached, it)
			continue
		}
		span, ok := schedule.NewSpan(start, end)
		if !ok {
			out.Unattached = append(out.Unattached, it)
			continue
		}
		scheduled = append(scheduled, agendaItem{item: it, span: span})
	}

	maxVisible := 2
	if e.Config != nil {
		maxVisible = e.Config.Calendar.View.AllDayMaxVisible
	}
	for _, day := range window.Days() {
		out.Days = append(out.Days, layoutDay(day, scheduled, maxVisible))
	}

	tray, err := e.Repo.ListUnattached(ctx)
	if err != nil {
		return Agenda{}, err
	}
	out.Unattached = append(out.Unattached, tray...)
	return out, nil
}

func layoutDay(day time.Time, scheduled []agendaItem, maxVisible int) AgendaDay {
	out := AgendaDay{Date: day.Format("2006-01-02")}

	var allDay, timed []schedule.LaneItem
	byID := make(map[string]domain.CalendarItem)
	for _, ai := range scheduled {
		if !ai.span.OverlapsDay(day) {
			continue
		}
		byID[ai.item.ID] = ai.item
		li := schedule.LaneItem{
			ID:        ai.item.ID,
			CreatedAt: ai.item.CreatedAt,
			Title:     ai.item.Title,
		}
		if ai.span.MultiDay() {
			li.Span = ai.span.DaySpan()
			allDay = append(allDay, li)
		} else {
			li.Span = ai.span
			timed = append(timed, li)
		}
	}

	allDayLanes := schedule.AssignLanes(allDay)
	inline, more := schedule.Collapse(allDay, allDayLanes, maxVisible)
	for _, li := range inline {
		out.AllDay = append(out.AllDay, AgendaEntry{Item: byID[li.ID], Lane: allDayLanes.Lanes[li.ID]})
	}
	out.AllDayMore = more
	out.AllDayLanes = allDayLanes.Count

	timedLanes := schedule.AssignLanes(timed)
	for _, li := range timed {
		out.Timed = append(out.Timed, AgendaEntry{Item: byID[li.ID], Lane: timedLanes.Lanes[li.ID]})
	}
	out.TimedLanes = timedLanes.Count
	return out
}
