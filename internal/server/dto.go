package server

import (
	"planline/internal/domain"
)

// Request payloads

type CreateItemRequest struct {
	ID        *string `json:"id,omitempty"`
	Title     string  `json:"title"`
	Kind      string  `json:"kind,omitempty" enum:"focus,meeting,travel,elephant_bite,appointment,green,red,custom,task,activity"`
	Start     *string `json:"start,omitempty" format:"date-time"`
	End       *string `json:"end,omitempty" format:"date-time"`
	KeyAreaID *string `json:"key_area_id,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type UpdateItemRequest struct {
	Title         *string `json:"title,omitempty"`
	Kind          *string `json:"kind,omitempty" enum:"focus,meeting,travel,elephant_bite,appointment,green,red,custom,task,activity"`
	Start         *string `json:"start,omitempty" format:"date-time"`
	End           *string `json:"end,omitempty" format:"date-time"`
	ClearSchedule bool    `json:"clear_schedule,omitempty"`
	KeyAreaID     *string `json:"key_area_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Done          *bool   `json:"done,omitempty"`
}

type QuickCreateRequest struct {
	Title string `json:"title"`
	Kind  string `json:"kind,omitempty" enum:"focus,meeting,travel,elephant_bite,appointment,green,red,custom,task,activity"`
	At    string `json:"at" format:"date-time"`
}

type DropRequest struct {
	Day        string `json:"day" format:"date"`
	SlotMinute int    `json:"slot_minute" minimum:"0" maximum:"1439"`
}

type SavePrefsRequest struct {
	ViewMode         *string `json:"view_mode,omitempty" enum:"day,week,month,quarter,list"`
	AnchorDate       *string `json:"anchor_date,omitempty" format:"date"`
	DayStartHour     *int    `json:"day_start_hour,omitempty"`
	DayEndHour       *int    `json:"day_end_hour,omitempty"`
	AllDayMaxVisible *int    `json:"all_day_max_visible,omitempty"`
	ShowWeekends     *bool   `json:"show_weekends,omitempty"`
}

func (r SavePrefsRequest) apply(p *domain.Prefs) {
	if r.ViewMode != nil {
		p.ViewMode = *r.ViewMode
	}
	if r.AnchorDate != nil {
		p.AnchorDate = *r.AnchorDate
	}
	if r.DayStartHour != nil {
		p.DayStartHour = *r.DayStartHour
	}
	if r.DayEndHour != nil {
		p.DayEndHour = *r.DayEndHour
	}
	if r.AllDayMaxVisible != nil {
		p.AllDayMaxVisible = *r.AllDayMaxVisible
	}
	if r.ShowWeekends != nil {
		p.ShowWeekends = *r.ShowWeekends
	}
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Response payloads

type ItemResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Kind      string  `json:"kind"`
	Start     *string `json:"start,omitempty" format:"date-time"`
	End       *string `json:"end,omitempty" format:"date-time"`
	KeyAreaID *string `json:"key_area_id,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Done      bool    `json:"done,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
	UpdatedAt string  `json:"updated_at" format:"date-time"`
}

func itemResponse(it domain.CalendarItem) ItemResponse {
	return ItemResponse{
		ID:        it.ID,
		Title:     it.Title,
		Kind:      it.Kind,
		Start:     it.Start,
		End:       it.End,
		KeyAreaID: it.KeyAreaID,
		Notes:     it.Notes,
		Done:      it.Done,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func mapItems(items []domain.CalendarItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse(it))
	}
	return out
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

type RangeResponse struct {
	View  string `json:"view"`
	Label string `json:"label,omitempty"`
	From  string `json:"from" format:"date"`
	To    string `json:"to" format:"date"`
}

type PrefsResponse struct {
	ActorID          string `json:"actor_id"`
	ViewMode         string `json:"view_mode"`
	AnchorDate       string `json:"anchor_date" format:"date"`
	DayStartHour     int    `json:"day_start_hour"`
	DayEndHour       int    `json:"day_end_hour"`
	AllDayMaxVisible int    `json:"all_day_max_visible"`
	ShowWeekends     bool   `json:"show_weekends"`
	UpdatedAt        string `json:"updated_at,omitempty" format:"date-time"`
}

func prefsResponse(p domain.Prefs) PrefsResponse {
	return PrefsResponse{
		ActorID:          p.ActorID,
		ViewMode:         p.ViewMode,
		AnchorDate:       p.AnchorDate,
		DayStartHour:     p.DayStartHour,
		DayEndHour:       p.DayEndHour,
		AllDayMaxVisible: p.AllDayMaxVisible,
		ShowWeekends:     p.ShowWeekends,
		UpdatedAt:        p.UpdatedAt,
	}
}

type EventsResponse struct {
	Events     []domain.Event `json:"events"`
	NextCursor int64          `json:"next_cursor,omitempty"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	Key       string `json:"key,omitempty"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Source  string `json:"source"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}
