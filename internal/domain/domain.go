package domain

type CalendarItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Kind      string  `json:"kind" enum:"focus,meeting,travel,elephant_bite,appointment,green,red,custom,task,activity"`
	Start     *string `json:"start,omitempty" format:"date-time"`
	End       *string `json:"end,omitempty" format:"date-time"`
	KeyAreaID *string `json:"key_area_id,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Done      bool    `json:"done,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
	UpdatedAt string  `json:"updated_at" format:"date-time"`
}

// Scheduled reports whether the item occupies a concrete time range.
// Items without both endpoints show up in the unattached tray only.
func (c CalendarItem) Scheduled() bool {
	return c.Start != nil && c.End != nil
}

type Prefs struct {
	ActorID          string `json:"actor_id"`
	ViewMode         string `json:"view_mode" enum:"day,week,month,quarter,list"`
	AnchorDate       string `json:"anchor_date" format:"date"`
	DayStartHour     int    `json:"day_start_hour"`
	DayEndHour       int    `json:"day_end_hour"`
	AllDayMaxVisible int    `json:"all_day_max_visible"`
	ShowWeekends     bool   `json:"show_weekends"`
	UpdatedAt        string `json:"updated_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
