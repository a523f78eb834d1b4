package planlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Planline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Item represents the API calendar item model.
type Item struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Kind      string  `json:"kind"`
	Start     *string `json:"start,omitempty"`
	End       *string `json:"end,omitempty"`
	KeyAreaID *string `json:"key_area_id,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Done      bool    `json:"done,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// AgendaEntry is one laid-out item with its lane.
type AgendaEntry struct {
	Item Item `json:"item"`
	Lane int  `json:"lane"`
}

// AgendaDay is the layout for one visible day.
type AgendaDay struct {
	Date        string        `json:"date"`
	AllDay      []AgendaEntry `json:"all_day,omitempty"`
	AllDayMore  int           `json:"all_day_more,omitempty"`
	AllDayLanes int           `json:"all_day_lanes"`
	Timed       []AgendaEntry `json:"timed,omitempty"`
	TimedLanes  int           `json:"timed_lanes"`
}

// Agenda is a laid-out window ready to render.
type Agenda struct {
	Mode       string      `json:"mode"`
	Label      string      `json:"label,omitempty"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Days       []AgendaDay `json:"days"`
	Unattached []Item      `json:"unattached,omitempty"`
}

// DateRange is a resolved view window.
type DateRange struct {
	View  string `json:"view"`
	Label string `json:"label,omitempty"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Prefs are per-actor view preferences.
type Prefs struct {
	ActorID          string `json:"actor_id"`
	ViewMode         string `json:"view_mode"`
	AnchorDate       string `json:"anchor_date"`
	DayStartHour     int    `json:"day_start_hour"`
	DayEndHour       int    `json:"day_end_hour"`
	AllDayMaxVisible int    `json:"all_day_max_visible"`
	ShowWeekends     bool   `json:"show_weekends"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps event listings with a cursor.
type PaginatedEvents struct {
	Events     []Event `json:"events"`
	NextCursor int64   `json:"next_cursor,omitempty"`
}

// CreateItem creates a calendar item through the explicit form path.
func (c *Client) CreateItem(ctx context.Context, title, kind string, start, end *string) (Item, error) {
	body := map[string]any{
		"title": title,
		"kind":  kind,
	}
	if start != nil {
		body["start"] = *start
	}
	if end != nil {
		body["end"] = *end
	}
	var resp Item
	err := c.do(ctx, http.MethodPost, "v0/calendar/items", body, &resp)
	return resp, err
}

// QuickCreate creates an item at a clicked time with default duration.
func (c *Client) QuickCreate(ctx context.Context, title, kind, at string) (Item, error) {
	body := map[string]any{
		"title": title,
		"kind":  kind,
		"at":    at,
	}
	var resp Item
	err := c.do(ctx, http.MethodPost, "v0/calendar/quick", body, &resp)
	return resp, err
}

// GetItem fetches an item by id.
func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	var resp Item
	err := c.do(ctx, http.MethodGet, "v0/calendar/items/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListItems returns items inside a date window (RFC3339 bounds, both optional).
func (c *Client) ListItems(ctx context.Context, from, to string) ([]Item, error) {
	endpoint := "v0/calendar/items"
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Tray returns unscheduled tray items.
func (c *Client) Tray(ctx context.Context) ([]Item, error) {
	var resp struct {
		Items []Item `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/calendar/unattached", nil, &resp)
	return resp.Items, err
}

// Drop moves or schedules an item onto a day and slot minute.
func (c *Client) Drop(ctx context.Context, itemID, day string, slotMinute int) (Item, error) {
	body := map[string]any{
		"day":         day,
		"slot_minute": slotMinute,
	}
	var resp Item
	endpoint := fmt.Sprintf("v0/calendar/items/%s/drop", url.PathEscape(itemID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v0/calendar/items/"+url.PathEscape(id), nil, nil)
}

// Agenda returns the laid-out agenda for an anchor date and view mode.
func (c *Client) Agenda(ctx context.Context, anchor, view string) (Agenda, error) {
	q := url.Values{}
	if anchor != "" {
		q.Set("anchor", anchor)
	}
	if view != "" {
		q.Set("view", view)
	}
	endpoint := "v0/calendar/agenda"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp Agenda
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Range resolves the date window for an anchor date and view mode.
func (c *Client) Range(ctx context.Context, anchor, view string) (DateRange, error) {
	q := url.Values{}
	if anchor != "" {
		q.Set("anchor", anchor)
	}
	if view != "" {
		q.Set("view", view)
	}
	endpoint := "v0/calendar/range"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp DateRange
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetPrefs returns the caller's view preferences.
func (c *Client) GetPrefs(ctx context.Context) (Prefs, error) {
	var resp Prefs
	err := c.do(ctx, http.MethodGet, "v0/prefs", nil, &resp)
	return resp, err
}

// SavePrefs updates the caller's view preferences.
func (c *Client) SavePrefs(ctx context.Context, p Prefs) (Prefs, error) {
	body := map[string]any{
		"day_start_hour":      p.DayStartHour,
		"day_end_hour":        p.DayEndHour,
		"all_day_max_visible": p.AllDayMaxVisible,
		"show_weekends":       p.ShowWeekends,
	}
	if p.ViewMode != "" {
		body["view_mode"] = p.ViewMode
	}
	if p.AnchorDate != "" {
		body["anchor_date"] = p.AnchorDate
	}
	var resp Prefs
	err := c.do(ctx, http.MethodPut, "v0/prefs", body, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, 0)
	return page.Events, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor int64) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor > 0 {
		q.Set("cursor", fmt.Sprint(cursor))
	}
	endpoint := "v0/log"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
