package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"planline/internal/config"
	"planline/internal/domain"
	"planline/internal/events"
	"planline/internal/repo"
	"planline/internal/schedule"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) hours() schedule.BusinessHours {
	if e.Config == nil {
		return schedule.DefaultBusinessHours()
	}
	return e.Config.BusinessHours()
}

// hoursFor prefers the actor's saved day window over the config one.
func (e Engine) hoursFor(ctx context.Context, actorID string) schedule.BusinessHours {
	if actorID != "" {
		if p, err := e.Repo.GetPrefs(ctx, actorID); err == nil {
			if w, ok := prefsWindow(p); ok {
				return w
			}
		}
	}
	return e.hours()
}

func prefsWindow(p domain.Prefs) (schedule.BusinessHours, bool) {
	if p.DayStartHour < 0 || p.DayEndHour > 24 || p.DayStartHour >= p.DayEndHour {
		return schedule.BusinessHours{}, false
	}
	return schedule.BusinessHours{
		OpenMinute:  p.DayStartHour * 60,
		CloseMinute: p.DayEndHour * 60,
	}, true
}

// ValidationError carries a user-correctable rejection from the
// create/edit path. Recoverable, never fatal.
type ValidationError struct {
	Reason schedule.RejectReason
}

func (v ValidationError) Error() string {
	switch v.Reason {
	case schedule.TitleRequired:
		return "title is required"
	case schedule.StartAndEndRequired:
		return "start and end are required"
	case schedule.EndBeforeStart:
		return "end must be after start"
	case schedule.OutsideBusinessHours:
		return "time is outside business hours"
	default:
		return string(v.Reason)
	}
}

// unattachedKinds may exist without any timestamps; they live in the
// tray until dropped onto the grid.
var unattachedKinds = map[string]bool{"task": true, "activity": true}

var itemKinds = map[string]bool{
	"focus": true, "meeting": true, "travel": true, "elephant_bite": true,
	"appointment": true, "green": true, "red": true, "custom": true,
	"task": true, "activity": true,
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q", *s)
	}
	return &t, nil
}

// formatTime normalizes to UTC before storing. Range filters compare
// RFC3339 strings lexically, so every stored timestamp must carry the
// same Z suffix.
func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ItemCreateOptions are parameters for creating a calendar item.
type ItemCreateOptions struct {
	ID        string
	Title     string
	Kind      string
	Start     *time.Time
	End       *time.Time
	KeyAreaID string
	Notes     string
	ActorID   string
}

// CreateItem creates an item through the explicit form path. Scheduled
// kinds are validated against the business hours window and never
// clamped; tray kinds may omit both endpoints.
func (e Engine) CreateItem(ctx context.Context, opts ItemCreateOptions) (domain.CalendarItem, error) {
	if opts.Kind == "" {
		opts.Kind = "custom"
	}
	if !itemKinds[opts.Kind] {
		return domain.CalendarItem{}, fmt.Errorf("invalid kind %q", opts.Kind)
	}
	if err := e.validateExplicit(ctx, opts.ActorID, opts.Title, opts.Kind, opts.Start, opts.End); err != nil {
		return domain.CalendarItem{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	it := domain.CalendarItem{
		ID:        opts.ID,
		Title:     opts.Title,
		Kind:      opts.Kind,
		Start:     formatTime(opts.Start),
		End:       formatTime(opts.End),
		Notes:     opts.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if opts.KeyAreaID != "" {
		if err := e.checkKeyArea(opts.KeyAreaID); err != nil {
			return domain.CalendarItem{}, err
		}
		it.KeyAreaID = &opts.KeyAreaID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertItem(ctx, tx, it); err != nil {
		return domain.CalendarItem{}, fmt.Errorf("insert item: %w", err)
	}
	if err := e.Events.Append(ctx, tx, now, "item.created", "item", it.ID, opts.ActorID, events.EventPayload{"kind": it.Kind, "title": it.Title}); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CalendarItem{}, err
	}
	return it, nil
}

func (e Engine) validateExplicit(ctx context.Context, actorID, title, kind string, start, end *time.Time) error {
	if unattachedKinds[kind] && start == nil && end == nil {
		if title == "" {
			return ValidationError{Reason: schedule.TitleRequired}
		}
		return nil
	}
	if reason := e.hoursFor(ctx, actorID).ValidateItem(title, start, end); reason != schedule.RejectNone {
		return ValidationError{Reason: reason}
	}
	return nil
}

func (e Engine) checkKeyArea(id string) error {
	if e.Config == nil || len(e.Config.KeyAreas.Catalog) == 0 {
		return nil
	}
	if _, ok := e.Config.KeyAreas.Catalog[id]; !ok {
		return fmt.Errorf("unknown key area %q", id)
	}
	return nil
}

// ItemUpdateOptions are parameters for editing an item. Nil fields are
// left untouched. ClearSchedule removes both endpoints, sending the
// item back to the tray.
type ItemUpdateOptions struct {
	ID            string
	Title         *string
	Kind          *string
	Start         *time.Time
	End           *time.Time
	ClearSchedule bool
	KeyAreaID     *string
	Notes         *string
	Done          *bool
	ActorID       string
}

func (e Engine) UpdateItem(ctx context.Context, opts ItemUpdateOptions) (domain.CalendarItem, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, opts.ID)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	if opts.Title != nil {
		it.Title = *opts.Title
	}
	if opts.Kind != nil {
		if !itemKinds[*opts.Kind] {
			return domain.CalendarItem{}, fmt.Errorf("invalid kind %q", *opts.Kind)
		}
		it.Kind = *opts.Kind
	}
	if opts.ClearSchedule {
		it.Start = nil
		it.End = nil
	}
	if opts.Start != nil {
		it.Start = formatTime(opts.Start)
	}
	if opts.End != nil {
		it.End = formatTime(opts.End)
	}
	if opts.KeyAreaID != nil {
		if *opts.KeyAreaID == "" {
			it.KeyAreaID = nil
		} else {
			if err := e.checkKeyArea(*opts.KeyAreaID); err != nil {
				return domain.CalendarItem{}, err
			}
			it.KeyAreaID = opts.KeyAreaID
		}
	}
	if opts.Notes != nil {
		it.Notes = *opts.Notes
	}
	if opts.Done != nil {
		it.Done = *opts.Done
	}

	start, err := parseTime(it.Start)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	end, err := parseTime(it.End)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	if err := e.validateExplicit(ctx, opts.ActorID, it.Title, it.Kind, start, end); err != nil {
		return domain.CalendarItem{}, err
	}

	it.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := e.Events.Append(ctx, tx, it.UpdatedAt, "item.updated", "item", it.ID, opts.ActorID, events.EventPayload{"kind": it.Kind}); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CalendarItem{}, err
	}
	return it, nil
}

// QuickCreateOptions back the single click/drag create flow. The
// instant is snapped to the half-hour grid and clamped into business
// hours with the kind's default duration.
type QuickCreateOptions struct {
	Title   string
	Kind    string
	At      time.Time
	ActorID string
}

func (e Engine) QuickCreate(ctx context.Context, opts QuickCreateOptions) (domain.CalendarItem, error) {
	if opts.Title == "" {
		return domain.CalendarItem{}, ValidationError{Reason: schedule.TitleRequired}
	}
	if opts.Kind == "" {
		opts.Kind = "custom"
	}
	if !itemKinds[opts.Kind] {
		return domain.CalendarItem{}, fmt.Errorf("invalid kind %q", opts.Kind)
	}
	dur := schedule.DefaultQuickCreateDuration
	if e.Config != nil {
		dur = e.Config.DurationFor(opts.Kind)
	}
	start, end := e.hoursFor(ctx, opts.ActorID).Clamp(schedule.SnapToSlot(opts.At), dur)

	now := e.now().UTC().Format(time.RFC3339)
	it := domain.CalendarItem{
		ID:        uuid.NewString(),
		Title:     opts.Title,
		Kind:      opts.Kind,
		Start:     formatTime(&start),
		End:       formatTime(&end),
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertItem(ctx, tx, it); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := e.Events.Append(ctx, tx, now, "item.created", "item", it.ID, opts.ActorID, events.EventPayload{"kind": it.Kind, "quick": true}); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CalendarItem{}, err
	}
	return it, nil
}

// DropOptions describe a drop onto the hour grid: a target day plus a
// quantized minute-of-day slot.
type DropOptions struct {
	ItemID     string
	Day        time.Time
	SlotMinute int
	ActorID    string
}

// Drop reschedules an existing item or schedules a tray item. An item
// that already has both endpoints moves keeping its duration; an
// unattached task or activity lands with its default duration, clamped
// into business hours.
func (e Engine) Drop(ctx context.Context, opts DropOptions) (domain.CalendarItem, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, opts.ItemID)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	start, err := parseTime(it.Start)
	if err != nil {
		return domain.CalendarItem{}, err
	}
	end, err := parseTime(it.End)
	if err != nil {
		return domain.CalendarItem{}, err
	}

	carry := schedule.Carry{ID: it.ID}
	evtType := "item.dropped"
	switch {
	case start != nil && end != nil:
		carry.Kind = schedule.MoveExisting
		carry.Duration = end.Sub(*start)
		evtType = "item.moved"
	case it.Kind == "activity":
		carry.Kind = schedule.CreateFromActivity
		carry.Duration = e.dropDuration(it.Kind)
	default:
		carry.Kind = schedule.CreateFromTask
		carry.Duration = e.dropDuration(it.Kind)
	}
	newStart, newEnd := schedule.MapDrop(schedule.DropIntent{
		Day:        opts.Day,
		SlotMinute: opts.SlotMinute,
		Carried:    carry,
	}, e.hoursFor(ctx, opts.ActorID))

	it.Start = formatTime(&newStart)
	it.End = formatTime(&newEnd)
	it.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := e.Events.Append(ctx, tx, it.UpdatedAt, evtType, "item", it.ID, opts.ActorID, events.EventPayload{
		"start": *it.Start,
		"end":   *it.End,
	}); err != nil {
		return domain.CalendarItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CalendarItem{}, err
	}
	return it, nil
}

// dropDuration returns the configured default length for a scheduled
// tray item, or zero to let the package defaults apply.
func (e Engine) dropDuration(kind string) time.Duration {
	if e.Config == nil {
		return 0
	}
	return e.Config.DurationFor(kind)
}

func (e Engine) GetItem(ctx context.Context, id string) (domain.CalendarItem, error) {
	return e.Repo.GetItem(ctx, id)
}

func (e Engine) ListItems(ctx context.Context, f repo.ItemFilters) ([]domain.CalendarItem, error) {
	return e.Repo.ListItems(ctx, f)
}

func (e Engine) DeleteItem(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteItem(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, e.now().UTC().Format(time.RFC3339), "item.deleted", "item", id, actorID, events.EventPayload{"kind": it.Kind}); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPrefs returns the actor's persisted calendar state, or defaults
// from config when nothing is stored yet.
func (e Engine) GetPrefs(ctx context.Context, actorID string) (domain.Prefs, error) {
	p, err := e.Repo.GetPrefs(ctx, actorID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Prefs{}, err
	}
	p = domain.Prefs{
		ActorID:          actorID,
		ViewMode:         "week",
		AnchorDate:       e.now().UTC().Format("2006-01-02"),
		DayStartHour:     8,
		DayEndHour:       17,
		AllDayMaxVisible: 2,
		ShowWeekends:     true,
	}
	if e.Config != nil {
		h := e.hours()
		p.ViewMode = e.Config.Calendar.View.Default
		p.DayStartHour = h.OpenMinute / 60
		p.DayEndHour = h.CloseMinute / 60
		p.AllDayMaxVisible = e.Config.Calendar.View.AllDayMaxVisible
		p.ShowWeekends = e.Config.Calendar.View.ShowWeekends
	}
	return p, nil
}

func (e Engine) SavePrefs(ctx context.Context, p domain.Prefs) (domain.Prefs, error) {
	if p.ActorID == "" {
		return domain.Prefs{}, errors.New("actor_id required")
	}
	switch schedule.ViewMode(p.ViewMode) {
	case schedule.ViewDay, schedule.ViewWeek, schedule.ViewMonth, schedule.ViewQuarter, schedule.ViewList:
	default:
		return domain.Prefs{}, fmt.Errorf("invalid view mode %q", p.ViewMode)
	}
	if _, err := time.Parse("2006-01-02", p.AnchorDate); err != nil {
		return domain.Prefs{}, fmt.Errorf("invalid anchor date %q", p.AnchorDate)
	}
	p.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Prefs{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertPrefs(ctx, tx, p); err != nil {
		return domain.Prefs{}, err
	}
	if err := e.Events.Append(ctx, tx, p.UpdatedAt, "prefs.updated", "prefs", p.ActorID, p.ActorID, events.EventPayload{"view": p.ViewMode}); err != nil {
		return domain.Prefs{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Prefs{}, err
	}
	return p, nil
}
