package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"planline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const itemColumns = `id,title,kind,start_at,end_at,key_area_id,COALESCE(notes,'') AS notes,done,created_at,updated_at`

// Kind categories backing the category list routes: events are the
// scheduled block kinds, todos the tray kinds, appointments their own.
var categories = map[string][]string{
	"events":       {"focus", "meeting", "travel", "elephant_bite", "green", "red", "custom"},
	"todos":        {"task", "activity"},
	"appointments": {"appointment"},
}

// CategoryKinds maps a category name to its member kinds.
func CategoryKinds(category string) ([]string, bool) {
	kinds, ok := categories[category]
	return kinds, ok
}

func scanItem(scan func(dest ...any) error) (domain.CalendarItem, error) {
	var it domain.CalendarItem
	var start, end, keyArea sql.NullString
	var done int
	err := scan(&it.ID, &it.Title, &it.Kind, &start, &end, &keyArea, &it.Notes, &done, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return it, err
	}
	if start.Valid {
		it.Start = &start.String
	}
	if end.Valid {
		it.End = &end.String
	}
	if keyArea.Valid {
		it.KeyAreaID = &keyArea.String
	}
	it.Done = done != 0
	return it, nil
}

func (r Repo) InsertItem(ctx context.Context, tx *sql.Tx, it domain.CalendarItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO items(id,title,kind,start_at,end_at,key_area_id,notes,done,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Title, it.Kind, nullablePtr(it.Start), nullablePtr(it.End), nullablePtr(it.KeyAreaID), nullable(it.Notes), boolInt(it.Done), it.CreatedAt, it.UpdatedAt)
	return err
}

func (r Repo) UpdateItem(ctx context.Context, tx *sql.Tx, it domain.CalendarItem) error {
	res, err := tx.ExecContext(ctx, `UPDATE items SET title=?,kind=?,start_at=?,end_at=?,key_area_id=?,notes=?,done=?,updated_at=? WHERE id=?`,
		it.Title, it.Kind, nullablePtr(it.Start), nullablePtr(it.End), nullablePtr(it.KeyAreaID), nullable(it.Notes), boolInt(it.Done), it.UpdatedAt, it.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetItem(ctx context.Context, id string) (domain.CalendarItem, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id=?`, id)
	it, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

func (r Repo) GetItemTx(ctx context.Context, tx *sql.Tx, id string) (domain.CalendarItem, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id=?`, id)
	it, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

func (r Repo) DeleteItem(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type ItemFilters struct {
	From            string
	To              string
	Kinds           []string
	KeyAreaID       string
	Done            *bool
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

// ListItems returns items matching the filters, newest first. A
// From/To pair selects items whose normalized range touches the
// window; items with no timestamps at all never match a window query.
func (r Repo) ListItems(ctx context.Context, f ItemFilters) ([]domain.CalendarItem, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.From != "" {
		clauses = append(clauses, "COALESCE(end_at,start_at) >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		clauses = append(clauses, "COALESCE(start_at,end_at) <= ?")
		args = append(args, f.To)
	}
	if len(f.Kinds) > 0 {
		clauses = append(clauses, "kind IN (?"+strings.Repeat(",?", len(f.Kinds)-1)+")")
		for _, k := range f.Kinds {
			args = append(args, k)
		}
	}
	if f.KeyAreaID != "" {
		clauses = append(clauses, "key_area_id=?")
		args = append(args, f.KeyAreaID)
	}
	if f.Done != nil {
		clauses = append(clauses, "done=?")
		args = append(args, boolInt(*f.Done))
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY created_at DESC, id DESC LIMIT ?`, itemColumns, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CalendarItem
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// ListUnattached returns items with no timestamps, oldest first. They
// render in the tray next to the calendar.
func (r Repo) ListUnattached(ctx context.Context) ([]domain.CalendarItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+itemColumns+` FROM items WHERE start_at IS NULL AND end_at IS NULL ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CalendarItem
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, evtType, entityKind, entityID)
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter reads the change log forward from a cursor, for webhook
// delivery.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullablePtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
