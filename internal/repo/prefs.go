package repo

import (
	"context"
	"database/sql"

	"planline/internal/domain"
)

// GetPrefs returns the persisted calendar UI state for an actor.
func (r Repo) GetPrefs(ctx context.Context, actorID string) (domain.Prefs, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT actor_id,view_mode,anchor_date,day_start_hour,day_end_hour,all_day_max_visible,show_weekends,updated_at FROM prefs WHERE actor_id=?`, actorID)
	var p domain.Prefs
	var weekends int
	err := row.Scan(&p.ActorID, &p.ViewMode, &p.AnchorDate, &p.DayStartHour, &p.DayEndHour, &p.AllDayMaxVisible, &weekends, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.ShowWeekends = weekends != 0
	return p, nil
}

// UpsertPrefs saves the calendar UI state so the view survives restarts.
func (r Repo) UpsertPrefs(ctx context.Context, tx *sql.Tx, p domain.Prefs) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO prefs(actor_id,view_mode,anchor_date,day_start_hour,day_end_hour,all_day_max_visible,show_weekends,updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(actor_id) DO UPDATE SET view_mode=excluded.view_mode,anchor_date=excluded.anchor_date,day_start_hour=excluded.day_start_hour,day_end_hour=excluded.day_end_hour,all_day_max_visible=excluded.all_day_max_visible,show_weekends=excluded.show_weekends,updated_at=excluded.updated_at`,
		p.ActorID, p.ViewMode, p.AnchorDate, p.DayStartHour, p.DayEndHour, p.AllDayMaxVisible, boolInt(p.ShowWeekends), p.UpdatedAt)
	return err
}
