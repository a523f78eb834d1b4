package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Writer appends to the append-only change log. Every mutation writes
// its event inside the same transaction as the row change.
type Writer struct {
	DB *sql.DB
}

type EventPayload map[string]any

// Append records a change at ts, the same instant the caller stamped
// on the mutated row. An empty ts falls back to the wall clock.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, ts, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
