package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"iml-cli/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type eventContractError struct{ msg string }

func (e eventContractError) Error() string { return "event contract: " + e.msg }

// AppendEvent records a mutation in the workspace event log.
func (s Store) AppendEvent(ctx context.Context, actorID, typ, entityID string, payload any) error {
	actorID = strings.TrimSpace(actorID)
	typ = strings.TrimSpace(typ)
	entityID = strings.TrimSpace(entityID)
	switch {
	case typ == "":
		return eventContractError{"missing type"}
	case entityID == "":
		return eventContractError{"missing entity id"}
	case actorID == "":
		return eventContractError{"missing actor id"}
	}

	pb, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM events`).Scan(&seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(event_id, entity_id, type, actor_id, payload_json, issued_at_unixms, seq) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), entityID, typ, actorID, string(pb), time.Now().UTC().UnixMilli(), seq); err != nil {
		return fmt.Errorf("append event %s: %w", typ, err)
	}
	return tx.Commit()
}

// ReadEvents returns events oldest-first. limit <= 0 returns all.
func (s Store) ReadEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.queryEvents(ctx, "", limit)
}

// ReadEventsForEntity returns one entity's events oldest-first.
func (s Store) ReadEventsForEntity(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return []model.Event{}, nil
	}
	return s.queryEvents(ctx, entityID, limit)
}

func (s Store) queryEvents(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT event_id, issued_at_unixms, actor_id, type, entity_id, payload_json FROM events`
	args := []any{}
	if entityID != "" {
		q += ` WHERE entity_id = ?`
		args = append(args, entityID)
	}
	q += ` ORDER BY seq ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var id, actor, typ, eid, payloadJSON string
		var tsMs int64
		if err := rows.Scan(&id, &tsMs, &actor, &typ, &eid, &payloadJSON); err != nil {
			return nil, err
		}
		var payload any
		_ = json.Unmarshal([]byte(payloadJSON), &payload)
		out = append(out, model.Event{
			ID:       id,
			TS:       time.UnixMilli(tsMs).UTC(),
			ActorID:  actor,
			Type:     typ,
			EntityID: eid,
			Payload:  payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
