package store

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"iml-cli/internal/model"

	"github.com/goccy/go-json"
)

// Snapshot is a portable copy of a workspace: the state plus its event log.
type Snapshot struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	State      *DB           `json:"state"`
	Events     []model.Event `json:"events"`
}

func (s Store) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	db, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	evs, err := s.ReadEvents(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Version: 1, ExportedAt: time.Now().UTC(), State: db, Events: evs}, nil
}

// RestoreSnapshot overwrites the workspace state and event log.
func (s Store) RestoreSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.State == nil {
		return errors.New("backup: snapshot has no state")
	}
	if err := s.Save(ctx, snap.State); err != nil {
		return err
	}
	return s.ReplaceEvents(ctx, snap.Events)
}

// ReplaceEvents replaces the event log with evs, keeping their order.
//
// This is intended for backup/restore workflows, not day-to-day mutations.
func (s Store) ReplaceEvents(ctx context.Context, evs []model.Event) error {
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM events;`); err != nil {
		return err
	}

	nowMs := time.Now().UTC().UnixMilli()
	for i, ev := range evs {
		id := strings.TrimSpace(ev.ID)
		if id == "" {
			return errors.New("backup: event has empty id")
		}
		if strings.TrimSpace(ev.Type) == "" || strings.TrimSpace(ev.EntityID) == "" {
			return fmt.Errorf("backup: event %s has empty type/entityId", id)
		}
		pb, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		ts := ev.TS.UTC().UnixMilli()
		if ev.TS.IsZero() {
			ts = nowMs
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO events(event_id, entity_id, type, actor_id, payload_json, issued_at_unixms, seq) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			id, strings.TrimSpace(ev.EntityID), strings.TrimSpace(ev.Type), strings.TrimSpace(ev.ActorID), string(pb), ts, i+1); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WriteSnapshot writes snap as indented JSON.
func WriteSnapshot(path string, snap *Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func ReadSnapshot(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// WriteEventsJSONL writes one event per line.
func WriteEventsJSONL(path string, evs []model.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func ReadEventsJSONL(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []model.Event{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parse events jsonl: %w", err)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
