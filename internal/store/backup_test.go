package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_ExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	s1 := Store{Dir: t.TempDir()}
	require.NoError(t, s1.Save(ctx, sampleDB(time.Now().UTC())))
	require.NoError(t, s1.AppendEvent(ctx, "act-a", "list.create", "iml-a", map[string]any{"id": "iml-a"}))

	snap, err := s1.ExportSnapshot(ctx)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, WriteSnapshot(path, snap))

	read, err := ReadSnapshot(path)
	require.NoError(t, err)

	s2 := Store{Dir: t.TempDir()}
	require.NoError(t, s2.RestoreSnapshot(ctx, read))

	db, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, db.Lists, 1)
	require.Equal(t, "iml-a", db.Lists[0].ID)

	evs, err := s2.ReadEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, snap.Events[0].ID, evs[0].ID)
}

func TestRestoreSnapshot_RejectsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	require.Error(t, s.RestoreSnapshot(context.Background(), &Snapshot{}))
}

func TestEventsJSONL_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.AppendEvent(ctx, "act-a", "item.add", "iml-a", map[string]any{"section": 1}))
	require.NoError(t, s.AppendEvent(ctx, "act-a", "item.delete", "iml-a", nil))

	evs, err := s.ReadEvents(ctx, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, WriteEventsJSONL(path, evs))
	got, err := ReadEventsJSONL(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, evs[1].ID, got[1].ID)
	require.Equal(t, "item.delete", got[1].Type)
}
