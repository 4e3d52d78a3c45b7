package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
	"iml-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func seedStore(t *testing.T, status model.ListStatus) store.Store {
	t.Helper()
	now := time.Date(2025, 8, 4, 22, 42, 0, 0, time.UTC)
	s := store.Store{Dir: t.TempDir()}
	db := &store.DB{
		Version:        1,
		CurrentActorID: "act-a",
		Actors:         []model.Actor{{ID: "act-a", Name: "A"}},
		Projects:       []model.Project{{ID: "proj-a", Name: "Backyard", Status: model.ProjectDraft, CreatedBy: "act-a", CreatedAt: now, UpdatedAt: now}},
		Lists: []model.MaterialsList{{
			ID: "iml-t", ProjectID: "proj-a", Name: "Phase 1", Status: status,
			Sections: []model.Section{
				{Name: "Spray Irrigation", ColumnName: "Spray Irrigation", Items: []model.Item{
					{SKU: "A", Content: "Spray head", Quantity: "4", UOM: model.UOMEach, Line: "1"},
					{SKU: "A1", Content: "Nozzle", Quantity: "4", UOM: model.UOMEach, Line: "2", IsChild: true},
					{SKU: "B", Content: "Swing pipe", Quantity: "20", UOM: model.UOMFeet, Line: "3"},
				}},
				{Name: "Sleeving", ColumnName: "Sleeving", Items: []model.Item{}},
			},
			CreatedBy: "act-a", CreatedAt: now, UpdatedAt: now,
		}},
	}
	require.NoError(t, s.Save(context.Background(), db))
	return s
}

func newTestModel(t *testing.T, s store.Store, policy editor.DeletePolicy) appModel {
	t.Helper()
	m, err := newModel(context.Background(), Config{Store: s, ListID: "iml-t", ActorID: "act-a", DeletePolicy: policy})
	require.NoError(t, err)
	return m
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) appModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(appModel)
	}
	return m
}

func storedSKUs(t *testing.T, s store.Store, section int) []string {
	t.Helper()
	db, err := s.Load(context.Background())
	require.NoError(t, err)
	l, ok := db.FindList("iml-t")
	require.True(t, ok)
	out := []string{}
	for _, it := range l.Sections[section].Items {
		out = append(out, it.SKU)
	}
	return out
}

func eventTypes(t *testing.T, s store.Store) []string {
	t.Helper()
	evs, err := s.ReadEventsForEntity(context.Background(), "iml-t", 0)
	require.NoError(t, err)
	out := []string{}
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func TestStructuralKeysNeedEditMode(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("a"))
	require.Contains(t, m.status, "press e")
	require.Equal(t, []string{"A", "A1", "B"}, storedSKUs(t, s, 0))

	m = press(t, m, runes("e"), runes("a"))
	require.True(t, m.ed.EditMode())
	require.Equal(t, []string{"A", "A1", "B", ""}, storedSKUs(t, s, 0))
	require.Equal(t, editor.Position{Section: 0, Item: 3}, m.cursor)
	require.Equal(t, []string{"item.add"}, eventTypes(t, s))
}

func TestMoveParentBlockWithKeys(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), runes(" "))
	require.NotNil(t, m.ed.DragState())

	// Row 1 is A's own child: not a legal drop.
	m = press(t, m, keyDown)
	require.Equal(t, "can't drop here", m.status)
	require.Nil(t, m.ed.DragState().Target)

	// Down to the end-of-section stop, then drop.
	m = press(t, m, keyDown, keyDown, keyEnter)
	require.Nil(t, m.ed.DragState())
	require.Equal(t, "moved", m.status)
	require.Equal(t, []string{"B", "A", "A1"}, storedSKUs(t, s, 0))
	require.Equal(t, []string{"item.move"}, eventTypes(t, s))
}

func TestMoveParentIntoAnotherSection(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), keyDown, keyDown, runes(" "), keyTab, keyEnter)
	require.Equal(t, []string{"A", "A1"}, storedSKUs(t, s, 0))
	require.Equal(t, []string{"B"}, storedSKUs(t, s, 1))
}

func TestChildCannotLeaveItsParent(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), keyDown, runes(" "), keyDown, keyEnter)
	require.Equal(t, "nothing moved", m.status)
	require.Equal(t, []string{"A", "A1", "B"}, storedSKUs(t, s, 0))
	require.Empty(t, eventTypes(t, s))
}

func TestEscCancelsMove(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), runes(" "), keyDown, keyDown, keyEsc)
	require.Nil(t, m.ed.DragState())
	require.Equal(t, "move cancelled", m.status)
	require.Equal(t, []string{"A", "A1", "B"}, storedSKUs(t, s, 0))
}

func TestApprovedListIsReadOnly(t *testing.T) {
	s := seedStore(t, model.ListApproved)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"))
	require.False(t, m.ed.EditMode())
	require.True(t, m.statusErr)
	require.Contains(t, m.status, "approved")
}

func TestDeleteUsesConfiguredPolicy(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteCascade)

	m = press(t, m, runes("e"), runes("d"))
	require.Equal(t, []string{"B"}, storedSKUs(t, s, 0))
	require.Equal(t, editor.Position{Section: 0, Item: 0}, m.cursor)
}

func TestAddChildFromChildRowUsesItsParent(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), keyDown, runes("c"))
	require.Equal(t, []string{"A", "", "A1", "B"}, storedSKUs(t, s, 0))
	require.Equal(t, editor.Position{Section: 0, Item: 1}, m.cursor)
	require.Equal(t, "child added", m.status)
}

func TestEditCellWithInput(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("e"), keyRight, keyRight, keyRight, keyRight, keyEnter)
	require.Equal(t, modeEditCell, m.mode)

	m = press(t, m, runes("tee"), keyEnter)
	require.Equal(t, modeBrowse, m.mode)
	require.Equal(t, "Notes updated", m.status)

	db, err := s.Load(context.Background())
	require.NoError(t, err)
	l, _ := db.FindList("iml-t")
	require.Equal(t, "tee", l.Sections[0].Items[0].Notes)
}

func TestInvalidUOMIsReported(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)
	m.ed.SetEditMode(true)
	m.col = colUOM

	m.commitCell("bogus")
	require.True(t, m.statusErr)
	require.Contains(t, m.status, "invalid uom")
}

func TestSearchJumpsToMatches(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	m = press(t, m, runes("/"), runes("a1"), keyEnter)
	require.Equal(t, editor.Position{Section: 0, Item: 1}, m.cursor)
	require.Equal(t, "match 1/1", m.status)

	m = press(t, m, runes("/"), runes("zzz"), keyEnter)
	require.Contains(t, m.status, "no match")
}

func TestCopyRowWritesTSV(t *testing.T) {
	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)
	m = press(t, m, keyDown, keyDown, runes("y"))
	require.Equal(t, "3\tB\tSwing pipe\t20\tFT\t", got)
	require.Equal(t, "copied row 3", m.status)

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	m = press(t, m, runes("y"))
	require.True(t, m.statusErr)
}

func TestStoreChangeReloadsList(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)

	ctx := context.Background()
	db, err := s.Load(ctx)
	require.NoError(t, err)
	l, _ := db.FindList("iml-t")
	l.Sections[1].Items = append(l.Sections[1].Items, model.Item{SKU: "SL-2", Quantity: "1", UOM: model.UOMEach, Line: "1"})
	require.NoError(t, s.Save(ctx, db))

	next, cmd := m.Update(storeChangedMsg{})
	m = next.(appModel)
	require.Nil(t, cmd)
	require.Equal(t, "SL-2", m.ed.List().Sections[1].Items[0].SKU)
	require.Contains(t, m.status, "reloaded")
}

func TestReloadWaitsForMoveToFinish(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)
	m = press(t, m, runes("e"), runes(" "))

	next, _ := m.Update(storeChangedMsg{})
	m = next.(appModel)
	require.True(t, m.reloadPending)
	require.NotNil(t, m.ed.DragState())

	m = press(t, m, keyEsc)
	require.False(t, m.reloadPending)
}

func TestUIStateRestoresCursor(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)
	m = press(t, m, keyDown, keyDown)
	m.saveUIState()

	again, err := newModel(context.Background(), Config{Store: s})
	require.NoError(t, err)
	require.Equal(t, "iml-t", again.sess.listID)
	require.Equal(t, editor.Position{Section: 0, Item: 2}, again.cursor)
}

func TestNewModelUnknownList(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	_, err := newModel(context.Background(), Config{Store: s, ListID: "iml-nope"})
	require.Error(t, err)
}

func TestViewShowsSectionsAndMode(t *testing.T) {
	s := seedStore(t, model.ListDraft)
	m := newTestModel(t, s, editor.DeleteKeep)
	m.width, m.height = 120, 40

	v := m.View()
	require.Contains(t, v, "Phase 1")
	require.Contains(t, v, "Spray Irrigation")
	require.Contains(t, v, "Swing pipe")
	require.Contains(t, v, "VIEW")
	require.Contains(t, v, "(empty section")

	m = press(t, m, runes("e"), runes(" "), keyDown, keyDown)
	v = m.View()
	require.Contains(t, v, "MOVE")
	require.Contains(t, v, "drop here")
}

func TestFitPadsAndTruncates(t *testing.T) {
	require.Equal(t, "ab  ", fit("ab", 4))
	got := fit("abcdefgh", 4)
	require.Equal(t, 4, len([]rune(got)))
	require.True(t, strings.HasSuffix(got, "…"))
}

func TestRowTSVFlattensTabsAndNewlines(t *testing.T) {
	got := rowTSV(model.Item{Line: "1", SKU: "X", Content: "a\tb\nc", Quantity: "2", UOM: model.UOMEach})
	require.Equal(t, "1\tX\ta b c\t2\tEA\t", got)
}
