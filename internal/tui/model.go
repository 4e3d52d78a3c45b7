package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/logging"
	"iml-cli/internal/model"
	"iml-cli/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeEditCell
	modeSearch
)

type column int

const (
	colSKU column = iota
	colContent
	colQuantity
	colUOM
	colNotes
	numColumns
)

var columnNames = [numColumns]string{"SKU", "Description", "Qty", "UOM", "Notes"}

// session is the state shared by every copy of the bubbletea model.
type session struct {
	store   store.Store
	db      *store.DB
	listID  string
	actorID string
	log     logrus.FieldLogger

	// changed is set by the editor's change hook and drained by flush.
	changed *model.MaterialsList
}

type appModel struct {
	ctx  context.Context
	sess *session
	ed   *editor.Editor

	cursor editor.Position
	col    column
	mode   inputMode
	input  textinput.Model
	keys   keyMap
	help   help.Model

	hits []editor.Position
	hit  int

	status    string
	statusErr bool

	width  int
	height int

	changes       <-chan struct{}
	reloadPending bool
	uiState       *store.TUIState
}

func newModel(ctx context.Context, cfg Config) (appModel, error) {
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}
	db, err := cfg.Store.Load(ctx)
	if err != nil {
		return appModel{}, err
	}
	st, err := cfg.Store.LoadTUIState()
	if err != nil {
		log.WithError(err).Warn("tui state unreadable")
		st = &store.TUIState{Version: 1}
	}

	listID := strings.TrimSpace(cfg.ListID)
	if listID == "" {
		listID = st.ListID
	}
	if listID == "" {
		listID = latestListID(db)
	}
	if listID == "" {
		return appModel{}, errors.New("no lists yet; create one with `iml lists create`")
	}
	l, ok := db.FindList(listID)
	if !ok {
		return appModel{}, fmt.Errorf("list not found: %s", listID)
	}
	restore := st.ListID == l.ID
	st.Touch(l.ID)

	sess := &session{
		store:   cfg.Store,
		db:      db,
		listID:  l.ID,
		actorID: strings.TrimSpace(cfg.ActorID),
		log:     log,
	}
	in := textinput.New()
	in.CharLimit = 500

	m := appModel{
		ctx:     ctx,
		sess:    sess,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   in,
		uiState: st,
	}
	m.ed = editor.New(*l,
		editor.WithDeletePolicy(cfg.DeletePolicy),
		editor.WithOnChange(func(next model.MaterialsList) { sess.changed = &next }),
	)
	if restore {
		m.cursor = editor.Position{Section: st.Section, Item: st.Item}
	}
	m.clampCursor()
	if l.Status == model.ListApproved {
		m.setStatus("approved list: read-only")
	}
	return m, nil
}

func latestListID(db *store.DB) string {
	var id string
	var at time.Time
	for _, l := range db.Lists {
		if id == "" || l.UpdatedAt.After(at) {
			id, at = l.ID, l.UpdatedAt
		}
	}
	return id
}

func (m appModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m *appModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *appModel) setError(err error) {
	m.status, m.statusErr = err.Error(), true
	m.sess.log.WithError(err).Warn("tui")
}

func (m appModel) saveUIState() {
	if m.uiState == nil {
		return
	}
	m.uiState.Section, m.uiState.Item = m.cursor.Section, m.cursor.Item
	if err := m.sess.store.SaveTUIState(m.uiState); err != nil {
		m.sess.log.WithError(err).Warn("save tui state")
	}
}

// flush persists the editor's pending change and records typ in the event
// log. It reports whether the change was saved.
func (m *appModel) flush(typ string, payload map[string]any) bool {
	s := m.sess
	if s.changed == nil {
		return false
	}
	next := *s.changed
	s.changed = nil
	next.UpdatedAt = time.Now().UTC()
	s.db.PutList(next)
	if err := s.store.Save(m.ctx, s.db); err != nil {
		m.setError(fmt.Errorf("save: %w", err))
		return false
	}
	if s.actorID == "" {
		s.log.WithField("type", typ).Warn("no actor; change saved without an event")
		return true
	}
	if err := s.store.AppendEvent(m.ctx, s.actorID, typ, next.ID, payload); err != nil {
		m.setError(fmt.Errorf("event log: %w", err))
		return false
	}
	return true
}

// reload picks up changes written by other processes. It waits while a move
// or an input is in progress.
func (m *appModel) reload() {
	if m.ed.DragState() != nil || m.mode != modeBrowse {
		m.reloadPending = true
		return
	}
	m.reloadPending = false
	db, err := m.sess.store.Load(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	l, ok := db.FindList(m.sess.listID)
	if !ok {
		m.setError(fmt.Errorf("list %s no longer exists", m.sess.listID))
		return
	}
	m.sess.db = db
	cur := m.ed.List()
	if reflect.DeepEqual(cur.Sections, l.Sections) && cur.Status == l.Status && cur.Name == l.Name {
		return
	}
	m.ed.Replace(*l)
	if l.Status == model.ListApproved && m.ed.EditMode() {
		m.ed.SetEditMode(false)
	}
	m.clampCursor()
	m.setStatus("reloaded: list changed on disk")
}

func (m *appModel) applyPendingReload() {
	if m.reloadPending {
		m.reload()
	}
}

// slots are the cursor stops. Empty sections get one placeholder stop, and
// while a row is being moved every section also gets an end-of-section stop.
func (m appModel) slots() []editor.Position {
	l := m.ed.List()
	dragging := m.ed.DragState() != nil
	var out []editor.Position
	for si, s := range l.Sections {
		n := len(s.Items)
		if dragging || n == 0 {
			n++
		}
		for i := 0; i < n; i++ {
			out = append(out, editor.Position{Section: si, Item: i})
		}
	}
	return out
}

func (m appModel) slotIndex(slots []editor.Position) int {
	for i, p := range slots {
		if p == m.cursor {
			return i
		}
	}
	return -1
}

func (m *appModel) clampCursor() {
	slots := m.slots()
	if len(slots) == 0 {
		m.cursor = editor.Position{}
		return
	}
	if m.slotIndex(slots) >= 0 {
		return
	}
	// Closest stop in the same section, else the last one before it.
	best := 0
	for i, p := range slots {
		if p.Section < m.cursor.Section || (p.Section == m.cursor.Section && p.Item <= m.cursor.Item) {
			best = i
		}
	}
	m.cursor = slots[best]
}

func (m *appModel) moveCursor(delta int) {
	slots := m.slots()
	if len(slots) == 0 {
		return
	}
	i := m.slotIndex(slots)
	if i < 0 {
		m.clampCursor()
		i = m.slotIndex(slots)
	}
	i = max(0, min(len(slots)-1, i+delta))
	m.cursor = slots[i]
	m.retarget()
}

func (m *appModel) jumpSection(delta int) {
	n := len(m.ed.List().Sections)
	if n == 0 {
		return
	}
	si := max(0, min(n-1, m.cursor.Section+delta))
	m.cursor = editor.Position{Section: si, Item: 0}
	m.clampCursor()
	m.retarget()
}

// retarget offers the cursor as the drop target of an active move.
func (m *appModel) retarget() {
	if m.ed.DragState() == nil {
		return
	}
	if m.ed.UpdateMoveTarget(m.cursor.Section, m.cursor.Item) {
		m.setStatus(fmt.Sprintf("drop at section %d row %d: enter to drop, esc to cancel", m.cursor.Section+1, m.cursor.Item+1))
		return
	}
	m.setStatus("can't drop here")
}

// currentItem returns the row under the cursor, if the cursor is on a row.
func (m appModel) currentItem() (model.Item, bool) {
	l := m.ed.List()
	if m.cursor.Section < 0 || m.cursor.Section >= len(l.Sections) {
		return model.Item{}, false
	}
	items := l.Sections[m.cursor.Section].Items
	if m.cursor.Item < 0 || m.cursor.Item >= len(items) {
		return model.Item{}, false
	}
	return items[m.cursor.Item], true
}

func (m *appModel) requireEditMode() bool {
	if m.ed.EditMode() {
		return true
	}
	m.setStatus("press e to enter edit mode")
	return false
}

func (m *appModel) toggleEdit() {
	if m.ed.EditMode() {
		m.ed.SetEditMode(false)
		m.clampCursor()
		m.setStatus("view mode")
		m.applyPendingReload()
		return
	}
	if m.ed.List().Status == model.ListApproved {
		m.setError(errors.New("list is approved; set it back to draft to edit"))
		return
	}
	m.ed.SetEditMode(true)
	m.setStatus("edit mode")
}

func cellValue(it model.Item, c column) string {
	switch c {
	case colSKU:
		return it.SKU
	case colContent:
		return it.Content
	case colQuantity:
		return it.Quantity
	case colUOM:
		return string(it.UOM)
	default:
		return it.Notes
	}
}

func cellPatch(c column, v string) editor.ItemPatch {
	var p editor.ItemPatch
	switch c {
	case colSKU:
		p.SKU = &v
	case colContent:
		p.Content = &v
	case colQuantity:
		p.Quantity = &v
	case colUOM:
		p.UOM = &v
	default:
		p.Notes = &v
	}
	return p
}

func (m *appModel) openInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Reset()
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) closeInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.applyPendingReload()
}

func (m *appModel) runSearch(term string) {
	m.hits = m.ed.Search(term)
	m.hit = 0
	if len(m.hits) == 0 {
		m.setStatus(fmt.Sprintf("no match for %q", term))
		return
	}
	m.cursor = m.hits[0]
	m.setStatus(fmt.Sprintf("match 1/%d", len(m.hits)))
}

func (m *appModel) cycleHit(delta int) {
	if len(m.hits) == 0 {
		m.setStatus("no search; press /")
		return
	}
	m.hit = (m.hit + delta + len(m.hits)) % len(m.hits)
	m.cursor = m.hits[m.hit]
	m.clampCursor()
	m.setStatus(fmt.Sprintf("match %d/%d", m.hit+1, len(m.hits)))
}
