package tui

import (
	"fmt"

	"iml-cli/internal/editor"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case storeChangedMsg:
		m.reload()
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		m.setStatus("cancelled")
		return m, nil
	case tea.KeyEnter:
		v := m.input.Value()
		mode := m.mode
		m.closeInput()
		if mode == modeSearch {
			m.runSearch(v)
			return m, nil
		}
		m.commitCell(v)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) commitCell(v string) {
	changed, err := m.ed.EditItem(m.cursor.Section, m.cursor.Item, cellPatch(m.col, v))
	if err != nil {
		m.setError(err)
		return
	}
	if !changed {
		m.setStatus("unchanged")
		return
	}
	if m.flush("item.edit", map[string]any{
		"section": m.cursor.Section,
		"item":    m.cursor.Item,
		"field":   columnNames[m.col],
		"value":   v,
	}) {
		m.setStatus(columnNames[m.col] + " updated")
	}
}

func (m appModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	dragging := m.ed.DragState() != nil

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, k.Cancel):
		if dragging {
			m.ed.CancelMove()
			m.clampCursor()
			m.setStatus("move cancelled")
			m.applyPendingReload()
		}

	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.Left):
		m.col = (m.col + numColumns - 1) % numColumns
	case key.Matches(msg, k.Right):
		m.col = (m.col + 1) % numColumns
	case key.Matches(msg, k.NextSection):
		m.jumpSection(1)
	case key.Matches(msg, k.PrevSection):
		m.jumpSection(-1)

	case key.Matches(msg, k.ToggleEdit):
		m.toggleEdit()

	case key.Matches(msg, k.Grab):
		if dragging {
			m.commitMove()
			break
		}
		if !m.requireEditMode() {
			break
		}
		if !m.ed.BeginMove(m.cursor.Section, m.cursor.Item) {
			m.setStatus("nothing to move here")
			break
		}
		m.setStatus("moving: arrows pick a target, enter drops, esc cancels")

	case key.Matches(msg, k.Enter):
		if dragging {
			m.commitMove()
			break
		}
		if !m.requireEditMode() {
			break
		}
		it, ok := m.currentItem()
		if !ok {
			break
		}
		return m, m.openInput(modeEditCell, columnNames[m.col]+": ", cellValue(it, m.col))

	case key.Matches(msg, k.AddParent):
		if !m.requireEditMode() {
			break
		}
		si := m.cursor.Section
		if m.ed.AddParent(si) {
			m.cursor = editor.Position{Section: si, Item: len(m.ed.List().Sections[si].Items) - 1}
			if m.flush("item.add", map[string]any{"section": si, "item": m.cursor.Item}) {
				m.setStatus("row added")
			}
		}

	case key.Matches(msg, k.AddChild):
		if !m.requireEditMode() {
			break
		}
		m.addChild()

	case key.Matches(msg, k.Delete):
		if !m.requireEditMode() {
			break
		}
		it, ok := m.currentItem()
		if ok && m.ed.DeleteItem(m.cursor.Section, m.cursor.Item) {
			saved := m.flush("item.delete", map[string]any{
				"section": m.cursor.Section,
				"item":    m.cursor.Item,
				"policy":  string(m.ed.DeletePolicy()),
				"deleted": it,
			})
			m.clampCursor()
			if saved {
				m.setStatus("row deleted")
			}
		}

	case key.Matches(msg, k.Search):
		return m, m.openInput(modeSearch, "/", "")
	case key.Matches(msg, k.NextHit):
		m.cycleHit(1)
	case key.Matches(msg, k.PrevHit):
		m.cycleHit(-1)

	case key.Matches(msg, k.Copy):
		it, ok := m.currentItem()
		if !ok {
			break
		}
		if err := writeClipboard(rowTSV(it)); err != nil {
			m.setError(fmt.Errorf("copy: %w", err))
			break
		}
		m.setStatus("copied row " + it.Line)
	}
	return m, nil
}

func (m *appModel) addChild() {
	l := m.ed.List()
	si := m.cursor.Section
	if si < 0 || si >= len(l.Sections) {
		return
	}
	items := l.Sections[si].Items
	p := m.cursor.Item
	if p < len(items) && items[p].IsChild {
		var ok bool
		if p, ok = editor.ParentIndex(items, p); !ok {
			m.setStatus("orphaned row has no parent")
			return
		}
	}
	if !m.ed.AddChild(si, p) {
		m.setStatus("select a row first")
		return
	}
	m.cursor = editor.Position{Section: si, Item: p + 1}
	if m.flush("item.add_child", map[string]any{"section": si, "parent": p}) {
		m.setStatus("child added")
	}
}

func (m *appModel) commitMove() {
	d := m.ed.DragState()
	if d == nil {
		return
	}
	if !m.ed.CommitMove() {
		m.clampCursor()
		m.setStatus("nothing moved")
		m.applyPendingReload()
		return
	}
	saved := m.flush("item.move", map[string]any{"from": d.Source, "to": d.Target})
	m.clampCursor()
	if saved {
		m.setStatus("moved")
	}
	m.applyPendingReload()
}
