package tui

import (
	"fmt"
	"strings"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	widthLine = 4
	widthSKU  = 16
	widthQty  = 7
	widthUOM  = 4
	widthNote = 24
	childMark = "↳ "
)

// fit truncates s to w cells and pads it back to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(strings.ReplaceAll(s, "\n", " "), w, "…")
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m appModel) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = 100
	}
	// line, sku, qty, uom, notes and the five separating spaces.
	return max(12, w-widthLine-widthSKU-widthQty-widthUOM-widthNote-5)
}

func (m appModel) renderRow(it model.Item, selected bool) string {
	sku := it.SKU
	if it.IsChild {
		sku = childMark + sku
	}
	cells := []string{
		fit(sku, widthSKU),
		fit(it.Content, m.contentWidth()),
		fit(it.Quantity, widthQty),
		fit(string(it.UOM), widthUOM),
		fit(it.Notes, widthNote),
	}
	if selected && m.ed.EditMode() {
		cells[m.col] = lipgloss.NewStyle().Underline(true).Render(cells[m.col])
	}
	return fit(it.Line, widthLine) + " " + strings.Join(cells, " ")
}

func (m appModel) headerLine() string {
	l := m.ed.List()
	mode := "VIEW"
	if m.ed.EditMode() {
		mode = "EDIT"
	}
	if m.ed.DragState() != nil {
		mode = "MOVE"
	}
	return styleTitle().Render(l.Name) + " " +
		styleMuted().Render(fmt.Sprintf("%s · %s · %s", l.ID, l.Status, mode))
}

func (m appModel) columnHeader() string {
	names := []string{
		fit("#", widthLine),
		fit(columnNames[colSKU], widthSKU),
		fit(columnNames[colContent], m.contentWidth()),
		fit(columnNames[colQuantity], widthQty),
		fit(columnNames[colUOM], widthUOM),
		fit(columnNames[colNotes], widthNote),
	}
	return styleMuted().Render(strings.Join(names, " "))
}

// bodyLines renders every section and reports which line holds the cursor.
func (m appModel) bodyLines() ([]string, int) {
	l := m.ed.List()
	drag := m.ed.DragState()
	var target *editor.Position
	if drag != nil {
		target = drag.Target
	}

	var lines []string
	cursorLine := 0
	dropMarker := func(here editor.Position) {
		if target != nil && *target == here {
			lines = append(lines, styleDropTarget().Render("  ▸ drop here"))
		}
	}

	for si, s := range l.Sections {
		lines = append(lines, styleSection().Render(s.Name))
		for i, it := range s.Items {
			here := editor.Position{Section: si, Item: i}
			dropMarker(here)
			selected := m.cursor == here
			row := m.renderRow(it, selected)
			switch {
			case drag != nil && drag.Source == here:
				row = styleDragSource().Render(row)
			case selected:
				row = styleSelected().Render(row)
			}
			if selected {
				cursorLine = len(lines)
			}
			lines = append(lines, row)
		}

		end := editor.Position{Section: si, Item: len(s.Items)}
		dropMarker(end)
		if drag != nil || len(s.Items) == 0 {
			label := "  (empty section; a adds a row)"
			if drag != nil {
				label = "  (end of section)"
			}
			if m.cursor == end {
				cursorLine = len(lines)
				lines = append(lines, styleSelected().Render(label))
			} else {
				lines = append(lines, styleMuted().Render(label))
			}
		}
		lines = append(lines, "")
	}
	if len(l.Sections) == 0 {
		lines = append(lines, styleMuted().Render("(no sections; add some with `iml lists add-sections`)"))
	}
	return lines, cursorLine
}

func (m appModel) footer() string {
	var parts []string
	switch m.mode {
	case modeEditCell, modeSearch:
		parts = append(parts, m.input.View())
	}
	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = styleError()
		}
		parts = append(parts, st.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	return strings.Join(parts, "\n")
}

func (m appModel) View() string {
	header := m.headerLine() + "\n" + m.columnHeader()
	footer := m.footer()
	body, cursorLine := m.bodyLines()

	if m.height > 0 {
		avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
		if avail < 1 {
			avail = 1
		}
		if len(body) > avail {
			start := max(0, min(cursorLine-avail/2, len(body)-avail))
			body = body[start : start+avail]
		}
	}
	return header + "\n" + strings.Join(body, "\n") + "\n" + footer
}
