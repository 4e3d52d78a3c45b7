package editor

import "iml-cli/internal/model"

// BeginMove marks the row at (section, item) as the drag source.
// Only honored in edit mode.
func (e *Editor) BeginMove(section, item int) bool {
	if !e.editMode {
		return false
	}
	p := Position{Section: section, Item: item}
	if _, ok := e.item(p); !ok {
		return false
	}
	e.drag = &Drag{Source: p}
	return true
}

// UpdateMoveTarget records (section, item) as the hover target when it is a
// legal drop for the active source. Illegal candidates leave the previous
// target untouched.
//
// item may equal the section length to mean "after the last row"; only a
// parent block can land there.
func (e *Editor) UpdateMoveTarget(section, item int) bool {
	if !e.editMode || e.drag == nil {
		return false
	}
	t := Position{Section: section, Item: item}
	if !e.validTarget(e.drag.Source, t) {
		return false
	}
	e.drag.Target = &t
	return true
}

func (e *Editor) validTarget(src, t Position) bool {
	srcItem, ok := e.item(src)
	if !ok {
		return false
	}
	ts, ok := e.section(t.Section)
	if !ok || t.Item < 0 || t.Item > len(ts.Items) {
		return false
	}
	items := e.list.Sections[src.Section].Items

	if srcItem.IsChild {
		if t.Section != src.Section {
			return false
		}
		p, ok := ParentIndex(items, src.Item)
		if !ok {
			return false
		}
		start, end := ChildRange(items, p)
		return t.Item == p || (t.Item >= start && t.Item < end)
	}

	// A parent block cannot be dropped inside itself.
	if t.Section == src.Section {
		end := blockEnd(items, src.Item)
		if t.Item > src.Item && t.Item < end {
			return false
		}
	}
	return true
}

// CancelMove clears the drag without touching the list.
func (e *Editor) CancelMove() {
	e.drag = nil
}

// CommitMove relocates the drag source to the recorded target. A parent
// travels with its whole child run. Returns false (and clears the drag)
// when nothing moved.
func (e *Editor) CommitMove() bool {
	d := e.drag
	e.drag = nil
	if d == nil || d.Target == nil {
		return false
	}
	src, t := d.Source, *d.Target
	if src == t {
		return false
	}
	// Indices may have been invalidated by a replaced list.
	if !e.validTarget(src, t) {
		return false
	}

	srcItems := e.list.Sections[src.Section].Items
	if srcItems[src.Item].IsChild {
		return e.commitChildMove(src, t)
	}
	return e.commitBlockMove(src, t)
}

func (e *Editor) commitChildMove(src, t Position) bool {
	s := &e.list.Sections[src.Section]
	p, _ := ParentIndex(s.Items, src.Item)

	dest := t.Item
	if dest == p {
		// Dropping a child on its parent makes it the first child.
		if src.Item == p+1 {
			return false
		}
		dest = p + 1
	}
	moved := s.Items[src.Item]
	rest := append(append([]model.Item(nil), s.Items[:src.Item]...), s.Items[src.Item+1:]...)
	s.Items = insertItems(rest, dest, moved)
	e.commit(src.Section)
	return true
}

func (e *Editor) commitBlockMove(src, t Position) bool {
	from := &e.list.Sections[src.Section]
	end := blockEnd(from.Items, src.Item)
	n := end - src.Item

	block := append([]model.Item(nil), from.Items[src.Item:end]...)

	if t.Section == src.Section {
		// Blocks land on group boundaries so no other parent loses children.
		var dest int
		if t.Item > src.Item {
			dest = groupEnd(from.Items, t.Item) - n
		} else {
			dest = groupStart(from.Items, t.Item)
		}
		if dest == src.Item {
			return false
		}
		rest := append(append([]model.Item(nil), from.Items[:src.Item]...), from.Items[end:]...)
		from.Items = insertItems(rest, dest, block...)
		e.commit(src.Section)
		return true
	}

	to := &e.list.Sections[t.Section]
	dest := groupStart(to.Items, t.Item)
	from.Items = append(append([]model.Item(nil), from.Items[:src.Item]...), from.Items[end:]...)
	to.Items = insertItems(to.Items, dest, block...)
	e.commit(src.Section, t.Section)
	return true
}
