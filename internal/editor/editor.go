// Package editor implements the materials-list editor: sections of line items
// where hierarchy is positional (a child belongs to the nearest preceding
// non-child row) and line numbers are recomputed after every structural edit.
//
// Structural operations never return errors. An illegal request is simply
// not applied and the operation reports changed=false.
package editor

import (
	"iml-cli/internal/model"
)

// Position addresses a row by section and item index.
type Position struct {
	Section int `json:"section"`
	Item    int `json:"item"`
}

// Drag is the in-progress move, if any.
type Drag struct {
	Source Position  `json:"source"`
	Target *Position `json:"target,omitempty"`
}

type Editor struct {
	list     model.MaterialsList
	editMode bool
	policy   DeletePolicy
	onChange func(model.MaterialsList)

	drag *Drag
}

type Option func(*Editor)

// WithOnChange registers the host callback invoked after every committed mutation.
func WithOnChange(fn func(model.MaterialsList)) Option {
	return func(e *Editor) { e.onChange = fn }
}

func WithDeletePolicy(p DeletePolicy) Option {
	return func(e *Editor) { e.policy = p }
}

func WithEditMode(on bool) Option {
	return func(e *Editor) { e.editMode = on }
}

// New returns an editor over a private copy of list.
func New(list model.MaterialsList, opts ...Option) *Editor {
	e := &Editor{list: list.Clone(), policy: DeleteKeep}
	for _, o := range opts {
		o(e)
	}
	if !e.policy.valid() {
		e.policy = DeleteKeep
	}
	return e
}

// List returns a copy of the current list.
func (e *Editor) List() model.MaterialsList { return e.list.Clone() }

// Replace swaps in a new list and drops any drag in progress.
func (e *Editor) Replace(list model.MaterialsList) {
	e.list = list.Clone()
	e.drag = nil
}

func (e *Editor) EditMode() bool { return e.editMode }

// SetEditMode toggles edit mode. Leaving edit mode cancels a pending move.
func (e *Editor) SetEditMode(on bool) {
	e.editMode = on
	if !on {
		e.drag = nil
	}
}

func (e *Editor) DeletePolicy() DeletePolicy { return e.policy }

// DragState returns a copy of the current drag, or nil.
func (e *Editor) DragState() *Drag {
	if e.drag == nil {
		return nil
	}
	d := Drag{Source: e.drag.Source}
	if e.drag.Target != nil {
		t := *e.drag.Target
		d.Target = &t
	}
	return &d
}

func (e *Editor) section(i int) (*model.Section, bool) {
	if i < 0 || i >= len(e.list.Sections) {
		return nil, false
	}
	return &e.list.Sections[i], true
}

func (e *Editor) item(p Position) (*model.Item, bool) {
	s, ok := e.section(p.Section)
	if !ok || p.Item < 0 || p.Item >= len(s.Items) {
		return nil, false
	}
	return &s.Items[p.Item], true
}

func (e *Editor) commit(sections ...int) {
	for _, si := range sections {
		if s, ok := e.section(si); ok {
			Renumber(s.Items)
		}
	}
	if e.onChange != nil {
		e.onChange(e.List())
	}
}

func newItem(child bool) model.Item {
	return model.Item{
		Quantity: "0",
		UOM:      model.DefaultUOM,
		Line:     "0",
		IsChild:  child,
	}
}

// AddParent appends an empty parent row to the section.
func (e *Editor) AddParent(section int) bool {
	s, ok := e.section(section)
	if !ok {
		return false
	}
	s.Items = append(s.Items, newItem(false))
	e.drag = nil
	e.commit(section)
	return true
}

// AddChild inserts an empty child row right after parentIndex. It is a
// no-op unless parentIndex refers to a non-child row.
func (e *Editor) AddChild(section, parentIndex int) bool {
	it, ok := e.item(Position{Section: section, Item: parentIndex})
	if !ok || it.IsChild {
		return false
	}
	s := &e.list.Sections[section]
	s.Items = insertItems(s.Items, parentIndex+1, newItem(true))
	e.drag = nil
	e.commit(section)
	return true
}

// DeleteItem removes the row at item. What happens to a deleted parent's
// children depends on the delete policy; see DeletePolicy.
func (e *Editor) DeleteItem(section, item int) bool {
	it, ok := e.item(Position{Section: section, Item: item})
	if !ok {
		return false
	}
	s := &e.list.Sections[section]
	end := item + 1
	if !it.IsChild {
		_, childEnd := ChildRange(s.Items, item)
		switch e.policy {
		case DeleteCascade:
			end = childEnd
		case DeletePromote:
			if childEnd > item+1 {
				s.Items[item+1].IsChild = false
			}
		}
	}
	s.Items = append(s.Items[:item], s.Items[end:]...)
	e.drag = nil
	e.commit(section)
	return true
}

func insertItems(items []model.Item, at int, add ...model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+len(add))
	out = append(out, items[:at]...)
	out = append(out, add...)
	out = append(out, items[at:]...)
	return out
}
