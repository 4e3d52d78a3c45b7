package mutate

import (
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
	"iml-cli/internal/store"
)

// editList runs op against an editor over a copy of the list and writes the
// result back only when op reports a change. Approved lists are read-only.
func editList(db *store.DB, listID string, policy editor.DeletePolicy, now time.Time, op func(*editor.Editor) bool) (ListResult, error) {
	l, ok := db.FindList(listID)
	if !ok {
		return ListResult{}, NotFoundError{Kind: "list", ID: listID}
	}
	if l.Status == model.ListApproved {
		return ListResult{}, ValidationError{Field: "status", Msg: "list is approved; set it back to draft or in-review to edit"}
	}
	e := editor.New(*l, editor.WithEditMode(true), editor.WithDeletePolicy(policy))
	if !op(e) {
		return ListResult{List: l}, nil
	}
	next := e.List()
	next.UpdatedAt = now
	*l = next
	return ListResult{List: l, Changed: true}, nil
}

func AddParent(db *store.DB, listID string, section int, now time.Time) (ListResult, error) {
	res, err := editList(db, listID, editor.DeleteKeep, now, func(e *editor.Editor) bool {
		return e.AddParent(section)
	})
	if err != nil || !res.Changed {
		return res, err
	}
	res.EventPayload = map[string]any{"section": section, "item": len(res.List.Sections[section].Items) - 1}
	return res, nil
}

func AddChild(db *store.DB, listID string, section, parent int, now time.Time) (ListResult, error) {
	res, err := editList(db, listID, editor.DeleteKeep, now, func(e *editor.Editor) bool {
		return e.AddChild(section, parent)
	})
	if err != nil || !res.Changed {
		return res, err
	}
	res.EventPayload = map[string]any{"section": section, "parent": parent}
	return res, nil
}

func DeleteItem(db *store.DB, listID string, section, item int, policy editor.DeletePolicy, now time.Time) (ListResult, error) {
	var deleted any
	res, err := editList(db, listID, policy, now, func(e *editor.Editor) bool {
		l := e.List()
		if section >= 0 && section < len(l.Sections) && item >= 0 && item < len(l.Sections[section].Items) {
			deleted = l.Sections[section].Items[item]
		}
		return e.DeleteItem(section, item)
	})
	if err != nil || !res.Changed {
		return res, err
	}
	res.EventPayload = map[string]any{"section": section, "item": item, "policy": string(policy), "deleted": deleted}
	return res, nil
}

// MoveItem runs a whole begin/target/commit gesture. An illegal move is
// not an error: it reports Changed=false and leaves the list untouched.
func MoveItem(db *store.DB, listID string, from, to editor.Position, now time.Time) (ListResult, error) {
	res, err := editList(db, listID, editor.DeleteKeep, now, func(e *editor.Editor) bool {
		if !e.BeginMove(from.Section, from.Item) {
			return false
		}
		if !e.UpdateMoveTarget(to.Section, to.Item) {
			e.CancelMove()
			return false
		}
		return e.CommitMove()
	})
	if err != nil || !res.Changed {
		return res, err
	}
	res.EventPayload = map[string]any{"from": from, "to": to}
	return res, nil
}

func EditItem(db *store.DB, listID string, section, item int, patch editor.ItemPatch, now time.Time) (ListResult, error) {
	var editErr error
	res, err := editList(db, listID, editor.DeleteKeep, now, func(e *editor.Editor) bool {
		changed, err := e.EditItem(section, item, patch)
		editErr = err
		return changed
	})
	if err != nil {
		return res, err
	}
	if editErr != nil {
		return ListResult{}, ValidationError{Msg: editErr.Error()}
	}
	if !res.Changed {
		return res, nil
	}
	res.EventPayload = map[string]any{"section": section, "item": item, "patch": patch}
	return res, nil
}
