package mutate

import (
	"strings"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
	"iml-cli/internal/store"
)

type ListResult struct {
	List         *model.MaterialsList
	Changed      bool
	EventPayload map[string]any
}

func ParseListStatus(s string) (model.ListStatus, error) {
	switch st := model.ListStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case model.ListDraft, model.ListInReview, model.ListApproved:
		return st, nil
	}
	return "", ValidationError{Field: "status", Msg: "expected draft|in-review|approved, got " + strings.TrimSpace(s)}
}

// CreateList appends a draft list to projectID with one empty section per
// category. Categories accept "Other:<name>" for custom sections.
func CreateList(db *store.DB, id, actorID, projectID, name string, categories []string, now time.Time) (ListResult, error) {
	if _, ok := db.FindProject(projectID); !ok {
		return ListResult{}, NotFoundError{Kind: "project", ID: projectID}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ListResult{}, ValidationError{Field: "name", Msg: "required"}
	}

	e := editor.New(model.MaterialsList{Sections: []model.Section{}})
	added := e.AddSections(categories...)
	l := e.List()
	l.ID = id
	l.ProjectID = projectID
	l.Name = name
	l.Status = model.ListDraft
	l.CreatedBy = actorID
	l.CreatedAt = now
	l.UpdatedAt = now

	db.Lists = append(db.Lists, l)
	if added == nil {
		added = []string{}
	}
	return ListResult{
		List:    &db.Lists[len(db.Lists)-1],
		Changed: true,
		EventPayload: map[string]any{
			"projectId": projectID,
			"name":      name,
			"sections":  added,
		},
	}, nil
}

func RenameList(db *store.DB, listID, name string, now time.Time) (ListResult, error) {
	l, ok := db.FindList(listID)
	if !ok {
		return ListResult{}, NotFoundError{Kind: "list", ID: listID}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ListResult{}, ValidationError{Field: "name", Msg: "required"}
	}
	if l.Name == name {
		return ListResult{List: l}, nil
	}
	from := l.Name
	l.Name = name
	l.UpdatedAt = now
	return ListResult{List: l, Changed: true, EventPayload: map[string]any{"from": from, "to": name}}, nil
}

func SetListStatus(db *store.DB, listID string, status model.ListStatus, now time.Time) (ListResult, error) {
	l, ok := db.FindList(listID)
	if !ok {
		return ListResult{}, NotFoundError{Kind: "list", ID: listID}
	}
	if l.Status == status {
		return ListResult{List: l}, nil
	}
	from := l.Status
	l.Status = status
	l.UpdatedAt = now
	return ListResult{List: l, Changed: true, EventPayload: map[string]any{"from": string(from), "to": string(status)}}, nil
}

func AddSections(db *store.DB, listID string, names []string, now time.Time) (ListResult, error) {
	var added []string
	res, err := editList(db, listID, editor.DeleteKeep, now, func(e *editor.Editor) bool {
		added = e.AddSections(names...)
		return len(added) > 0
	})
	if err != nil || !res.Changed {
		return res, err
	}
	res.EventPayload = map[string]any{"sections": added}
	return res, nil
}
