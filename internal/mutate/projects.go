package mutate

import (
	"strings"
	"time"

	"iml-cli/internal/catalog"
	"iml-cli/internal/model"
	"iml-cli/internal/store"
)

type ProjectResult struct {
	Project      *model.Project
	Changed      bool
	EventPayload map[string]any
}

type NewProject struct {
	Name     string
	Customer string
	JobRef   string
	// Design values are validated against the catalog; kinds left out take
	// the catalog default when one exists.
	Design map[string]string
}

func ParseProjectStatus(s string) (model.ProjectStatus, error) {
	switch st := model.ProjectStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case model.ProjectDraft, model.ProjectSubmitted, model.ProjectInDesign, model.ProjectComplete:
		return st, nil
	}
	return "", ValidationError{Field: "status", Msg: "expected draft|submitted|in-design|complete, got " + strings.TrimSpace(s)}
}

// CreateProject appends a new draft project. Callers pick the id, save db
// and append the project.create event.
func CreateProject(db *store.DB, cat *catalog.Catalog, id, actorID string, in NewProject, now time.Time) (ProjectResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ProjectResult{}, ValidationError{Field: "name", Msg: "required"}
	}
	design := map[string]string{}
	if cat != nil {
		for k, v := range cat.DefaultDesign() {
			design[k] = v
		}
	}
	for k, v := range in.Design {
		if cat == nil {
			design[k] = strings.TrimSpace(v)
			continue
		}
		canon, err := cat.Validate(k, v)
		if err != nil {
			return ProjectResult{}, ValidationError{Field: "design." + k, Msg: err.Error()}
		}
		design[k] = canon
	}

	db.Projects = append(db.Projects, model.Project{
		ID:        id,
		Name:      name,
		Customer:  strings.TrimSpace(in.Customer),
		JobRef:    strings.TrimSpace(in.JobRef),
		Status:    model.ProjectDraft,
		Design:    design,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	p := &db.Projects[len(db.Projects)-1]
	return ProjectResult{
		Project: p,
		Changed: true,
		EventPayload: map[string]any{
			"name":   p.Name,
			"design": p.Design,
		},
	}, nil
}

func SetProjectStatus(db *store.DB, projectID string, status model.ProjectStatus, now time.Time) (ProjectResult, error) {
	p, ok := db.FindProject(projectID)
	if !ok {
		return ProjectResult{}, NotFoundError{Kind: "project", ID: projectID}
	}
	if p.Status == status {
		return ProjectResult{Project: p}, nil
	}
	from := p.Status
	p.Status = status
	p.UpdatedAt = now
	return ProjectResult{
		Project:      p,
		Changed:      true,
		EventPayload: map[string]any{"from": string(from), "to": string(status)},
	}, nil
}

// SetDesignOption records the chosen catalog value for kind. An empty value
// clears the choice.
func SetDesignOption(db *store.DB, cat *catalog.Catalog, projectID, kind, value string, now time.Time) (ProjectResult, error) {
	p, ok := db.FindProject(projectID)
	if !ok {
		return ProjectResult{}, NotFoundError{Kind: "project", ID: projectID}
	}
	kind = strings.TrimSpace(kind)
	value = strings.TrimSpace(value)
	if cat != nil && !cat.Has(kind) {
		return ProjectResult{}, ValidationError{Field: "kind", Msg: "unknown design option kind " + kind}
	}

	if value == "" {
		if _, had := p.Design[kind]; !had {
			return ProjectResult{Project: p}, nil
		}
		delete(p.Design, kind)
		p.UpdatedAt = now
		return ProjectResult{Project: p, Changed: true, EventPayload: map[string]any{"kind": kind, "value": nil}}, nil
	}

	if cat != nil {
		canon, err := cat.Validate(kind, value)
		if err != nil {
			return ProjectResult{}, ValidationError{Field: "design." + kind, Msg: err.Error()}
		}
		value = canon
	}
	if p.Design[kind] == value {
		return ProjectResult{Project: p}, nil
	}
	if p.Design == nil {
		p.Design = map[string]string{}
	}
	p.Design[kind] = value
	p.UpdatedAt = now
	return ProjectResult{Project: p, Changed: true, EventPayload: map[string]any{"kind": kind, "value": value}}, nil
}

func ArchiveProject(db *store.DB, projectID string, archived bool, now time.Time) (ProjectResult, error) {
	p, ok := db.FindProject(projectID)
	if !ok {
		return ProjectResult{}, NotFoundError{Kind: "project", ID: projectID}
	}
	if p.Archived == archived {
		return ProjectResult{Project: p}, nil
	}
	p.Archived = archived
	p.UpdatedAt = now
	return ProjectResult{Project: p, Changed: true, EventPayload: map[string]any{"archived": archived}}, nil
}
