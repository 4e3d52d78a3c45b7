package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"iml-cli/internal/catalog"
	"iml-cli/internal/editor"
	"iml-cli/internal/format"
	"iml-cli/internal/model"
	"iml-cli/internal/mutate"
	"iml-cli/internal/publish"
	"iml-cli/internal/store"
	"iml-cli/internal/submittal"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = format.WriteJSON(w, v, false)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	var nf mutate.NotFoundError
	var ve mutate.ValidationError
	var ce catalog.ValidationError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.As(err, &ce), errors.Is(err, catalog.ErrUnknownKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return mutate.ValidationError{Field: "body", Msg: err.Error()}
	}
	return nil
}

// pathInt reads a numeric route variable; the router already restricts it to digits.
func pathInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(mux.Vars(r)[name])
	return n
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*store.DB, bool) {
	db, err := s.cfg.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return db, true
}

func (s *Server) findList(w http.ResponseWriter, r *http.Request) (*model.MaterialsList, *store.DB, bool) {
	db, ok := s.load(w, r)
	if !ok {
		return nil, nil, false
	}
	id := mux.Vars(r)["listId"]
	l, ok := db.FindList(id)
	if !ok {
		writeError(w, http.StatusNotFound, mutate.NotFoundError{Kind: "list", ID: id})
		return nil, nil, false
	}
	return l, db, true
}

func (s *Server) actorFor(db *store.DB) (string, error) {
	id := s.cfg.ActorID
	if id == "" {
		id = db.CurrentActorID
	}
	if id == "" {
		return "", mutate.ValidationError{Field: "actor", Msg: "server has no actor; start it with --actor or set a current identity"}
	}
	if _, ok := db.FindActor(id); !ok {
		return "", mutate.NotFoundError{Kind: "actor", ID: id}
	}
	return id, nil
}

// mutateList runs one load-mutate-save cycle and answers with the list and
// meta.changed. Rejected structural edits are not errors.
func (s *Server) mutateList(w http.ResponseWriter, r *http.Request, eventType string, op func(db *store.DB, listID string, now time.Time) (mutate.ListResult, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	actorID, err := s.actorFor(db)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	listID := mux.Vars(r)["listId"]
	res, err := op(db, listID, time.Now().UTC())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if res.Changed {
		if err := s.cfg.Store.Save(ctx, db); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.cfg.Store.AppendEvent(ctx, actorID, eventType, listID, res.EventPayload); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.log.WithFields(logrus.Fields{"type": eventType, "list": listID, "actor": actorID}).Debug("list mutated")
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: res.List, Meta: map[string]any{"changed": res.Changed}})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, format.Envelope{Data: map[string]any{"status": "ok"}})
}

func (s *Server) handleCatalogKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, format.Envelope{Data: s.cfg.Catalog.SortedKinds()})
}

func (s *Server) handleCatalogOptions(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	opts, err := s.cfg.Catalog.Active(kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	meta := map[string]any{}
	if d, ok := s.cfg.Catalog.DefaultDesign()[kind]; ok {
		meta["default"] = d
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: opts, Meta: meta})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	out := []model.Project{}
	for _, p := range db.Projects {
		if p.Archived && !all {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: out})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["projectId"]
	p, ok := db.FindProject(id)
	if !ok {
		writeError(w, http.StatusNotFound, mutate.NotFoundError{Kind: "project", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: p, Meta: map[string]any{"lists": len(db.ListsForProject(id))}})
}

func (s *Server) handleProjectLists(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["projectId"]
	if _, ok := db.FindProject(id); !ok {
		writeError(w, http.StatusNotFound, mutate.NotFoundError{Kind: "project", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: db.ListsForProject(id)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	l, _, ok := s.findList(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: l})
}

func (s *Server) handleListMarkdown(w http.ResponseWriter, r *http.Request) {
	l, db, ok := s.findList(w, r)
	if !ok {
		return
	}
	md, err := publish.RenderListMarkdown(db, l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, md)
}

func (s *Server) handleSubmittal(w http.ResponseWriter, r *http.Request) {
	l, _, ok := s.findList(w, r)
	if !ok {
		return
	}
	sub := submittal.Derive(*l)
	sum := sub.Summary()
	writeJSON(w, http.StatusOK, format.Envelope{
		Data: sub.Filter(r.URL.Query().Get("term")),
		Meta: map[string]any{"summary": sum},
	})
}

type searchHit struct {
	editor.Position
	Row model.Item `json:"row"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	l, _, ok := s.findList(w, r)
	if !ok {
		return
	}
	hits := []searchHit{}
	for _, p := range editor.New(*l).Search(r.URL.Query().Get("term")) {
		hits = append(hits, searchHit{Position: p, Row: l.Sections[p.Section].Items[p.Item]})
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: hits})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	l, _, ok := s.findList(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", v))
			return
		}
		limit = n
	}
	evs, err := s.cfg.Store.ReadEventsForEntity(r.Context(), l.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, format.Envelope{Data: evs})
}

func (s *Server) handleListStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := mutate.ParseListStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mutateList(w, r, "list.set_status", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.SetListStatus(db, id, st, now)
	})
}

func (s *Server) handleAddSections(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Names []string `json:"names"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mutateList(w, r, "list.add_sections", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.AddSections(db, id, body.Names, now)
	})
}

func (s *Server) handleAddParent(w http.ResponseWriter, r *http.Request) {
	section := pathInt(r, "section")
	s.mutateList(w, r, "item.add", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.AddParent(db, id, section, now)
	})
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	section, parent := pathInt(r, "section"), pathInt(r, "item")
	s.mutateList(w, r, "item.add_child", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.AddChild(db, id, section, parent, now)
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	policy := s.cfg.DeletePolicy
	if v := r.URL.Query().Get("policy"); v != "" {
		p, err := editor.ParseDeletePolicy(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		policy = p
	}
	section, item := pathInt(r, "section"), pathInt(r, "item")
	s.mutateList(w, r, "item.delete", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.DeleteItem(db, id, section, item, policy, now)
	})
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	var patch editor.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if patch == (editor.ItemPatch{}) {
		writeError(w, http.StatusBadRequest, errors.New("empty patch"))
		return
	}
	section, item := pathInt(r, "section"), pathInt(r, "item")
	s.mutateList(w, r, "item.edit", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.EditItem(db, id, section, item, patch, now)
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From *editor.Position `json:"from"`
		To   *editor.Position `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.From == nil || body.To == nil {
		writeError(w, http.StatusBadRequest, errors.New("from and to are required"))
		return
	}
	s.mutateList(w, r, "item.move", func(db *store.DB, id string, now time.Time) (mutate.ListResult, error) {
		return mutate.MoveItem(db, id, *body.From, *body.To, now)
	})
}
