package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
	"iml-cli/internal/store"
	"iml-cli/internal/submittal"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, currentActor string) store.Store {
	t.Helper()
	now := time.Date(2025, 8, 4, 22, 42, 0, 0, time.UTC)
	s := store.Store{Dir: t.TempDir()}
	db := &store.DB{
		Version:        1,
		CurrentActorID: currentActor,
		Actors:         []model.Actor{{ID: "act-a", Name: "A"}},
		Projects: []model.Project{
			{ID: "proj-a", Name: "Backyard", Status: model.ProjectDraft, CreatedBy: "act-a", CreatedAt: now, UpdatedAt: now},
			{ID: "proj-old", Name: "Old", Status: model.ProjectComplete, Archived: true, CreatedBy: "act-a", CreatedAt: now, UpdatedAt: now},
		},
		Lists: []model.MaterialsList{{
			ID: "iml-t", ProjectID: "proj-a", Name: "Phase 1", Status: model.ListDraft,
			Sections: []model.Section{
				{Name: "Spray Irrigation", ColumnName: "Spray Irrigation", Items: []model.Item{
					{SKU: "A", Content: "Spray head", Quantity: "4", UOM: model.UOMEach, Line: "1"},
					{SKU: "A1", Content: "Nozzle", Quantity: "4", UOM: model.UOMEach, Line: "2", IsChild: true},
					{SKU: "B", Content: "Swing pipe", Quantity: "20", UOM: model.UOMFeet, Line: "3"},
				}},
				{Name: "Sleeving", ColumnName: "Sleeving", Items: []model.Item{
					{SKU: "A", Content: "Spray head spare", Quantity: "1", UOM: model.UOMEach, Line: "1"},
				}},
			},
			CreatedBy: "act-a", CreatedAt: now, UpdatedAt: now,
		}},
	}
	require.NoError(t, s.Save(context.Background(), db))
	return s
}

func newTestServer(t *testing.T, s store.Store) http.Handler {
	t.Helper()
	srv, err := NewServer(Config{Store: s})
	require.NoError(t, err)
	return srv.Handler()
}

type listResponse struct {
	Data model.MaterialsList `json:"data"`
	Meta struct {
		Changed bool `json:"changed"`
	} `json:"meta"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var out listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func skus(l model.MaterialsList, section int) []string {
	out := []string{}
	for _, it := range l.Sections[section].Items {
		out = append(out, it.SKU)
	}
	return out
}

func TestHealthAndUnknownRoute(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	rec := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"status":"ok"}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetList(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	rec := do(t, h, http.MethodGet, "/lists/iml-t", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"A", "A1", "B"}, skus(decodeList(t, rec).Data, 0))

	rec = do(t, h, http.MethodGet, "/lists/iml-missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectsHidesArchivedByDefault(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	var out struct {
		Data []model.Project `json:"data"`
	}
	rec := do(t, h, http.MethodGet, "/projects", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)

	rec = do(t, h, http.MethodGet, "/projects?archived=true", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)

	rec = do(t, h, http.MethodGet, "/projects/proj-a/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/projects/proj-x", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveParentBlock(t *testing.T) {
	s := seedStore(t, "act-a")
	h := newTestServer(t, s)

	rec := do(t, h, http.MethodPost, "/lists/iml-t/move", map[string]any{
		"from": editor.Position{Section: 0, Item: 0},
		"to":   editor.Position{Section: 0, Item: 3},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeList(t, rec)
	require.True(t, res.Meta.Changed)
	require.Equal(t, []string{"B", "A", "A1"}, skus(res.Data, 0))
	require.Equal(t, []string{"1", "2", "3"}, []string{res.Data.Sections[0].Items[0].Line, res.Data.Sections[0].Items[1].Line, res.Data.Sections[0].Items[2].Line})

	evs, err := s.ReadEventsForEntity(context.Background(), "iml-t", 0)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, "item.move", evs[0].Type)
	require.Equal(t, "act-a", evs[0].ActorID)
}

func TestIllegalMoveReportsUnchanged(t *testing.T) {
	s := seedStore(t, "act-a")
	h := newTestServer(t, s)

	// A child may not leave its parent's section.
	rec := do(t, h, http.MethodPost, "/lists/iml-t/move", map[string]any{
		"from": editor.Position{Section: 0, Item: 1},
		"to":   editor.Position{Section: 1, Item: 0},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeList(t, rec)
	require.False(t, res.Meta.Changed)
	require.Equal(t, []string{"A", "A1", "B"}, skus(res.Data, 0))

	evs, err := s.ReadEventsForEntity(context.Background(), "iml-t", 0)
	require.NoError(t, err)
	require.Empty(t, evs)

	rec = do(t, h, http.MethodPost, "/lists/iml-t/move", map[string]any{"from": editor.Position{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddEditDeleteItems(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	rec := do(t, h, http.MethodPost, "/lists/iml-t/sections/1/items", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"A", ""}, skus(decodeList(t, rec).Data, 1))

	rec = do(t, h, http.MethodPost, "/lists/iml-t/sections/0/items/2/children", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"A", "A1", "B", ""}, skus(decodeList(t, rec).Data, 0))

	rec = do(t, h, http.MethodPatch, "/lists/iml-t/sections/0/items/3", map[string]any{"sku": "B1", "uom": "ft"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeList(t, rec)
	require.Equal(t, "B1", res.Data.Sections[0].Items[3].SKU)
	require.Equal(t, model.UOMFeet, res.Data.Sections[0].Items[3].UOM)
	require.True(t, res.Data.Sections[0].Items[3].IsChild)

	rec = do(t, h, http.MethodPatch, "/lists/iml-t/sections/0/items/3", map[string]any{"uom": "parsecs"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/lists/iml-t/sections/0/items/3", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/lists/iml-t/sections/0/items/0?policy=cascade", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"B", "B1"}, skus(decodeList(t, rec).Data, 0))

	rec = do(t, h, http.MethodDelete, "/lists/iml-t/sections/0/items/0?policy=shred", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovedListRejectsEdits(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	rec := do(t, h, http.MethodPut, "/lists/iml-t/status", map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.ListApproved, decodeList(t, rec).Data.Status)

	rec = do(t, h, http.MethodPost, "/lists/iml-t/sections/0/items", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/lists/iml-t/status", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMutationsNeedAnActor(t *testing.T) {
	h := newTestServer(t, seedStore(t, ""))

	rec := do(t, h, http.MethodPost, "/lists/iml-t/sections/0/items", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "actor")

	rec = do(t, h, http.MethodGet, "/lists/iml-t", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmittalFlagsDuplicates(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	var out struct {
		Data submittal.Submittal `json:"data"`
		Meta struct {
			Summary submittal.Summary `json:"summary"`
		} `json:"meta"`
	}
	rec := do(t, h, http.MethodGet, "/lists/iml-t/submittal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, submittal.Summary{Total: 4, Normal: 2, Duplicate: 2}, out.Meta.Summary)
	require.Equal(t, submittal.StatusDuplicate, out.Data.Sections[1].Rows[0].Status)
}

func TestSearchCatalogAndMarkdown(t *testing.T) {
	h := newTestServer(t, seedStore(t, "act-a"))

	var hits struct {
		Data []struct {
			Section int        `json:"section"`
			Item    int        `json:"item"`
			Row     model.Item `json:"row"`
		} `json:"data"`
	}
	rec := do(t, h, http.MethodGet, "/lists/iml-t/search?term=nozzle", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hits))
	require.Len(t, hits.Data, 1)
	require.Equal(t, 1, hits.Data[0].Item)
	require.Equal(t, "A1", hits.Data[0].Row.SKU)

	rec = do(t, h, http.MethodGet, "/catalog/waterSource", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"default":"city"`)

	rec = do(t, h, http.MethodGet, "/catalog/flux", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/lists/iml-t/markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	require.Contains(t, rec.Body.String(), "Spray Irrigation")
}

func TestServeStopsWithContext(t *testing.T) {
	st := seedStore(t, "act-a")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", Config{Store: st}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
