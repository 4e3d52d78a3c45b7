package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"iml-cli/internal/model"
	"iml-cli/internal/store"
	"iml-cli/internal/submittal"

	"github.com/stretchr/testify/require"
)

func testDB() *store.DB {
	now := time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)
	return &store.DB{
		Projects: []model.Project{{ID: "proj-1", Name: "Backyard", Customer: "Jones", Status: model.ProjectDraft,
			Design: map[string]string{"waterSource": "city", "backflow": "pvb"}}},
		Lists: []model.MaterialsList{{
			ID: "iml-1", ProjectID: "proj-1", Name: "Main", Status: model.ListDraft, UpdatedAt: now,
			Sections: []model.Section{
				{Name: "Remote Control Valves", Items: []model.Item{
					{SKU: "PGV-100", Content: "Valve | 1in", Quantity: "4", UOM: model.UOMEach, Line: "1"},
					{SKU: "WIRE-18", Content: "Wire", Quantity: "500", UOM: model.UOMFeet, Line: "2", IsChild: true},
				}},
				{Name: "Sleeving", Items: []model.Item{}},
			},
		}},
	}
}

func TestRenderListMarkdown(t *testing.T) {
	md, err := RenderListMarkdown(testDB(), "iml-1")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(md, "# Main\n"))
	require.Contains(t, md, "- Project: Backyard (proj-1)")
	require.Contains(t, md, "- Design: backflow=pvb, waterSource=city")
	require.Contains(t, md, "## Remote Control Valves")
	require.Contains(t, md, `| 1 | PGV-100 | Valve \| 1in | 4 | EA |  |`)
	require.Contains(t, md, "| 2 | ↳ WIRE-18 | Wire | 500 | FT |  |")
	require.Contains(t, md, "## Sleeving\n\n_No items._")

	_, err = RenderListMarkdown(testDB(), "iml-404")
	require.Error(t, err)
}

func TestRenderSubmittalMarkdown(t *testing.T) {
	db := testDB()
	l := db.Lists[0]
	l.Sections[1].Items = []model.Item{{SKU: "PGV-100", Line: "1"}, {Line: "2"}}

	md := RenderSubmittalMarkdown(submittal.Derive(l))
	require.Contains(t, md, "# Submittal: Main")
	require.Contains(t, md, "4 rows: 1 normal, 2 duplicate, 1 invalid")
	require.Contains(t, md, "| 1 | PGV-100 |  | **duplicate** |")
	require.Contains(t, md, "| 2 | ↳ WIRE-18 | Wire | normal |")
}

func TestWriteProject(t *testing.T) {
	dir := t.TempDir()
	db := testDB()

	res, err := WriteProject(db, "proj-1", dir, WriteOptions{Submittal: true})
	require.NoError(t, err)
	require.Len(t, res.Written, 3)

	index, err := os.ReadFile(filepath.Join(dir, "proj-1", "index.md"))
	require.NoError(t, err)
	require.Contains(t, string(index), "- [Main](iml-1.md) (draft, 2 rows)")

	_, err = os.Stat(filepath.Join(dir, "proj-1", "iml-1.submittal.md"))
	require.NoError(t, err)

	_, err = WriteProject(db, "proj-1", dir, WriteOptions{})
	require.ErrorContains(t, err, "file exists")

	_, err = WriteProject(db, "proj-1", dir, WriteOptions{Overwrite: true})
	require.NoError(t, err)
}

func TestRenderTerminal(t *testing.T) {
	require.Equal(t, "", RenderTerminal("  ", 80, "dark"))
	out := RenderTerminal("# Title\n\nbody", 40, "notty")
	require.Contains(t, out, "Title")
	require.Contains(t, out, "body")
}
