package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// mustRun runs args against dir and decodes the JSON envelope.
func mustRun(t *testing.T, dir string, args ...string) map[string]any {
	t.Helper()
	out, errOut, err := runCLI(t, append(args, "--dir", dir))
	require.NoError(t, err, "args=%v stderr=%s", args, errOut)
	var env map[string]any
	require.NoError(t, json.Unmarshal(out, &env), "stdout=%s", out)
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	require.True(t, ok, "data is %T", env["data"])
	return m
}

func changed(env map[string]any) bool {
	meta, _ := env["meta"].(map[string]any)
	b, _ := meta["changed"].(bool)
	return b
}

func sectionSKUs(t *testing.T, list map[string]any, section int) []string {
	t.Helper()
	secs := list["sections"].([]any)
	items := secs[section].(map[string]any)["items"].([]any)
	out := []string{}
	for _, it := range items {
		out = append(out, it.(map[string]any)["sku"].(string))
	}
	return out
}

// setupWorkspace creates a workspace with an identity, a current project and one list.
func setupWorkspace(t *testing.T) (dir, listID string) {
	t.Helper()
	t.Setenv("IML_CONFIG_DIR", t.TempDir())
	dir = filepath.Join(t.TempDir(), ".iml")

	mustRun(t, dir, "init")
	mustRun(t, dir, "identity", "create", "--name", "Dana", "--use")
	mustRun(t, dir, "projects", "create", "--name", "Backyard", "--design", "waterSource=well", "--use")
	env := mustRun(t, dir, "lists", "create", "--name", "Phase 1",
		"--category", "Remote Control Valves", "--category", "Other: drip zone")
	listID = dataMap(t, env)["id"].(string)
	require.True(t, strings.HasPrefix(listID, "iml-"))
	return dir, listID
}

// seedRows builds [A, A1 (child of A), B] in section 0.
func seedRows(t *testing.T, dir, listID string) {
	t.Helper()
	mustRun(t, dir, "items", "add", listID, "--section", "0")
	mustRun(t, dir, "items", "add", listID, "--section", "0")
	mustRun(t, dir, "items", "add", listID, "--section", "0", "--parent", "0")
	for i, sku := range []string{"A", "A1", "B"} {
		mustRun(t, dir, "items", "edit", listID, "--section", "0", "--item", strconv.Itoa(i), "--sku", sku)
	}
}

func TestListCreateBuildsSections(t *testing.T) {
	dir, listID := setupWorkspace(t)

	list := dataMap(t, mustRun(t, dir, "lists", "show", listID))
	secs := list["sections"].([]any)
	require.Len(t, secs, 2)
	require.Equal(t, "Remote Control Valves", secs[0].(map[string]any)["name"])
	require.Equal(t, "Drip Zone", secs[1].(map[string]any)["name"])
	require.Equal(t, "draft", list["status"])
}

func TestItemWorkflow_MoveParentBlock(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	list := dataMap(t, mustRun(t, dir, "lists", "show", listID))
	require.Equal(t, []string{"A", "A1", "B"}, sectionSKUs(t, list, 0))

	env := mustRun(t, dir, "items", "move", listID, "--from", "0:0", "--to", "0:3")
	require.True(t, changed(env))
	require.Equal(t, []string{"B", "A", "A1"}, sectionSKUs(t, dataMap(t, env), 0))

	// A child cannot leave its parent's section; that is not an error.
	env = mustRun(t, dir, "items", "move", listID, "--from", "0:2", "--to", "1:0")
	require.False(t, changed(env))

	evs := mustRun(t, dir, "events", "list", "--entity", listID)["data"].([]any)
	var types []string
	for _, ev := range evs {
		types = append(types, ev.(map[string]any)["type"].(string))
	}
	require.Contains(t, types, "list.create")
	require.Contains(t, types, "item.add_child")
	require.Equal(t, "item.move", types[len(types)-1])
}

func TestItemsDeletePolicyFromConfig(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	mustRun(t, dir, "config", "set", "delete-policy", "cascade")
	cfg := dataMap(t, mustRun(t, dir, "config", "show"))
	require.Equal(t, "cascade", cfg["delete-policy"])

	env := mustRun(t, dir, "items", "delete", listID, "--section", "0", "--item", "0")
	require.Equal(t, []string{"B"}, sectionSKUs(t, dataMap(t, env), 0))
}

func TestItemsDeletePolicyFlagOverridesConfig(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	env := mustRun(t, dir, "items", "delete", listID, "--section", "0", "--item", "0", "--policy", "promote")
	list := dataMap(t, env)
	require.Equal(t, []string{"A1", "B"}, sectionSKUs(t, list, 0))
	first := list["sections"].([]any)[0].(map[string]any)["items"].([]any)[0].(map[string]any)
	_, isChild := first["isChild"]
	require.False(t, isChild)

	_, _, err := runCLI(t, []string{"items", "delete", listID, "--item", "0", "--policy", "shred", "--dir", dir})
	require.Error(t, err)
}

func TestItemsEditRejectsBadUOM(t *testing.T) {
	dir, listID := setupWorkspace(t)
	mustRun(t, dir, "items", "add", listID)

	_, stderr, err := runCLI(t, []string{"items", "edit", listID, "--item", "0", "--uom", "parsecs", "--dir", dir})
	require.Error(t, err)
	require.Contains(t, string(stderr), "invalid uom")

	_, _, err = runCLI(t, []string{"items", "edit", listID, "--item", "0", "--dir", dir})
	require.Error(t, err)

	env := mustRun(t, dir, "items", "edit", listID, "--item", "0", "--uom", "lf", "--quantity", "120")
	row := dataMap(t, env)["sections"].([]any)[0].(map[string]any)["items"].([]any)[0].(map[string]any)
	require.Equal(t, "LF", row["uom"])
	require.Equal(t, "120", row["quantity"])
}

func TestApprovedListIsLocked(t *testing.T) {
	dir, listID := setupWorkspace(t)
	mustRun(t, dir, "lists", "set-status", listID, "--status", "approved")

	_, stderr, err := runCLI(t, []string{"items", "add", listID, "--dir", dir})
	require.Error(t, err)
	require.Contains(t, string(stderr), "approved")

	mustRun(t, dir, "lists", "set-status", listID, "--status", "draft")
	mustRun(t, dir, "items", "add", listID)
}

func TestMutationsRequireActor(t *testing.T) {
	t.Setenv("IML_CONFIG_DIR", t.TempDir())
	dir := filepath.Join(t.TempDir(), ".iml")
	mustRun(t, dir, "init")

	_, stderr, err := runCLI(t, []string{"projects", "create", "--name", "X", "--dir", dir})
	require.Error(t, err)
	require.Contains(t, string(stderr), "no current actor")
}

func TestOutputContract_EnvelopeAndFormats(t *testing.T) {
	dir, listID := setupWorkspace(t)

	for _, args := range [][]string{
		{"identity", "whoami"},
		{"projects", "list"},
		{"lists", "list"},
		{"catalog", "kinds"},
		{"doctor"},
		{"events", "list", "--limit", "5"},
		{"submittal", listID},
	} {
		env := mustRun(t, dir, args...)
		_, ok := env["data"]
		require.True(t, ok, "missing data key for %v", args)
	}

	out, _, err := runCLI(t, []string{"lists", "show", listID, "--format", "edn", "--dir", dir})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "{:data"), string(out))

	_, _, err = runCLI(t, []string{"lists", "list", "--format", "xml", "--dir", dir})
	require.Error(t, err)

	out, _, err = runCLI(t, []string{"lists", "show", listID, "--md", "--dir", dir})
	require.NoError(t, err)
	require.Contains(t, string(out), "## Remote Control Valves")
}

func TestFormatFromEnv(t *testing.T) {
	dir, listID := setupWorkspace(t)
	t.Setenv("IML_FORMAT", "edn")

	out, _, err := runCLI(t, []string{"lists", "show", listID, "--dir", dir})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "{:data"))
}

func TestCatalogAndProjectDesign(t *testing.T) {
	dir, _ := setupWorkspace(t)

	env := mustRun(t, dir, "catalog", "list", "waterSource")
	require.Equal(t, "city", env["meta"].(map[string]any)["default"])

	p := dataMap(t, mustRun(t, dir, "projects", "show"))["project"].(map[string]any)
	design := p["design"].(map[string]any)
	require.Equal(t, "well", design["waterSource"])
	require.Equal(t, "medium", design["pressure"])

	_, _, err := runCLI(t, []string{"projects", "set-design", p["id"].(string), "--kind", "waterSource", "--value", "lake", "--dir", dir})
	require.Error(t, err)
}

func TestSubmittalSummary(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)
	mustRun(t, dir, "items", "add", listID, "--section", "1")
	mustRun(t, dir, "items", "edit", listID, "--section", "1", "--item", "0", "--sku", "B")
	mustRun(t, dir, "items", "add", listID, "--section", "1")

	env := mustRun(t, dir, "submittal", listID)
	sum := env["meta"].(map[string]any)["summary"].(map[string]any)
	require.EqualValues(t, 5, sum["total"])
	require.EqualValues(t, 2, sum["normal"])
	require.EqualValues(t, 2, sum["duplicate"])
	require.EqualValues(t, 1, sum["invalid"])
}

func TestSearchFindsRows(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	hits := mustRun(t, dir, "lists", "search", listID, "--term", "a1")["data"].([]any)
	require.Len(t, hits, 1)
	h := hits[0].(map[string]any)
	require.EqualValues(t, 1, h["item"])
	require.Equal(t, "Remote Control Valves", h["sectionName"])
}

func TestDoctorCleanWorkspace(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	env := mustRun(t, dir, "doctor", "--fail", "--fix")
	meta := env["meta"].(map[string]any)
	require.Equal(t, false, meta["hasErrors"])
	require.EqualValues(t, 0, meta["fixed"])
}

func TestBackupRoundTrip(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	snap := filepath.Join(t.TempDir(), "snap.json")
	env := mustRun(t, dir, "backup", "export", "--out", snap)
	require.EqualValues(t, 1, dataMap(t, env)["lists"])

	other := filepath.Join(t.TempDir(), ".iml")
	mustRun(t, other, "backup", "import", "--in", snap)
	list := dataMap(t, mustRun(t, other, "lists", "show", listID))
	require.Equal(t, []string{"A", "A1", "B"}, sectionSKUs(t, list, 0))

	jsonl := filepath.Join(t.TempDir(), "events.jsonl")
	mustRun(t, dir, "backup", "events", "--out", jsonl)
	b, err := os.ReadFile(jsonl)
	require.NoError(t, err)
	lines := strings.Count(string(b), "\n")
	require.Greater(t, lines, 5)

	env = mustRun(t, other, "backup", "restore-events", "--in", jsonl)
	require.EqualValues(t, lines, dataMap(t, env)["events"])
}

func TestPublishListWritesMarkdown(t *testing.T) {
	dir, listID := setupWorkspace(t)
	seedRows(t, dir, listID)

	to := t.TempDir()
	mustRun(t, dir, "publish", "list", listID, "--to", to, "--submittal")
	b, err := os.ReadFile(filepath.Join(to, listID+".md"))
	require.NoError(t, err)
	require.Contains(t, string(b), "↳ A1")
	_, err = os.Stat(filepath.Join(to, listID+".submittal.md"))
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"publish", "list", listID, "--to", to, "--dir", dir})
	require.Error(t, err)
}

func TestParsePosition(t *testing.T) {
	p, err := parsePosition(" 1:3 ")
	require.NoError(t, err)
	require.Equal(t, 1, p.Section)
	require.Equal(t, 3, p.Item)

	for _, bad := range []string{"", "1", "a:b", "1:"} {
		_, err := parsePosition(bad)
		require.Error(t, err, bad)
	}
}
