package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

// run executes one command against db and returns stdout.
func run(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", db, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, db, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, db, stdin, args...)
	require.NoError(t, err, "args: %v", args)
	return out
}

func TestPutGetRm(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	var created model.Memory
	out := mustRun(t, db, "", "put", "--ns", "proj", "--title", "hello", "--tags", "a,b", "--ttl", "7d", "--meta", `{"src":"cli"}`, "remember", "this")
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "remember this", created.Content)
	assert.Equal(t, "proj", created.NS)
	assert.Equal(t, []string{"a", "b"}, created.Tags)
	require.NotNil(t, created.ExpiresAt)
	assert.JSONEq(t, `{"src":"cli"}`, string(created.Metadata))

	target := mustRun(t, db, "from stdin\n", "put")
	var other model.Memory
	require.NoError(t, json.Unmarshal([]byte(target), &other))
	assert.Equal(t, "from stdin", other.Content)

	mustRun(t, db, "", "link", created.ID, other.ID, "--rel", "depends_on")

	var got struct {
		model.Memory
		Relations map[string]string `json:"relations"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "", "get", created.ID)), &got))
	assert.Equal(t, []string{other.ID}, got.Refs)
	assert.Equal(t, map[string]string{other.ID: "depends_on"}, got.Relations)

	assert.JSONEq(t, `{"removed":1}`, mustRun(t, db, "", "rm", created.ID, "--hard"))
	_, err := run(t, db, "", "get", created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutRejectsBadInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, db, "   ", "put")
	assert.Error(t, err)
	_, err = run(t, db, "", "put", "--ttl", "soon", "x")
	assert.Error(t, err)
	_, err = run(t, db, "", "put", "--meta", "[1]", "x")
	assert.Error(t, err)
}

func TestListAndSearch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	mustRun(t, db, "", "put", "--ns", "a", "alpha apples")
	mustRun(t, db, "", "put", "--ns", "b", "--pin", "beta bananas")

	var page store.Page
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "", "list", "--pinned")), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b", page.Items[0].NS)

	uris := mustRun(t, db, "", "list", "--ids-only")
	assert.Equal(t, 2, strings.Count(uris, "mem://"))

	var hits []model.Scored
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "", "search", "apples")), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Item.NS)
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")

	mustRun(t, src, "", "put", "one")
	mustRun(t, src, "", "put", "two")
	dump := mustRun(t, src, "", "export")
	assert.Equal(t, 2, strings.Count(dump, "\n"))

	assert.JSONEq(t, `{"upserted":2}`, mustRun(t, dst, dump, "import"))

	file := filepath.Join(dir, "dump.ndjson")
	mustRun(t, src, "", "export", "--out", file)
	assert.JSONEq(t, `{"upserted":2}`, mustRun(t, dst, "", "import", file))

	var ns []store.NamespaceStats
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dst, "", "ns", "list")), &ns))
	require.Len(t, ns, 1)
	assert.Equal(t, 2, ns[0].Count)
}

func TestTaskCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	var created map[string]string
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "", "task", "add", "ship", "it")), &created))
	mustRun(t, db, "", "task", "status", created["id"], "done")

	out := mustRun(t, db, "", "task", "list")
	assert.Equal(t, created["id"][:8]+" | done | ship it\n", out)
}
