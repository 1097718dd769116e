package store

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/model"
)

func TestExportImportExample(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	m, err := src.Create(ctx, CreateParams{Content: "alpha", NS: "E"})
	require.NoError(t, err)
	_, err = src.Create(ctx, CreateParams{Content: "elsewhere", NS: "F"})
	require.NoError(t, err)

	items, err := src.Export(ctx, "E")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, items))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], m.ID)

	dst := newTestStore(t)
	n, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := dst.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Content)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	importance := 0.9
	a, err := src.Create(ctx, CreateParams{
		Content:    "full record",
		Type:       "fact",
		Title:      strPtr("title"),
		AgentID:    "agent",
		NS:         "rt",
		Metadata:   json.RawMessage(`{"k":"v","nested":{"n":1.5},"a":true}`),
		Tags:       []string{"x", "y"},
		Refs:       []string{"r"},
		Importance: &importance,
		Pin:        true,
	})
	require.NoError(t, err)
	b, err := src.Create(ctx, CreateParams{Content: "archived", NS: "rt"})
	require.NoError(t, err)
	_, err = src.Delete(ctx, b.ID, false)
	require.NoError(t, err)

	exported, err := src.Export(ctx, "")
	require.NoError(t, err)
	require.Len(t, exported, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, exported))

	dst := newTestStore(t)
	n, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	reimported, err := dst.Export(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, exported, reimported)

	got, err := dst.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	hits, err := dst.Search(ctx, SearchParams{Query: "full"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestImportSkipsBadLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ndjson := strings.Join([]string{
		`{"id":"01A","content":"ok","namespace":"i"}`,
		`not json`,
		``,
		`{"content":"no id"}`,
		`{"id":"01B","content":"also ok"}`,
	}, "\r\n")

	n, err := s.Import(ctx, strings.NewReader(ndjson))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Get(ctx, "01B")
	require.NoError(t, err)
	assert.Equal(t, "default", got.NS)
	assert.Equal(t, "note", got.Type)
}

func TestImportReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, err := s.Create(ctx, CreateParams{Content: "before", Tags: []string{"old"}})
	require.NoError(t, err)

	m.Content = "after"
	m.Tags = []string{"new"}
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []model.Memory{*m}))

	n, err := s.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.Equal(t, []string{"new"}, got.Tags)

	hits, err := s.Search(ctx, SearchParams{Query: "old"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
