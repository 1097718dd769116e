package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func collectPages(t *testing.T, s *SQLiteStore, p ListParams) []model.Memory {
	t.Helper()
	var all []model.Memory
	for i := 0; i < 100; i++ {
		page, err := s.List(context.Background(), p)
		require.NoError(t, err)
		all = append(all, page.Items...)
		if page.NextCursor == nil {
			return all
		}
		p.Cursor = *page.NextCursor
	}
	t.Fatal("pagination did not terminate")
	return nil
}

func TestListEvenOddPagination(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		tag := "even"
		if i%2 == 1 {
			tag = "odd"
		}
		_, err := s.Create(ctx, CreateParams{Content: fmt.Sprintf("item %d", i), NS: "N", Tags: []string{tag}})
		require.NoError(t, err)
	}

	first, err := s.List(ctx, ListParams{NS: "N", Tags: []string{"even"}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.NextCursor)

	rest := collectPages(t, s, ListParams{NS: "N", Tags: []string{"even"}, Limit: 2, Cursor: *first.NextCursor})
	require.Len(t, rest, 1)

	seen := map[string]bool{}
	for _, m := range append(first.Items, rest...) {
		assert.Contains(t, m.Tags, "even")
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestListGaplessOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Several records share a timestamp so the id tie-break is exercised.
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls/3) * time.Second)
	}

	want := map[string]bool{}
	for i := 0; i < 17; i++ {
		m, err := s.Create(ctx, CreateParams{Content: fmt.Sprintf("r%d", i), NS: "gap"})
		require.NoError(t, err)
		want[m.ID] = true
	}
	archived, err := s.Create(ctx, CreateParams{Content: "hidden", NS: "gap"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, archived.ID, false)
	require.NoError(t, err)

	for _, limit := range []int{1, 2, 3, 5, 17, 50} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			all := collectPages(t, s, ListParams{NS: "gap", Limit: limit})
			require.Len(t, all, len(want))
			for i, m := range all {
				assert.True(t, want[m.ID])
				if i == 0 {
					continue
				}
				prev := all[i-1]
				ordered := prev.UpdatedAt.After(m.UpdatedAt) ||
					(prev.UpdatedAt.Equal(m.UpdatedAt) && prev.ID > m.ID)
				assert.True(t, ordered, "rows %d and %d out of order", i-1, i)
			}
		})
	}
}

func TestListExactMultipleEmitsTrailingEmptyPage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 4; i++ {
		_, err := s.Create(ctx, CreateParams{Content: "x", NS: "m"})
		require.NoError(t, err)
	}

	p := ListParams{NS: "m", Limit: 2}
	page, err := s.List(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, page.NextCursor)

	p.Cursor = *page.NextCursor
	page, err = s.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)

	p.Cursor = *page.NextCursor
	page, err = s.List(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	stepClock(s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	a, err := s.Create(ctx, CreateParams{Content: "a", NS: "f", Type: "task", AgentID: "bot", Pin: true})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateParams{Content: "b", NS: "f", Type: "note", Tags: []string{"x", "y"}})
	require.NoError(t, err)
	c, err := s.Create(ctx, CreateParams{Content: "c", NS: "other"})
	require.NoError(t, err)
	d, err := s.Create(ctx, CreateParams{Content: "d", NS: "f"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, d.ID, false)
	require.NoError(t, err)

	ids := func(p ListParams) []string {
		page, err := s.List(ctx, p)
		require.NoError(t, err)
		out := []string{}
		for _, m := range page.Items {
			out = append(out, m.ID)
		}
		return out
	}

	assert.Equal(t, []string{b.ID, a.ID}, ids(ListParams{NS: "f"}))
	assert.Equal(t, []string{a.ID}, ids(ListParams{Types: []string{"task"}}))
	assert.Equal(t, []string{a.ID}, ids(ListParams{AgentID: "bot"}))
	assert.Equal(t, []string{a.ID}, ids(ListParams{NS: "f", Pinned: boolPtr(true)}))
	assert.Equal(t, []string{b.ID}, ids(ListParams{Tags: []string{"y", "zzz"}}))
	assert.Equal(t, []string{d.ID}, ids(ListParams{Archived: boolPtr(true)}))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(ListParams{}))
	assert.Equal(t, []string{a.ID}, ids(ListParams{Before: &b.UpdatedAt}))
	assert.Equal(t, []string{c.ID}, ids(ListParams{After: &b.UpdatedAt}))
}

func TestListIgnoresMalformedCursor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, CreateParams{Content: "x"})
		require.NoError(t, err)
	}

	for _, c := range []string{
		"!!!not-base64",
		base64.StdEncoding.EncodeToString([]byte("no-separator")),
		base64.StdEncoding.EncodeToString([]byte("|01ABC")),
		base64.StdEncoding.EncodeToString([]byte("2024-05-06T07:08:09.000000010Z|")),
	} {
		page, err := s.List(ctx, ListParams{Cursor: c})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3, "cursor %q", c)
		assert.Nil(t, page.NextCursor)
	}
}

func TestListLimitClamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, CreateParams{Content: "x"})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, ListParams{Limit: -5})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = s.List(ctx, ListParams{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestCursorRoundTrip(t *testing.T) {
	m := model.Memory{ID: "01ABC", UpdatedAt: time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC)}
	c, ok := decodeCursor(encodeCursor(m))
	require.True(t, ok)
	assert.Equal(t, "01ABC", c.ID)
	assert.Equal(t, "2024-05-06T07:08:09.000000010Z", c.UpdatedAt)

	_, ok = decodeCursor("")
	assert.False(t, ok)

	m.ID = "a|b|c"
	c, ok = decodeCursor(encodeCursor(m))
	require.True(t, ok)
	assert.Equal(t, "a|b|c", c.ID)
}

func TestListPagesOverIDsWithSeparator(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, id := range []string{"a|1", "b|2", "c|3"} {
		require.NoError(t, s.Upsert(ctx, model.Memory{ID: id, Content: id, CreatedAt: at, UpdatedAt: at}))
	}

	all := collectPages(t, s, ListParams{Limit: 1})
	got := make([]string, 0, len(all))
	for _, m := range all {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"c|3", "b|2", "a|1"}, got)
}

func TestQueryBuild(t *testing.T) {
	where, args := (&query{}).build()
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)

	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args = filterQuery(ListParams{
		NS:    "n",
		Types: []string{"a", "b"},
		Tags:  []string{"t"},
		After: &after,
	}).build()
	assert.Equal(t,
		"m.namespace = ? AND m.type IN (?,?) AND "+
			"EXISTS (SELECT 1 FROM json_each(m.tags) WHERE json_each.value IN (?)) AND "+
			"m.archived = ? AND m.updated_at > ?",
		where)
	assert.Equal(t, []any{"n", "a", "b", "t", 0, "2024-01-01T00:00:00.000000000Z"}, args)
}
