package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	past := time.Now().Add(-time.Minute)
	_, err := s.Create(ctx, CreateParams{Content: "a", NS: "one", Pin: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateParams{Content: "b", NS: "one", ExpiresAt: &past})
	require.NoError(t, err)
	c, err := s.Create(ctx, CreateParams{Content: "c", NS: "two"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, c.ID, false)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Path(), st.DBPath)
	assert.Equal(t, 3, st.TotalMemories)
	assert.Equal(t, 2, st.ActiveMemories)
	assert.Equal(t, 1, st.Archived)
	assert.Equal(t, 1, st.Pinned)
	assert.Equal(t, 1, st.Expired)
	assert.Equal(t, 3, st.IndexRows)
	assert.Equal(t, []NamespaceStats{
		{NS: "one", Count: 2},
		{NS: "two", Count: 1, Archived: 1},
	}, st.Namespaces)
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalMemories)
	assert.Empty(t, st.Namespaces)
}
