package store

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

const defaultSearchLimit = 20

// Search finds memories whose content chunks, tags or title match the query.
// Hits are ordered by recency; the score is not ranked and is always 0.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Scored, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	match := ftsQuery(p.Query)
	if match == "" {
		return []model.Scored{}, nil
	}

	q := (&query{}).where(
		"m.id IN (SELECT memory_id FROM memories_fts WHERE memories_fts MATCH ?)", match)
	if p.NS != "" {
		q.eq("namespace", p.NS)
	}
	where, args := q.build()

	stmt := `SELECT ` + memoryColumns + ` FROM memories m
		WHERE ` + where + `
		ORDER BY m.updated_at DESC, m.id DESC
		LIMIT ?`
	args = append(args, limit)

	items, err := s.queryMemories(ctx, stmt, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "search memories", goerr.V("query", p.Query))
	}

	results := make([]model.Scored, len(items))
	for i, m := range items {
		results[i] = model.Scored{Item: m, Score: 0}
	}
	return results, nil
}

// ftsQuery quotes each term as an FTS5 phrase so arbitrary input is valid
// MATCH syntax. Terms are implicitly AND-ed.
func ftsQuery(raw string) string {
	terms := strings.Fields(raw)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
