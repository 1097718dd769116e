package store

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// List returns one page ordered by updated_at DESC, id DESC.
//
// A full page always carries a cursor, so a total that is an exact multiple
// of the limit costs one extra, empty page at the end.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) (*Page, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	where, args := filterQuery(p).build()
	stmt := `SELECT ` + memoryColumns + ` FROM memories m
		WHERE ` + where + `
		ORDER BY m.updated_at DESC, m.id DESC
		LIMIT ?`
	args = append(args, limit)

	items, err := s.queryMemories(ctx, stmt, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "list memories")
	}

	page := &Page{Items: items}
	if len(items) == limit {
		next := encodeCursor(items[len(items)-1])
		page.NextCursor = &next
	}
	return page, nil
}

func (s *SQLiteStore) queryMemories(ctx context.Context, stmt string, args ...any) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []model.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}
