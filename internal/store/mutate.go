package store

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

func (s *SQLiteStore) AddTags(ctx context.Context, id string, tags []string) (bool, error) {
	return s.editSet(ctx, id, func(m *model.Memory) (UpdateParams, error) {
		return UpdateParams{ID: id, Tags: model.Union(m.Tags, tags)}, nil
	})
}

func (s *SQLiteStore) RemoveTags(ctx context.Context, id string, tags []string) (bool, error) {
	return s.editSet(ctx, id, func(m *model.Memory) (UpdateParams, error) {
		return UpdateParams{ID: id, Tags: model.Difference(m.Tags, tags)}, nil
	})
}

func (s *SQLiteStore) AddRefs(ctx context.Context, id string, refs []string) (bool, error) {
	return s.editSet(ctx, id, func(m *model.Memory) (UpdateParams, error) {
		return UpdateParams{ID: id, Refs: model.Union(m.Refs, refs)}, nil
	})
}

func (s *SQLiteStore) RemoveRefs(ctx context.Context, id string, refs []string) (bool, error) {
	return s.editSet(ctx, id, func(m *model.Memory) (UpdateParams, error) {
		return UpdateParams{ID: id, Refs: model.Difference(m.Refs, refs)}, nil
	})
}

// editSet runs a read-modify-write under the id's lock. A missing id reports
// false rather than an error.
func (s *SQLiteStore) editSet(ctx context.Context, id string, edit func(*model.Memory) (UpdateParams, error)) (bool, error) {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	up, err := edit(m)
	if err != nil {
		return false, err
	}
	return s.update(ctx, up)
}

// Cleanup hard-deletes every memory whose expiry has passed.
func (s *SQLiteStore) Cleanup(ctx context.Context, ns string) (int, error) {
	q := (&query{}).where("m.expires_at IS NOT NULL").where("m.expires_at < ?", formatTime(s.now()))
	if ns != "" {
		q.eq("namespace", ns)
	}
	where, args := q.build()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM memories_fts WHERE memory_id IN (SELECT m.id FROM memories m WHERE `+where+`)`, args...)
	if err != nil {
		return 0, goerr.Wrap(err, "cleanup fts rows")
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM memories WHERE id IN (SELECT m.id FROM memories m WHERE `+where+`)`, args...)
	if err != nil {
		return 0, goerr.Wrap(err, "cleanup expired memories", goerr.V("ns", ns))
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
