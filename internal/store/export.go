package store

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

// maxImportLine bounds a single NDJSON line on import.
const maxImportLine = 32 << 20

// Export returns every memory, archived ones included, optionally filtered by
// namespace. Rows come out in creation order.
func (s *SQLiteStore) Export(ctx context.Context, ns string) ([]model.Memory, error) {
	q := &query{}
	if ns != "" {
		q.eq("namespace", ns)
	}
	where, args := q.build()

	items, err := s.queryMemories(ctx,
		`SELECT `+memoryColumns+` FROM memories m WHERE `+where+` ORDER BY m.created_at, m.id`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "export memories", goerr.V("ns", ns))
	}
	return items, nil
}

// Upsert inserts m, or replaces every field of the existing row with its id.
func (s *SQLiteStore) Upsert(ctx context.Context, m model.Memory) error {
	if m.ID == "" {
		return goerr.New("upsert requires an id")
	}
	if m.NS == "" {
		m.NS = model.DefaultNamespace
	}
	if m.Type == "" {
		m.Type = model.TypeNote
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.Importance = clampImportance(m.Importance)

	unlock := s.lock(m.ID)
	defer unlock()
	return s.write(ctx, &m, true)
}

// Import upserts every record of an NDJSON stream. Lines that fail to parse
// or lack an id are skipped; only read failures abort the import.
func (s *SQLiteStore) Import(ctx context.Context, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var m model.Memory
		if err := json.Unmarshal([]byte(line), &m); err != nil || m.ID == "" {
			continue
		}
		if err := s.Upsert(ctx, m); err != nil {
			continue
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, goerr.Wrap(err, "read ndjson", goerr.V("imported", n))
	}
	return n, nil
}

// WriteNDJSON writes one JSON document per memory, each followed by a newline.
func WriteNDJSON(w io.Writer, items []model.Memory) error {
	enc := json.NewEncoder(w)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			return goerr.Wrap(err, "encode ndjson", goerr.V("id", items[i].ID))
		}
	}
	return nil
}
