package store

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string           `json:"dbPath"`
	DBSizeBytes    int64            `json:"dbSizeBytes"`
	TotalMemories  int              `json:"totalMemories"`
	ActiveMemories int              `json:"activeMemories"`
	Archived       int              `json:"archived"`
	Pinned         int              `json:"pinned"`
	Expired        int              `json:"expired"`
	IndexRows      int              `json:"indexRows"`
	Namespaces     []NamespaceStats `json:"namespaces"`
}

// NamespaceStats holds per-namespace counts.
type NamespaceStats struct {
	NS       string `json:"namespace"`
	Count    int    `json:"count"`
	Archived int    `json:"archived"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, Namespaces: []NamespaceStats{}}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(archived), 0),
		       COALESCE(SUM(pin), 0),
		       COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at < ? THEN 1 ELSE 0 END), 0)
		FROM memories`, formatTime(s.now())).
		Scan(&st.TotalMemories, &st.Archived, &st.Pinned, &st.Expired)
	if err != nil {
		return nil, goerr.Wrap(err, "count memories")
	}
	st.ActiveMemories = st.TotalMemories - st.Archived

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories_fts`).Scan(&st.IndexRows); err != nil {
		return nil, goerr.Wrap(err, "count index rows")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, COUNT(*) AS cnt, COALESCE(SUM(archived), 0)
		FROM memories
		GROUP BY namespace ORDER BY cnt DESC, namespace`)
	if err != nil {
		return nil, goerr.Wrap(err, "count namespaces")
	}
	defer rows.Close()

	for rows.Next() {
		var ns NamespaceStats
		if err := rows.Scan(&ns.NS, &ns.Count, &ns.Archived); err != nil {
			return nil, err
		}
		st.Namespaces = append(st.Namespaces, ns)
	}
	return st, rows.Err()
}
