package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/mcp-memory/internal/chunker"
	"github.com/rcliao/mcp-memory/internal/model"
)

// timeLayout is fixed-width so that text comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const memoryColumns = `id, agent_id, namespace, type, title, content, metadata, tags, refs,
	importance, pin, archived, created_at, updated_at, expires_at`

const lockStripes = 64

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "create db dir", goerr.V("dir", dir))
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "open db", goerr.V("path", dbPath))
	}

	s := &SQLiteStore{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "migrate")
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		agent_id    TEXT NOT NULL DEFAULT '',
		namespace   TEXT NOT NULL DEFAULT 'default',
		type        TEXT NOT NULL DEFAULT 'note',
		title       TEXT,
		content     TEXT NOT NULL,
		metadata    TEXT,
		tags        TEXT NOT NULL DEFAULT '[]',
		refs        TEXT NOT NULL DEFAULT '[]',
		importance  REAL NOT NULL DEFAULT 0.3,
		pin         INTEGER NOT NULL DEFAULT 0,
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		expires_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_updated ON memories(updated_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_ns_updated ON memories(namespace, updated_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
	CREATE INDEX IF NOT EXISTS idx_memories_expires ON memories(expires_at);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		memory_id UNINDEXED,
		seq UNINDEXED,
		text,
		tags,
		title
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// index rewrites the full-text rows of a memory, one row per content chunk.
func (s *SQLiteStore) index(ctx context.Context, ex execer, m *model.Memory) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM memories_fts WHERE memory_id = ?`, m.ID); err != nil {
		return goerr.Wrap(err, "clear fts rows", goerr.V("id", m.ID))
	}

	tags := strings.Join(m.Tags, " ")
	title := ""
	if m.Title != nil {
		title = *m.Title
	}

	chunks := chunker.Chunk(m.Content, chunker.DefaultOptions())
	if len(chunks) == 0 {
		chunks = []chunker.ChunkResult{{}}
	}
	for i, c := range chunks {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO memories_fts (memory_id, seq, text, tags, title) VALUES (?, ?, ?, ?, ?)`,
			m.ID, i, c.Text, tags, title)
		if err != nil {
			return goerr.Wrap(err, "insert fts row", goerr.V("id", m.ID))
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, p CreateParams) (*model.Memory, error) {
	now := s.now()

	m := &model.Memory{
		ID:         s.newID(),
		AgentID:    p.AgentID,
		NS:         p.NS,
		Type:       p.Type,
		Title:      p.Title,
		Content:    p.Content,
		Metadata:   p.Metadata,
		Tags:       model.NormalizeSet(p.Tags),
		Refs:       model.NormalizeSet(p.Refs),
		Importance: model.DefaultImportance,
		Pin:        p.Pin,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  utcPtr(p.ExpiresAt),
	}
	if m.NS == "" {
		m.NS = model.DefaultNamespace
	}
	if m.Type == "" {
		m.Type = model.TypeNote
	}
	if p.Importance != nil {
		m.Importance = clampImportance(*p.Importance)
	}

	if err := s.write(ctx, m, false); err != nil {
		return nil, goerr.Wrap(err, "insert memory")
	}
	return m, nil
}

// write inserts (or with replace, upserts) a full row plus its FTS rows.
func (s *SQLiteStore) write(ctx context.Context, m *model.Memory, replace bool) error {
	meta, err := model.NormalizeMetadata(m.Metadata)
	if err != nil {
		return err
	}
	m.Metadata = meta
	metaJSON := metadataColumn(meta)
	tagsJSON, _ := json.Marshal(model.NormalizeSet(m.Tags))
	refsJSON, _ := json.Marshal(model.NormalizeSet(m.Refs))

	stmt := `INSERT INTO memories (` + memoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if replace {
		stmt += ` ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id, namespace = excluded.namespace, type = excluded.type,
			title = excluded.title, content = excluded.content, metadata = excluded.metadata,
			tags = excluded.tags, refs = excluded.refs, importance = excluded.importance,
			pin = excluded.pin, archived = excluded.archived, created_at = excluded.created_at,
			updated_at = excluded.updated_at, expires_at = excluded.expires_at`
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, stmt,
		m.ID, m.AgentID, m.NS, m.Type, m.Title, m.Content, metaJSON,
		string(tagsJSON), string(refsJSON), m.Importance, boolInt(m.Pin), boolInt(m.Archived),
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt), formatTimePtr(m.ExpiresAt))
	if err != nil {
		return goerr.Wrap(err, "write row", goerr.V("id", m.ID))
	}

	if err := s.index(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "get memory", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "scan memory", goerr.V("id", id))
	}
	return &m, nil
}

func (s *SQLiteStore) Update(ctx context.Context, p UpdateParams) (bool, error) {
	unlock := s.lock(p.ID)
	defer unlock()
	return s.update(ctx, p)
}

// update applies p without taking the per-id lock; callers hold it.
func (s *SQLiteStore) update(ctx context.Context, p UpdateParams) (bool, error) {
	if p.empty() {
		return false, nil
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Content != nil {
		set("content", *p.Content)
	}
	if p.Title != nil {
		if *p.Title == "" {
			set("title", nil)
		} else {
			set("title", *p.Title)
		}
	}
	if p.Metadata != nil {
		metaJSON, err := encodeMetadata(p.Metadata)
		if err != nil {
			return false, err
		}
		set("metadata", metaJSON)
	}
	if p.Tags != nil {
		b, _ := json.Marshal(model.NormalizeSet(p.Tags))
		set("tags", string(b))
	}
	if p.Refs != nil {
		b, _ := json.Marshal(model.NormalizeSet(p.Refs))
		set("refs", string(b))
	}
	if p.Importance != nil {
		set("importance", clampImportance(*p.Importance))
	}
	if p.Pin != nil {
		set("pin", boolInt(*p.Pin))
	}
	if p.Archived != nil {
		set("archived", boolInt(*p.Archived))
	}
	if p.ExpiresAt != nil {
		set("expires_at", formatTime(*p.ExpiresAt))
	}
	sets = append(sets, "updated_at = MAX(updated_at, ?)")
	args = append(args, formatTime(s.now()), p.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE memories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, goerr.Wrap(err, "update memory", goerr.V("id", p.ID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if p.Content != nil || p.Title != nil || p.Tags != nil {
		m, err := scanMemory(tx.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, p.ID))
		if err != nil {
			return false, goerr.Wrap(err, "reload memory", goerr.V("id", p.ID))
		}
		if err := s.index(ctx, tx, &m); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string, hard bool) (int, error) {
	if !hard {
		archived := true
		ok, err := s.Update(ctx, UpdateParams{ID: id, Archived: &archived})
		if err != nil || !ok {
			return 0, err
		}
		return 1, nil
	}

	unlock := s.lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories_fts WHERE memory_id = ?`, id); err != nil {
		return 0, goerr.Wrap(err, "delete fts rows", goerr.V("id", id))
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return 0, goerr.Wrap(err, "delete memory", goerr.V("id", id))
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// lock serializes read-modify-write sequences on one id within this process.
func (s *SQLiteStore) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var title, meta, expiresAt sql.NullString
	var tagsJSON, refsJSON, createdAt, updatedAt string
	var pin, archived int

	err := row.Scan(
		&m.ID, &m.AgentID, &m.NS, &m.Type, &title, &m.Content, &meta,
		&tagsJSON, &refsJSON, &m.Importance, &pin, &archived,
		&createdAt, &updatedAt, &expiresAt,
	)
	if err != nil {
		return m, err
	}

	if title.Valid {
		m.Title = &title.String
	}
	if meta.Valid && meta.String != "" {
		m.Metadata = json.RawMessage(meta.String)
	}
	json.Unmarshal([]byte(tagsJSON), &m.Tags)
	json.Unmarshal([]byte(refsJSON), &m.Refs)
	m.Tags = model.NormalizeSet(m.Tags)
	m.Refs = model.NormalizeSet(m.Refs)
	m.Pin = pin != 0
	m.Archived = archived != 0
	m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	m.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	if expiresAt.Valid {
		t, _ := time.Parse(timeLayout, expiresAt.String)
		m.ExpiresAt = &t
	}

	return m, nil
}

// encodeMetadata returns the column value for meta: NULL when empty,
// otherwise the compacted object text in its original member order.
func encodeMetadata(meta json.RawMessage) (any, error) {
	b, err := model.NormalizeMetadata(meta)
	if err != nil {
		return nil, err
	}
	return metadataColumn(b), nil
}

func metadataColumn(meta json.RawMessage) any {
	if meta == nil {
		return nil
	}
	return string(meta)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clampImportance(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
