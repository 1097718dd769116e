// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

// ErrNotFound is returned when a memory id does not resolve.
var ErrNotFound = goerr.New("memory not found")

// CreateParams holds parameters for creating a memory.
type CreateParams struct {
	Content    string
	Type       string
	Title      *string
	AgentID    string
	NS         string
	Metadata   json.RawMessage
	Tags       []string
	Refs       []string
	Importance *float64
	Pin        bool
	ExpiresAt  *time.Time
}

// UpdateParams holds a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	ID         string
	Content    *string
	Title      *string
	Metadata   json.RawMessage
	Tags       []string
	Refs       []string
	Importance *float64
	Pin        *bool
	Archived   *bool
	ExpiresAt  *time.Time
}

// empty reports whether the update would only touch the timestamp.
func (p UpdateParams) empty() bool {
	return p.Content == nil && p.Title == nil && p.Metadata == nil &&
		p.Tags == nil && p.Refs == nil && p.Importance == nil &&
		p.Pin == nil && p.Archived == nil && p.ExpiresAt == nil
}

// ListParams filters a memory listing. Zero values mean
// "no constraint", except Archived whose absence excludes archived rows.
type ListParams struct {
	AgentID  string
	NS       string
	Types    []string
	Tags     []string
	Pinned   *bool
	Archived *bool
	Before   *time.Time
	After    *time.Time
	Limit    int
	Cursor   string
}

// Page is one keyset page of memories.
type Page struct {
	Items      []model.Memory `json:"items"`
	NextCursor *string        `json:"nextCursor"`
}

// SearchParams holds parameters for full-text search.
type SearchParams struct {
	Query string
	NS    string
	Limit int
}

// LinkParams holds parameters for linking two memories.
type LinkParams struct {
	FromID   string
	ToID     string
	Relation string
}

// MergeParams holds parameters for merging memories into a new note.
type MergeParams struct {
	SourceIDs   []string
	TargetTitle string
	NS          string
}

// Store defines the memory storage interface.
type Store interface {
	// Create stores a new memory and returns it.
	Create(ctx context.Context, p CreateParams) (*model.Memory, error)

	// Get returns the memory with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Memory, error)

	// Update applies a partial update. It reports false when the id is
	// unknown or no field was supplied.
	Update(ctx context.Context, p UpdateParams) (bool, error)

	// Delete archives (soft) or removes (hard) a memory and returns the
	// number of affected rows.
	Delete(ctx context.Context, id string, hard bool) (int, error)

	// List returns one keyset page of memories matching the filter.
	List(ctx context.Context, p ListParams) (*Page, error)

	// Search runs a full-text query.
	Search(ctx context.Context, p SearchParams) ([]model.Scored, error)

	// Cleanup hard-deletes expired memories and returns how many were removed.
	Cleanup(ctx context.Context, ns string) (int, error)

	AddTags(ctx context.Context, id string, tags []string) (bool, error)
	RemoveTags(ctx context.Context, id string, tags []string) (bool, error)
	AddRefs(ctx context.Context, id string, refs []string) (bool, error)
	RemoveRefs(ctx context.Context, id string, refs []string) (bool, error)
	Link(ctx context.Context, p LinkParams) (bool, error)

	Summarize(ctx context.Context, id, style string) (string, error)
	SummarizeThread(ctx context.Context, ids []string, style string) (string, error)
	Merge(ctx context.Context, p MergeParams) (string, error)

	CreateTask(ctx context.Context, title, ns string) (string, error)
	ListTasks(ctx context.Context, limit int) ([]Task, error)
	UpdateTaskStatus(ctx context.Context, id, status, note string) (bool, error)
	AddTaskNote(ctx context.Context, id, note string) (string, error)

	// Export returns every memory, optionally filtered by namespace.
	Export(ctx context.Context, ns string) ([]model.Memory, error)

	// Upsert inserts or fully replaces a memory by id.
	Upsert(ctx context.Context, m model.Memory) error

	// Import upserts every parseable NDJSON line and returns the count.
	Import(ctx context.Context, r io.Reader) (int, error)

	Stats(ctx context.Context) (*Stats, error)
	Context(ctx context.Context, p ContextParams) (*ContextResult, error)

	// Close closes the store.
	Close() error
}
