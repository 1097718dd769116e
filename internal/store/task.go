package store

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

// statusKey is the metadata entry holding a task's status.
const statusKey = "status"

// Task is the list view of a task record.
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// CreateTask stores a task whose title doubles as its content.
func (s *SQLiteStore) CreateTask(ctx context.Context, title, ns string) (string, error) {
	m, err := s.Create(ctx, CreateParams{
		Content: title,
		Type:    model.TypeTask,
		Title:   &title,
		NS:      ns,
	})
	if err != nil {
		return "", goerr.Wrap(err, "create task")
	}
	return m.ID, nil
}

// ListTasks returns the most recently updated non-archived tasks.
func (s *SQLiteStore) ListTasks(ctx context.Context, limit int) ([]Task, error) {
	page, err := s.List(ctx, ListParams{Types: []string{model.TypeTask}, Limit: limit})
	if err != nil {
		return nil, goerr.Wrap(err, "list tasks")
	}

	tasks := make([]Task, len(page.Items))
	for i, m := range page.Items {
		tasks[i] = Task{ID: m.ID, Title: m.Content, Status: TaskStatus(&m)}
		if m.Title != nil {
			tasks[i].Title = *m.Title
		}
	}
	return tasks, nil
}

// TaskStatus reads the status of a task record, defaulting to "todo".
func TaskStatus(m *model.Memory) string {
	var st string
	if model.MetadataValue(m.Metadata, statusKey, &st) && st != "" {
		return st
	}
	return model.DefaultTaskStatus
}

// UpdateTaskStatus sets the status of a task. A non-blank note is stored as a
// separate note referencing the task. Unknown ids and non-task records report
// false.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id, status, note string) (bool, error) {
	unlock := s.lock(id)
	m, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		unlock()
		return false, nil
	}
	if err != nil {
		unlock()
		return false, err
	}
	if m.Type != model.TypeTask {
		unlock()
		return false, nil
	}

	meta, err := model.WithMetadataValue(m.Metadata, statusKey, status)
	if err == nil {
		_, err = s.update(ctx, UpdateParams{ID: id, Metadata: meta})
	}
	unlock()
	if err != nil {
		return false, goerr.Wrap(err, "update task status", goerr.V("id", id))
	}

	if strings.TrimSpace(note) != "" {
		if _, err := s.createNote(ctx, note, id, m.NS); err != nil {
			return false, err
		}
	}
	return true, nil
}

// AddTaskNote stores a note referencing the task and returns the note id.
// The task need not exist; the note then lands in the default namespace.
func (s *SQLiteStore) AddTaskNote(ctx context.Context, id, note string) (string, error) {
	ns := model.DefaultNamespace
	m, err := s.Get(ctx, id)
	switch {
	case err == nil:
		ns = m.NS
	case !errors.Is(err, ErrNotFound):
		return "", err
	}
	return s.createNote(ctx, note, id, ns)
}

func (s *SQLiteStore) createNote(ctx context.Context, content, taskID, ns string) (string, error) {
	m, err := s.Create(ctx, CreateParams{
		Content: content,
		Type:    model.TypeNote,
		NS:      ns,
		Refs:    []string{taskID},
	})
	if err != nil {
		return "", goerr.Wrap(err, "create task note", goerr.V("task", taskID))
	}
	return m.ID, nil
}
