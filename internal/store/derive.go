package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

const (
	summaryBudget       = 280
	threadSummaryBudget = 500
	threadSeparator     = " • "
	mergeSeparator      = "\n\n---\n\n"
)

// Summarize creates a summary record from the first characters of a memory
// and returns its id.
func (s *SQLiteStore) Summarize(ctx context.Context, id, style string) (string, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	title := "Summary of " + shortID(id)
	if src.Title != nil {
		title = "Summary: " + *src.Title
	}

	m, err := s.Create(ctx, CreateParams{
		Content: styled(truncate(src.Content, summaryBudget), style),
		Type:    model.TypeSummary,
		Title:   &title,
		NS:      src.NS,
		Refs:    []string{id},
	})
	if err != nil {
		return "", goerr.Wrap(err, "create summary", goerr.V("source", id))
	}
	return m.ID, nil
}

// SummarizeThread creates one summary record over several sources. Missing
// sources are skipped; the namespace follows the first id when it resolves.
func (s *SQLiteStore) SummarizeThread(ctx context.Context, ids []string, style string) (string, error) {
	if len(ids) == 0 {
		return "", goerr.New("sourceIds required")
	}

	sources, err := s.resolve(ctx, ids)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(sources))
	for i, m := range sources {
		parts[i] = m.Content
	}

	ns := model.DefaultNamespace
	if len(sources) > 0 && sources[0].ID == ids[0] {
		ns = sources[0].NS
	}
	title := fmt.Sprintf("Thread summary (%d)", len(ids))

	m, err := s.Create(ctx, CreateParams{
		Content: styled(truncate(strings.Join(parts, threadSeparator), threadSummaryBudget), style),
		Type:    model.TypeSummary,
		Title:   &title,
		NS:      ns,
		Refs:    ids,
	})
	if err != nil {
		return "", goerr.Wrap(err, "create thread summary")
	}
	return m.ID, nil
}

// Merge concatenates the resolvable sources into a new note that references
// every requested id.
func (s *SQLiteStore) Merge(ctx context.Context, p MergeParams) (string, error) {
	if len(p.SourceIDs) == 0 {
		return "", goerr.New("sourceIds required")
	}

	sources, err := s.resolve(ctx, p.SourceIDs)
	if err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", goerr.New("no valid sources", goerr.V("ids", p.SourceIDs))
	}

	ns := p.NS
	if ns == "" {
		ns = sources[0].NS
	}
	title := p.TargetTitle
	if title == "" {
		title = fmt.Sprintf("Merge of %d items", len(sources))
	}

	parts := make([]string, len(sources))
	for i, m := range sources {
		parts[i] = m.Content
	}

	m, err := s.Create(ctx, CreateParams{
		Content: strings.Join(parts, mergeSeparator),
		Type:    model.TypeNote,
		Title:   &title,
		NS:      ns,
		Refs:    p.SourceIDs,
	})
	if err != nil {
		return "", goerr.Wrap(err, "create merge")
	}
	return m.ID, nil
}

// resolve fetches ids in order, skipping the ones that do not exist.
func (s *SQLiteStore) resolve(ctx context.Context, ids []string) ([]*model.Memory, error) {
	var out []*model.Memory
	for _, id := range ids {
		m, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// truncate cuts text to max runes and marks the cut with an ellipsis.
func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "…"
}

func styled(text, style string) string {
	if strings.TrimSpace(style) == "" {
		return text
	}
	return "[" + style + "] " + text
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
