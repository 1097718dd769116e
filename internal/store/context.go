package store

import (
	"context"
	"math"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

const (
	defaultContextBudget = 4000
	contextCandidates    = 50
	minExcerptChars      = 100
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	NS     string
	Query  string
	Tags   []string
	Budget int // max tokens in output (rough proxy: 1 token ≈ 4 chars)
}

// ContextMemory is a scored memory for context output.
type ContextMemory struct {
	ID      string  `json:"id"`
	NS      string  `json:"namespace"`
	Type    string  `json:"type"`
	Title   *string `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Excerpt bool    `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget   int             `json:"budget"`
	Used     int             `json:"used"`
	Memories []ContextMemory `json:"memories"`
}

// Context packs the best-scoring candidates into a token budget. Candidates
// come from full-text search when a query is given, else from the most
// recently updated records.
func (s *SQLiteStore) Context(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = defaultContextBudget
	}
	charBudget := budget * 4

	candidates, err := s.contextCandidates(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.now()
	type scored struct {
		memory model.Memory
		score  float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, m := range candidates {
		// Recency decays with a ~7 day half-life.
		age := now.Sub(m.UpdatedAt).Hours() / 24.0
		recency := math.Exp(-0.1 * age)
		pin := 0.0
		if m.Pin {
			pin = 1
		}
		score := 0.4 + recency*0.2 + m.Importance*0.2 + pin*0.2
		ranked = append(ranked, scored{memory: m, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	result := &ContextResult{Budget: budget, Memories: []ContextMemory{}}
	used := 0
	for _, c := range ranked {
		content := []rune(c.memory.Content)
		cm := ContextMemory{
			ID:    c.memory.ID,
			NS:    c.memory.NS,
			Type:  c.memory.Type,
			Title: c.memory.Title,
			Score: math.Round(c.score*100) / 100,
		}

		if used+len(content) <= charBudget {
			cm.Content = c.memory.Content
			result.Memories = append(result.Memories, cm)
			used += len(content)
			continue
		}
		if remaining := charBudget - used; remaining >= minExcerptChars {
			cm.Content = string(content[:remaining]) + "..."
			cm.Excerpt = true
			result.Memories = append(result.Memories, cm)
			used += remaining
		}
		break
	}

	result.Used = used / 4
	return result, nil
}

func (s *SQLiteStore) contextCandidates(ctx context.Context, p ContextParams) ([]model.Memory, error) {
	if p.Query == "" {
		page, err := s.List(ctx, ListParams{NS: p.NS, Tags: p.Tags, Limit: contextCandidates})
		if err != nil {
			return nil, goerr.Wrap(err, "list context candidates")
		}
		return page.Items, nil
	}

	hits, err := s.Search(ctx, SearchParams{Query: p.Query, NS: p.NS, Limit: contextCandidates})
	if err != nil {
		return nil, goerr.Wrap(err, "search context candidates")
	}
	out := make([]model.Memory, 0, len(hits))
	for _, h := range hits {
		if h.Item.Archived || !hasAnyTag(h.Item.Tags, p.Tags) {
			continue
		}
		out = append(out, h.Item)
	}
	return out, nil
}

func hasAnyTag(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
