// Package model defines the core memory data types.
package model

import (
	"encoding/json"
	"time"
)

// Memory represents a stored memory record.
type Memory struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agentId"`
	NS         string         `json:"namespace"`
	Type       string         `json:"type"`
	Title      *string        `json:"title,omitempty"`
	Content    string         `json:"content"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Tags       []string       `json:"tags"`
	Refs       []string       `json:"refs"`
	Importance float64        `json:"importance"`
	Pin        bool           `json:"pin"`
	Archived   bool           `json:"archived"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
}

// Scored pairs a memory with a search score.
type Scored struct {
	Item  Memory  `json:"item"`
	Score float64 `json:"score"`
}

// Record types with built-in meaning.
const (
	TypeNote    = "note"
	TypeTask    = "task"
	TypeSummary = "summary"
)

// Defaults applied at creation.
const (
	DefaultNamespace  = "default"
	DefaultImportance = 0.3
	DefaultTaskStatus = "todo"
)

// ResourceURI returns the mem:// resource identifier of the memory.
func (m Memory) ResourceURI() string {
	return "mem://" + m.NS + "/" + m.ID
}

// NormalizeSet trims empty values and duplicates while keeping first-seen order.
// The result is never nil.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Union returns base with every value of add appended that is not already present.
func Union(base, add []string) []string {
	return NormalizeSet(append(append([]string{}, base...), add...))
}

// Difference returns base without any value in remove.
func Difference(base, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, v := range remove {
		drop[v] = struct{}{}
	}
	out := make([]string, 0, len(base))
	for _, v := range NormalizeSet(base) {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
