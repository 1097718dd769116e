package store

import (
	"strings"
	"time"
)

// predicate is one AND-ed SQL condition with its bound parameters.
type predicate struct {
	clause string
	args   []any
}

// query composes predicates over the memories table (aliased m) in order.
type query struct {
	preds []predicate
}

func (q *query) where(clause string, args ...any) *query {
	q.preds = append(q.preds, predicate{clause: clause, args: args})
	return q
}

func (q *query) eq(col string, v any) *query {
	return q.where("m."+col+" = ?", v)
}

func (q *query) in(col string, values []string) *query {
	if len(values) == 0 {
		return q
	}
	return q.where("m."+col+" IN ("+placeholders(len(values))+")", stringArgs(values)...)
}

// anyTag matches rows whose tag set contains at least one of tags.
func (q *query) anyTag(tags []string) *query {
	if len(tags) == 0 {
		return q
	}
	return q.where("EXISTS (SELECT 1 FROM json_each(m.tags) WHERE json_each.value IN ("+
		placeholders(len(tags))+"))", stringArgs(tags)...)
}

func (q *query) updatedBefore(t time.Time) *query {
	return q.where("m.updated_at < ?", formatTime(t))
}

func (q *query) updatedAfter(t time.Time) *query {
	return q.where("m.updated_at > ?", formatTime(t))
}

// after restricts to rows strictly after c in updated_at DESC, id DESC order.
func (q *query) after(c cursor) *query {
	return q.where("(m.updated_at < ? OR (m.updated_at = ? AND m.id < ?))", c.UpdatedAt, c.UpdatedAt, c.ID)
}

// build renders the WHERE body (without the keyword) and its arguments.
func (q *query) build() (string, []any) {
	if len(q.preds) == 0 {
		return "1=1", nil
	}
	clauses := make([]string, len(q.preds))
	var args []any
	for i, p := range q.preds {
		clauses[i] = p.clause
		args = append(args, p.args...)
	}
	return strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// filterQuery translates list filters into predicates.
func filterQuery(p ListParams) *query {
	q := &query{}
	if p.NS != "" {
		q.eq("namespace", p.NS)
	}
	if p.AgentID != "" {
		q.eq("agent_id", p.AgentID)
	}
	q.in("type", p.Types)
	q.anyTag(p.Tags)
	if p.Pinned != nil {
		q.eq("pin", boolInt(*p.Pinned))
	}
	archived := false
	if p.Archived != nil {
		archived = *p.Archived
	}
	q.eq("archived", boolInt(archived))
	if p.Before != nil {
		q.updatedBefore(*p.Before)
	}
	if p.After != nil {
		q.updatedAfter(*p.After)
	}
	if c, ok := decodeCursor(p.Cursor); ok {
		q.after(c)
	}
	return q
}
