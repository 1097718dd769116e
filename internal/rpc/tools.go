package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

// ToolCallResult wraps a tool's result object.
type ToolCallResult struct {
	Content any `json:"content"`
}

type idResult struct {
	ID string `json:"id"`
}

type okResult struct {
	OK bool `json:"ok"`
}

type removedResult struct {
	Removed int `json:"removed"`
}

type itemResult struct {
	Item *model.Memory `json:"item"`
}

type itemsResult[T any] struct {
	Items []T `json:"items"`
}

type dumpResult struct {
	NDJSON string `json:"ndjson"`
	Count  int    `json:"count"`
}

type importResult struct {
	Upserted int `json:"upserted"`
}

func (h *Handler) toolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := ParseArgs(params)
	if err != nil {
		return nil, NewError(CodeInvalidParams, err.Error())
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	args, err := ParseArgs(p.Raw("arguments"))
	if err != nil {
		return nil, NewError(CodeInvalidParams, err.Error())
	}

	result, err := h.callTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return &ToolCallResult{Content: result}, nil
}

// callTool runs exactly one store operation for the named tool.
func (h *Handler) callTool(ctx context.Context, name string, a Args) (any, error) {
	st := h.store

	switch name {
	case "memory.create":
		content, err := a.RequireString("content")
		if err != nil {
			return nil, err
		}
		m, err := st.Create(ctx, store.CreateParams{
			Content:    content,
			Type:       a.StringOr("type", model.TypeNote),
			Title:      a.String("title"),
			AgentID:    a.StringOr("agentId", ""),
			NS:         a.StringOr("ns", model.DefaultNamespace),
			Metadata:   a.Object("metadata"),
			Tags:       a.Strings("tags"),
			Refs:       a.Strings("refs"),
			Importance: a.Float("importance"),
			Pin:        a.Bool("pin") != nil && *a.Bool("pin"),
			ExpiresAt:  a.Time("expiresAt"),
		})
		if err != nil {
			return nil, err
		}
		return idResult{ID: m.ID}, nil

	case "memory.get":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		m, err := st.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return itemResult{}, nil
		}
		if err != nil {
			return nil, err
		}
		return itemResult{Item: m}, nil

	case "memory.update":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		ok, err := st.Update(ctx, store.UpdateParams{
			ID:         id,
			Content:    a.String("content"),
			Title:      a.String("title"),
			Metadata:   a.Object("metadata"),
			Tags:       a.Strings("tags"),
			Refs:       a.Strings("refs"),
			Importance: a.Float("importance"),
			Pin:        a.Bool("pin"),
			Archived:   a.Bool("archived"),
			ExpiresAt:  a.Time("expiresAt"),
		})
		return okOrErr(ok, err)

	case "memory.delete":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		hard := a.Bool("hard") != nil && *a.Bool("hard")
		n, err := st.Delete(ctx, id, hard)
		if err != nil {
			return nil, err
		}
		return removedResult{Removed: n}, nil

	case "memory.archive", "memory.unarchive", "memory.pin", "memory.unpin":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		on := !strings.Contains(name, ".un")
		up := store.UpdateParams{ID: id}
		if strings.HasSuffix(name, "archive") {
			up.Archived = &on
		} else {
			up.Pin = &on
		}
		return okOrErr(st.Update(ctx, up))

	case "memory.list":
		page, err := st.List(ctx, listParams(a))
		if err != nil {
			return nil, err
		}
		return page, nil

	case "memory.search":
		query, err := a.RequireString("query")
		if err != nil {
			return nil, err
		}
		hits, err := st.Search(ctx, store.SearchParams{
			Query: query,
			NS:    a.StringOr("ns", ""),
			Limit: a.IntOr("limit", 20),
		})
		if err != nil {
			return nil, err
		}
		return itemsResult[model.Scored]{Items: hits}, nil

	case "memory.cleanup":
		n, err := st.Cleanup(ctx, a.StringOr("ns", ""))
		if err != nil {
			return nil, err
		}
		return removedResult{Removed: n}, nil

	case "memory.tags.add", "memory.tags.remove", "memory.refs.add", "memory.refs.remove":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		return okOrErr(h.editSet(ctx, name, id, a))

	case "memory.link":
		from, err := a.RequireString("from_id")
		if err != nil {
			return nil, err
		}
		to, err := a.RequireString("to_id")
		if err != nil {
			return nil, err
		}
		return okOrErr(st.Link(ctx, store.LinkParams{FromID: from, ToID: to, Relation: a.StringOr("relation", "")}))

	case "memory.summarize":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		return idOrErr(st.Summarize(ctx, id, a.StringOr("style", "")))

	case "memory.summarize_thread":
		return idOrErr(st.SummarizeThread(ctx, a.Strings("source_ids"), a.StringOr("style", "")))

	case "memory.merge":
		return idOrErr(st.Merge(ctx, store.MergeParams{
			SourceIDs:   a.Strings("source_ids"),
			TargetTitle: a.StringOr("target_title", ""),
			NS:          a.StringOr("ns", ""),
		}))

	case "memory.context":
		return st.Context(ctx, store.ContextParams{
			NS:     a.StringOr("ns", ""),
			Query:  a.StringOr("query", ""),
			Tags:   a.Strings("tags"),
			Budget: a.IntOr("budget", 0),
		})

	case "memory.stats":
		return st.Stats(ctx)

	case "task.create":
		title, err := a.RequireString("title")
		if err != nil {
			return nil, err
		}
		return idOrErr(st.CreateTask(ctx, title, a.StringOr("ns", model.DefaultNamespace)))

	case "task.list":
		tasks, err := st.ListTasks(ctx, a.IntOr("limit", 50))
		if err != nil {
			return nil, err
		}
		return itemsResult[store.Task]{Items: tasks}, nil

	case "task.update_status":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		status, err := a.RequireString("status")
		if err != nil {
			return nil, err
		}
		return okOrErr(st.UpdateTaskStatus(ctx, id, status, a.StringOr("note", "")))

	case "task.add_note":
		id, err := a.RequireString("id")
		if err != nil {
			return nil, err
		}
		note, err := a.RequireString("note")
		if err != nil {
			return nil, err
		}
		return idOrErr(st.AddTaskNote(ctx, id, note))

	case "export.dump":
		items, err := st.Export(ctx, a.StringOr("ns", ""))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := store.WriteNDJSON(&buf, items); err != nil {
			return nil, err
		}
		return dumpResult{NDJSON: buf.String(), Count: len(items)}, nil

	case "export.import":
		ndjson, err := a.RequireString("ndjson")
		if err != nil {
			return nil, err
		}
		n, err := st.Import(ctx, strings.NewReader(ndjson))
		if err != nil {
			return nil, err
		}
		return importResult{Upserted: n}, nil
	}

	return nil, goerr.New("Unknown tool: "+name, goerr.V("tool", name))
}

func (h *Handler) editSet(ctx context.Context, name, id string, a Args) (bool, error) {
	switch name {
	case "memory.tags.add":
		return h.store.AddTags(ctx, id, a.Strings("tags"))
	case "memory.tags.remove":
		return h.store.RemoveTags(ctx, id, a.Strings("tags"))
	case "memory.refs.add":
		return h.store.AddRefs(ctx, id, a.Strings("refs"))
	default:
		return h.store.RemoveRefs(ctx, id, a.Strings("refs"))
	}
}

// listParams reads the shared filter arguments of memory.list and
// resources/list.
func listParams(a Args) store.ListParams {
	return store.ListParams{
		AgentID:  a.StringOr("agentId", ""),
		NS:       a.StringOr("ns", ""),
		Types:    a.Strings("types"),
		Tags:     a.Strings("tags"),
		Pinned:   a.Bool("pinned"),
		Archived: a.Bool("archived"),
		Before:   a.Time("before"),
		After:    a.Time("after"),
		Limit:    a.IntOr("limit", 50),
		Cursor:   a.StringOr("cursor", ""),
	}
}

func okOrErr(ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return okResult{OK: ok}, nil
}

func idOrErr(id string, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return idResult{ID: id}, nil
}
