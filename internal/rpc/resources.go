package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

const (
	uriScheme    = "mem://"
	nameMaxRunes = 30
)

// Resource is one entry of resources/list.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ResourcesListResult is the result of resources/list.
type ResourcesListResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor *string    `json:"nextCursor"`
}

// ResourceContent is one entry of a resources/read result.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ResourcesReadResult is the result of resources/read.
type ResourcesReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

func (h *Handler) resourcesList(ctx context.Context, params json.RawMessage) (any, error) {
	a, err := ParseArgs(params)
	if err != nil {
		return nil, NewError(CodeInvalidParams, err.Error())
	}
	page, err := h.store.List(ctx, listParams(a))
	if err != nil {
		return nil, err
	}

	out := &ResourcesListResult{Resources: make([]Resource, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, m := range page.Items {
		out.Resources = append(out.Resources, Resource{
			URI:         m.ResourceURI(),
			Name:        resourceName(m),
			Description: m.Type,
			MimeType:    "text/plain",
		})
	}
	return out, nil
}

func (h *Handler) resourcesRead(ctx context.Context, params json.RawMessage) (any, error) {
	a, err := ParseArgs(params)
	if err != nil {
		return nil, NewError(CodeInvalidParams, err.Error())
	}
	uri, err := a.RequireString("uri")
	if err != nil {
		return nil, err
	}
	ns, id, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	m, err := h.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && m.NS != ns) {
		return nil, NewError(CodeNotFound, "Not found")
	}
	if err != nil {
		return nil, err
	}

	content := ResourceContent{URI: uri, MimeType: "text/plain", Text: m.Content}
	if strings.EqualFold(a.StringOr("format", "text"), "json") {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		content.MimeType = "application/json"
		content.Text = string(b)
	}
	return &ResourcesReadResult{Contents: []ResourceContent{content}}, nil
}

// parseURI splits mem://<namespace>/<id>. The id is everything after the
// first slash.
func parseURI(uri string) (ns, id string, err error) {
	path, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return "", "", NewError(CodeInvalidParams, "Unsupported URI")
	}
	idx := strings.IndexByte(path, '/')
	if idx <= 0 {
		return "", "", NewError(CodeInvalidParams, "Invalid URI")
	}
	return path[:idx], path[idx+1:], nil
}

func resourceName(m model.Memory) string {
	if m.Title != nil {
		return *m.Title
	}
	r := []rune(m.Content)
	if len(r) > nameMaxRunes {
		return string(r[:nameMaxRunes]) + "…"
	}
	return m.Content
}
