// Package rpc implements the JSON-RPC dispatcher and the memory tools it exposes.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/metrics"
	"github.com/rcliao/mcp-memory/internal/store"
)

// ServerName is reported by initialize.
const ServerName = "mcp-memory"

// ProtocolVersion is the MCP protocol revision reported by initialize.
const ProtocolVersion = "2024-11-05"

// Handler turns one JSON-RPC document into one response document. It holds
// no per-call state and is safe for concurrent use.
type Handler struct {
	store   store.Store
	version string
	metrics *metrics.Recorder
}

// Option configures a Handler.
type Option func(*Handler)

// WithVersion sets the server version reported by initialize.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// WithMetrics records every request into rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(h *Handler) { h.metrics = rec }
}

// New creates a Handler backed by st.
func New(st store.Store, opts ...Option) *Handler {
	h := &Handler{store: st, version: "dev"}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle parses, dispatches and encodes one request. It always returns a
// response envelope, including for unparseable input.
func (h *Handler) Handle(ctx context.Context, requestBytes []byte) []byte {
	start := time.Now()
	logger := logging.From(ctx)

	var req Request
	if err := json.Unmarshal(requestBytes, &req); err != nil {
		logger.Warn("unparseable request", "error", err, "bytes", len(requestBytes))
		h.metrics.Observe("", CodeInternalError, time.Since(start))
		return EncodeError(nil, CodeInternalError, err.Error())
	}

	logger = logger.With("method", req.Method, "id", string(req.ID))
	if req.Method == "" {
		h.metrics.Observe("", CodeInvalidRequest, time.Since(start))
		return EncodeError(req.ID, CodeInvalidRequest, "Invalid Request: method is required")
	}

	result, err := h.dispatch(ctx, &req)
	elapsed := time.Since(start)
	if err != nil {
		rpcErr := toRPCError(err)
		level := slog.LevelDebug
		if rpcErr.Code == CodeInternalError {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "request failed", "code", rpcErr.Code, "error", err, "elapsed", elapsed)
		h.metrics.Observe(req.Method, rpcErr.Code, elapsed)
		return h.encode(&ErrorResponse{JSONRPC: Version, ID: req.ID, Error: rpcErr})
	}

	logger.Debug("request handled", "elapsed", elapsed)
	h.metrics.Observe(req.Method, 0, elapsed)
	return h.encode(NewResponse(req.ID, result))
}

// dispatch routes by method and converts panics into errors.
func (h *Handler) dispatch(ctx context.Context, req *Request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Error("handler panic", "panic", r, "method", req.Method)
			err = fmt.Errorf("%v", r)
		}
	}()

	// Store calls run to completion even if the caller goes away.
	sctx := context.WithoutCancel(ctx)

	switch req.Method {
	case "initialize":
		return h.initialize(), nil
	case "tools/list":
		return &ToolsListResult{Tools: Catalog()}, nil
	case "tools/call":
		return h.toolsCall(sctx, req.Params)
	case "resources/list":
		return h.resourcesList(sctx, req.Params)
	case "resources/read":
		return h.resourcesRead(sctx, req.Params)
	default:
		return nil, NewError(CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

func (h *Handler) initialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      ServerInfo{Name: ServerName, Version: h.version},
		Capabilities: Capabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
	}
}

// toRPCError maps handler errors onto JSON-RPC codes. Messages pass through
// verbatim.
func toRPCError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(CodeInternalError, err.Error())
}

func (h *Handler) encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		var id json.RawMessage
		switch r := v.(type) {
		case *Response:
			id = r.ID
		case *ErrorResponse:
			id = r.ID
		}
		return EncodeError(id, CodeInternalError, err.Error())
	}
	return b
}

// InitializeResult is the result of initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ServerInfo identifies the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities lists the server's feature sets.
type Capabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability advertises resource support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}
