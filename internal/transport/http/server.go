// Package http serves JSON-RPC over HTTP POST, with an SSE keep-alive
// channel and Prometheus metrics.
package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/frame"
	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/metrics"
	"github.com/rcliao/mcp-memory/internal/rpc"
)

// Banner is returned by GET /.
const Banner = "mcp-memory http endpoint: POST /mcp, SSE /sse"

// DefaultSSEInterval is the keep-alive period on /sse.
const DefaultSSEInterval = 15 * time.Second

// Handler processes one JSON-RPC document.
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Config holds the HTTP server settings.
type Config struct {
	Addr        string        // listen address, e.g. "127.0.0.1:8765"
	SSEInterval time.Duration // zero means DefaultSSEInterval
}

// Server is an HTTP JSON-RPC server.
type Server struct {
	handler Handler
	config  Config
	metrics *metrics.Recorder
	srv     *http.Server
}

// New creates a Server. rec may be nil, in which case /metrics is not served.
func New(h Handler, cfg Config, rec *metrics.Recorder) *Server {
	if cfg.SSEInterval <= 0 {
		cfg.SSEInterval = DefaultSSEInterval
	}
	s := &Server{handler: h, config: cfg, metrics: rec}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes. POST is accepted on any path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleRPC)
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	logging.From(ctx).Info("http listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "http server", goerr.V("addr", s.srv.Addr))
	}
	return nil
}

// handleRPC always answers 200 with a JSON-RPC envelope.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	logger := logging.From(r.Context())
	encoding := r.Header.Get("Content-Encoding")
	logger.Debug("http request",
		"path", r.URL.Path,
		"content_type", r.Header.Get("Content-Type"),
		"content_encoding", encoding,
		"content_length", r.ContentLength,
	)

	resp := s.respond(r, encoding)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (s *Server) respond(r *http.Request, encoding string) []byte {
	logger := logging.From(r.Context())

	body, err := frame.DecodeBody(encoding, r.Body)
	if err != nil {
		logger.Warn("undecodable http body", "error", err)
		return rpc.EncodeError(nil, rpc.CodeInternalError, err.Error())
	}
	defer body.Close()

	data, err := frame.ReadMessage(body, frame.MaxBodyBytes)
	if errors.Is(err, frame.ErrTooLarge) {
		logger.Warn("http body too large", "limit", frame.MaxBodyBytes)
		return rpc.EncodeError(nil, rpc.CodeInvalidRequest, "Request body too large")
	}
	if err != nil {
		logger.Warn("read http body", "error", err)
		return rpc.EncodeError(nil, rpc.CodeInternalError, err.Error())
	}
	if len(bytes.TrimSpace(data)) == 0 {
		logger.Debug("empty http body")
		return rpc.EncodeError(nil, rpc.CodeInvalidRequest, "Empty request body")
	}
	return s.handler.Handle(r.Context(), data)
}

// handleSSE holds the stream open with comment frames until the client leaves.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	defer s.metrics.ConnOpened("sse")()

	h := w.Header()
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.config.SSEInterval)
	defer ticker.Stop()
	for {
		if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
