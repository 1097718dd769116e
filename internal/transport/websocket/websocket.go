// Package websocket serves JSON-RPC over WebSocket text messages at /ws.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/frame"
	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/metrics"
)

// Banner is returned by GET /.
const Banner = "mcp-memory ws endpoint at /ws"

// Handler processes one JSON-RPC document.
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Config holds the WebSocket server settings.
type Config struct {
	Addr string // listen address, e.g. "127.0.0.1:8080"
}

// Server is a WebSocket JSON-RPC server.
type Server struct {
	handler  Handler
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader
	srv      *http.Server
}

// New creates a Server. rec may be nil.
func New(h Handler, cfg Config, rec *metrics.Recorder) *Server {
	s := &Server{
		handler: h,
		metrics: rec,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes: /ws and the banner at /.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})
	return mux
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	logging.From(ctx).Info("websocket listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "websocket server", goerr.V("addr", s.srv.Addr))
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "Expected WebSocket request", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()
	defer s.metrics.ConnOpened("ws")()
	conn.SetReadLimit(frame.MaxMessageBytes)

	ctx := r.Context()
	logger := logging.From(ctx).With("remote", r.RemoteAddr)
	ctx = logging.With(ctx, logger)

	for {
		// Fragments are joined by the connection; past the read limit it
		// sends close 1009 itself and reports ErrReadLimit.
		_, msg, err := conn.ReadMessage()
		if errors.Is(err, websocket.ErrReadLimit) {
			logger.Warn("websocket message too large", "limit", frame.MaxMessageBytes)
			return
		}
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, s.handler.Handle(ctx, msg)); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}
