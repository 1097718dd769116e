// Package stream serves JSON-RPC over Content-Length framed byte streams:
// stdio and plain TCP.
package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/frame"
	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/metrics"
)

// DefaultHost is used when a TCP endpoint names only a port.
const DefaultHost = "127.0.0.1"

// Handler processes one JSON-RPC document.
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Serve reads frames from r and writes one response frame to w per request
// until r is exhausted, a frame is malformed or ctx is done. Both a clean EOF
// and a malformed frame end the session without error.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h Handler) error {
	in := frame.NewReader(r)
	out := frame.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		body, err := in.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "read frame")
		}
		if err := out.Write(h.Handle(ctx, body)); err != nil {
			return goerr.Wrap(err, "write frame")
		}
	}
}

// Stdio runs Serve over the process's stdin and stdout. It returns as soon as
// ctx is done, even while a read on stdin is still blocked.
func Stdio(ctx context.Context, h Handler) error {
	logging.From(ctx).Info("serving stdio")
	return serveUntilDone(ctx, os.Stdin, os.Stdout, h)
}

// serveUntilDone abandons the session when ctx is done. r is closed so a
// pending read can fail, but the reading goroutine is not waited for.
func serveUntilDone(ctx context.Context, r io.ReadCloser, w io.Writer, h Handler) error {
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, r, w, h) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = r.Close()
		return nil
	}
}

// ParseEndpoint turns "PORT" or "HOST:PORT" into a dialable address.
// "localhost" maps to the IPv4 loopback; any other host must be an IP literal.
func ParseEndpoint(endpoint string) (string, error) {
	var parts []string
	for _, p := range strings.Split(endpoint, ":") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	host := DefaultHost
	var portText string
	switch len(parts) {
	case 1:
		portText = parts[0]
	case 2:
		host, portText = parts[0], parts[1]
	default:
		return "", goerr.New("tcp endpoint must be PORT or HOST:PORT", goerr.V("endpoint", endpoint))
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port < 0 || port > 65535 {
		return "", goerr.New("invalid port in tcp endpoint", goerr.V("endpoint", endpoint))
	}
	if strings.EqualFold(host, "localhost") {
		host = DefaultHost
	} else if net.ParseIP(host) == nil {
		return "", goerr.New("tcp host must be an IP address or localhost", goerr.V("host", host))
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// Server accepts TCP connections and runs one framed session per connection.
type Server struct {
	handler Handler
	metrics *metrics.Recorder

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a TCP server. rec may be nil.
func NewServer(h Handler, rec *metrics.Recorder) *Server {
	return &Server{handler: h, metrics: rec, conns: map[net.Conn]struct{}{}}
}

// Run listens on endpoint and serves until ctx is done.
func (s *Server) Run(ctx context.Context, endpoint string) error {
	addr, err := ParseEndpoint(endpoint)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return goerr.Wrap(err, "listen tcp", goerr.V("addr", addr))
	}
	logging.From(ctx).Info("tcp listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then closes the listener and every
// open connection and waits for their sessions to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.closeAll()
	})
	defer func() {
		stop()
		ln.Close()
		s.closeAll()
		s.wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return goerr.Wrap(err, "accept tcp")
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go s.session(ctx, conn)
	}
}

func (s *Server) session(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer s.metrics.ConnOpened("tcp")()

	logger := logging.From(ctx).With("remote", conn.RemoteAddr().String())
	ctx = logging.With(ctx, logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tcp session panic", "panic", r)
		}
	}()

	logger.Debug("tcp connection opened")
	if err := Serve(ctx, conn, conn, s.handler); err != nil && ctx.Err() == nil {
		logger.Warn("tcp session ended", "error", err)
		return
	}
	logger.Debug("tcp connection closed")
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	if s.conns != nil {
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
	s.conns = nil
}
