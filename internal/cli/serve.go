package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/mcp-memory/internal/config"
	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/metrics"
	"github.com/rcliao/mcp-memory/internal/rpc"
	httptransport "github.com/rcliao/mcp-memory/internal/transport/http"
	"github.com/rcliao/mcp-memory/internal/transport/stream"
	wstransport "github.com/rcliao/mcp-memory/internal/transport/websocket"
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memory tools as JSON-RPC",
		Long: `Serve the memory tools as JSON-RPC. Without transport flags the server
speaks Content-Length framed JSON-RPC on stdin/stdout. Network transports can
run side by side; --stdio adds stdio to them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Bool(config.KeyStdio, false, "Serve on stdin/stdout (default when no other transport is set)")
	f.String(config.KeyTCP, "", "Serve framed JSON-RPC on TCP: PORT or HOST:PORT")
	f.String(config.KeyWS, "", "Serve WebSocket on HOST:PORT at /ws")
	f.String(config.KeyHTTP, "", "Serve HTTP POST, /sse and /metrics on HOST:PORT")
	f.Duration(config.KeySSEInterval, httptransport.DefaultSSEInterval, "Keep-alive period on /sse")
	if err := config.Bind(a.v, f); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	logger := logging.From(ctx)
	cfg := a.cfg

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	logger.Info("store opened", "db", s.Path())

	rec := metrics.New()
	h := rpc.New(s, rpc.WithVersion(a.version), rpc.WithMetrics(rec))

	if !cfg.AnyNetwork() {
		return stream.Stdio(ctx, h)
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.TCP != "" {
		srv := stream.NewServer(h, rec)
		g.Go(func() error { return srv.Run(ctx, cfg.TCP) })
	}
	if cfg.WS != "" {
		srv := wstransport.New(h, wstransport.Config{Addr: cfg.WS}, rec)
		g.Go(func() error { return srv.Run(ctx) })
	}
	if cfg.HTTP != "" {
		srv := httptransport.New(h, httptransport.Config{Addr: cfg.HTTP, SSEInterval: cfg.SSEInterval}, rec)
		g.Go(func() error { return srv.Run(ctx) })
	}
	if cfg.Stdio {
		g.Go(func() error { return stream.Stdio(ctx, h) })
	}
	return g.Wait()
}
