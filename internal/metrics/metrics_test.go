package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/metrics"
)

func TestObserveAndServe(t *testing.T) {
	rec := metrics.New()
	rec.Observe("tools/call", 0, 10*time.Millisecond)
	rec.Observe("tools/call", -32603, time.Millisecond)
	rec.Observe("bogus", -32601, time.Millisecond)
	done := rec.ConnOpened("tcp")

	n, err := testutil.GatherAndCount(rec.Registry(), "mcp_memory_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `mcp_memory_requests_total{code="ok",method="tools/call"} 1`)
	assert.Contains(t, string(body), `mcp_memory_requests_total{code="method_not_found",method="bogus"} 1`)
	assert.Contains(t, string(body), `mcp_memory_open_connections{transport="tcp"} 1`)
	done()
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *metrics.Recorder
	rec.Observe("x", 0, time.Second)
	rec.ConnOpened("ws")()
}
