package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/logging"
)

func TestLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warning", false, false, true},
		{"ERROR", false, false, false},
		{"bogus", false, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)
			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")

			out := buf.String()
			assert.Equal(t, tc.expectDebug, strings.Contains(out, "debug message"))
			assert.Equal(t, tc.expectInfo, strings.Contains(out, "info message"))
			assert.Equal(t, tc.expectWarn, strings.Contains(out, "warn message"))
		})
	}
}

func TestParseLevel(t *testing.T) {
	_, ok := logging.ParseLevel("warn")
	assert.True(t, ok)
	_, ok = logging.ParseLevel("loud")
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "test")

	ctx := logging.With(context.Background(), logger)
	require.Equal(t, logger, logging.From(ctx))

	logging.From(ctx).Error("failed", "error", goerr.New("boom", goerr.V("id", "x")))
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "component")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	custom := logging.New("info", buf)
	logging.SetDefault(custom)

	assert.Equal(t, custom, logging.From(context.Background()))
}
