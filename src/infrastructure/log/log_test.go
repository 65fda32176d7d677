package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_CorrelationIDIsAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, InfoLevel)

	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	logger.Info(ctx, "order created")
	logger.Info(context.Background(), "no correlation")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "corr-123", entries[0]["CorrelationId"])
	assert.Equal(t, "order created", entries[0]["Message"])
	assert.Equal(t, "info", entries[0]["Level"])
	assert.NotContains(t, entries[1], "CorrelationId")
}

func TestLogger_ExceptionIsSerialisedAsText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, InfoLevel)

	logger.Exception(context.Background(), "insert failed", errors.New("duplicate key"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "duplicate key", entries[0]["Exception"])
	assert.Equal(t, "error", entries[0]["Level"])
}

func TestLogger_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, InfoLevel)

	logger.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestLogger_RequestResponseLevels(t *testing.T) {
	testCases := []struct {
		status int
		level  string
	}{
		{status: 200, level: "info"},
		{status: 404, level: "warning"},
		{status: 500, level: "error"},
	}

	for _, tc := range testCases {
		var buf bytes.Buffer
		logger := NewLoggerWithOutput(&buf, InfoLevel)

		logger.RequestResponse(context.Background(), &Field{
			HTTPMethod:     "GET",
			URL:            "/orders/1",
			Route:          "/orders/:id",
			HTTPStatusCode: tc.status,
			Message:        "HTTP request completed",
			Extra:          map[string]any{"Component": "test"},
		})

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, tc.level, entries[0]["Level"])
		assert.Equal(t, "/orders/:id", entries[0]["Route"])
		assert.Equal(t, "test", entries[0]["Component"])
	}
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOutput(&buf, InfoLevel).(*logger)
	exitCode := -1
	l.exit = func(code int) { exitCode = code }

	l.Fatal(context.Background(), "cannot start", errors.New("boom"))

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, buf.String(), "cannot start")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := NewLogger("verbose").(*logger)
	assert.Equal(t, InfoLevel, l.entry.Logger.GetLevel())
}
