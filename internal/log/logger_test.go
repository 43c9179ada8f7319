package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf, Component: ComponentStore})

	logger.Info("saved", FieldTransactionID, 7)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, ComponentStore, entry[FieldComponent])
	assert.EqualValues(t, 7, entry[FieldTransactionID])
}

func TestTextLoggerWritesPlainText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatText, Output: &buf}).WithComponent(ComponentCLI)

	logger.Warn("careful", FieldCategory, "Food")

	out := buf.String()
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "component=cli")
	assert.Contains(t, out, "category=Food")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf})

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.NotNil(t, fallback.Logger)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	req := httptest.NewRequest(http.MethodPost, "/add?x=1", nil)
	sl.LogHTTPEnd(context.Background(), req, http.StatusUnprocessableEntity, 12, "10.0.0.1", "req-2")
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStore, OpCreate, ErrorTypeDatabase)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &access))
	assert.Equal(t, "WARN", access["level"])
	assert.EqualValues(t, 422, access[FieldStatusCode])
	assert.Equal(t, false, access[FieldSuccess])
	assert.Equal(t, "x=1", access[FieldQuery])

	var failure map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failure))
	assert.Equal(t, "ERROR", failure["level"])
	assert.Equal(t, "disk full", failure[FieldError])
	assert.Equal(t, ErrorTypeDatabase, failure[FieldErrorType])
}
