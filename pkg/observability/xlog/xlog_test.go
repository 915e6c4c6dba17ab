package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xrotate"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := xlog.New().SetOutput(buf).SetFormat("json").Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

// =============================================================================
// Builder
// =============================================================================

func TestBuilder_Errors(t *testing.T) {
	_, _, err := xlog.New().SetLevelString("verbose").Build()
	assert.ErrorIs(t, err, xlog.ErrUnknownLevel)

	_, _, err = xlog.New().SetFormat("xml").Build()
	assert.ErrorIs(t, err, xlog.ErrUnknownFormat)

	_, _, err = xlog.New().SetRotation("").Build()
	assert.ErrorIs(t, err, xrotate.ErrEmptyFilename)

	// first-error-wins
	_, _, err = xlog.New().SetFormat("xml").SetLevelString("nope").Build()
	assert.ErrorIs(t, err, xlog.ErrUnknownFormat)
}

func TestBuilder_EmptyFormatIsText(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("  ").Build()
	require.NoError(t, err)
	logger.Info(context.Background(), "hello", slog.Int("n", 1))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}

func TestBuilder_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, cleanup, err := xlog.New().
		SetRotation(file, xrotate.WithMaxSize(1), xrotate.WithCompress(false)).
		SetFormat("json").
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "rotated")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "cleanup is idempotent")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rotated"`)
}

func TestBuilder_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").SetAddSource(true).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "src")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	src, ok := lines[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, src["file"], "xlog_test.go")
}

// =============================================================================
// Logger
// =============================================================================

func TestLogger_LevelsAndDynamicChange(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(ctx, xlog.LevelDebug))

	child := logger.With(slog.String("k", "v"))
	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())

	child.Debug(ctx, "visible")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["msg"])
	assert.Equal(t, "v", lines[0]["k"])
}

func TestLogger_AllLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	logger.SetLevel(xlog.LevelDebug)
	ctx := context.Background()

	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e", xlog.Err(errors.New("bad")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "INFO", lines[1]["level"])
	assert.Equal(t, "WARN", lines[2]["level"])
	assert.Equal(t, "ERROR", lines[3]["level"])
	assert.Equal(t, "bad", lines[3][xlog.KeyError])
}

func TestLogger_Stack(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.Stack(context.Background(), "panic", slog.String("p", "x"))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "x", lines[0]["p"])
	assert.Contains(t, lines[0][xlog.KeyStack], "TestLogger_Stack")
}

func TestLogger_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.WithGroup("").WithGroup("req").Info(context.Background(), "g", slog.Int("n", 2))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	group, ok := lines[0]["req"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, group["n"], 0)
}

func TestLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	//nolint:staticcheck // 故意传入 nil context
	logger.Info(nil, "nil ctx")
	assert.Contains(t, buf.String(), "nil ctx")
}

// =============================================================================
// Enrich
// =============================================================================

func TestEnrich_InjectsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	ctx, _ := xctx.WithRequestID(context.Background(), "req-9")
	ctx, _ = xctx.WithConnID(ctx, 3)
	ctx, _ = xctx.WithRemoteAddr(ctx, "127.0.0.1:40000")
	logger.Info(ctx, "enriched")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-9", lines[0][xlog.KeyRequestID])
	assert.InDelta(t, 3, lines[0][xlog.KeyConnID], 0)
	assert.Equal(t, "127.0.0.1:40000", lines[0][xlog.KeyRemoteAddr])
}

func TestEnrich_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").SetEnrich(false).Build()
	require.NoError(t, err)

	ctx, _ := xctx.WithRequestID(context.Background(), "req-9")
	logger.Info(ctx, "plain")
	assert.NotContains(t, buf.String(), "req-9")
}

func TestNewEnrichHandler_Nil(t *testing.T) {
	h, err := xlog.NewEnrichHandler(nil)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, xlog.ErrNilHandler)
}

// =============================================================================
// Level / Attrs
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := map[string]xlog.Level{
		"debug": xlog.LevelDebug, " INFO ": xlog.LevelInfo,
		"warn": xlog.LevelWarn, "Warning": xlog.LevelWarn, "error": xlog.LevelError,
		"debug+2": xlog.Level(-2), "warning-1": xlog.Level(3),
	}
	for in, want := range tests {
		got, err := xlog.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"trace", "", "info+x"} {
		_, err := xlog.ParseLevel(bad)
		assert.ErrorIs(t, err, xlog.ErrUnknownLevel, bad)
	}
}

func TestLevel_Text(t *testing.T) {
	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, xlog.LevelWarn, l)
	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(text))
	assert.Equal(t, "INFO+2", xlog.Level(2).String())
	assert.Error(t, l.UnmarshalText([]byte("bogus")))
}

func TestAttrs(t *testing.T) {
	assert.True(t, xlog.Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, "1.5s", xlog.Duration(1500*time.Millisecond).Value.String())
	assert.Equal(t, xlog.KeyWorker, xlog.Worker(3).Key)
	assert.Equal(t, int64(3), xlog.Worker(3).Value.Int64())
	assert.Equal(t, "GET", xlog.Method("GET").Value.String())
	assert.Equal(t, "/sleep", xlog.Path("/sleep").Value.String())
	assert.Equal(t, int64(404), xlog.StatusCode(404).Value.Int64())
	assert.Equal(t, int64(5), xlog.Count(5).Value.Int64())
	assert.Equal(t, "xpool", xlog.Component("xpool").Value.String())
	assert.Equal(t, "job", xlog.Operation("job").Value.String())
}

// =============================================================================
// Global
// =============================================================================

func TestGlobal(t *testing.T) {
	t.Cleanup(xlog.ResetDefault)

	def := xlog.Default()
	require.NotNil(t, def)
	assert.Same(t, def, xlog.Default())

	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	xlog.SetDefault(logger)
	xlog.SetDefault(nil)

	ctx := context.Background()
	xlog.Debug(ctx, "gd")
	xlog.Info(ctx, "gi")
	xlog.Warn(ctx, "gw")
	xlog.Error(ctx, "ge")
	out := buf.String()
	for _, msg := range []string{"gd", "gi", "gw", "ge"} {
		assert.Contains(t, out, "msg="+msg)
	}
}
