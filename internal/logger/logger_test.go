package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	require.NoError(t, err)

	logger.Info("watching directory for save files")

	assert.Contains(t, buf.String(), "watching directory for save files")
	assert.Contains(t, buf.String(), "INF")
	assert.NoError(t, logger.Flush())
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, Format: "json"})
	require.NoError(t, err)

	logger.Info("test")

	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestNew_FileSink(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "uploader.log")

	logger, err := New(Config{Writer: &console, FilePath: path, Level: slog.LevelDebug})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })

	logger.Target("dispatch").Warn("upload failed", "path", "/saves/a.eu4")

	// Nothing reaches the file until it is flushed.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, logger.Flush())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.HasPrefix(line, "["), line)
	assert.Contains(t, line, "][WARN][dispatch] upload failed path=/saves/a.eu4")
	assert.NotContains(t, line, "\033[")

	assert.Contains(t, console.String(), "[dispatch]")
	assert.Contains(t, console.String(), "upload failed")
}

func TestNew_FileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploader.log")

	for _, msg := range []string{"first", "second"} {
		logger, err := New(Config{Writer: &bytes.Buffer{}, FilePath: path})
		require.NoError(t, err)
		logger.Info(msg)
		require.NoError(t, logger.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestNew_FileSinkError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := New(Config{FilePath: filepath.Join(blocker, "uploader.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	slog.New(handler).Info("test message", "key1", "value1", "key2", 42)

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=42")
}

func TestPrettyHandler_TargetLabel(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPlainHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	slog.New(handler).With("target", "watcher", "dir", "/saves").Info("started")

	output := buf.String()
	assert.Contains(t, output, "][INFO][watcher] started dir=/saves")
	assert.NotContains(t, output, "target=")
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.Equal(t, handler, handler.WithGroup(""))

	slog.New(handler.WithGroup("upload")).Info("done", "status", 200)

	assert.Contains(t, buf.String(), "upload.status=200")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	})

	slog.New(handler).Info("test message")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level     slog.Level
		wantStr   string
		wantColor string
	}{
		{slog.LevelDebug, "DBG", colorMagenta},
		{slog.LevelInfo, "INF", colorGreen},
		{slog.LevelWarn, "WRN", colorYellow},
		{slog.LevelError, "ERR", colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.wantStr, func(t *testing.T) {
			str, color := formatLevel(tt.level)
			assert.Equal(t, tt.wantStr, str)
			assert.Equal(t, tt.wantColor, color)
		})
	}
}

func TestFormatValue_QuotesSpaces(t *testing.T) {
	assert.Equal(t, `"unable to open: /a b.eu4"`, formatValue(slog.StringValue("unable to open: /a b.eu4")))
	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	require.NoError(t, err)

	logger.WithError(assert.AnError).Error("failed")
	assert.Contains(t, buf.String(), "error=")

	assert.Same(t, logger, logger.WithError(nil))
}

type account struct {
	user   string
	secret string
}

func (a account) LogValue() slog.Value {
	return slog.GroupValue(slog.String("user", a.user))
}

func TestLogger_ResolvesLogValuer(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "uploader.log")
	logger, err := New(Config{Writer: &console, FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })

	acct := account{user: "ruler", secret: "s3cret"}
	logger.Info("loaded", "account", acct)
	logger.With("owner", acct).Info("bound")
	require.NoError(t, logger.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, out := range []string{console.String(), string(data)} {
		assert.Contains(t, out, "account.user=ruler")
		assert.Contains(t, out, "owner.user=ruler")
		assert.NotContains(t, out, "s3cret")
	}
}

func TestPrettyHandler_InlineGroupAndEmptyAttr(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPlainHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	slog.New(handler).Info("done", slog.Group("", slog.Int("status", 200)), slog.Attr{})

	assert.Contains(t, buf.String(), "done status=200\n")
}
