// Package logger provides structured logging for the uploader: a colored
// console handler, a plain or JSON file handler, and an explicit Flush so the
// diagnostic trail survives an abrupt termination.
package logger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Format types for logging.
	formatJSON   = "json"
	formatPretty = "pretty"

	// targetKey is rendered as a bracketed label by the pretty handler.
	targetKey = "target"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGray    = "\033[37m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

// Logger wraps slog.Logger with flushing of the underlying file sink.
type Logger struct {
	*slog.Logger
	file *fileSink
}

// Config holds logger configuration.
type Config struct {
	// Writer is the console destination. Defaults to os.Stdout.
	Writer io.Writer
	// FilePath, when set, receives every record in addition to Writer.
	FilePath string
	// Format is "pretty" (default) or "json".
	Format    string
	Level     slog.Level
	AddSource bool
}

// New creates a new logger with the given configuration.
// The log file, if any, is opened in append mode and created when missing.
func New(cfg Config) (*Logger, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = formatPretty
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	var console slog.Handler
	if cfg.Format == formatJSON {
		console = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		console = NewPrettyHandler(cfg.Writer, opts)
	}

	if cfg.FilePath == "" {
		return &Logger{Logger: slog.New(console)}, nil
	}

	sink, err := openFileSink(cfg.FilePath)
	if err != nil {
		return nil, err
	}

	var file slog.Handler
	if cfg.Format == formatJSON {
		file = slog.NewJSONHandler(sink, opts)
	} else {
		file = NewPlainHandler(sink, opts)
	}

	return &Logger{
		Logger: slog.New(&fanoutHandler{handlers: []slog.Handler{console, file}}),
		file:   sink,
	}, nil
}

// ParseLevel converts a string to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Target returns a child logger whose records carry the given target label.
func (l *Logger) Target(name string) *Logger {
	return &Logger{
		Logger: l.With(slog.String(targetKey, name)),
		file:   l.file,
	}
}

// WithError adds an error attribute to the logger. A nil error leaves the
// logger unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		Logger: l.With(slog.String("error", err.Error())),
		file:   l.file,
	}
}

// Flush writes buffered records to the log file and syncs it to disk.
// It is a no-op for console-only loggers.
func (l *Logger) Flush() error {
	if l.file == nil {
		return nil
	}
	return l.file.Flush()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// fileSink is a buffered, mutex-guarded log file.
type fileSink struct {
	mu   sync.Mutex
	f    *os.File
	buf  *bufio.Writer
	path string
}

func openFileSink(path string) (*fileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	//#nosec G304 -- log path comes from trusted configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &fileSink{f: f, buf: bufio.NewWriter(f), path: path}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *fileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush log file %s: %w", s.path, err)
	}
	return s.f.Sync()
}

func (s *fileSink) Close() error {
	flushErr := s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(flushErr, s.f.Close())
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// PrettyHandler is a custom slog.Handler that formats logs in a human-readable way.
// The console variant is colored; the plain variant writes the bracketed
// "[time][LEVEL][target] message" layout used in the log file.
type PrettyHandler struct {
	opts       *slog.HandlerOptions
	writer     io.Writer
	attrs      []slog.Attr
	groups     []string
	target     string
	color      bool
	timeLayout string
}

// NewPrettyHandler creates a new colored console handler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:       opts,
		writer:     w,
		color:      true,
		timeLayout: "15:04:05",
	}
}

// NewPlainHandler creates an uncolored handler with full RFC 3339 timestamps.
func NewPlainHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := NewPrettyHandler(w, opts)
	h.color = false
	h.timeLayout = time.RFC3339
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes the log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 1024)
	levelStr, levelColor := formatLevel(r.Level)

	if h.color {
		buf = h.appendColored(buf, colorDim, r.Time.Format(h.timeLayout))
		buf = append(buf, ' ')
		buf = h.appendColored(buf, levelColor, levelStr)
		buf = append(buf, ' ')
		if h.target != "" {
			buf = h.appendColored(buf, colorDim, "["+h.target+"]")
			buf = append(buf, ' ')
		}
	} else {
		buf = append(buf, '[')
		buf = append(buf, r.Time.Format(h.timeLayout)...)
		buf = append(buf, "]["...)
		buf = append(buf, r.Level.String()...)
		buf = append(buf, ']')
		if h.target != "" {
			buf = append(buf, '[')
			buf = append(buf, h.target...)
			buf = append(buf, ']')
		}
		buf = append(buf, ' ')
	}

	if h.opts.AddSource && r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		buf = h.appendColored(buf, colorDim, filepath.Base(f.File)+":"+strconv.Itoa(f.Line))
		buf = append(buf, ' ')
	}

	buf = h.appendColored(buf, colorBold, r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = appendAttr(parts, attr)
	}
	if len(parts) > 0 {
		buf = append(buf, ' ')
		buf = h.appendColored(buf, colorCyan, strings.Join(parts, " "))
	}

	buf = append(buf, '\n')
	_, err := h.writer.Write(buf)
	return err
}

// WithAttrs returns a new handler with additional attributes.
// A target attribute replaces the label instead of joining the attribute list.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	for _, a := range attrs {
		if a.Key == targetKey && len(h.groups) == 0 {
			clone.target = a.Value.String()
			continue
		}
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return &clone
}

// WithGroup returns a new handler with the given group.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

func (h *PrettyHandler) appendColored(buf []byte, color, s string) []byte {
	if !h.color {
		return append(buf, s...)
	}
	buf = append(buf, color...)
	buf = append(buf, s...)
	return append(buf, colorReset...)
}

// appendAttr renders a as key=value. LogValuers are resolved first and
// groups are flattened into dotted keys.
func appendAttr(parts []string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return parts
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}
			parts = appendAttr(parts, ga)
		}
		return parts
	}
	return append(parts, a.Key+"="+formatValue(a.Value))
}

// formatLevel returns the formatted level string with color.
func formatLevel(level slog.Level) (levelStr, levelColor string) {
	switch level {
	case slog.LevelDebug:
		return "DBG", colorMagenta
	case slog.LevelInfo:
		return "INF", colorGreen
	case slog.LevelWarn:
		return "WRN", colorYellow
	case slog.LevelError:
		return "ERR", colorRed
	default:
		return level.String(), colorGray
	}
}

// formatValue formats a slog.Value for pretty printing.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
}
