package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"product-api/internal/utils"

	"go.opentelemetry.io/otel/trace"
)

// Options controls the process-wide logger.
type Options struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Output    io.Writer
	RemoteURI string // Loki push endpoint; empty disables shipping
	Job       string // Loki stream label
}

func DefaultOptions() Options {
	return Options{
		Level:  slog.LevelInfo,
		Format: "json",
		Output: os.Stdout,
		Job:    "product-api",
	}
}

var (
	mu       sync.RWMutex
	instance *slog.Logger
	shipper  *remoteShipper
)

// New builds a logger without installing it.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	switch opts.Format {
	case "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler)
}

// Configure replaces the process-wide logger and remote shipping target.
func Configure(opts Options) *slog.Logger {
	l := New(opts)

	mu.Lock()
	defer mu.Unlock()
	instance = l
	shipper = nil
	if opts.RemoteURI != "" {
		shipper = newRemoteShipper(opts.RemoteURI, opts.Job)
	}
	slog.SetDefault(l)
	return l
}

func Instance() *slog.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = New(DefaultOptions())
	}
	return instance
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, msg, attrs)
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := Instance()
	if !l.Enabled(ctx, level) {
		return
	}

	enriched := enrich(ctx, attrs...)
	l.LogAttrs(ctx, level, msg, enriched...)

	mu.RLock()
	s := shipper
	mu.RUnlock()
	if s != nil {
		s.send(level, msg, enriched)
	}
}

func enrich(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
			slog.String("hostname", utils.GetHost()),
		)
	}
	return attrs
}
