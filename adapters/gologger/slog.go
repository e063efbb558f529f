package gologger

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/goliatone/go-contact-relay/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	LevelTrace = slog.LevelDebug - 4
	LevelFatal = slog.LevelError + 4
)

type ctxKey struct{}

// ContextWithFields returns a context whose fields are attached to every line
// logged through a logger bound with WithContext.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	merged := map[string]any{}
	if existing, ok := ctx.Value(ctxKey{}).(map[string]any); ok {
		maps.Copy(merged, existing)
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// SlogLogger implements glog.Logger and glog.FieldsLogger on top of
// log/slog.
type SlogLogger struct {
	handler slog.Handler
	ctx     context.Context
	exit    func(int)
}

// NewSlogLogger builds a logger writing to w. Format is "json" or "text",
// level one of trace, debug, info, warn, error.
func NewSlogLogger(cfg core.LogConfig, w io.Writer) *SlogLogger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key != slog.LevelKey {
				return attr
			}
			if level, ok := attr.Value.Any().(slog.Level); ok {
				attr.Value = slog.StringValue(levelName(level))
			}
			return attr
		},
	}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &SlogLogger{handler: handler, exit: os.Exit}
}

func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fatal":
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

func levelName(level slog.Level) string {
	switch {
	case level <= LevelTrace:
		return "TRACE"
	case level >= LevelFatal:
		return "FATAL"
	default:
		return level.String()
	}
}

func (l *SlogLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Fatal logs and terminates the process.
func (l *SlogLogger) Fatal(msg string, args ...any) {
	l.log(LevelFatal, msg, args...)
	if l.exit != nil {
		l.exit(1)
	}
}

func (l *SlogLogger) WithContext(ctx context.Context) glog.Logger {
	clone := *l
	clone.ctx = ctx
	return &clone
}

func (l *SlogLogger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	clone := *l
	clone.handler = l.handler.WithAttrs(attrs)
	return &clone
}

// Named returns a child logger tagged with a component name.
func (l *SlogLogger) Named(name string) *SlogLogger {
	name = strings.TrimSpace(name)
	if name == "" {
		return l
	}
	clone := *l
	clone.handler = l.handler.WithAttrs([]slog.Attr{slog.String("logger", name)})
	return &clone
}

func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	if l == nil || l.handler == nil {
		return
	}
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}
	logger := slog.New(l.handler)
	if fields, ok := ctx.Value(ctxKey{}).(map[string]any); ok && len(fields) > 0 {
		extra := make([]any, 0, len(fields)*2)
		for key, value := range fields {
			extra = append(extra, key, value)
		}
		args = append(extra, args...)
	}
	logger.Log(ctx, level, msg, args...)
}

// Provider hands out named children of a root SlogLogger.
type Provider struct {
	root *SlogLogger
}

func NewProvider(root *SlogLogger) *Provider {
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	return p.root.Named(name)
}

var (
	_ glog.Logger         = (*SlogLogger)(nil)
	_ glog.FieldsLogger   = (*SlogLogger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)
