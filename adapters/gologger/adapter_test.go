package gologger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goliatone/go-contact-relay/core"
	glog "github.com/goliatone/go-logger/glog"
)

func TestResolveDeterministicFallback(t *testing.T) {
	loggerOnly := &capturingLogger{id: "logger"}
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	var resolvedProvider glog.LoggerProvider
	_, resolved := Resolve("relay", provider, loggerOnly)
	got := resolved.(*capturingLogger)
	if got.id != "provider" {
		t.Fatalf("expected provider logger precedence, got %q", got.id)
	}

	resolvedProvider, resolved = Resolve("relay", nil, loggerOnly)
	got = resolved.(*capturingLogger)
	if got.id != "logger" {
		t.Fatalf("expected direct logger when provider is nil, got %q", got.id)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected provider wrapper from logger")
	}

	_, resolved = Resolve("relay", nil, nil)
	if resolved == nil {
		t.Fatalf("expected nop logger fallback")
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("decode log line %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestSlogLogger_JSONLevelsAndArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(core.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden", "k", "v")
	logger.Info("contact synced", "email", "a@b.com")
	logger.Warn("contact has no email", "object_id", "5")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected debug to be filtered, got %d lines", len(lines))
	}
	if lines[0]["msg"] != "contact synced" || lines[0]["email"] != "a@b.com" || lines[0]["level"] != "INFO" {
		t.Fatalf("unexpected info line %#v", lines[0])
	}
	if lines[1]["level"] != "WARN" {
		t.Fatalf("unexpected warn line %#v", lines[1])
	}
}

func TestSlogLogger_TraceAndFatalLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(core.LogConfig{Level: "trace"}, &buf)
	exitCode := -1
	logger.exit = func(code int) { exitCode = code }

	logger.Trace("tracing")
	logger.Fatal("cannot start")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[0]["level"] != "TRACE" || lines[1]["level"] != "FATAL" {
		t.Fatalf("unexpected levels %v and %v", lines[0]["level"], lines[1]["level"])
	}
	if exitCode != 1 {
		t.Fatalf("expected fatal to exit with 1, got %d", exitCode)
	}
}

func TestSlogLogger_FieldsContextAndProvider(t *testing.T) {
	var buf bytes.Buffer
	root := NewSlogLogger(core.LogConfig{Level: "debug", Format: "json"}, &buf)
	provider := NewProvider(root)

	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})
	logger := provider.GetLogger("inbound").WithContext(ctx)
	if fields, ok := logger.(glog.FieldsLogger); ok {
		logger = fields.WithFields(map[string]any{"portal_id": "42"})
	} else {
		t.Fatalf("expected fields logger support")
	}
	logger.Debug("processing contact event", "object_id", "123")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	line := lines[0]
	for key, want := range map[string]any{
		"logger":     "inbound",
		"request_id": "req-1",
		"portal_id":  "42",
		"object_id":  "123",
	} {
		if line[key] != want {
			t.Fatalf("expected %s=%v, got %#v", key, want, line)
		}
	}
}

func TestSlogLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewSlogLogger(core.LogConfig{Format: "text"}, &buf).Info("server running", "port", "10000")
	if !strings.Contains(buf.String(), `msg="server running"`) || !strings.Contains(buf.String(), "port=10000") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}

var (
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = (*capturingProvider)(nil)
)

type capturingProvider struct {
	logger *capturingLogger
}

func (p *capturingProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type capturingLogger struct {
	id string
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Info(string, ...any)  {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
