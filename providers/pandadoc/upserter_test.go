package pandadoc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/providers/devkit"
	"github.com/goliatone/go-contact-relay/transport"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type logCall struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, msg: msg})
}

func (l *recordingLogger) Trace(msg string, _ ...any) { l.record("trace", msg) }
func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...any) { l.record("fatal", msg) }

func (l *recordingLogger) WithContext(context.Context) glog.Logger { return l }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, call := range l.calls {
		if call.level == level {
			total++
		}
	}
	return total
}

func newTestUpserter(t *testing.T, adapter core.TransportAdapter, logger core.Logger) *Upserter {
	t.Helper()
	upserter, err := NewUpserter(Config{APIKey: "key-1", BaseURL: "https://pandadoc.test/public/v1/"}, adapter, logger)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}
	return upserter
}

func TestUpserter_CreatesContact(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodPost, PathSuffix: "/contacts", Response: devkit.JSON(201, `{"id":"pd-1","email":"ada@example.com"}`)},
	)
	logger := &recordingLogger{}
	upserter := newTestUpserter(t, adapter, logger)

	result, err := upserter.Upsert(context.Background(), core.DestinationContact{Email: " ada@example.com ", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if result.Status != core.UpsertStatusCreated || result.ID != "pd-1" {
		t.Fatalf("unexpected result %#v", result)
	}

	requests := adapter.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.URL != "https://pandadoc.test/public/v1/contacts" {
		t.Fatalf("unexpected url %q", req.URL)
	}
	if req.Headers["Authorization"] != "API-Key key-1" {
		t.Fatalf("expected api key header, got %q", req.Headers["Authorization"])
	}
	var sent map[string]any
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["email"] != "ada@example.com" || sent["first_name"] != "Ada" {
		t.Fatalf("unexpected body %#v", sent)
	}
	if _, ok := sent["phone"]; ok {
		t.Fatalf("expected empty phone to be omitted, got %#v", sent)
	}
	if logger.count("info") != 1 {
		t.Fatalf("expected one info log")
	}
}

func TestUpserter_DuplicateIsNotAnError(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodPost, PathSuffix: "/contacts", Response: devkit.JSON(400, `{"type":"request_error","detail":"Contact with email ada@example.com already exists"}`)},
	)
	logger := &recordingLogger{}
	upserter := newTestUpserter(t, adapter, logger)

	result, err := upserter.Upsert(context.Background(), core.DestinationContact{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("expected duplicate to be tolerated, got %v", err)
	}
	if result.Status != core.UpsertStatusDuplicate {
		t.Fatalf("expected duplicate status, got %q", result.Status)
	}
	if logger.count("error") != 0 {
		t.Fatalf("expected no error logs for a duplicate")
	}
	if logger.count("info") != 1 {
		t.Fatalf("expected an informational log for a duplicate")
	}
}

func TestUpserter_OtherBadRequestFails(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodPost, PathSuffix: "/contacts", Response: devkit.JSON(400, `{"detail":"email is invalid"}`)},
	)
	logger := &recordingLogger{}
	upserter := newTestUpserter(t, adapter, logger)

	_, err := upserter.Upsert(context.Background(), core.DestinationContact{Email: "broken"})
	if err == nil {
		t.Fatalf("expected upsert error")
	}
	if core.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected status 400 on error, got %d", core.StatusCode(err))
	}
	if logger.count("error") != 1 {
		t.Fatalf("expected an error log")
	}
}

func TestUpserter_ServerErrorWithDuplicateTextFails(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodPost, PathSuffix: "/contacts", Response: devkit.JSON(500, `{"detail":"already exists"}`)},
	)
	upserter := newTestUpserter(t, adapter, nil)

	if _, err := upserter.Upsert(context.Background(), core.DestinationContact{Email: "a@example.com"}); err == nil {
		t.Fatalf("expected only a 400 to be treated as duplicate")
	}
}

func TestUpserter_EmptyEmailMakesNoCall(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter()
	upserter := newTestUpserter(t, adapter, nil)

	_, err := upserter.Upsert(context.Background(), core.DestinationContact{FirstName: "NoMail"})
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
	if got := len(adapter.Requests()); got != 0 {
		t.Fatalf("expected no remote calls, got %d", got)
	}
}

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		name string
		res  core.TransportResponse
		want bool
	}{
		{name: "detail string", res: devkit.JSON(400, `{"detail":"Contact already exists"}`), want: true},
		{name: "detail object", res: devkit.JSON(400, `{"detail":{"email":["already exists"]}}`), want: true},
		{name: "raw body", res: devkit.JSON(400, `contact already exists`), want: true},
		{name: "other detail", res: devkit.JSON(400, `{"detail":"invalid phone"}`), want: false},
		{name: "not found", res: devkit.JSON(404, `{"detail":"already exists"}`), want: false},
	}
	for _, tc := range cases {
		if got := IsDuplicate(tc.res); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestUpserter_OverRESTAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/public/v1/contacts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "API-Key key-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pd-9","email":` + string(mustEmail(t, body)) + `}`))
	}))
	defer server.Close()

	upserter, err := NewUpserter(
		Config{APIKey: "key-1", BaseURL: server.URL + "/public/v1"},
		transport.NewRESTAdapter(server.Client(), time.Second),
		nil,
	)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}
	result, err := upserter.Upsert(context.Background(), core.DestinationContact{Email: "grace@example.com"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if result.ID != "pd-9" || result.Email != "grace@example.com" {
		t.Fatalf("unexpected result %#v", result)
	}
	if result.Record["id"] != "pd-9" {
		t.Fatalf("expected decoded record, got %#v", result.Record)
	}
}

func mustEmail(t *testing.T, body []byte) []byte {
	t.Helper()
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	encoded, _ := json.Marshal(payload.Email)
	return encoded
}
