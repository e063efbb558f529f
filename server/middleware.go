package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-contact-relay/adapters/gologger"
	"github.com/goliatone/go-contact-relay/core"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

// requestContext tags every request with a request id, reusing the caller's
// header when present, and attaches it to the context log fields.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := gologger.ContextWithFields(r.Context(), map[string]any{"request_id": requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		var err error
		if recorder.status >= http.StatusInternalServerError {
			err = serverError(http.StatusText(recorder.status), nil)
		}
		core.LogOperation(r.Context(), s.logger, startedAt, "http.request", err, map[string]any{
			"method":      r.Method,
			"path":        normalizePath(r.URL.Path),
			"status_code": recorder.status,
		})
	})
}
