package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/query"
)

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type webhookResponse struct {
	Message         string         `json:"message"`
	ProcessedEvents int            `json:"processedEvents"`
	Outcomes        map[string]int `json:"outcomes"`
	Timestamp       string         `json:"timestamp"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type activityEntryResponse struct {
	ID               string  `json:"id"`
	EventID          string  `json:"eventId,omitempty"`
	SubscriptionType string  `json:"subscriptionType"`
	ObjectID         string  `json:"objectId"`
	Outcome          string  `json:"outcome"`
	Email            string  `json:"email,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	OccurredAt       *string `json:"occurredAt,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

type activityResponse struct {
	Entries   []activityEntryResponse `json:"entries"`
	Timestamp string                  `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    HealthStatus,
		Timestamp: s.timestamp(),
		Uptime:    s.uptime(),
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.WithContext(ctx)
	logger.Info("webhook received", "content_length", r.ContentLength)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeBatchError(w, r, bodyReadError(err, s.cfg.MaxBodyBytes))
		return
	}
	logger.Debug("webhook payload", "payload", string(body))

	// A started batch runs to completion even if the caller disconnects.
	summary, err := s.webhooks.HandleWebhook(context.WithoutCancel(ctx), body)
	if err != nil {
		s.writeBatchError(w, r, err)
		return
	}

	outcomes := make(map[string]int, len(core.Outcomes))
	for _, outcome := range core.Outcomes {
		outcomes[string(outcome)] = summary.Count(outcome)
	}
	writeJSON(w, http.StatusOK, webhookResponse{
		Message:         "Webhook processed successfully",
		ProcessedEvents: summary.Processed,
		Outcomes:        outcomes,
		Timestamp:       s.timestamp(),
	})
}

// writeBatchError answers every batch-level failure with 500, echoing the
// error message to the caller.
func (s *Server) writeBatchError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := core.MapError(err)
	s.logger.WithContext(r.Context()).Error("webhook failed",
		"error", err.Error(),
		"text_code", mapped.TextCode,
		"status_code", mapped.Code,
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:     "Internal server error",
		Message:   mapped.Message,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:     "Not found",
			Message:   "activity ledger is disabled",
			Timestamp: s.timestamp(),
		})
		return
	}

	msg := query.ListActivityMessage{}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:     "Bad request",
				Message:   "limit must be an integer",
				Timestamp: s.timestamp(),
			})
			return
		}
		msg.Limit = limit
	}

	entries, err := s.activity.Query(r.Context(), msg)
	if err != nil {
		mapped := core.MapError(err)
		s.logger.WithContext(r.Context()).Error("activity query failed", "error", err.Error())
		writeJSON(w, mapped.Code, errorResponse{
			Error:     http.StatusText(mapped.Code),
			Message:   mapped.Message,
			Timestamp: s.timestamp(),
		})
		return
	}

	out := activityResponse{
		Entries:   make([]activityEntryResponse, 0, len(entries)),
		Timestamp: s.timestamp(),
	}
	for _, entry := range entries {
		item := activityEntryResponse{
			ID:               entry.ID,
			EventID:          entry.EventID,
			SubscriptionType: entry.SubscriptionType,
			ObjectID:         entry.ObjectID,
			Outcome:          string(entry.Outcome),
			Email:            entry.Email,
			Reason:           entry.Reason,
			CreatedAt:        entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if entry.OccurredAt != nil {
			occurred := entry.OccurredAt.UTC().Format(time.RFC3339Nano)
			item.OccurredAt = &occurred
		}
		out.Entries = append(out.Entries, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
