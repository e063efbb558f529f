package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// ContactFetcher loads a contact, enriched with its first associated company,
// from the source CRM.
type ContactFetcher interface {
	FetchContact(ctx context.Context, id ObjectID) (SourceContact, error)
}

// ContactUpserter creates a contact in the destination platform. A duplicate
// conflict is reported as UpsertStatusDuplicate with a nil error.
type ContactUpserter interface {
	Upsert(ctx context.Context, contact DestinationContact) (UpsertResult, error)
}

// ActivityRecorder persists per-event outcomes.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityReader lists recently recorded outcomes, newest first.
type ActivityReader interface {
	List(ctx context.Context, limit int) ([]ActivityEntry, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}
