package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	reasonUnsupportedType = "unsupported subscription type"
	reasonMalformedEvent  = "malformed event"
	reasonNoEmail         = "contact has no email"
)

// Dispatcher runs the fetch, map and upsert pipeline for every supported
// event of a delivery. Recorder is optional.
type Dispatcher struct {
	Fetcher  core.ContactFetcher
	Upserter core.ContactUpserter
	Recorder core.ActivityRecorder
	Logger   core.Logger
	Now      func() time.Time
}

func NewDispatcher(fetcher core.ContactFetcher, upserter core.ContactUpserter) *Dispatcher {
	return &Dispatcher{
		Fetcher:  fetcher,
		Upserter: upserter,
		Logger:   glog.Nop(),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// ParseBatch decodes a webhook body. A single object is a one-element batch
// and an empty body is an empty batch. Elements are decoded one by one: an
// element that does not decode becomes an event carrying DecodeError so the
// rest of the batch still runs. Only a body that is not a JSON object or
// array fails the whole batch.
func ParseBatch(body []byte) ([]core.InboundEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []core.InboundEvent{}, nil
	}
	if !json.Valid(trimmed) {
		return nil, malformedBodyError(nil, "inbound: webhook body is not valid json", len(trimmed))
	}
	switch trimmed[0] {
	case '{':
		return []core.InboundEvent{decodeEvent(trimmed)}, nil
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, malformedBodyError(err, "inbound: decode webhook body", len(trimmed))
		}
		events := make([]core.InboundEvent, 0, len(elements))
		for _, element := range elements {
			events = append(events, decodeEvent(element))
		}
		return events, nil
	default:
		return nil, malformedBodyError(nil, "inbound: webhook body must be a json object or array", len(trimmed))
	}
}

// decodeEvent keeps the subscription type of a malformed element when it can
// be read, for logging and the ledger.
func decodeEvent(raw json.RawMessage) core.InboundEvent {
	var event core.InboundEvent
	err := json.Unmarshal(raw, &event)
	if err == nil {
		return event
	}
	var partial struct {
		SubscriptionType core.SubscriptionType `json:"subscriptionType"`
	}
	_ = json.Unmarshal(raw, &partial)
	return core.InboundEvent{
		SubscriptionType: partial.SubscriptionType,
		DecodeError:      err.Error(),
	}
}

// HandleWebhook parses and dispatches one delivery.
func (d *Dispatcher) HandleWebhook(ctx context.Context, body []byte) (core.BatchSummary, error) {
	events, err := ParseBatch(body)
	if err != nil {
		return core.BatchSummary{}, err
	}
	return d.Dispatch(ctx, events)
}

// Dispatch processes events strictly in order and always runs the batch to
// completion. The only batch level failure is a misconfigured dispatcher;
// each remote call is bounded by the transport timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, events []core.InboundEvent) (core.BatchSummary, error) {
	if d == nil || d.Fetcher == nil || d.Upserter == nil {
		return core.BatchSummary{}, misconfiguredError("inbound: dispatcher requires a fetcher and an upserter")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := d.logger(ctx)
	summary := core.NewBatchSummary(len(events))

	for index, event := range events {
		result := d.dispatchEvent(ctx, logger, index, event)
		summary.Add(result)
		d.record(ctx, logger, event, result)
	}

	logger.Info("webhook batch processed",
		"received", summary.Received,
		"processed", summary.Processed,
		"created", summary.Count(core.OutcomeCreated),
		"duplicate", summary.Count(core.OutcomeDuplicate),
		"skipped_no_email", summary.Count(core.OutcomeSkippedNoEmail),
		"fetch_failed", summary.Count(core.OutcomeFetchFailed),
		"upsert_failed", summary.Count(core.OutcomeUpsertFailed),
		"ignored", summary.Count(core.OutcomeIgnored),
	)
	return summary, nil
}

func (d *Dispatcher) dispatchEvent(
	ctx context.Context,
	logger core.Logger,
	index int,
	event core.InboundEvent,
) core.EventResult {
	result := core.EventResult{
		Index:            index,
		SubscriptionType: event.SubscriptionType,
		ObjectID:         event.ObjectID,
		EventID:          event.EventID,
	}

	if event.DecodeError != "" {
		result.Outcome = core.OutcomeIgnored
		result.Reason = reasonMalformedEvent + ": " + event.DecodeError
		logger.Warn("webhook event malformed, ignoring",
			"index", index,
			"subscription_type", string(event.SubscriptionType),
			"error", event.DecodeError,
		)
		return result
	}

	if !event.SubscriptionType.Supported() {
		result.Outcome = core.OutcomeIgnored
		result.Reason = reasonUnsupportedType
		logger.Debug("webhook event ignored",
			"subscription_type", string(event.SubscriptionType),
			"object_id", event.ObjectID.String(),
		)
		return result
	}

	logger.Info("processing contact event",
		"subscription_type", string(event.SubscriptionType),
		"object_id", event.ObjectID.String(),
		"event_id", event.EventID.String(),
	)

	contact, err := d.Fetcher.FetchContact(ctx, event.ObjectID)
	if err != nil {
		result.Outcome = core.OutcomeFetchFailed
		result.Reason = err.Error()
		result.Err = err
		logger.Error("failed to fetch contact",
			"object_id", event.ObjectID.String(),
			"status_code", core.StatusCode(err),
			"error", err,
		)
		return result
	}

	destination, ok := core.MapContact(contact)
	if !ok {
		result.Outcome = core.OutcomeSkippedNoEmail
		result.Reason = reasonNoEmail
		logger.Warn("contact has no email, skipping", "object_id", event.ObjectID.String())
		return result
	}
	result.Email = destination.Email

	upserted, err := d.Upserter.Upsert(ctx, destination)
	if err != nil {
		result.Outcome = core.OutcomeUpsertFailed
		result.Reason = err.Error()
		result.Err = err
		logger.Warn("contact sync failed",
			"object_id", event.ObjectID.String(),
			"email", destination.Email,
			"status_code", core.StatusCode(err),
		)
		return result
	}

	switch upserted.Status {
	case core.UpsertStatusDuplicate:
		result.Outcome = core.OutcomeDuplicate
	default:
		result.Outcome = core.OutcomeCreated
	}
	return result
}

func (d *Dispatcher) record(ctx context.Context, logger core.Logger, event core.InboundEvent, result core.EventResult) {
	if d.Recorder == nil {
		return
	}
	entry := core.ActivityEntry{
		EventID:          event.EventID.String(),
		SubscriptionType: string(event.SubscriptionType),
		ObjectID:         event.ObjectID.String(),
		Outcome:          result.Outcome,
		Email:            result.Email,
		Reason:           result.Reason,
		CreatedAt:        d.now(),
	}
	if occurred := event.OccurredTime(); !occurred.IsZero() {
		entry.OccurredAt = &occurred
	}
	if err := d.Recorder.Record(ctx, entry); err != nil {
		logger.Warn("failed to record webhook activity",
			"object_id", entry.ObjectID,
			"outcome", string(entry.Outcome),
			"error", err,
		)
	}
}

func (d *Dispatcher) logger(ctx context.Context) core.Logger {
	if d.Logger == nil {
		return glog.Nop()
	}
	return d.Logger.WithContext(ctx)
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
