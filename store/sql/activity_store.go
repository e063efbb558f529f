package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ActivityStore persists one row per processed webhook event.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityEntryRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*activityEntryRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

// EnsureSchema creates the activity table and its lookup index when missing.
func (s *ActivityStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	if _, err := s.db.NewCreateTable().
		Model((*activityEntryRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create %s: %w", activityTable, err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*activityEntryRecord)(nil)).
		Index("relay_activity_entries_created_at_idx").
		Column("created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create %s index: %w", activityTable, err)
	}
	return nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	outcome := strings.TrimSpace(string(entry.Outcome))
	if outcome == "" {
		return fmt.Errorf("sqlstore: activity outcome is required")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &activityEntryRecord{
		ID:               id,
		EventID:          strings.TrimSpace(entry.EventID),
		SubscriptionType: strings.TrimSpace(entry.SubscriptionType),
		ObjectID:         strings.TrimSpace(entry.ObjectID),
		Outcome:          outcome,
		Email:            strings.TrimSpace(entry.Email),
		Reason:           truncateReason(entry.Reason),
		CreatedAt:        createdAt,
	}
	if entry.OccurredAt != nil {
		occurred := entry.OccurredAt.UTC()
		record.OccurredAt = &occurred
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

// List returns the newest entries first.
func (s *ActivityStore) List(ctx context.Context, limit int) ([]core.ActivityEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: activity store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(normalizeLimit(limit), 0),
	)
	if err != nil {
		return nil, err
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return items, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > 1024 {
		return reason[:1024]
	}
	return reason
}

func activityRecordToDomain(record *activityEntryRecord) core.ActivityEntry {
	if record == nil {
		return core.ActivityEntry{}
	}
	entry := core.ActivityEntry{
		ID:               record.ID,
		EventID:          record.EventID,
		SubscriptionType: record.SubscriptionType,
		ObjectID:         record.ObjectID,
		Outcome:          core.Outcome(record.Outcome),
		Email:            record.Email,
		Reason:           record.Reason,
		CreatedAt:        record.CreatedAt.UTC(),
	}
	if record.OccurredAt != nil {
		occurred := record.OccurredAt.UTC()
		entry.OccurredAt = &occurred
	}
	return entry
}
