package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

const activityTable = "relay_activity_entries"

type activityEntryRecord struct {
	bun.BaseModel `bun:"table:relay_activity_entries,alias:rae"`

	ID               string     `bun:"id,pk"`
	EventID          string     `bun:"event_id,notnull"`
	SubscriptionType string     `bun:"subscription_type,notnull"`
	ObjectID         string     `bun:"object_id,notnull"`
	Outcome          string     `bun:"outcome,notnull"`
	Email            string     `bun:"email,notnull"`
	Reason           string     `bun:"reason,notnull"`
	OccurredAt       *time.Time `bun:"occurred_at"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
