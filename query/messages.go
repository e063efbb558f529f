package query

const (
	TypeListActivity = "relay.query.activity.list"

	MaxActivityLimit = 500
)

// ListActivityMessage reads the most recent ledger entries. A zero Limit
// uses the store default.
type ListActivityMessage struct {
	Limit int
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must not be negative")
	}
	if m.Limit > MaxActivityLimit {
		return queryValidationError("limit", "limit must not exceed 500")
	}
	return nil
}
