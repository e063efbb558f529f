package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type SubscriptionType string

const (
	SubscriptionContactCreation       SubscriptionType = "contact.creation"
	SubscriptionContactPropertyChange SubscriptionType = "contact.propertyChange"
)

// Supported reports whether events of this type trigger a contact sync.
func (s SubscriptionType) Supported() bool {
	switch s {
	case SubscriptionContactCreation, SubscriptionContactPropertyChange:
		return true
	default:
		return false
	}
}

// ObjectID is a CRM object identifier. HubSpot sends numeric ids; strings are
// accepted too so redeliveries from other tooling decode the same way.
type ObjectID string

func (id *ObjectID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("core: decode object id: %w", err)
		}
		*id = ObjectID(strings.TrimSpace(text))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("core: object id must be a string or number: %w", err)
	}
	*id = ObjectID(number.String())
	return nil
}

func (id ObjectID) String() string {
	return string(id)
}

// InboundEvent is one notification of a webhook delivery. Only
// SubscriptionType and ObjectID drive the sync; the rest is kept for logs and
// the activity ledger.
type InboundEvent struct {
	SubscriptionType SubscriptionType `json:"subscriptionType"`
	ObjectID         ObjectID         `json:"objectId"`

	EventID        ObjectID `json:"eventId,omitempty"`
	SubscriptionID ObjectID `json:"subscriptionId,omitempty"`
	PortalID       ObjectID `json:"portalId,omitempty"`
	AppID          ObjectID `json:"appId,omitempty"`
	OccurredAt     int64    `json:"occurredAt,omitempty"`
	AttemptNumber  int      `json:"attemptNumber,omitempty"`
	PropertyName   string   `json:"propertyName,omitempty"`
	PropertyValue  string   `json:"propertyValue,omitempty"`
	ChangeSource   string   `json:"changeSource,omitempty"`

	// DecodeError is set when the element could not be decoded. Such events
	// are ignored, never fetched.
	DecodeError string `json:"-"`
}

// OccurredTime converts the millisecond epoch HubSpot sends.
func (e InboundEvent) OccurredTime() time.Time {
	if e.OccurredAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.OccurredAt).UTC()
}

type ContactProperties struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobtitle"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type CompanyProperties struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// ContactPropertyNames is the fixed property list requested for contacts.
var ContactPropertyNames = []string{
	"firstname", "lastname", "email", "phone", "company", "jobtitle",
	"address", "city", "state", "zip", "country",
}

// CompanyPropertyNames is the fixed property list requested for companies.
var CompanyPropertyNames = []string{
	"name", "domain", "phone", "address", "city", "state", "zip", "country",
	"industry", "description", "website",
}

type SourceCompany struct {
	ID         string            `json:"id"`
	Properties CompanyProperties `json:"properties"`
}

type SourceContact struct {
	ID                string            `json:"id"`
	Properties        ContactProperties `json:"properties"`
	AssociatedCompany *SourceCompany    `json:"associatedCompany,omitempty"`
}

// DestinationContact is the PandaDoc contact payload. Empty fields are omitted
// on the wire: absence means unknown.
type DestinationContact struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Company       string `json:"company,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	Phone         string `json:"phone,omitempty"`
	State         string `json:"state,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

type UpsertStatus string

const (
	UpsertStatusCreated   UpsertStatus = "created"
	UpsertStatusDuplicate UpsertStatus = "duplicate"
)

type UpsertResult struct {
	Status UpsertStatus
	ID     string
	Email  string
	Record map[string]any
}

type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeSkippedNoEmail Outcome = "skipped_no_email"
	OutcomeUpsertFailed   Outcome = "upsert_failed"
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomeIgnored        Outcome = "ignored"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeCreated,
	OutcomeDuplicate,
	OutcomeSkippedNoEmail,
	OutcomeUpsertFailed,
	OutcomeFetchFailed,
	OutcomeIgnored,
}

// Processed reports whether the event's contact was obtained and forwarded to
// the mapper, which is what the webhook's processedEvents counts.
func (o Outcome) Processed() bool {
	switch o {
	case OutcomeCreated, OutcomeDuplicate, OutcomeSkippedNoEmail, OutcomeUpsertFailed:
		return true
	default:
		return false
	}
}

// Failed reports outcomes that dropped the event because a remote call failed.
func (o Outcome) Failed() bool {
	return o == OutcomeUpsertFailed || o == OutcomeFetchFailed
}

type EventResult struct {
	Index            int
	SubscriptionType SubscriptionType
	ObjectID         ObjectID
	EventID          ObjectID
	Outcome          Outcome
	Email            string
	Reason           string
	Err              error
}

type BatchSummary struct {
	Received  int
	Processed int
	Counts    map[Outcome]int
	Results   []EventResult
}

func NewBatchSummary(received int) BatchSummary {
	counts := make(map[Outcome]int, len(Outcomes))
	for _, outcome := range Outcomes {
		counts[outcome] = 0
	}
	return BatchSummary{
		Received: received,
		Counts:   counts,
		Results:  make([]EventResult, 0, received),
	}
}

func (s *BatchSummary) Add(result EventResult) {
	if s.Counts == nil {
		s.Counts = map[Outcome]int{}
	}
	s.Counts[result.Outcome]++
	if result.Outcome.Processed() {
		s.Processed++
	}
	s.Results = append(s.Results, result)
}

func (s BatchSummary) Count(outcome Outcome) int {
	return s.Counts[outcome]
}

// ActivityEntry is the persisted trace of one event outcome.
type ActivityEntry struct {
	ID               string
	EventID          string
	SubscriptionType string
	ObjectID         string
	Outcome          Outcome
	Email            string
	Reason           string
	OccurredAt       *time.Time
	CreatedAt        time.Time
}
