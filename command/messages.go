package command

import (
	"strings"

	"github.com/goliatone/go-contact-relay/core"
)

const TypeSyncContact = "relay.command.contact.sync"

// SyncContactMessage asks for one contact to be pulled from HubSpot and pushed
// to PandaDoc, exactly as a webhook event for it would be. SubscriptionType
// defaults to contact.creation.
type SyncContactMessage struct {
	ObjectID         core.ObjectID
	SubscriptionType core.SubscriptionType
	EventID          core.ObjectID
}

func (SyncContactMessage) Type() string { return TypeSyncContact }

func (m SyncContactMessage) Validate() error {
	if strings.TrimSpace(m.ObjectID.String()) == "" {
		return commandValidationError("object_id", "object id is required")
	}
	if m.SubscriptionType != "" && !m.SubscriptionType.Supported() {
		return commandValidationError("subscription_type", "subscription type must be contact.creation or contact.propertyChange")
	}
	return nil
}

func (m SyncContactMessage) event() core.InboundEvent {
	subscriptionType := m.SubscriptionType
	if subscriptionType == "" {
		subscriptionType = core.SubscriptionContactCreation
	}
	return core.InboundEvent{
		SubscriptionType: subscriptionType,
		ObjectID:         core.ObjectID(strings.TrimSpace(m.ObjectID.String())),
		EventID:          m.EventID,
	}
}
