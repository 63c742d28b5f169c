// Package webhook implements the L4 event fan-out: subscription registry,
// delivery queue, and HMAC-signed outbound delivery with retries, per
// spec §4.4.
package webhook

import (
	"time"

	"github.com/sardis-labs/core/id"
)

// EventType is one of the stable, string-tagged event names emitted by
// the orchestrator and entity registries.
type EventType string

const (
	EventPaymentInitiated  EventType = "payment.initiated"
	EventPaymentCompleted  EventType = "payment.completed"
	EventPaymentFailed     EventType = "payment.failed"
	EventPaymentRefunded   EventType = "payment.refunded"
	EventWalletCreated     EventType = "wallet.created"
	EventWalletFunded      EventType = "wallet.funded"
	EventWalletUpdated     EventType = "wallet.updated"
	EventWalletDeactivated EventType = "wallet.deactivated"
	EventLimitExceeded     EventType = "limit.exceeded"
	EventLimitWarning      EventType = "limit.warning"
	EventLimitUpdated      EventType = "limit.updated"
	EventAgentCreated      EventType = "agent.created"
	EventAgentUpdated      EventType = "agent.updated"
	EventAgentDeactivated  EventType = "agent.deactivated"
	EventHoldCreated       EventType = "hold.created"
	EventHoldCaptured      EventType = "hold.captured"
	EventHoldVoided        EventType = "hold.voided"
	EventRiskAlert         EventType = "risk.alert"
	EventFraudDetected     EventType = "fraud.detected"
	EventServiceAuthorized EventType = "service.authorized"
	EventServiceRevoked    EventType = "service.revoked"
	EventInvoiceCreated    EventType = "invoice.created"
	EventInvoicePaid       EventType = "invoice.paid"
	EventMerchantPayout    EventType = "merchant.payout"
)

// apiVersion is the string tag stamped onto every event envelope's
// api_version field.
const apiVersion = "2024-01"

// Event is the canonical envelope delivered to subscribers.
type Event struct {
	ID         id.EventID     `json:"id"`
	Type       EventType      `json:"type"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	APIVersion string         `json:"api_version"`
}

// New builds an Event with a fresh ID, the current timestamp, and the
// package's api_version tag.
func New(eventType EventType, data map[string]any) Event {
	return Event{
		ID:         id.New(id.PrefixEvent),
		Type:       eventType,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
		APIVersion: apiVersion,
	}
}
