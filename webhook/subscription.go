package webhook

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Subscription is a registered webhook endpoint: an owner opts an active
// URL into a set of event types (empty means all).
type Subscription struct {
	types.Entity

	ID      id.WebhookID `json:"id"`
	OwnerID string       `json:"owner_id"`
	URL     string       `json:"url"`
	Events  []EventType  `json:"events"` // empty means all
	Secret  string       `json:"-"`
	Active  bool         `json:"active"`

	TotalDeliveries      int        `json:"total_deliveries"`
	SuccessfulDeliveries int        `json:"successful_deliveries"`
	FailedDeliveries     int        `json:"failed_deliveries"`
	LastDeliveryAt       *time.Time `json:"last_delivery_at,omitempty"`
}

// NewSubscription registers a subscription for ownerID at url, generating
// a fresh signing secret. A nil or empty events list subscribes to every
// event type.
func NewSubscription(ownerID, url string, events []EventType) (*Subscription, error) {
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	return &Subscription{
		Entity:  types.NewEntity(),
		ID:      id.New(id.PrefixWebhook),
		OwnerID: ownerID,
		URL:     url,
		Events:  events,
		Secret:  secret,
		Active:  true,
	}, nil
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}

// Subscribes reports whether this subscription wants eventType: active,
// and either its event set is empty (all events) or contains eventType.
func (s *Subscription) Subscribes(eventType EventType) bool {
	if !s.Active {
		return false
	}
	if len(s.Events) == 0 {
		return true
	}
	for _, e := range s.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

func (s *Subscription) recordDelivery(result DeliveryResult) {
	now := time.Now().UTC()
	s.TotalDeliveries++
	if result.Success {
		s.SuccessfulDeliveries++
		s.LastDeliveryAt = &now
	} else {
		s.FailedDeliveries++
	}
	s.Touch()
}
