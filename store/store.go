// Package store defines the unified persistence interface for Sardis
// entity and subscription state. Ledger entries, transactions, and
// checkpoints are NOT part of this interface — those are owned by
// ledger.Persister, which a Store implementation typically also
// satisfies so a single backing database serves both.
package store

import (
	"context"
	"errors"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/card"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/wallet"
	"github.com/sardis-labs/core/webhook"
)

// ErrNotFound is returned by any Get-style method when the requested
// record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned by a Save/Create call when a record with
// the same identity already exists.
var ErrAlreadyExists = errors.New("store: already exists")

// Store is the unified storage interface for all Sardis entities.
// Methods are declared explicitly rather than via embedded
// sub-interfaces to avoid naming collisions between entity kinds that
// share verbs (e.g. Get, Save).
type Store interface {
	// Wallet methods
	SaveWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, w *wallet.Wallet) error
	ListWalletsByPrincipal(ctx context.Context, principalID id.ID) ([]*wallet.Wallet, error)

	// Agent methods
	SaveAgent(ctx context.Context, a *agent.Agent) error
	GetAgent(ctx context.Context, agentID id.AgentID) (*agent.Agent, error)
	UpdateAgent(ctx context.Context, a *agent.Agent) error
	ListAgentsByOwner(ctx context.Context, ownerID string) ([]*agent.Agent, error)

	// Merchant methods
	SaveMerchant(ctx context.Context, m *merchant.Merchant) error
	GetMerchant(ctx context.Context, merchantID id.MerchantID) (*merchant.Merchant, error)
	UpdateMerchant(ctx context.Context, m *merchant.Merchant) error
	ListMerchantsByOwner(ctx context.Context, ownerID string) ([]*merchant.Merchant, error)

	// Virtual card methods
	SaveCard(ctx context.Context, c *card.Card) error
	GetCard(ctx context.Context, cardID id.CardID) (*card.Card, error)
	GetCardByWallet(ctx context.Context, walletID id.WalletID) (*card.Card, error)
	UpdateCard(ctx context.Context, c *card.Card) error

	// Spending policy methods
	SavePolicy(ctx context.Context, p *policy.SpendingPolicy) error
	GetPolicy(ctx context.Context, agentID id.AgentID) (*policy.SpendingPolicy, error)
	UpdatePolicy(ctx context.Context, p *policy.SpendingPolicy) error

	// Payment hold methods
	SaveHold(ctx context.Context, h *orchestrator.PaymentHold) error
	GetHold(ctx context.Context, holdID id.HoldID) (*orchestrator.PaymentHold, error)
	UpdateHold(ctx context.Context, h *orchestrator.PaymentHold) error
	ListActiveHoldsByWallet(ctx context.Context, walletID id.WalletID) ([]*orchestrator.PaymentHold, error)

	// Webhook subscription methods
	SaveSubscription(ctx context.Context, s *webhook.Subscription) error
	GetSubscription(ctx context.Context, subID id.WebhookID) (*webhook.Subscription, error)
	UpdateSubscription(ctx context.Context, s *webhook.Subscription) error
	DeleteSubscription(ctx context.Context, subID id.WebhookID) error
	ListSubscriptionsByOwner(ctx context.Context, ownerID string) ([]*webhook.Subscription, error)

	// Idempotency methods. SeenIdempotencyKey returns the transaction ID
	// previously associated with key, if any, and ok=false otherwise.
	RecordIdempotencyKey(ctx context.Context, key string, txID id.TransactionID) error
	SeenIdempotencyKey(ctx context.Context, key string) (txID id.TransactionID, ok bool, err error)

	// Core management
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
