// Package plugin provides an extensible, in-process lifecycle-hook
// system for Sardis. Plugins hook into ledger, orchestrator, and webhook
// events to extend functionality without the core packages depending on
// them.
package plugin

import (
	"context"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
)

// Plugin is the base interface every plugin must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized, receiving the
// platform's shared logger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, logger interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated is called before a payment is validated and
// committed.
type OnPaymentInitiated interface {
	Plugin
	OnPaymentInitiated(ctx context.Context, agentID id.AgentID, amount types.Money) error
}

// OnPaymentCompleted is called after a payment transfer commits.
type OnPaymentCompleted interface {
	Plugin
	OnPaymentCompleted(ctx context.Context, tx *ledger.Transaction) error
}

// OnPaymentFailed is called when a payment is rejected at any pipeline
// stage.
type OnPaymentFailed interface {
	Plugin
	OnPaymentFailed(ctx context.Context, agentID id.AgentID, reason string) error
}

// OnPaymentRefunded is called after a refund transaction commits.
type OnPaymentRefunded interface {
	Plugin
	OnPaymentRefunded(ctx context.Context, originalTxID id.TransactionID, refundTx *ledger.Transaction) error
}

// ──────────────────────────────────────────────────
// Hold lifecycle hooks
// ──────────────────────────────────────────────────

// OnHoldCreated is called after a reservation hold commits.
type OnHoldCreated interface {
	Plugin
	OnHoldCreated(ctx context.Context, holdID id.HoldID, amount types.Money) error
}

// OnHoldCaptured is called after a hold's reservation is captured.
type OnHoldCaptured interface {
	Plugin
	OnHoldCaptured(ctx context.Context, holdID id.HoldID, captureTx *ledger.Transaction) error
}

// OnHoldVoided is called after a hold's reservation is released without
// capture.
type OnHoldVoided interface {
	Plugin
	OnHoldVoided(ctx context.Context, holdID id.HoldID) error
}

// ──────────────────────────────────────────────────
// Limit hooks
// ──────────────────────────────────────────────────

// OnLimitExceeded is called when a policy or wallet-level limit blocks a
// request.
type OnLimitExceeded interface {
	Plugin
	OnLimitExceeded(ctx context.Context, agentID id.AgentID, reason string) error
}

// OnLimitWarning is called when a spend approaches, without yet
// breaching, a configured limit.
type OnLimitWarning interface {
	Plugin
	OnLimitWarning(ctx context.Context, agentID id.AgentID, remaining types.Money) error
}

// ──────────────────────────────────────────────────
// Risk hooks
// ──────────────────────────────────────────────────

// OnRiskDecision is called after every risk pipeline evaluation,
// regardless of outcome.
type OnRiskDecision interface {
	Plugin
	OnRiskDecision(ctx context.Context, agentID id.AgentID, decision risk.Decision) error
}

// OnFraudDetected is called when a risk decision's action is DENY.
type OnFraudDetected interface {
	Plugin
	OnFraudDetected(ctx context.Context, agentID id.AgentID, decision risk.Decision) error
}

// ──────────────────────────────────────────────────
// Entity lifecycle hooks
// ──────────────────────────────────────────────────

// OnWalletCreated is called when a new wallet is provisioned.
type OnWalletCreated interface {
	Plugin
	OnWalletCreated(ctx context.Context, walletID id.WalletID) error
}

// OnWalletFunded is called when external funds are minted into a
// wallet.
type OnWalletFunded interface {
	Plugin
	OnWalletFunded(ctx context.Context, walletID id.WalletID, amount types.Money) error
}

// OnAgentDeactivated is called when an agent's wallet is deactivated.
type OnAgentDeactivated interface {
	Plugin
	OnAgentDeactivated(ctx context.Context, agentID id.AgentID) error
}

// ──────────────────────────────────────────────────
// Service (virtual card) authorization hooks
// ──────────────────────────────────────────────────

// OnServiceAuthorized is called when a virtual card authorizes a
// pending charge.
type OnServiceAuthorized interface {
	Plugin
	OnServiceAuthorized(ctx context.Context, cardID id.CardID, amount types.Money) error
}

// OnServiceRevoked is called when a virtual card is suspended or
// cancelled.
type OnServiceRevoked interface {
	Plugin
	OnServiceRevoked(ctx context.Context, cardID id.CardID, reason string) error
}

// ──────────────────────────────────────────────────
// Webhook delivery hooks
// ──────────────────────────────────────────────────

// OnWebhookDelivered is called after an outbound event delivery attempt
// sequence concludes, successfully or not.
type OnWebhookDelivered interface {
	Plugin
	OnWebhookDelivered(ctx context.Context, subscriptionID id.WebhookID, eventType string, success bool, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Fee pricing strategies
// ──────────────────────────────────────────────────

// FeePricingStrategy lets a plugin supply a custom fee schedule instead
// of the orchestrator's default flat pricer.
type FeePricingStrategy interface {
	Plugin
	StrategyName() string
	Fee(amount types.Money) types.Money
}

// ──────────────────────────────────────────────────
// Settlement drivers
// ──────────────────────────────────────────────────

// SettlementDriverPlugin exposes an optional on-chain settlement driver
// (settlement.Driver) through the plugin registry rather than requiring
// direct wiring.
type SettlementDriverPlugin interface {
	Plugin
	Driver() interface{} // returns settlement.Driver
}
