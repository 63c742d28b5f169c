package orchestrator

import (
	"context"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
)

// WalletStore resolves and persists wallet identity/limit metadata. The
// orchestrator never reads a wallet's balance off this interface — that
// always comes from the ledger engine.
type WalletStore interface {
	GetWallet(ctx context.Context, id id.WalletID) (*wallet.Wallet, error)
	SaveWallet(ctx context.Context, w *wallet.Wallet) error
}

// AgentStore resolves agents.
type AgentStore interface {
	GetAgent(ctx context.Context, id id.AgentID) (*agent.Agent, error)
}

// MerchantStore resolves merchants.
type MerchantStore interface {
	GetMerchant(ctx context.Context, id id.MerchantID) (*merchant.Merchant, error)
}

// PolicyStore resolves the spending policy governing an agent. A nil,
// nil return means "no policy configured" — the orchestrator treats
// that as unrestricted.
type PolicyStore interface {
	GetPolicy(ctx context.Context, agentID id.AgentID) (*policy.SpendingPolicy, error)
}

// RiskProfileStore resolves an agent's risk history and records
// post-confirmation outcomes.
type RiskProfileStore interface {
	GetAgentProfile(ctx context.Context, agentID id.AgentID) (risk.AgentProfile, error)
	RecordOutcome(ctx context.Context, agentID id.AgentID, success bool, amount types.Money, recipient id.WalletID, category string)
}

// HoldStore persists PaymentHold records.
type HoldStore interface {
	SaveHold(ctx context.Context, h *PaymentHold) error
	GetHold(ctx context.Context, id id.HoldID) (*PaymentHold, error)
	UpdateHold(ctx context.Context, h *PaymentHold) error
}

// EventEmitter is the narrow slice of the webhook manager the
// orchestrator depends on.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload map[string]any)
}

func merchantProfile(m *merchant.Merchant) *risk.MerchantProfile {
	if m == nil {
		return &risk.MerchantProfile{Found: false}
	}
	return &risk.MerchantProfile{
		Found:       true,
		TrustScore:  m.TrustScore,
		AgeDays:     int(m.Age().Hours() / 24),
		DisputeRate: m.DisputeRate,
		RefundRate:  m.RefundRate,
		Verified:    m.Verified,
	}
}
