// Package merchant defines the Merchant entity: a receiving principal with
// effectively unbounded spending limits on the receive side, per spec §3.
package merchant

import (
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Merchant is a named, owner-scoped receiving principal that references
// exactly one wallet. It carries reputation metadata consumed by the risk
// engine's Merchant Reputation rule.
type Merchant struct {
	types.Entity

	ID       id.MerchantID `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	WalletID id.WalletID   `json:"wallet_id"`

	Active   bool `json:"active"`
	Verified bool `json:"verified"`

	// Reputation fields consumed by risk.MerchantReputationRule.
	TrustScore   float64 `json:"trust_score"`   // 0-100
	DisputeRate  float64 `json:"dispute_rate"`  // fraction, 0-1
	RefundRate   float64 `json:"refund_rate"`   // fraction, 0-1
}

// New creates a Merchant owned by ownerID, referencing walletID.
// New merchants start with a neutral trust score of 50 until reputation
// data accrues.
func New(ownerID, name, category string, walletID id.WalletID) *Merchant {
	return &Merchant{
		Entity:     types.NewEntity(),
		ID:         id.NewMerchantID(),
		OwnerID:    ownerID,
		Name:       name,
		Category:   category,
		WalletID:   walletID,
		Active:     true,
		TrustScore: 50,
	}
}

// Deactivate soft-deletes the merchant.
func (m *Merchant) Deactivate() {
	m.Active = false
	m.Touch()
}

// RecordDispute updates the rolling dispute rate. totalTx is the
// merchant's lifetime transaction count prior to this dispute.
func (m *Merchant) RecordDispute(totalTx int64) {
	if totalTx <= 0 {
		m.DisputeRate = 1
		m.Touch()
		return
	}
	disputes := m.DisputeRate*float64(totalTx) + 1
	m.DisputeRate = disputes / float64(totalTx+1)
	m.Touch()
}

// ZeroBalanceLimit returns a zero Money in the given currency, documenting
// that merchants carry no wallet-level receive cap — per spec §3's
// "effectively unbounded receiving limits", a zero limit means "unbounded"
// by convention shared with wallet.Wallet.LifetimeLimit.
func ZeroBalanceLimit(currency string) types.Money { return types.Zero(currency) }
