// Package wallet defines the Wallet entity: the semantic container that
// every agent and merchant owns exactly one of.
//
// A Wallet never carries a mutable balance field. Balances, held amounts,
// and availability are always obtained by calling into the ledger engine,
// which is the sole source of truth for monetary state. This satisfies the
// invariant that only the ledger engine mutates the monetary balance
// fields: a Wallet here is identity and limit metadata only.
package wallet

import (
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// PrincipalKind distinguishes the owning principal's role.
type PrincipalKind string

const (
	// PrincipalAgent marks a wallet owned by an autonomous agent.
	PrincipalAgent PrincipalKind = "agent"
	// PrincipalMerchant marks a wallet owned by a merchant.
	PrincipalMerchant PrincipalKind = "merchant"
)

// Wallet is a payment-identity container owned by exactly one principal
// (an agent or a merchant).
type Wallet struct {
	types.Entity

	ID            id.WalletID   `json:"id"`
	PrincipalID   id.ID         `json:"principal_id"` // agent or merchant ID
	PrincipalKind PrincipalKind `json:"principal_kind"`

	// PerTxLimit is the maximum amount any single debit may draw from this
	// wallet, regardless of policy. A zero value means "no wallet-level cap"
	// — merchants typically leave this unset, per spec §3's "effectively
	// unbounded receiving limits".
	PerTxLimit types.Money `json:"per_tx_limit,omitempty"`
	// LifetimeLimit is the cumulative cap on SpentTotal. Zero means unbounded.
	LifetimeLimit types.Money `json:"lifetime_limit,omitempty"`
	// SpentTotal is a running counter for wallet-level enforcement:
	// RecordSpend raises it and ReleaseSpend lowers it when a hold
	// reservation is released, never below zero.
	SpentTotal types.Money `json:"spent_total"`

	Active bool `json:"active"`

	// CardID optionally references the virtual card issued against this
	// wallet's payment identity.
	CardID id.CardID `json:"card_id,omitempty"`
}

// New creates a Wallet for the given principal. The caller is responsible
// for persisting it and for creating any backing ledger balance (a wallet
// with no entries has an implicit zero balance in every currency).
func New(principalID id.ID, kind PrincipalKind) *Wallet {
	return &Wallet{
		Entity:        types.NewEntity(),
		ID:            id.NewWalletID(),
		PrincipalID:   principalID,
		PrincipalKind: kind,
		Active:        true,
	}
}

// IsMerchant reports whether this wallet belongs to a merchant, which per
// spec §3 carries effectively unbounded receiving limits.
func (w *Wallet) IsMerchant() bool { return w.PrincipalKind == PrincipalMerchant }

// CanDebit reports whether amount respects this wallet's per-transaction
// limit. A zero PerTxLimit means no wallet-level cap is enforced here
// (policy-level limits, checked separately, still apply).
func (w *Wallet) CanDebit(amount types.Money) bool {
	if w.PerTxLimit.IsZero() {
		return true
	}
	return !amount.GreaterThan(w.PerTxLimit)
}

// WouldExceedLifetime reports whether adding amount to SpentTotal would
// breach LifetimeLimit. A zero LifetimeLimit means unbounded.
func (w *Wallet) WouldExceedLifetime(amount types.Money) bool {
	if w.LifetimeLimit.IsZero() {
		return false
	}
	spent := w.SpentTotal
	if spent.Currency == "" {
		spent = types.Zero(amount.Currency)
	}
	return spent.Add(amount).GreaterThan(w.LifetimeLimit)
}

// Deactivate soft-deletes the wallet: principals are created and
// deactivated but never deleted, preserving the audit trail.
func (w *Wallet) Deactivate() {
	w.Active = false
	w.Touch()
}

// RecordSpend increments SpentTotal. Called only by the orchestrator after
// a ledger commit succeeds — never speculatively.
func (w *Wallet) RecordSpend(amount types.Money) {
	if w.SpentTotal.Currency == "" {
		w.SpentTotal = types.Zero(amount.Currency)
	}
	w.SpentTotal = w.SpentTotal.Add(amount)
	w.Touch()
}

// ReleaseSpend decrements SpentTotal, e.g. when a hold reservation is
// voided or partially uncaptured. SpentTotal is clamped at zero.
func (w *Wallet) ReleaseSpend(amount types.Money) {
	next := w.SpentTotal.Subtract(amount)
	if next.IsNegative() {
		next = types.Zero(w.SpentTotal.Currency)
	}
	w.SpentTotal = next
	w.Touch()
}

// CreatedAgo is a convenience accessor mirroring types.Entity.Age, kept for
// symmetry with wallet listings that sort/filter by age.
func (w *Wallet) CreatedAgo() time.Duration { return w.Age() }
