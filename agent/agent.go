// Package agent defines the Agent entity: an autonomous software principal
// that owns a wallet and initiates payments, per spec §3.
package agent

import (
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// TrustTier is the coarse trust classification driving default spending
// policy limits.
type TrustTier string

const (
	TrustLow       TrustTier = "LOW"
	TrustMedium    TrustTier = "MEDIUM"
	TrustHigh      TrustTier = "HIGH"
	TrustUnlimited TrustTier = "UNLIMITED"
)

// Agent is a named, owner-scoped principal that references exactly one
// wallet. Agents are created and deactivated, never deleted — soft delete
// preserves the audit trail.
type Agent struct {
	types.Entity

	ID       id.AgentID `json:"id"`
	OwnerID  string     `json:"owner_id"` // opaque developer/tenant identifier
	Name     string     `json:"name"`
	WalletID id.WalletID `json:"wallet_id"`

	TrustTier TrustTier `json:"trust_tier"`
	Active    bool      `json:"active"`

	// Metadata carries caller-supplied descriptive attributes (e.g. the
	// LLM model or task the agent embodies). Opaque to the core.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// New creates an Agent owned by ownerID, referencing walletID, with the
// given initial trust tier.
func New(ownerID, name string, walletID id.WalletID, tier TrustTier) *Agent {
	return &Agent{
		Entity:    types.NewEntity(),
		ID:        id.NewAgentID(),
		OwnerID:   ownerID,
		Name:      name,
		WalletID:  walletID,
		TrustTier: tier,
		Active:    true,
	}
}

// Deactivate soft-deletes the agent.
func (a *Agent) Deactivate() {
	a.Active = false
	a.Touch()
}

// Rename updates the agent's display name.
func (a *Agent) Rename(name string) {
	a.Name = name
	a.Touch()
}
