package agent

import (
	"testing"

	"github.com/sardis-labs/core/id"
)

func TestNewAgent(t *testing.T) {
	walletID := id.NewWalletID()
	a := New("dev-123", "Procurement Bot", walletID, TrustMedium)

	if a.OwnerID != "dev-123" {
		t.Errorf("OwnerID: got %s, want dev-123", a.OwnerID)
	}
	if a.WalletID != walletID {
		t.Errorf("WalletID mismatch")
	}
	if !a.Active {
		t.Error("new agent should be active")
	}
	if a.TrustTier != TrustMedium {
		t.Errorf("TrustTier: got %s, want %s", a.TrustTier, TrustMedium)
	}
}

func TestAgentDeactivate(t *testing.T) {
	a := New("dev-1", "Bot", id.NewWalletID(), TrustLow)
	a.Deactivate()
	if a.Active {
		t.Error("agent should be inactive after Deactivate")
	}
}

func TestAgentRename(t *testing.T) {
	a := New("dev-1", "Old Name", id.NewWalletID(), TrustLow)
	a.Rename("New Name")
	if a.Name != "New Name" {
		t.Errorf("Name: got %s, want New Name", a.Name)
	}
}
