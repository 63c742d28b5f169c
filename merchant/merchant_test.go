package merchant

import (
	"testing"

	"github.com/sardis-labs/core/id"
)

func TestNewMerchant(t *testing.T) {
	walletID := id.NewWalletID()
	m := New("dev-1", "Acme Cloud", "infra", walletID)

	if m.WalletID != walletID {
		t.Error("WalletID mismatch")
	}
	if !m.Active {
		t.Error("new merchant should be active")
	}
	if m.TrustScore != 50 {
		t.Errorf("TrustScore: got %v, want 50", m.TrustScore)
	}
}

func TestMerchantRecordDispute(t *testing.T) {
	m := New("dev-1", "Acme", "infra", id.NewWalletID())
	m.RecordDispute(99)
	if m.DisputeRate <= 0 {
		t.Errorf("DisputeRate should increase after a dispute, got %v", m.DisputeRate)
	}
}

func TestMerchantDeactivate(t *testing.T) {
	m := New("dev-1", "Acme", "infra", id.NewWalletID())
	m.Deactivate()
	if m.Active {
		t.Error("merchant should be inactive after Deactivate")
	}
}
