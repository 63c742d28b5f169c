package wallet

import (
	"testing"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

func TestNewWallet(t *testing.T) {
	agentID := id.NewAgentID()
	w := New(agentID, PrincipalAgent)

	if w.PrincipalID != agentID {
		t.Errorf("PrincipalID: got %v, want %v", w.PrincipalID, agentID)
	}
	if !w.Active {
		t.Error("new wallet should be active")
	}
	if w.IsMerchant() {
		t.Error("agent wallet should not report IsMerchant")
	}
}

func TestWalletCanDebit(t *testing.T) {
	w := New(id.NewAgentID(), PrincipalAgent)
	w.PerTxLimit = types.USDC("100.00")

	tests := []struct {
		name   string
		amount types.Money
		want   bool
	}{
		{"under limit", types.USDC("50.00"), true},
		{"at limit", types.USDC("100.00"), true},
		{"over limit", types.USDC("100.01"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.CanDebit(tt.amount); got != tt.want {
				t.Errorf("CanDebit(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestWalletNoLimitMeansUnbounded(t *testing.T) {
	w := New(id.NewMerchantID(), PrincipalMerchant)
	if !w.CanDebit(types.USDC("1000000.00")) {
		t.Error("wallet with zero PerTxLimit should allow any amount")
	}
	if w.WouldExceedLifetime(types.USDC("1000000.00")) {
		t.Error("wallet with zero LifetimeLimit should never exceed")
	}
}

func TestWalletSpendTracking(t *testing.T) {
	w := New(id.NewAgentID(), PrincipalAgent)
	w.LifetimeLimit = types.USDC("100.00")

	w.RecordSpend(types.USDC("60.00"))
	if !w.SpentTotal.Equal(types.USDC("60.00")) {
		t.Errorf("SpentTotal: got %v, want 60.00", w.SpentTotal)
	}
	if w.WouldExceedLifetime(types.USDC("30.00")) {
		t.Error("60+30=90 should not exceed 100 lifetime limit")
	}
	if !w.WouldExceedLifetime(types.USDC("50.00")) {
		t.Error("60+50=110 should exceed 100 lifetime limit")
	}

	w.ReleaseSpend(types.USDC("60.00"))
	if !w.SpentTotal.IsZero() {
		t.Errorf("SpentTotal after release: got %v, want 0", w.SpentTotal)
	}

	// Releasing more than spent clamps at zero rather than going negative.
	w.ReleaseSpend(types.USDC("10.00"))
	if !w.SpentTotal.IsZero() {
		t.Errorf("SpentTotal should clamp at zero, got %v", w.SpentTotal)
	}
}

func TestWalletDeactivate(t *testing.T) {
	w := New(id.NewAgentID(), PrincipalAgent)
	w.Deactivate()
	if w.Active {
		t.Error("wallet should be inactive after Deactivate")
	}
}
