package policy

import (
	"testing"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
	"github.com/stretchr/testify/require"
)

func TestPolicyPerTransactionLimit(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	p.LimitPerTx = types.USDC("100.00")

	d := p.Evaluate(EvalRequest{Amount: types.USDC("150.00"), Scope: ScopeAll, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonPerTransactionLimit, d.Reason)
}

func TestPolicyLifetimeLimit(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	p.LimitTotal = types.USDC("1000.00")
	p.SpentTotal = types.USDC("950.00")

	d := p.Evaluate(EvalRequest{Amount: types.USDC("60.00"), Scope: ScopeAll, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonTotalLimit, d.Reason)
}

func TestPolicyDailyWindow(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	now := time.Now().UTC()
	p.WithWindow(WindowDaily, types.USDC("100.00"))
	p.Windows[0].WindowStart = now

	d := p.Evaluate(EvalRequest{Amount: types.USDC("80.00"), Scope: ScopeAll, Now: now})
	require.True(t, d.Approved)
	p.RecordSpend(types.USDC("80.00"))

	d = p.Evaluate(EvalRequest{Amount: types.USDC("30.00"), Scope: ScopeAll, Now: now})
	require.False(t, d.Approved)
	require.Equal(t, ReasonDailyLimit, d.Reason)

	// Window resets after 24h.
	d = p.Evaluate(EvalRequest{Amount: types.USDC("30.00"), Scope: ScopeAll, Now: now.Add(25 * time.Hour)})
	require.True(t, d.Approved)
}

func TestPolicyScope(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	p.AllowedScopes = []Scope{"purchase"}

	d := p.Evaluate(EvalRequest{Amount: types.USDC("10.00"), Scope: "refund", Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonScopeNotAllowed, d.Reason)

	d = p.Evaluate(EvalRequest{Amount: types.USDC("10.00"), Scope: "purchase", Now: time.Now().UTC()})
	require.True(t, d.Approved)
}

func TestPolicyMerchantDeny(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	blocked := id.NewMerchantID()
	p.Rules = []MerchantRule{{MerchantID: blocked, Action: MerchantDeny, Active: true}}

	d := p.Evaluate(EvalRequest{Amount: types.USDC("10.00"), MerchantID: &blocked, Scope: ScopeAll, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonMerchantBlocked, d.Reason)
}

func TestPolicyMerchantAllowList(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	allowed := id.NewMerchantID()
	other := id.NewMerchantID()
	maxPerTx := types.USDC("50.00")
	p.Rules = []MerchantRule{{MerchantID: allowed, Action: MerchantAllow, Active: true, MaxPerTx: maxPerTx}}

	d := p.Evaluate(EvalRequest{Amount: types.USDC("10.00"), MerchantID: &other, Scope: ScopeAll, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonMerchantNotAllowed, d.Reason)

	d = p.Evaluate(EvalRequest{Amount: types.USDC("60.00"), MerchantID: &allowed, Scope: ScopeAll, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonMerchantSpecificCap, d.Reason)

	d = p.Evaluate(EvalRequest{Amount: types.USDC("40.00"), MerchantID: &allowed, Scope: ScopeAll, Now: time.Now().UTC()})
	require.True(t, d.Approved)
}

func TestPolicyMerchantCategoryDeny(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	p.Rules = []MerchantRule{{Category: "gambling", Action: MerchantDeny, Active: true}}

	unrelated := id.NewMerchantID()
	d := p.Evaluate(EvalRequest{
		Amount: types.USDC("10.00"), MerchantID: &unrelated, MerchantCategory: "gambling",
		Scope: ScopeAll, Now: time.Now().UTC(),
	})
	require.False(t, d.Approved)
	require.Equal(t, ReasonMerchantBlocked, d.Reason)

	d = p.Evaluate(EvalRequest{
		Amount: types.USDC("10.00"), MerchantID: &unrelated, MerchantCategory: "compute",
		Scope: ScopeAll, Now: time.Now().UTC(),
	})
	require.True(t, d.Approved)
}

func TestPolicyMerchantAllowListByCategory(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	p.Rules = []MerchantRule{{Category: "infrastructure", Action: MerchantAllow, Active: true}}

	m := id.NewMerchantID()
	d := p.Evaluate(EvalRequest{
		Amount: types.USDC("10.00"), MerchantID: &m, MerchantCategory: "retail",
		Scope: ScopeAll, Now: time.Now().UTC(),
	})
	require.False(t, d.Approved)
	require.Equal(t, ReasonMerchantNotAllowed, d.Reason)

	d = p.Evaluate(EvalRequest{
		Amount: types.USDC("10.00"), MerchantID: &m, MerchantCategory: "infrastructure",
		Scope: ScopeAll, Now: time.Now().UTC(),
	})
	require.True(t, d.Approved)
}

func TestPolicyDriftAndApproval(t *testing.T) {
	p := New(id.NewAgentID(), "usdc")
	maxDrift := 0.5
	p.MaxDriftScore = &maxDrift
	drift := 0.9

	d := p.Evaluate(EvalRequest{Amount: types.USDC("10.00"), Scope: ScopeAll, DriftScore: &drift, Now: time.Now().UTC()})
	require.False(t, d.Approved)
	require.Equal(t, ReasonGoalDriftExceeded, d.Reason)

	p.MaxDriftScore = nil
	threshold := types.USDC("100.00")
	p.ApprovalThreshold = &threshold

	d = p.Evaluate(EvalRequest{Amount: types.USDC("150.00"), Scope: ScopeAll, Now: time.Now().UTC()})
	require.True(t, d.Approved)
	require.True(t, d.RequiresApproval)
}
