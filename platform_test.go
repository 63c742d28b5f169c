package sardis

import (
	"context"
	"testing"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/store/memory"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
	"github.com/stretchr/testify/require"
)

func newTestPlatform(t *testing.T) *Platform {
	t.Helper()
	st := memory.New()
	p := New(st)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop(context.Background()) })
	return p
}

func TestNewWiresAllSubsystems(t *testing.T) {
	p := newTestPlatform(t)
	require.NotNil(t, p.Orchestrator())
	require.NotNil(t, p.Webhooks())
	require.NotNil(t, p.Plugins())
	require.NotNil(t, p.Settlement())
	require.NotNil(t, p.Risk())
	require.False(t, p.TreasuryWallet().String() == "")
}

func TestPlatformEndToEndPayment(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	agentWallet := wallet.New(id.NewAgentID(), wallet.PrincipalAgent)
	require.NoError(t, p.Store().SaveWallet(ctx, agentWallet))

	a := agent.New("owner-1", "payments-bot", agentWallet.ID, agent.TrustMedium)
	require.NoError(t, p.Store().SaveAgent(ctx, a))

	merchantWallet := wallet.New(id.NewMerchantID(), wallet.PrincipalMerchant)
	require.NoError(t, p.Store().SaveWallet(ctx, merchantWallet))

	m := merchant.New("owner-2", "Acme Cloud", "infrastructure", merchantWallet.ID)
	require.NoError(t, p.Store().SaveMerchant(ctx, m))

	_, err := p.ledger.Mint(ctx, agentWallet.ID, types.USDC("100.00"), "test funding")
	require.NoError(t, err)

	result := p.Orchestrator().Pay(ctx, orchestrator.PayRequest{
		AgentID:         a.ID,
		Amount:          types.USDC("25.00"),
		RecipientWallet: merchantWallet.ID,
		MerchantID:      m.ID,
		Purpose:         "compute",
		IdempotencyKey:  "pay-1",
	})

	require.True(t, result.Success, "payment failed: %s %s", result.Error, result.Message)
	require.Equal(t, orchestrator.StatusCompleted, result.Status, "message: %s", result.Message)
	require.True(t, p.ledger.GetBalance(merchantWallet.ID, "usdc").GreaterThan(types.Zero("usdc")))

	replay := p.Orchestrator().Pay(ctx, orchestrator.PayRequest{
		AgentID:         a.ID,
		Amount:          types.USDC("25.00"),
		RecipientWallet: merchantWallet.ID,
		MerchantID:      m.ID,
		Purpose:         "compute",
		IdempotencyKey:  "pay-1",
	})
	require.Equal(t, orchestrator.ErrIdempotentReplay, replay.Error)
}

func TestWithPluginRegistersBeforeStart(t *testing.T) {
	st := memory.New()
	calls := 0
	p := New(st, WithPlugin(&initCounterPlugin{onInit: func() { calls++ }}))
	require.NoError(t, p.Start(context.Background()))
	require.Equal(t, 1, calls)
	require.NoError(t, p.Stop(context.Background()))
}

type initCounterPlugin struct {
	onInit func()
}

func (p *initCounterPlugin) Name() string { return "init-counter" }
func (p *initCounterPlugin) OnInit(_ context.Context, _ interface{}) error {
	p.onInit()
	return nil
}
