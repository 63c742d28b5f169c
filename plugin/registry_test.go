package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
	"github.com/stretchr/testify/require"
)

type recordingPlugin struct {
	name     string
	captured []string
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) OnPaymentCompleted(_ context.Context, tx *ledger.Transaction) error {
	p.captured = append(p.captured, "payment.completed:"+tx.ID.String())
	return nil
}

func (p *recordingPlugin) OnFraudDetected(_ context.Context, agentID id.AgentID, decision risk.Decision) error {
	p.captured = append(p.captured, "fraud.detected:"+agentID.String())
	return nil
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }
func (slowPlugin) OnShutdown(ctx context.Context) error {
	select {
	case <-time.After(10 * time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRegistryDispatchesOnlyToImplementors(t *testing.T) {
	r := NewRegistry()
	p := &recordingPlugin{name: "test"}
	require.NoError(t, r.Register(p))

	tx := &ledger.Transaction{Entity: types.NewEntity(), ID: id.NewTransactionID()}
	r.EmitPaymentCompleted(context.Background(), tx)

	require.Len(t, p.captured, 1)
	require.Contains(t, p.captured[0], "payment.completed")
}

func TestRegistryFraudDetectedOnlyOnDeny(t *testing.T) {
	r := NewRegistry()
	p := &recordingPlugin{name: "test"}
	require.NoError(t, r.Register(p))

	agentID := id.NewAgentID()
	r.EmitRiskDecision(context.Background(), agentID, risk.Decision{Action: risk.ActionApprove})
	require.Empty(t, p.captured)

	r.EmitRiskDecision(context.Background(), agentID, risk.Decision{Action: risk.ActionDeny})
	require.Len(t, p.captured, 1)
	require.Contains(t, p.captured[0], "fraud.detected")
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&recordingPlugin{name: "dup"}))
	err := r.Register(&recordingPlugin{name: "dup"})
	require.Error(t, err)
}

func TestRegistryCallTimesOutSlowPlugin(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(slowPlugin{}))

	start := time.Now()
	r.EmitShutdown(context.Background())
	require.Less(t, time.Since(start), 6*time.Second)
}
