package observability

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

type fakeCounter struct {
	count int
	total float64
}

func (c *fakeCounter) Inc()          { c.count++ }
func (c *fakeCounter) Add(v float64) { c.total += v }

type fakeHistogram struct {
	observations []float64
}

func (h *fakeHistogram) Observe(v float64) { h.observations = append(h.observations, v) }

type fakeFactory struct {
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) Counter {
	c := &fakeCounter{}
	f.counters[name] = c
	return c
}

func (f *fakeFactory) Histogram(name string) Histogram {
	h := &fakeHistogram{}
	f.histograms[name] = h
	return h
}

func TestMetricsExtensionPaymentHooks(t *testing.T) {
	factory := newFakeFactory()
	ext := NewMetricsExtension(factory)

	require.NoError(t, ext.OnPaymentInitiated(context.Background(), id.NewAgentID(), types.USDC("10.00")))
	require.Equal(t, 1, factory.counters["sardis.payment.initiated"].count)
	require.Len(t, factory.histograms["sardis.payment.amount"].observations, 1)

	tx := &ledger.Transaction{Entity: types.NewEntity(), ID: id.NewTransactionID()}
	require.NoError(t, ext.OnPaymentCompleted(context.Background(), tx))
	require.Equal(t, 1, factory.counters["sardis.payment.completed"].count)

	require.NoError(t, ext.OnPaymentFailed(context.Background(), id.NewAgentID(), "insufficient_balance"))
	require.Equal(t, 1, factory.counters["sardis.payment.failed"].count)

	require.NoError(t, ext.OnPaymentRefunded(context.Background(), id.NewTransactionID(), tx))
	require.Equal(t, 1, factory.counters["sardis.payment.refunded"].count)
}

func TestMetricsExtensionHoldHooks(t *testing.T) {
	factory := newFakeFactory()
	ext := NewMetricsExtension(factory)

	require.NoError(t, ext.OnHoldCreated(context.Background(), id.NewHoldID(), types.USDC("5.00")))
	require.Equal(t, 1, factory.counters["sardis.hold.created"].count)

	tx := &ledger.Transaction{Entity: types.NewEntity(), ID: id.NewTransactionID()}
	require.NoError(t, ext.OnHoldCaptured(context.Background(), id.NewHoldID(), tx))
	require.Equal(t, 1, factory.counters["sardis.hold.captured"].count)

	require.NoError(t, ext.OnHoldVoided(context.Background(), id.NewHoldID()))
	require.Equal(t, 1, factory.counters["sardis.hold.voided"].count)
}

func TestMetricsExtensionRiskHooksSeparateDenyFromApprove(t *testing.T) {
	factory := newFakeFactory()
	ext := NewMetricsExtension(factory)

	agentID := id.NewAgentID()
	require.NoError(t, ext.OnRiskDecision(context.Background(), agentID, risk.Decision{Action: risk.ActionApprove, FinalScore: 10}))
	require.Equal(t, 1, factory.counters["sardis.risk.evaluations"].count)
	require.Equal(t, 0, factory.counters["sardis.risk.denied"].count)

	require.NoError(t, ext.OnRiskDecision(context.Background(), agentID, risk.Decision{Action: risk.ActionDeny, FinalScore: 90}))
	require.Equal(t, 2, factory.counters["sardis.risk.evaluations"].count)
	require.Equal(t, 1, factory.counters["sardis.risk.denied"].count)

	require.NoError(t, ext.OnFraudDetected(context.Background(), agentID, risk.Decision{Action: risk.ActionDeny}))
	require.Equal(t, 1, factory.counters["sardis.fraud.detected"].count)
}

func TestMetricsExtensionWebhookHookTracksSuccessAndFailure(t *testing.T) {
	factory := newFakeFactory()
	ext := NewMetricsExtension(factory)

	require.NoError(t, ext.OnWebhookDelivered(context.Background(), id.NewWebhookID(), "payment.completed", true, 120*time.Millisecond))
	require.Equal(t, 1, factory.counters["sardis.webhook.delivered"].count)
	require.Equal(t, 0, factory.counters["sardis.webhook.failed"].count)

	require.NoError(t, ext.OnWebhookDelivered(context.Background(), id.NewWebhookID(), "payment.completed", false, 5*time.Second))
	require.Equal(t, 1, factory.counters["sardis.webhook.failed"].count)
	require.Len(t, factory.histograms["sardis.webhook.delivery_ms"].observations, 2)
}

func TestMetricsExtensionName(t *testing.T) {
	ext := NewMetricsExtension(newFakeFactory())
	require.Equal(t, "observability-metrics", ext.Name())
	require.NoError(t, ext.OnInit(context.Background(), nil))
}
