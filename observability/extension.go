// Package observability provides a metrics extension for Sardis that
// records lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/plugin"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnPaymentInitiated  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCompleted  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentFailed     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRefunded   = (*MetricsExtension)(nil)
	_ plugin.OnHoldCreated       = (*MetricsExtension)(nil)
	_ plugin.OnHoldCaptured      = (*MetricsExtension)(nil)
	_ plugin.OnHoldVoided        = (*MetricsExtension)(nil)
	_ plugin.OnLimitExceeded     = (*MetricsExtension)(nil)
	_ plugin.OnRiskDecision      = (*MetricsExtension)(nil)
	_ plugin.OnFraudDetected     = (*MetricsExtension)(nil)
	_ plugin.OnWalletFunded      = (*MetricsExtension)(nil)
	_ plugin.OnWebhookDelivered  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics. Register it
// as a Sardis plugin to automatically track payment-pipeline metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Payment metrics
	PaymentInitiated Counter
	PaymentCompleted Counter
	PaymentFailed    Counter
	PaymentRefunded  Counter
	PaymentAmount    Histogram

	// Hold metrics
	HoldCreated  Counter
	HoldCaptured Counter
	HoldVoided   Counter

	// Limit metrics
	LimitExceeded Counter

	// Risk metrics
	RiskEvaluations Counter
	RiskDenied      Counter
	RiskReview      Counter
	FraudDetected   Counter
	RiskScore       Histogram

	// Wallet metrics
	WalletFunded Counter

	// Webhook metrics
	WebhookDelivered    Counter
	WebhookFailed       Counter
	WebhookDeliveryTime Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided
// MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PaymentInitiated: factory.Counter("sardis.payment.initiated"),
		PaymentCompleted: factory.Counter("sardis.payment.completed"),
		PaymentFailed:    factory.Counter("sardis.payment.failed"),
		PaymentRefunded:  factory.Counter("sardis.payment.refunded"),
		PaymentAmount:    factory.Histogram("sardis.payment.amount"),

		HoldCreated:  factory.Counter("sardis.hold.created"),
		HoldCaptured: factory.Counter("sardis.hold.captured"),
		HoldVoided:   factory.Counter("sardis.hold.voided"),

		LimitExceeded: factory.Counter("sardis.limit.exceeded"),

		RiskEvaluations: factory.Counter("sardis.risk.evaluations"),
		RiskDenied:      factory.Counter("sardis.risk.denied"),
		RiskReview:      factory.Counter("sardis.risk.review"),
		FraudDetected:   factory.Counter("sardis.fraud.detected"),
		RiskScore:       factory.Histogram("sardis.risk.score"),

		WalletFunded: factory.Counter("sardis.wallet.funded"),

		WebhookDelivered:    factory.Counter("sardis.webhook.delivered"),
		WebhookFailed:       factory.Counter("sardis.webhook.failed"),
		WebhookDeliveryTime: factory.Histogram("sardis.webhook.delivery_ms"),

		StoreErrors:  factory.Counter("sardis.store.errors"),
		PluginErrors: factory.Counter("sardis.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error { return nil }

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnPaymentInitiated(_ context.Context, _ id.AgentID, amount types.Money) error {
	m.PaymentInitiated.Inc()
	m.PaymentAmount.Observe(amount.Amount.InexactFloat64())
	return nil
}

func (m *MetricsExtension) OnPaymentCompleted(_ context.Context, _ *ledger.Transaction) error {
	m.PaymentCompleted.Inc()
	return nil
}

func (m *MetricsExtension) OnPaymentFailed(_ context.Context, _ id.AgentID, _ string) error {
	m.PaymentFailed.Inc()
	return nil
}

func (m *MetricsExtension) OnPaymentRefunded(_ context.Context, _ id.TransactionID, _ *ledger.Transaction) error {
	m.PaymentRefunded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Hold lifecycle hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnHoldCreated(_ context.Context, _ id.HoldID, _ types.Money) error {
	m.HoldCreated.Inc()
	return nil
}

func (m *MetricsExtension) OnHoldCaptured(_ context.Context, _ id.HoldID, _ *ledger.Transaction) error {
	m.HoldCaptured.Inc()
	return nil
}

func (m *MetricsExtension) OnHoldVoided(_ context.Context, _ id.HoldID) error {
	m.HoldVoided.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Limit hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnLimitExceeded(_ context.Context, _ id.AgentID, _ string) error {
	m.LimitExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Risk hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnRiskDecision(_ context.Context, _ id.AgentID, decision risk.Decision) error {
	m.RiskEvaluations.Inc()
	m.RiskScore.Observe(decision.FinalScore)
	switch decision.Action {
	case risk.ActionDeny:
		m.RiskDenied.Inc()
	case risk.ActionReview:
		m.RiskReview.Inc()
	}
	return nil
}

func (m *MetricsExtension) OnFraudDetected(_ context.Context, _ id.AgentID, _ risk.Decision) error {
	m.FraudDetected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnWalletFunded(_ context.Context, _ id.WalletID, amount types.Money) error {
	m.WalletFunded.Inc()
	m.PaymentAmount.Observe(amount.Amount.InexactFloat64())
	return nil
}

// ──────────────────────────────────────────────────
// Webhook hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnWebhookDelivered(_ context.Context, _ id.WebhookID, _ string, success bool, elapsed time.Duration) error {
	if success {
		m.WebhookDelivered.Inc()
	} else {
		m.WebhookFailed.Inc()
	}
	m.WebhookDeliveryTime.Observe(float64(elapsed.Milliseconds()))
	return nil
}
