package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
)

// Registry manages all registered plugins and provides efficient
// dispatch. It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch.
	onInit               []OnInit
	onShutdown           []OnShutdown
	onPaymentInitiated   []OnPaymentInitiated
	onPaymentCompleted   []OnPaymentCompleted
	onPaymentFailed      []OnPaymentFailed
	onPaymentRefunded    []OnPaymentRefunded
	onHoldCreated        []OnHoldCreated
	onHoldCaptured       []OnHoldCaptured
	onHoldVoided         []OnHoldVoided
	onLimitExceeded      []OnLimitExceeded
	onLimitWarning       []OnLimitWarning
	onRiskDecision       []OnRiskDecision
	onFraudDetected      []OnFraudDetected
	onWalletCreated      []OnWalletCreated
	onWalletFunded       []OnWalletFunded
	onAgentDeactivated   []OnAgentDeactivated
	onServiceAuthorized  []OnServiceAuthorized
	onServiceRevoked     []OnServiceRevoked
	onWebhookDelivered   []OnWebhookDelivered
	feePricingStrategies map[string]FeePricingStrategy
	settlementDrivers    []SettlementDriverPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:               slog.Default(),
		feePricingStrategies: make(map[string]FeePricingStrategy),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPaymentInitiated); ok {
		r.onPaymentInitiated = append(r.onPaymentInitiated, v)
	}
	if v, ok := p.(OnPaymentCompleted); ok {
		r.onPaymentCompleted = append(r.onPaymentCompleted, v)
	}
	if v, ok := p.(OnPaymentFailed); ok {
		r.onPaymentFailed = append(r.onPaymentFailed, v)
	}
	if v, ok := p.(OnPaymentRefunded); ok {
		r.onPaymentRefunded = append(r.onPaymentRefunded, v)
	}
	if v, ok := p.(OnHoldCreated); ok {
		r.onHoldCreated = append(r.onHoldCreated, v)
	}
	if v, ok := p.(OnHoldCaptured); ok {
		r.onHoldCaptured = append(r.onHoldCaptured, v)
	}
	if v, ok := p.(OnHoldVoided); ok {
		r.onHoldVoided = append(r.onHoldVoided, v)
	}
	if v, ok := p.(OnLimitExceeded); ok {
		r.onLimitExceeded = append(r.onLimitExceeded, v)
	}
	if v, ok := p.(OnLimitWarning); ok {
		r.onLimitWarning = append(r.onLimitWarning, v)
	}
	if v, ok := p.(OnRiskDecision); ok {
		r.onRiskDecision = append(r.onRiskDecision, v)
	}
	if v, ok := p.(OnFraudDetected); ok {
		r.onFraudDetected = append(r.onFraudDetected, v)
	}
	if v, ok := p.(OnWalletCreated); ok {
		r.onWalletCreated = append(r.onWalletCreated, v)
	}
	if v, ok := p.(OnWalletFunded); ok {
		r.onWalletFunded = append(r.onWalletFunded, v)
	}
	if v, ok := p.(OnAgentDeactivated); ok {
		r.onAgentDeactivated = append(r.onAgentDeactivated, v)
	}
	if v, ok := p.(OnServiceAuthorized); ok {
		r.onServiceAuthorized = append(r.onServiceAuthorized, v)
	}
	if v, ok := p.(OnServiceRevoked); ok {
		r.onServiceRevoked = append(r.onServiceRevoked, v)
	}
	if v, ok := p.(OnWebhookDelivered); ok {
		r.onWebhookDelivered = append(r.onWebhookDelivered, v)
	}
	if v, ok := p.(FeePricingStrategy); ok {
		r.feePricingStrategies[v.StrategyName()] = v
	}
	if v, ok := p.(SettlementDriverPlugin); ok {
		r.settlementDrivers = append(r.settlementDrivers, v)
	}

	r.logger.Info("plugin registered", "name", p.Name(), "interfaces", r.getImplementedInterfaces(p))

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPaymentCompleted)(nil)).Elem(), "OnPaymentCompleted")
	checkInterface(reflect.TypeOf((*OnPaymentFailed)(nil)).Elem(), "OnPaymentFailed")
	checkInterface(reflect.TypeOf((*OnHoldCaptured)(nil)).Elem(), "OnHoldCaptured")
	checkInterface(reflect.TypeOf((*OnRiskDecision)(nil)).Elem(), "OnRiskDecision")
	checkInterface(reflect.TypeOf((*OnFraudDetected)(nil)).Elem(), "OnFraudDetected")
	checkInterface(reflect.TypeOf((*FeePricingStrategy)(nil)).Elem(), "FeePricingStrategy")
	checkInterface(reflect.TypeOf((*SettlementDriverPlugin)(nil)).Elem(), "SettlementDriverPlugin")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, logger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, logger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentInitiated notifies plugins before a payment commits.
func (r *Registry) EmitPaymentInitiated(ctx context.Context, agentID id.AgentID, amount types.Money) {
	r.mu.RLock()
	plugins := r.onPaymentInitiated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentInitiated(ctx, agentID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentInitiated failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentCompleted notifies plugins after a payment transfer commits.
func (r *Registry) EmitPaymentCompleted(ctx context.Context, tx *ledger.Transaction) {
	r.mu.RLock()
	plugins := r.onPaymentCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCompleted(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCompleted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentFailed notifies plugins when a payment is rejected.
func (r *Registry) EmitPaymentFailed(ctx context.Context, agentID id.AgentID, reason string) {
	r.mu.RLock()
	plugins := r.onPaymentFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentFailed(ctx, agentID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentFailed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPaymentRefunded notifies plugins after a refund commits.
func (r *Registry) EmitPaymentRefunded(ctx context.Context, originalTxID id.TransactionID, refundTx *ledger.Transaction) {
	r.mu.RLock()
	plugins := r.onPaymentRefunded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRefunded(ctx, originalTxID, refundTx)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRefunded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitHoldCreated notifies plugins after a hold reservation commits.
func (r *Registry) EmitHoldCreated(ctx context.Context, holdID id.HoldID, amount types.Money) {
	r.mu.RLock()
	plugins := r.onHoldCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHoldCreated(ctx, holdID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnHoldCreated failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitHoldCaptured notifies plugins after a hold's reservation is
// captured.
func (r *Registry) EmitHoldCaptured(ctx context.Context, holdID id.HoldID, captureTx *ledger.Transaction) {
	r.mu.RLock()
	plugins := r.onHoldCaptured
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHoldCaptured(ctx, holdID, captureTx)
		}); err != nil {
			r.logger.Warn("plugin OnHoldCaptured failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitHoldVoided notifies plugins after a hold is released without
// capture.
func (r *Registry) EmitHoldVoided(ctx context.Context, holdID id.HoldID) {
	r.mu.RLock()
	plugins := r.onHoldVoided
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHoldVoided(ctx, holdID)
		}); err != nil {
			r.logger.Warn("plugin OnHoldVoided failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLimitExceeded notifies plugins when a limit blocks a request.
func (r *Registry) EmitLimitExceeded(ctx context.Context, agentID id.AgentID, reason string) {
	r.mu.RLock()
	plugins := r.onLimitExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLimitExceeded(ctx, agentID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnLimitExceeded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitRiskDecision notifies plugins of every risk pipeline evaluation.
func (r *Registry) EmitRiskDecision(ctx context.Context, agentID id.AgentID, decision risk.Decision) {
	r.mu.RLock()
	plugins := r.onRiskDecision
	fraudPlugins := r.onFraudDetected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRiskDecision(ctx, agentID, decision)
		}); err != nil {
			r.logger.Warn("plugin OnRiskDecision failed", "plugin", p.Name(), "error", err)
		}
	}

	if decision.Action != risk.ActionDeny {
		return
	}
	for _, p := range fraudPlugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFraudDetected(ctx, agentID, decision)
		}); err != nil {
			r.logger.Warn("plugin OnFraudDetected failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWalletFunded notifies plugins when external funds are minted into
// a wallet.
func (r *Registry) EmitWalletFunded(ctx context.Context, walletID id.WalletID, amount types.Money) {
	r.mu.RLock()
	plugins := r.onWalletFunded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWalletFunded(ctx, walletID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWalletFunded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWebhookDelivered notifies plugins after an outbound event delivery
// attempt sequence concludes.
func (r *Registry) EmitWebhookDelivered(ctx context.Context, subscriptionID id.WebhookID, eventType string, success bool, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onWebhookDelivered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWebhookDelivered(ctx, subscriptionID, eventType, success, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnWebhookDelivered failed", "plugin", p.Name(), "error", err)
		}
	}
}

// GetFeePricingStrategy returns a fee pricing strategy plugin by name.
func (r *Registry) GetFeePricingStrategy(name string) FeePricingStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feePricingStrategies[name]
}

// GetSettlementDrivers returns all registered settlement driver plugins.
func (r *Registry) GetSettlementDrivers() []SettlementDriverPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]SettlementDriverPlugin, len(r.settlementDrivers))
	copy(result, r.settlementDrivers)
	return result
}

// callWithTimeout calls a plugin function with a timeout. Plugins should
// never block the payment pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
