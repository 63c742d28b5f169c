package config

import "time"

// Option mutates a Config programmatically, applied after file-sourced
// values so callers can override individual fields without reloading.
type Option func(*Config)

// WithPlatformTreasuryWallet sets the fee-sink wallet ID.
func WithPlatformTreasuryWallet(walletID string) Option {
	return func(c *Config) { c.PlatformTreasuryWallet = walletID }
}

// WithDefaultFeeAmount sets the flat fee charged per payment.
func WithDefaultFeeAmount(amount string) Option {
	return func(c *Config) { c.DefaultFeeAmount = amount }
}

// WithIdempotencyTTL sets Config.IdempotencyTTL (not applied by the
// orchestrator).
func WithIdempotencyTTL(d time.Duration) Option {
	return func(c *Config) { c.IdempotencyTTL = d }
}

// WithHoldExpiry sets Config.HoldExpiry (not applied by the
// orchestrator).
func WithHoldExpiry(d time.Duration) Option {
	return func(c *Config) { c.HoldExpiry = d }
}

// WithRiskThresholds sets the risk engine's review and block score
// thresholds.
func WithRiskThresholds(review, block float64) Option {
	return func(c *Config) {
		c.RiskReviewThreshold = review
		c.RiskBlockThreshold = block
	}
}

// WithWebhookWorkers sets the webhook manager's delivery worker count.
func WithWebhookWorkers(n int) Option {
	return func(c *Config) { c.WebhookWorkers = n }
}

// WithSettlementChain enables on-chain settlement recording against
// the named chain.
func WithSettlementChain(chain string) Option {
	return func(c *Config) { c.SettlementChain = chain }
}

// WithDatabaseURL sets Config.DatabaseURL (not read by the platform).
func WithDatabaseURL(url string) Option {
	return func(c *Config) { c.DatabaseURL = url }
}

// Apply applies a sequence of Options to cfg in order.
func Apply(cfg Config, opts ...Option) Config {
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
