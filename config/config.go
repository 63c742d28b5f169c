// Package config holds the Sardis platform configuration: a plain
// struct loadable from a decoded YAML/JSON document via mapstructure,
// with functional options layered on top for programmatic overrides.
package config

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Config holds the platform-wide configuration for a Sardis deployment.
type Config struct {
	// PlatformTreasuryWallet is the wallet ID string used as the fee
	// sink for flat-fee pricing. Parsed into an id.WalletID at wiring
	// time since config decoding happens before the id package's
	// TypeID validation is convenient to invoke.
	PlatformTreasuryWallet string `json:"platform_treasury_wallet" mapstructure:"platform_treasury_wallet" yaml:"platform_treasury_wallet"`

	// DefaultFeeAmount is the flat fee (in USDC) charged per payment.
	// Plugins are not consulted for fee pricing.
	DefaultFeeAmount string `json:"default_fee_amount" mapstructure:"default_fee_amount" yaml:"default_fee_amount"`

	// IdempotencyTTL is carried in the config but not applied: the
	// orchestrator retains idempotency keys for a fixed 24h.
	IdempotencyTTL time.Duration `json:"idempotency_ttl" mapstructure:"idempotency_ttl" yaml:"idempotency_ttl"`

	// HoldExpiry is carried in the config but not applied: a hold's
	// lifetime is the request's ExpirationHours, or 168h when unset.
	HoldExpiry time.Duration `json:"hold_expiry" mapstructure:"hold_expiry" yaml:"hold_expiry"`

	// RiskReviewThreshold and RiskBlockThreshold configure the risk
	// engine's score thresholds.
	RiskReviewThreshold float64 `json:"risk_review_threshold" mapstructure:"risk_review_threshold" yaml:"risk_review_threshold"`
	RiskBlockThreshold  float64 `json:"risk_block_threshold" mapstructure:"risk_block_threshold" yaml:"risk_block_threshold"`

	// WebhookWorkers is the number of concurrent delivery workers the
	// webhook manager spawns.
	WebhookWorkers int `json:"webhook_workers" mapstructure:"webhook_workers" yaml:"webhook_workers"`

	// WebhookQueueSize bounds the number of pending deliveries buffered
	// in-process before Emit blocks.
	WebhookQueueSize int `json:"webhook_queue_size" mapstructure:"webhook_queue_size" yaml:"webhook_queue_size"`

	// SettlementChain names the chain a SimulatedDriver (or a real
	// driver, once wired) reports settlement against. Empty disables
	// on-chain recording entirely.
	SettlementChain string `json:"settlement_chain" mapstructure:"settlement_chain" yaml:"settlement_chain"`

	// DatabaseURL is a postgres DSN. The platform does not read it: it
	// uses whatever store is passed to New.
	DatabaseURL string `json:"database_url" mapstructure:"database_url" yaml:"database_url"`
}

// DefaultConfig returns a Config with sensible defaults for local
// development and tests.
func DefaultConfig() Config {
	return Config{
		DefaultFeeAmount:    "0.00",
		IdempotencyTTL:      24 * time.Hour,
		HoldExpiry:          1 * time.Hour,
		RiskReviewThreshold: 50,
		RiskBlockThreshold:  80,
		WebhookWorkers:      4,
		WebhookQueueSize:    4096,
	}
}

// Load decodes raw (typically parsed from YAML or JSON) into a Config,
// starting from DefaultConfig so unset keys keep their defaults.
func Load(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
