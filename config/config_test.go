package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 4, cfg.WebhookWorkers)
	require.Equal(t, 4096, cfg.WebhookQueueSize)
	require.Equal(t, 1*time.Hour, cfg.HoldExpiry)
}

func TestLoadOverridesDefaultsFromRawMap(t *testing.T) {
	cfg, err := Load(map[string]any{
		"platform_treasury_wallet": "wallet_01hq",
		"default_fee_amount":       "0.10",
		"webhook_workers":          "8",
		"idempotency_ttl":          "48h",
	})
	require.NoError(t, err)
	require.Equal(t, "wallet_01hq", cfg.PlatformTreasuryWallet)
	require.Equal(t, "0.10", cfg.DefaultFeeAmount)
	require.Equal(t, 8, cfg.WebhookWorkers)
	require.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)

	// Keys not present retain defaults.
	require.Equal(t, 4096, cfg.WebhookQueueSize)
}

func TestApplyOptionsOverridesLoadedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg = Apply(cfg,
		WithPlatformTreasuryWallet("wallet_treasury"),
		WithWebhookWorkers(16),
		WithRiskThresholds(40, 70),
		WithSettlementChain("base_sepolia"),
	)

	require.Equal(t, "wallet_treasury", cfg.PlatformTreasuryWallet)
	require.Equal(t, 16, cfg.WebhookWorkers)
	require.Equal(t, float64(40), cfg.RiskReviewThreshold)
	require.Equal(t, float64(70), cfg.RiskBlockThreshold)
	require.Equal(t, "base_sepolia", cfg.SettlementChain)
}
