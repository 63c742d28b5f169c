package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Sardis store.
var Migrations = migrate.NewGroup("sardis")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_sardis_wallets",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_wallets (
    id             TEXT PRIMARY KEY,
    principal_id   TEXT NOT NULL,
    principal_kind TEXT NOT NULL,
    per_tx_limit   TEXT NOT NULL DEFAULT '0',
    lifetime_limit TEXT NOT NULL DEFAULT '0',
    spent_total    TEXT NOT NULL DEFAULT '0',
    currency       TEXT NOT NULL DEFAULT 'usdc',
    active         BOOLEAN NOT NULL DEFAULT TRUE,
    card_id        TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_wallets_principal ON sardis_wallets (principal_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_wallets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_agents",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_agents (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    wallet_id  TEXT NOT NULL,
    trust_tier TEXT NOT NULL DEFAULT 'LOW',
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_agents_owner ON sardis_agents (owner_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sardis_agents_wallet ON sardis_agents (wallet_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_agents`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_merchants",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_merchants (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    wallet_id    TEXT NOT NULL,
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    verified     BOOLEAN NOT NULL DEFAULT FALSE,
    trust_score  DOUBLE PRECISION NOT NULL DEFAULT 50,
    dispute_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    refund_rate  DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_merchants_owner ON sardis_merchants (owner_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sardis_merchants_wallet ON sardis_merchants (wallet_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_merchants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_cards",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_cards (
    id                 TEXT PRIMARY KEY,
    wallet_id          TEXT NOT NULL,
    number             TEXT NOT NULL,
    expires_at         TIMESTAMPTZ NOT NULL,
    per_tx_limit       TEXT NOT NULL DEFAULT '0',
    daily_limit        TEXT NOT NULL DEFAULT '0',
    daily_spent        TEXT NOT NULL DEFAULT '0',
    currency           TEXT NOT NULL DEFAULT 'usdc',
    daily_window_start TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    state              TEXT NOT NULL DEFAULT 'ACTIVE',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sardis_cards_wallet ON sardis_cards (wallet_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_cards`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_policies",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_policies (
    agent_id   TEXT PRIMARY KEY,
    policy_id  TEXT NOT NULL,
    document   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_policies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_holds",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_holds (
    id                 TEXT PRIMARY KEY,
    agent_id           TEXT NOT NULL,
    wallet_id          TEXT NOT NULL,
    merchant_id        TEXT NOT NULL,
    amount             TEXT NOT NULL DEFAULT '0',
    currency           TEXT NOT NULL DEFAULT 'usdc',
    purpose            TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'ACTIVE',
    expires_at         TIMESTAMPTZ NOT NULL,
    ledger_hold_tx_id  TEXT NOT NULL DEFAULT '',
    captured_at        TIMESTAMPTZ,
    voided_at          TIMESTAMPTZ,
    capture_tx_id      TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_holds_wallet_status ON sardis_holds (wallet_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_holds`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_webhook_subscriptions",
			Version: "20240101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_webhook_subscriptions (
    id               TEXT PRIMARY KEY,
    owner_id         TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL,
    events           JSONB NOT NULL DEFAULT '[]',
    secret           TEXT NOT NULL,
    active           BOOLEAN NOT NULL DEFAULT TRUE,
    delivery_count   BIGINT NOT NULL DEFAULT 0,
    failure_count    BIGINT NOT NULL DEFAULT 0,
    last_delivery_at TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_webhook_subs_owner ON sardis_webhook_subscriptions (owner_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_webhook_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_idempotency_keys",
			Version: "20240101000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_idempotency_keys (
    key            TEXT PRIMARY KEY,
    transaction_id TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_idempotency_keys`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_ledger_entries",
			Version: "20240101000009",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_ledger_entries (
    sequence          BIGINT NOT NULL,
    id                TEXT PRIMARY KEY,
    type              TEXT NOT NULL,
    wallet_id         TEXT NOT NULL,
    currency          TEXT NOT NULL,
    amount            TEXT NOT NULL,
    counterpart_id    TEXT NOT NULL DEFAULT '',
    transaction_id    TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'CONFIRMED',
    description       TEXT NOT NULL DEFAULT '',
    previous_checksum TEXT NOT NULL DEFAULT '',
    checksum          TEXT NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_entries_wallet ON sardis_ledger_entries (wallet_id, sequence);
CREATE INDEX IF NOT EXISTS idx_sardis_entries_transaction ON sardis_ledger_entries (transaction_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_ledger_entries`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_ledger_transactions",
			Version: "20240101000010",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_ledger_transactions (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL,
    entry_ids       JSONB NOT NULL DEFAULT '[]',
    from_wallet     TEXT NOT NULL DEFAULT '',
    to_wallet       TEXT NOT NULL DEFAULT '',
    currency        TEXT NOT NULL,
    amount          TEXT NOT NULL DEFAULT '0',
    fee             TEXT NOT NULL DEFAULT '0',
    fee_wallet      TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    hold_tx_ref     TEXT NOT NULL DEFAULT '',
    hold_released   BOOLEAN NOT NULL DEFAULT FALSE,
    status          TEXT NOT NULL DEFAULT 'COMPLETED',
    refunded_amount TEXT NOT NULL DEFAULT '0',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sardis_tx_from_wallet ON sardis_ledger_transactions (from_wallet);
CREATE INDEX IF NOT EXISTS idx_sardis_tx_to_wallet ON sardis_ledger_transactions (to_wallet);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_ledger_transactions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sardis_ledger_checkpoints",
			Version: "20240101000011",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sardis_ledger_checkpoints (
    id            TEXT PRIMARY KEY,
    period_start  TIMESTAMPTZ NOT NULL,
    period_end    TIMESTAMPTZ NOT NULL,
    last_sequence BIGINT NOT NULL,
    last_checksum TEXT NOT NULL,
    balances      JSONB NOT NULL DEFAULT '{}',
    entry_count   BIGINT NOT NULL DEFAULT 0,
    volume        JSONB NOT NULL DEFAULT '{}',
    checksum      TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sardis_ledger_checkpoints`)
				return err
			},
		},
	)
}
