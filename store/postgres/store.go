// Package postgres implements store.Store and ledger.Persister on top of
// PostgreSQL via Grove ORM, mirroring the teacher extension's relational
// storage layer adapted to the Sardis domain.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/card"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/store"
	"github.com/sardis-labs/core/wallet"
	"github.com/sardis-labs/core/webhook"
)

var (
	_ store.Store      = (*Store)(nil)
	_ ledger.Persister = (*Store)(nil)
)

// Store implements store.Store and ledger.Persister using PostgreSQL via
// Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a PostgreSQL-backed Store from an already-opened grove.DB.
func New(db *grove.DB) *Store {
	return &Store{db: db, pg: pgdriver.Unwrap(db)}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate runs the Sardis migration group against the database.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("sardis/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("sardis/postgres: migration failed: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func now() time.Time { return time.Now().UTC() }

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// ==================== Wallets ====================

func (s *Store) SaveWallet(ctx context.Context, w *wallet.Wallet) error {
	_, err := s.pg.NewInsert(toWalletModel(w)).Exec(ctx)
	return err
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.pg.NewSelect(m).Where("id = $1", walletID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromWalletModel(m)
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	m := toWalletModel(w)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

func (s *Store) ListWalletsByPrincipal(ctx context.Context, principalID id.ID) ([]*wallet.Wallet, error) {
	var models []walletModel
	if err := s.pg.NewSelect(&models).Where("principal_id = $1", principalID.String()).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*wallet.Wallet, len(models))
	for i := range models {
		w, err := fromWalletModel(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// ==================== Agents ====================

func (s *Store) SaveAgent(ctx context.Context, a *agent.Agent) error {
	_, err := s.pg.NewInsert(toAgentModel(a)).Exec(ctx)
	return err
}

func (s *Store) GetAgent(ctx context.Context, agentID id.AgentID) (*agent.Agent, error) {
	m := new(agentModel)
	err := s.pg.NewSelect(m).Where("id = $1", agentID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromAgentModel(m)
}

func (s *Store) UpdateAgent(ctx context.Context, a *agent.Agent) error {
	m := toAgentModel(a)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

func (s *Store) ListAgentsByOwner(ctx context.Context, ownerID string) ([]*agent.Agent, error) {
	var models []agentModel
	if err := s.pg.NewSelect(&models).Where("owner_id = $1", ownerID).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*agent.Agent, len(models))
	for i := range models {
		a, err := fromAgentModel(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// ==================== Merchants ====================

func (s *Store) SaveMerchant(ctx context.Context, mm *merchant.Merchant) error {
	_, err := s.pg.NewInsert(toMerchantModel(mm)).Exec(ctx)
	return err
}

func (s *Store) GetMerchant(ctx context.Context, merchantID id.MerchantID) (*merchant.Merchant, error) {
	m := new(merchantModel)
	err := s.pg.NewSelect(m).Where("id = $1", merchantID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromMerchantModel(m)
}

func (s *Store) UpdateMerchant(ctx context.Context, mm *merchant.Merchant) error {
	m := toMerchantModel(mm)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

func (s *Store) ListMerchantsByOwner(ctx context.Context, ownerID string) ([]*merchant.Merchant, error) {
	var models []merchantModel
	if err := s.pg.NewSelect(&models).Where("owner_id = $1", ownerID).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*merchant.Merchant, len(models))
	for i := range models {
		m, err := fromMerchantModel(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// ==================== Virtual cards ====================

func (s *Store) SaveCard(ctx context.Context, c *card.Card) error {
	_, err := s.pg.NewInsert(toCardModel(c)).Exec(ctx)
	return err
}

func (s *Store) GetCard(ctx context.Context, cardID id.CardID) (*card.Card, error) {
	m := new(cardModel)
	err := s.pg.NewSelect(m).Where("id = $1", cardID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromCardModel(m)
}

func (s *Store) GetCardByWallet(ctx context.Context, walletID id.WalletID) (*card.Card, error) {
	m := new(cardModel)
	err := s.pg.NewSelect(m).Where("wallet_id = $1", walletID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromCardModel(m)
}

func (s *Store) UpdateCard(ctx context.Context, c *card.Card) error {
	m := toCardModel(c)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

// ==================== Spending policies ====================

func (s *Store) SavePolicy(ctx context.Context, p *policy.SpendingPolicy) error {
	m, err := toPolicyModel(p)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPolicy(ctx context.Context, agentID id.AgentID) (*policy.SpendingPolicy, error) {
	m := new(policyModel)
	err := s.pg.NewSelect(m).Where("agent_id = $1", agentID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil // no policy configured is not an error
		}
		return nil, err
	}
	return fromPolicyModel(m)
}

func (s *Store) UpdatePolicy(ctx context.Context, p *policy.SpendingPolicy) error {
	m, err := toPolicyModel(p)
	if err != nil {
		return err
	}
	m.UpdatedAt = now()
	_, err = s.pg.NewUpdate(m).Where("agent_id = $1", p.AgentID.String()).Exec(ctx)
	return err
}

// ==================== Payment holds ====================

func (s *Store) SaveHold(ctx context.Context, h *orchestrator.PaymentHold) error {
	_, err := s.pg.NewInsert(toHoldModel(h)).Exec(ctx)
	return err
}

func (s *Store) GetHold(ctx context.Context, holdID id.HoldID) (*orchestrator.PaymentHold, error) {
	m := new(holdModel)
	err := s.pg.NewSelect(m).Where("id = $1", holdID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromHoldModel(m)
}

func (s *Store) UpdateHold(ctx context.Context, h *orchestrator.PaymentHold) error {
	m := toHoldModel(h)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

func (s *Store) ListActiveHoldsByWallet(ctx context.Context, walletID id.WalletID) ([]*orchestrator.PaymentHold, error) {
	var models []holdModel
	err := s.pg.NewSelect(&models).
		Where("wallet_id = $1", walletID.String()).
		Where("status = $2", string(orchestrator.HoldActive)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*orchestrator.PaymentHold, len(models))
	for i := range models {
		h, err := fromHoldModel(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// ==================== Webhook subscriptions ====================

func (s *Store) SaveSubscription(ctx context.Context, sub *webhook.Subscription) error {
	_, err := s.pg.NewInsert(toSubscriptionModel(sub)).Exec(ctx)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, subID id.WebhookID) (*webhook.Subscription, error) {
	m := new(subscriptionModel)
	err := s.pg.NewSelect(m).Where("id = $1", subID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *webhook.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, store.ErrNotFound)
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.WebhookID) error {
	_, err := s.pg.NewDelete((*subscriptionModel)(nil)).Where("id = $1", subID.String()).Exec(ctx)
	return err
}

func (s *Store) ListSubscriptionsByOwner(ctx context.Context, ownerID string) ([]*webhook.Subscription, error) {
	var models []subscriptionModel
	if err := s.pg.NewSelect(&models).Where("owner_id = $1", ownerID).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*webhook.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

// ==================== Idempotency ====================

func (s *Store) RecordIdempotencyKey(ctx context.Context, key string, txID id.TransactionID) error {
	m := &idempotencyModel{Key: key, TransactionID: txID.String(), CreatedAt: now()}
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) SeenIdempotencyKey(ctx context.Context, key string) (id.TransactionID, bool, error) {
	m := new(idempotencyModel)
	err := s.pg.NewSelect(m).Where("key = $1", key).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return id.TransactionID{}, false, nil
		}
		return id.TransactionID{}, false, err
	}
	txID, err := id.ParseTransactionID(m.TransactionID)
	if err != nil {
		return id.TransactionID{}, false, err
	}
	return txID, true, nil
}

// ==================== ledger.Persister ====================

func (s *Store) AppendEntry(ctx context.Context, entry *ledger.Entry) error {
	_, err := s.pg.NewInsert(toEntryModel(entry)).Exec(ctx)
	return err
}

func (s *Store) UpdateEntry(ctx context.Context, entry *ledger.Entry) error {
	_, err := s.pg.NewUpdate(toEntryModel(entry)).WherePK().Exec(ctx)
	return err
}

func (s *Store) SaveTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := s.pg.NewInsert(toTransactionModel(tx)).Exec(ctx)
	return err
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	m := toTransactionModel(tx)
	m.UpdatedAt = now()
	_, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	return err
}

func (s *Store) SaveCheckpoint(ctx context.Context, cp *ledger.Checkpoint) error {
	m, err := toCheckpointModel(cp)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

// ==================== Helpers ====================

func requireRowsAffected(res sql.Result, onZero error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return onZero
	}
	return nil
}
