// Package memory provides an in-memory store.Store and ledger.Persister
// implementation, suitable for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

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

// Store is a mutex-guarded, map-backed implementation of store.Store and
// ledger.Persister.
type Store struct {
	mu sync.RWMutex

	wallets   map[id.WalletID]*wallet.Wallet
	agents    map[id.AgentID]*agent.Agent
	merchants map[id.MerchantID]*merchant.Merchant
	cards     map[id.CardID]*card.Card
	policies  map[id.AgentID]*policy.SpendingPolicy
	holds     map[id.HoldID]*orchestrator.PaymentHold
	subs      map[id.WebhookID]*webhook.Subscription

	idempotency map[string]id.TransactionID

	entries       []*ledger.Entry
	entriesByID   map[id.EntryID]*ledger.Entry
	transactions  map[id.TransactionID]*ledger.Transaction
	checkpoints   []*ledger.Checkpoint
}

// New constructs an empty in-memory Store.
func New() *Store {
	return &Store{
		wallets:      make(map[id.WalletID]*wallet.Wallet),
		agents:       make(map[id.AgentID]*agent.Agent),
		merchants:    make(map[id.MerchantID]*merchant.Merchant),
		cards:        make(map[id.CardID]*card.Card),
		policies:     make(map[id.AgentID]*policy.SpendingPolicy),
		holds:        make(map[id.HoldID]*orchestrator.PaymentHold),
		subs:         make(map[id.WebhookID]*webhook.Subscription),
		idempotency:  make(map[string]id.TransactionID),
		entriesByID:  make(map[id.EntryID]*ledger.Entry),
		transactions: make(map[id.TransactionID]*ledger.Transaction),
	}
}

// ──────────────────────────────────────────────────
// Wallets
// ──────────────────────────────────────────────────

func (s *Store) SaveWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.wallets[w.ID] = w
	return nil
}

func (s *Store) GetWallet(_ context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.wallets[walletID]; ok {
		return w, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.ID]; !exists {
		return store.ErrNotFound
	}
	s.wallets[w.ID] = w
	return nil
}

func (s *Store) ListWalletsByPrincipal(_ context.Context, principalID id.ID) ([]*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*wallet.Wallet, 0)
	for _, w := range s.wallets {
		if w.PrincipalID == principalID {
			out = append(out, w)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Agents
// ──────────────────────────────────────────────────

func (s *Store) SaveAgent(_ context.Context, a *agent.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents[a.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.agents[a.ID] = a
	return nil
}

func (s *Store) GetAgent(_ context.Context, agentID id.AgentID) (*agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.agents[agentID]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateAgent(_ context.Context, a *agent.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents[a.ID]; !exists {
		return store.ErrNotFound
	}
	s.agents[a.ID] = a
	return nil
}

func (s *Store) ListAgentsByOwner(_ context.Context, ownerID string) ([]*agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*agent.Agent, 0)
	for _, a := range s.agents {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Merchants
// ──────────────────────────────────────────────────

func (s *Store) SaveMerchant(_ context.Context, m *merchant.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.merchants[m.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.merchants[m.ID] = m
	return nil
}

func (s *Store) GetMerchant(_ context.Context, merchantID id.MerchantID) (*merchant.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.merchants[merchantID]; ok {
		return m, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateMerchant(_ context.Context, m *merchant.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.merchants[m.ID]; !exists {
		return store.ErrNotFound
	}
	s.merchants[m.ID] = m
	return nil
}

func (s *Store) ListMerchantsByOwner(_ context.Context, ownerID string) ([]*merchant.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*merchant.Merchant, 0)
	for _, m := range s.merchants {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Virtual cards
// ──────────────────────────────────────────────────

func (s *Store) SaveCard(_ context.Context, c *card.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cards[c.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.cards[c.ID] = c
	return nil
}

func (s *Store) GetCard(_ context.Context, cardID id.CardID) (*card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cards[cardID]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCardByWallet(_ context.Context, walletID id.WalletID) (*card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cards {
		if c.WalletID == walletID {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateCard(_ context.Context, c *card.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cards[c.ID]; !exists {
		return store.ErrNotFound
	}
	s.cards[c.ID] = c
	return nil
}

// ──────────────────────────────────────────────────
// Spending policies
// ──────────────────────────────────────────────────

func (s *Store) SavePolicy(_ context.Context, p *policy.SpendingPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[p.AgentID]; exists {
		return store.ErrAlreadyExists
	}
	s.policies[p.AgentID] = p
	return nil
}

func (s *Store) GetPolicy(_ context.Context, agentID id.AgentID) (*policy.SpendingPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.policies[agentID]; ok {
		return p, nil
	}
	return nil, nil // no policy configured is not an error, per orchestrator.PolicyStore contract
}

func (s *Store) UpdatePolicy(_ context.Context, p *policy.SpendingPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.AgentID] = p
	return nil
}

// ──────────────────────────────────────────────────
// Payment holds
// ──────────────────────────────────────────────────

func (s *Store) SaveHold(_ context.Context, h *orchestrator.PaymentHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[h.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.holds[h.ID] = h
	return nil
}

func (s *Store) GetHold(_ context.Context, holdID id.HoldID) (*orchestrator.PaymentHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.holds[holdID]; ok {
		return h, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateHold(_ context.Context, h *orchestrator.PaymentHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[h.ID]; !exists {
		return store.ErrNotFound
	}
	s.holds[h.ID] = h
	return nil
}

func (s *Store) ListActiveHoldsByWallet(_ context.Context, walletID id.WalletID) ([]*orchestrator.PaymentHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*orchestrator.PaymentHold, 0)
	for _, h := range s.holds {
		if h.WalletID == walletID && h.Status == orchestrator.HoldActive {
			out = append(out, h)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Webhook subscriptions
// ──────────────────────────────────────────────────

func (s *Store) SaveSubscription(_ context.Context, sub *webhook.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.ID]; exists {
		return store.ErrAlreadyExists
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.WebhookID) (*webhook.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subs[subID]; ok {
		return sub, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateSubscription(_ context.Context, sub *webhook.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.ID]; !exists {
		return store.ErrNotFound
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, subID id.WebhookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, subID)
	return nil
}

func (s *Store) ListSubscriptionsByOwner(_ context.Context, ownerID string) ([]*webhook.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*webhook.Subscription, 0)
	for _, sub := range s.subs {
		if sub.OwnerID == ownerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Idempotency
// ──────────────────────────────────────────────────

func (s *Store) RecordIdempotencyKey(_ context.Context, key string, txID id.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[key] = txID
	return nil
}

func (s *Store) SeenIdempotencyKey(_ context.Context, key string) (id.TransactionID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txID, ok := s.idempotency[key]
	return txID, ok, nil
}

// ──────────────────────────────────────────────────
// ledger.Persister implementation
// ──────────────────────────────────────────────────

func (s *Store) AppendEntry(_ context.Context, entry *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.entriesByID[entry.ID] = entry
	return nil
}

func (s *Store) UpdateEntry(_ context.Context, entry *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entriesByID[entry.ID] = entry
	return nil
}

func (s *Store) SaveTransaction(_ context.Context, tx *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) SaveCheckpoint(_ context.Context, cp *ledger.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints = append(s.checkpoints, cp)
	return nil
}

// ──────────────────────────────────────────────────
// Core management
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var (
	_ store.Store       = (*Store)(nil)
	_ ledger.Persister   = (*Store)(nil)
)
