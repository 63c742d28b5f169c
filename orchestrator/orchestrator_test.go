package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory double implementing every store
// interface the orchestrator needs.
type fakeStore struct {
	mu        sync.Mutex
	wallets   map[id.WalletID]*wallet.Wallet
	agents    map[id.AgentID]*agent.Agent
	merchants map[id.MerchantID]*merchant.Merchant
	policies  map[id.AgentID]*policy.SpendingPolicy
	holds     map[id.HoldID]*PaymentHold
	events    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets:   make(map[id.WalletID]*wallet.Wallet),
		agents:    make(map[id.AgentID]*agent.Agent),
		merchants: make(map[id.MerchantID]*merchant.Merchant),
		policies:  make(map[id.AgentID]*policy.SpendingPolicy),
		holds:     make(map[id.HoldID]*PaymentHold),
	}
}

func (s *fakeStore) GetWallet(_ context.Context, w id.WalletID) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if got, ok := s.wallets[w]; ok {
		return got, nil
	}
	return nil, ledger.ErrEntryNotFound
}
func (s *fakeStore) SaveWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
	return nil
}
func (s *fakeStore) GetAgent(_ context.Context, a id.AgentID) (*agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if got, ok := s.agents[a]; ok {
		return got, nil
	}
	return nil, ledger.ErrEntryNotFound
}
func (s *fakeStore) GetMerchant(_ context.Context, m id.MerchantID) (*merchant.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if got, ok := s.merchants[m]; ok {
		return got, nil
	}
	return nil, ledger.ErrEntryNotFound
}
func (s *fakeStore) GetPolicy(_ context.Context, a id.AgentID) (*policy.SpendingPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies[a], nil
}
func (s *fakeStore) SaveHold(_ context.Context, h *PaymentHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[h.ID] = h
	return nil
}
func (s *fakeStore) GetHold(_ context.Context, h id.HoldID) (*PaymentHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds[h], nil
}
func (s *fakeStore) UpdateHold(_ context.Context, h *PaymentHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[h.ID] = h
	return nil
}
func (s *fakeStore) Emit(_ context.Context, eventType string, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
}

type noopRiskProfiles struct{}

func (noopRiskProfiles) GetAgentProfile(context.Context, id.AgentID) (risk.AgentProfile, error) {
	return risk.AgentProfile{}, nil
}
func (noopRiskProfiles) RecordOutcome(context.Context, id.AgentID, bool, types.Money, id.WalletID, string) {
}

func setupAgent(t *testing.T, store *fakeStore, eng *ledger.Engine, seed types.Money) (*agent.Agent, *wallet.Wallet) {
	t.Helper()
	w := wallet.New(id.NewAgentID(), wallet.PrincipalAgent)
	require.NoError(t, store.SaveWallet(context.Background(), w))
	a := agent.New("owner-1", "test-agent", w.ID, agent.TrustHigh)
	store.mu.Lock()
	store.agents[a.ID] = a
	store.mu.Unlock()
	if !seed.IsZero() {
		_, err := eng.Mint(context.Background(), w.ID, seed, "seed")
		require.NoError(t, err)
	}
	return a, w
}

func setupMerchant(t *testing.T, store *fakeStore) *merchant.Merchant {
	t.Helper()
	w := wallet.New(id.NewMerchantID(), wallet.PrincipalMerchant)
	require.NoError(t, store.SaveWallet(context.Background(), w))
	m := merchant.New("owner-2", "test-merchant", "software", w.ID)
	store.mu.Lock()
	store.merchants[m.ID] = m
	store.mu.Unlock()
	return m
}

// S1: a basic payment with a fee.
func TestOrchestratorPayWithFee(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	feeWallet := id.NewWalletID()

	a, aw := setupAgent(t, store, eng, types.USDC("100.00"))
	m := setupMerchant(t, store)

	o := New(eng, store, store, store, WithFeeWallet(feeWallet), WithFeePricer(NewFlatFeePricer(map[string]types.Money{"usdc": types.USDC("0.10")})), WithEvents(store))

	res := o.PayMerchant(context.Background(), PayMerchantRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("25.00")})
	require.True(t, res.Success)
	require.Equal(t, StatusCompleted, res.Status)

	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("74.90")))
	require.True(t, eng.GetBalance(m.WalletID, "usdc").Equal(types.USDC("25.00")))
	require.True(t, eng.GetBalance(feeWallet, "usdc").Equal(types.USDC("0.10")))
}

// S2: insufficient balance leaves all state unchanged.
func TestOrchestratorPayInsufficientBalance(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, aw := setupAgent(t, store, eng, types.USDC("10.00"))
	m := setupMerchant(t, store)

	o := New(eng, store, store, store, WithEvents(store))
	res := o.PayMerchant(context.Background(), PayMerchantRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("20.00")})

	require.False(t, res.Success)
	require.Equal(t, ErrInsufficientBalance, res.Error)
	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("10.00")))
	require.Contains(t, store.events, "payment.failed")
}

// S3: per-transaction policy limit blocks before any ledger mutation.
func TestOrchestratorPayPerTxLimit(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, aw := setupAgent(t, store, eng, types.USDC("100.00"))
	m := setupMerchant(t, store)

	pol := policy.New(a.ID, "usdc")
	pol.LimitPerTx = types.USDC("10.00")
	store.policies[a.ID] = pol

	o := New(eng, store, store, store, WithPolicyStore(store), WithEvents(store))
	res := o.PayMerchant(context.Background(), PayMerchantRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("20.00")})

	require.False(t, res.Success)
	require.Equal(t, ErrPerTransactionLimit, res.Error)
	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("100.00")))
}

// S6: idempotent retry returns the same result and commits exactly once.
func TestOrchestratorIdempotentRetry(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, aw := setupAgent(t, store, eng, types.USDC("200.00"))
	recipient := wallet.New(id.NewAgentID(), wallet.PrincipalAgent)
	require.NoError(t, store.SaveWallet(context.Background(), recipient))

	o := New(eng, store, store, store)
	req := PayRequest{AgentID: a.ID, Amount: types.USDC("50.00"), RecipientWallet: recipient.ID, IdempotencyKey: "k1"}

	first := o.Pay(context.Background(), req)
	require.True(t, first.Success)

	second := o.Pay(context.Background(), req)
	require.Equal(t, first.Transaction.ID, second.Transaction.ID)
	require.Equal(t, ErrIdempotentReplay, second.Error)

	// Exactly one transfer's worth of funds moved despite two calls.
	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("150.00")))
}

func TestOrchestratorHoldCaptureLifecycle(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, aw := setupAgent(t, store, eng, types.USDC("1000.00"))
	m := setupMerchant(t, store)

	o := New(eng, store, store, store, WithHoldStore(store), WithEvents(store), WithFeePricer(NewFlatFeePricer(nil)))

	holdRes := o.CreateHold(context.Background(), CreateHoldRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("200.00")})
	require.True(t, holdRes.Success)
	require.True(t, eng.GetAvailableBalance(aw.ID, "usdc").Equal(types.USDC("800.00")))

	captureAmount := types.USDC("150.00")
	capRes := o.CaptureHold(context.Background(), CaptureHoldRequest{HoldID: holdRes.Hold.ID, Amount: &captureAmount})
	require.True(t, capRes.Success)

	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("850.00")))
	require.True(t, eng.GetBalance(m.WalletID, "usdc").Equal(types.USDC("150.00")))
	require.True(t, eng.GetHeldAmount(aw.ID, "usdc").IsZero())
}

func TestOrchestratorRiskDeny(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, aw := setupAgent(t, store, eng, types.USDC("1000.00"))
	m := setupMerchant(t, store)

	riskEngine := risk.NewEngine([]risk.Rule{risk.NewVelocityRule()})
	profiles := fakeRiskProfiles{hourly: 45}

	o := New(eng, store, store, store, WithRiskEngine(riskEngine), WithRiskProfiles(profiles), WithEvents(store))
	res := o.PayMerchant(context.Background(), PayMerchantRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("10.00")})

	require.False(t, res.Success)
	require.Equal(t, ErrRiskDenied, res.Error)
	require.True(t, eng.GetBalance(aw.ID, "usdc").Equal(types.USDC("1000.00")))
}

// A known, verified merchant must not be scored as an anonymous
// recipient — PayMerchant's MerchantID has to reach risk evaluation,
// or every payment through a reputation-scored pipeline forces REVIEW.
func TestOrchestratorPayMerchantReputationReachesRisk(t *testing.T) {
	eng := ledger.NewEngine()
	store := newFakeStore()
	a, _ := setupAgent(t, store, eng, types.USDC("100.00"))
	m := setupMerchant(t, store)
	m.Verified = true
	m.TrustScore = 90

	riskEngine := risk.NewEngine([]risk.Rule{risk.NewMerchantReputationRule()})
	o := New(eng, store, store, store, WithRiskEngine(riskEngine), WithRiskProfiles(noopRiskProfiles{}), WithEvents(store))

	res := o.PayMerchant(context.Background(), PayMerchantRequest{AgentID: a.ID, MerchantID: m.ID, Amount: types.USDC("10.00")})
	require.True(t, res.Success)
	require.Equal(t, StatusCompleted, res.Status, "message: %s", res.Message)
}

type fakeRiskProfiles struct {
	hourly int
}

func (f fakeRiskProfiles) GetAgentProfile(context.Context, id.AgentID) (risk.AgentProfile, error) {
	return risk.AgentProfile{TransactionsLastHour: f.hourly}, nil
}
func (f fakeRiskProfiles) RecordOutcome(context.Context, id.AgentID, bool, types.Money, id.WalletID, string) {
}

var _ RiskProfileStore = noopRiskProfiles{}
