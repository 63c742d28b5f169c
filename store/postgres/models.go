package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/card"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
	"github.com/sardis-labs/core/webhook"
)

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:sardis_wallets"`

	ID            string    `grove:"id,pk"`
	PrincipalID   string    `grove:"principal_id"`
	PrincipalKind string    `grove:"principal_kind"`
	PerTxLimit    string    `grove:"per_tx_limit"`
	LifetimeLimit string    `grove:"lifetime_limit"`
	SpentTotal    string    `grove:"spent_total"`
	Currency      string    `grove:"currency"`
	Active        bool      `grove:"active"`
	CardID        string    `grove:"card_id"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:            w.ID.String(),
		PrincipalID:   w.PrincipalID.String(),
		PrincipalKind: string(w.PrincipalKind),
		PerTxLimit:    w.PerTxLimit.Amount.String(),
		LifetimeLimit: w.LifetimeLimit.Amount.String(),
		SpentTotal:    w.SpentTotal.Amount.String(),
		Currency:      w.SpentTotal.Currency,
		Active:        w.Active,
		CardID:        w.CardID.String(),
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	walletID, err := id.ParseWalletID(m.ID)
	if err != nil {
		return nil, err
	}
	principalID, err := id.ParseAny(m.PrincipalID)
	if err != nil {
		return nil, err
	}
	currency := m.Currency
	if currency == "" {
		currency = "usdc"
	}
	perTx, err := types.FromString(orZero(m.PerTxLimit), currency)
	if err != nil {
		return nil, err
	}
	lifetime, err := types.FromString(orZero(m.LifetimeLimit), currency)
	if err != nil {
		return nil, err
	}
	spent, err := types.FromString(orZero(m.SpentTotal), currency)
	if err != nil {
		return nil, err
	}

	w := &wallet.Wallet{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            walletID,
		PrincipalID:   principalID,
		PrincipalKind: wallet.PrincipalKind(m.PrincipalKind),
		PerTxLimit:    perTx,
		LifetimeLimit: lifetime,
		SpentTotal:    spent,
		Active:        m.Active,
	}
	if m.CardID != "" {
		cardID, err := id.ParseCardID(m.CardID)
		if err != nil {
			return nil, err
		}
		w.CardID = cardID
	}
	return w, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// ==================== Agent models ====================

type agentModel struct {
	grove.BaseModel `grove:"table:sardis_agents"`

	ID        string            `grove:"id,pk"`
	OwnerID   string            `grove:"owner_id"`
	Name      string            `grove:"name"`
	WalletID  string            `grove:"wallet_id"`
	TrustTier string            `grove:"trust_tier"`
	Active    bool              `grove:"active"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"`
}

func toAgentModel(a *agent.Agent) *agentModel {
	return &agentModel{
		ID:        a.ID.String(),
		OwnerID:   a.OwnerID,
		Name:      a.Name,
		WalletID:  a.WalletID.String(),
		TrustTier: string(a.TrustTier),
		Active:    a.Active,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAgentModel(m *agentModel) (*agent.Agent, error) {
	agentID, err := id.ParseAgentID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	return &agent.Agent{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        agentID,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		WalletID:  walletID,
		TrustTier: agent.TrustTier(m.TrustTier),
		Active:    m.Active,
		Metadata:  m.Metadata,
	}, nil
}

// ==================== Merchant models ====================

type merchantModel struct {
	grove.BaseModel `grove:"table:sardis_merchants"`

	ID          string    `grove:"id,pk"`
	OwnerID     string    `grove:"owner_id"`
	Name        string    `grove:"name"`
	Category    string    `grove:"category"`
	WalletID    string    `grove:"wallet_id"`
	Active      bool      `grove:"active"`
	Verified    bool      `grove:"verified"`
	TrustScore  float64   `grove:"trust_score"`
	DisputeRate float64   `grove:"dispute_rate"`
	RefundRate  float64   `grove:"refund_rate"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toMerchantModel(m *merchant.Merchant) *merchantModel {
	return &merchantModel{
		ID:          m.ID.String(),
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Category:    m.Category,
		WalletID:    m.WalletID.String(),
		Active:      m.Active,
		Verified:    m.Verified,
		TrustScore:  m.TrustScore,
		DisputeRate: m.DisputeRate,
		RefundRate:  m.RefundRate,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromMerchantModel(m *merchantModel) (*merchant.Merchant, error) {
	merchantID, err := id.ParseMerchantID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	return &merchant.Merchant{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          merchantID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Category:    m.Category,
		WalletID:    walletID,
		Active:      m.Active,
		Verified:    m.Verified,
		TrustScore:  m.TrustScore,
		DisputeRate: m.DisputeRate,
		RefundRate:  m.RefundRate,
	}, nil
}

// ==================== Card models ====================

type cardModel struct {
	grove.BaseModel `grove:"table:sardis_cards"`

	ID          string    `grove:"id,pk"`
	WalletID    string    `grove:"wallet_id"`
	Number      string    `grove:"number"`
	ExpiresAt   time.Time `grove:"expires_at"`
	PerTxLimit  string    `grove:"per_tx_limit"`
	DailyLimit  string    `grove:"daily_limit"`
	DailySpent  string    `grove:"daily_spent"`
	Currency    string    `grove:"currency"`
	DailyWindow time.Time `grove:"daily_window_start"`
	State       string    `grove:"state"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toCardModel(c *card.Card) *cardModel {
	return &cardModel{
		ID:          c.ID.String(),
		WalletID:    c.WalletID.String(),
		Number:      c.Number,
		ExpiresAt:   c.ExpiresAt,
		PerTxLimit:  c.PerTxLimit.Amount.String(),
		DailyLimit:  c.DailyLimit.Amount.String(),
		DailySpent:  c.DailySpent.Amount.String(),
		Currency:    c.DailySpent.Currency,
		DailyWindow: c.DailyWindow,
		State:       string(c.State),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromCardModel(m *cardModel) (*card.Card, error) {
	cardID, err := id.ParseCardID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	currency := m.Currency
	if currency == "" {
		currency = "usdc"
	}
	perTx, err := types.FromString(orZero(m.PerTxLimit), currency)
	if err != nil {
		return nil, err
	}
	daily, err := types.FromString(orZero(m.DailyLimit), currency)
	if err != nil {
		return nil, err
	}
	spent, err := types.FromString(orZero(m.DailySpent), currency)
	if err != nil {
		return nil, err
	}
	return &card.Card{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          cardID,
		WalletID:    walletID,
		Number:      m.Number,
		ExpiresAt:   m.ExpiresAt,
		PerTxLimit:  perTx,
		DailyLimit:  daily,
		DailySpent:  spent,
		DailyWindow: m.DailyWindow,
		State:       card.State(m.State),
	}, nil
}

// ==================== Spending policy models ====================
//
// SpendingPolicy carries nested collections (windows, merchant rules) that
// don't map cleanly onto flat columns, so the whole policy is persisted as
// one JSONB document keyed by agent ID, mirroring how the teacher stores
// plan.Features/plan.Pricing as jsonb blobs rather than normalized tables.

type policyModel struct {
	grove.BaseModel `grove:"table:sardis_policies"`

	AgentID   string          `grove:"agent_id,pk"`
	PolicyID  string          `grove:"policy_id"`
	Document  json.RawMessage `grove:"document,type:jsonb"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toPolicyModel(p *policy.SpendingPolicy) (*policyModel, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &policyModel{
		AgentID:  p.AgentID.String(),
		PolicyID: p.ID.String(),
		Document: doc,
	}, nil
}

func fromPolicyModel(m *policyModel) (*policy.SpendingPolicy, error) {
	p := new(policy.SpendingPolicy)
	if err := json.Unmarshal(m.Document, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ==================== Payment hold models ====================

type holdModel struct {
	grove.BaseModel `grove:"table:sardis_holds"`

	ID             string     `grove:"id,pk"`
	AgentID        string     `grove:"agent_id"`
	WalletID       string     `grove:"wallet_id"`
	MerchantID     string     `grove:"merchant_id"`
	Amount         string     `grove:"amount"`
	Currency       string     `grove:"currency"`
	Purpose        string     `grove:"purpose"`
	Status         string     `grove:"status"`
	ExpiresAt      time.Time  `grove:"expires_at"`
	LedgerHoldTxID string     `grove:"ledger_hold_tx_id"`
	CapturedAt     *time.Time `grove:"captured_at"`
	VoidedAt       *time.Time `grove:"voided_at"`
	CaptureTxID    string     `grove:"capture_tx_id"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toHoldModel(h *orchestrator.PaymentHold) *holdModel {
	return &holdModel{
		ID:             h.ID.String(),
		AgentID:        h.AgentID.String(),
		WalletID:       h.WalletID.String(),
		MerchantID:     h.MerchantID.String(),
		Amount:         h.Amount.Amount.String(),
		Currency:       h.Amount.Currency,
		Purpose:        h.Purpose,
		Status:         string(h.Status),
		ExpiresAt:      h.ExpiresAt,
		LedgerHoldTxID: h.LedgerHoldTxID.String(),
		CapturedAt:     h.CapturedAt,
		VoidedAt:       h.VoidedAt,
		CaptureTxID:    h.CaptureTxID.String(),
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}

func fromHoldModel(m *holdModel) (*orchestrator.PaymentHold, error) {
	holdID, err := id.ParseHoldID(m.ID)
	if err != nil {
		return nil, err
	}
	agentID, err := id.ParseAgentID(m.AgentID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	merchantID, err := id.ParseMerchantID(m.MerchantID)
	if err != nil {
		return nil, err
	}
	amount, err := types.FromString(orZero(m.Amount), m.Currency)
	if err != nil {
		return nil, err
	}
	h := &orchestrator.PaymentHold{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         holdID,
		AgentID:    agentID,
		WalletID:   walletID,
		MerchantID: merchantID,
		Amount:     amount,
		Purpose:    m.Purpose,
		Status:     orchestrator.HoldStatus(m.Status),
		ExpiresAt:  m.ExpiresAt,
		CapturedAt: m.CapturedAt,
		VoidedAt:   m.VoidedAt,
	}
	if m.LedgerHoldTxID != "" {
		txID, err := id.ParseTransactionID(m.LedgerHoldTxID)
		if err != nil {
			return nil, err
		}
		h.LedgerHoldTxID = txID
	}
	if m.CaptureTxID != "" {
		txID, err := id.ParseTransactionID(m.CaptureTxID)
		if err != nil {
			return nil, err
		}
		h.CaptureTxID = txID
	}
	return h, nil
}

// ==================== Webhook subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:sardis_webhook_subscriptions"`

	ID               string     `grove:"id,pk"`
	OwnerID          string     `grove:"owner_id"`
	URL              string     `grove:"url"`
	Events           []string   `grove:"events,type:jsonb"`
	Secret           string     `grove:"secret"`
	Active           bool       `grove:"active"`
	DeliveryCount    int64      `grove:"delivery_count"`
	FailureCount     int64      `grove:"failure_count"`
	LastDeliveryAt   *time.Time `grove:"last_delivery_at"`
	CreatedAt        time.Time  `grove:"created_at"`
	UpdatedAt        time.Time  `grove:"updated_at"`
}

func toSubscriptionModel(s *webhook.Subscription) *subscriptionModel {
	events := make([]string, len(s.Events))
	for i, e := range s.Events {
		events[i] = string(e)
	}
	return &subscriptionModel{
		ID:             s.ID.String(),
		OwnerID:        s.OwnerID,
		URL:            s.URL,
		Events:         events,
		Secret:         s.Secret,
		Active:         s.Active,
		DeliveryCount:  int64(s.TotalDeliveries),
		FailureCount:   int64(s.FailedDeliveries),
		LastDeliveryAt: s.LastDeliveryAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*webhook.Subscription, error) {
	subID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, err
	}
	events := make([]webhook.EventType, len(m.Events))
	for i, e := range m.Events {
		events[i] = webhook.EventType(e)
	}
	return &webhook.Subscription{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             subID,
		OwnerID:        m.OwnerID,
		URL:            m.URL,
		Events:         events,
		Secret:         m.Secret,
		Active:         m.Active,
		TotalDeliveries:      int(m.DeliveryCount),
		SuccessfulDeliveries: int(m.DeliveryCount - m.FailureCount),
		FailedDeliveries:     int(m.FailureCount),
		LastDeliveryAt:       m.LastDeliveryAt,
	}, nil
}

// ==================== Idempotency models ====================

type idempotencyModel struct {
	grove.BaseModel `grove:"table:sardis_idempotency_keys"`

	Key           string    `grove:"key,pk"`
	TransactionID string    `grove:"transaction_id"`
	CreatedAt     time.Time `grove:"created_at"`
}

// ==================== Ledger entry/transaction/checkpoint models ====================

type entryModel struct {
	grove.BaseModel `grove:"table:sardis_ledger_entries"`

	Sequence         uint64    `grove:"sequence"`
	ID               string    `grove:"id,pk"`
	Type             string    `grove:"type"`
	WalletID         string    `grove:"wallet_id"`
	Currency         string    `grove:"currency"`
	Amount           string    `grove:"amount"`
	CounterpartID    string    `grove:"counterpart_id"`
	TransactionID    string    `grove:"transaction_id"`
	Status           string    `grove:"status"`
	Description      string    `grove:"description"`
	PreviousChecksum string    `grove:"previous_checksum"`
	Checksum         string    `grove:"checksum"`
	CreatedAt        time.Time `grove:"created_at"`
}

func toEntryModel(e *ledger.Entry) *entryModel {
	return &entryModel{
		Sequence:         e.Sequence,
		ID:               e.ID.String(),
		Type:             string(e.Type),
		WalletID:         e.WalletID.String(),
		Currency:         e.Currency,
		Amount:           e.Amount.Amount.String(),
		CounterpartID:    e.CounterpartID.String(),
		TransactionID:    e.TransactionID.String(),
		Status:           string(e.Status),
		Description:      e.Description,
		PreviousChecksum: e.PreviousChecksum,
		Checksum:         e.Checksum,
		CreatedAt:        e.CreatedAt,
	}
}

func fromEntryModel(m *entryModel) (*ledger.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	txID, err := id.ParseTransactionID(m.TransactionID)
	if err != nil {
		return nil, err
	}
	amount, err := types.FromString(orZero(m.Amount), m.Currency)
	if err != nil {
		return nil, err
	}
	e := &ledger.Entry{
		Sequence:         m.Sequence,
		ID:               entryID,
		Type:             ledger.EntryType(m.Type),
		WalletID:         walletID,
		Currency:         m.Currency,
		Amount:           amount,
		TransactionID:    txID,
		Status:           ledger.EntryStatus(m.Status),
		Description:      m.Description,
		PreviousChecksum: m.PreviousChecksum,
		Checksum:         m.Checksum,
		CreatedAt:        m.CreatedAt,
	}
	if m.CounterpartID != "" {
		counterpartID, err := id.ParseEntryID(m.CounterpartID)
		if err != nil {
			return nil, err
		}
		e.CounterpartID = counterpartID
	}
	return e, nil
}

type transactionModel struct {
	grove.BaseModel `grove:"table:sardis_ledger_transactions"`

	ID             string    `grove:"id,pk"`
	Kind           string    `grove:"kind"`
	EntryIDs       []string  `grove:"entry_ids,type:jsonb"`
	FromWallet     string    `grove:"from_wallet"`
	ToWallet       string    `grove:"to_wallet"`
	Currency       string    `grove:"currency"`
	Amount         string    `grove:"amount"`
	Fee            string    `grove:"fee"`
	FeeWallet      string    `grove:"fee_wallet"`
	Description    string    `grove:"description"`
	HoldTxRef      string    `grove:"hold_tx_ref"`
	HoldReleased   bool      `grove:"hold_released"`
	Status         string    `grove:"status"`
	RefundedAmount string    `grove:"refunded_amount"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toTransactionModel(t *ledger.Transaction) *transactionModel {
	entryIDs := make([]string, len(t.EntryIDs))
	for i, e := range t.EntryIDs {
		entryIDs[i] = e.String()
	}
	return &transactionModel{
		ID:             t.ID.String(),
		Kind:           string(t.Kind),
		EntryIDs:       entryIDs,
		FromWallet:     t.FromWallet.String(),
		ToWallet:       t.ToWallet.String(),
		Currency:       t.Currency,
		Amount:         t.Amount.Amount.String(),
		Fee:            t.Fee.Amount.String(),
		FeeWallet:      t.FeeWallet.String(),
		Description:    t.Description,
		HoldTxRef:      t.HoldTxRef.String(),
		HoldReleased:   t.HoldReleased,
		Status:         string(t.Status),
		RefundedAmount: t.RefundedAmount.Amount.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*ledger.Transaction, error) {
	txID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	entryIDs := make([]id.EntryID, len(m.EntryIDs))
	for i, e := range m.EntryIDs {
		entryID, err := id.ParseEntryID(e)
		if err != nil {
			return nil, err
		}
		entryIDs[i] = entryID
	}
	amount, err := types.FromString(orZero(m.Amount), m.Currency)
	if err != nil {
		return nil, err
	}
	fee, err := types.FromString(orZero(m.Fee), m.Currency)
	if err != nil {
		return nil, err
	}
	refunded, err := types.FromString(orZero(m.RefundedAmount), m.Currency)
	if err != nil {
		return nil, err
	}
	t := &ledger.Transaction{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             txID,
		Kind:           ledger.Kind(m.Kind),
		EntryIDs:       entryIDs,
		Currency:       m.Currency,
		Amount:         amount,
		Fee:            fee,
		Description:    m.Description,
		HoldReleased:   m.HoldReleased,
		Status:         ledger.TransactionStatus(m.Status),
		RefundedAmount: refunded,
	}
	if m.FromWallet != "" {
		w, err := id.ParseWalletID(m.FromWallet)
		if err != nil {
			return nil, err
		}
		t.FromWallet = w
	}
	if m.ToWallet != "" {
		w, err := id.ParseWalletID(m.ToWallet)
		if err != nil {
			return nil, err
		}
		t.ToWallet = w
	}
	if m.FeeWallet != "" {
		w, err := id.ParseWalletID(m.FeeWallet)
		if err != nil {
			return nil, err
		}
		t.FeeWallet = w
	}
	if m.HoldTxRef != "" {
		ref, err := id.ParseTransactionID(m.HoldTxRef)
		if err != nil {
			return nil, err
		}
		t.HoldTxRef = ref
	}
	return t, nil
}

type checkpointModel struct {
	grove.BaseModel `grove:"table:sardis_ledger_checkpoints"`

	ID           string          `grove:"id,pk"`
	PeriodStart  time.Time       `grove:"period_start"`
	PeriodEnd    time.Time       `grove:"period_end"`
	LastSequence uint64          `grove:"last_sequence"`
	LastChecksum string          `grove:"last_checksum"`
	Balances     json.RawMessage `grove:"balances,type:jsonb"`
	EntryCount   uint64          `grove:"entry_count"`
	Volume       json.RawMessage `grove:"volume,type:jsonb"`
	Checksum     string          `grove:"checksum"`
	CreatedAt    time.Time       `grove:"created_at"`
}

func toCheckpointModel(c *ledger.Checkpoint) (*checkpointModel, error) {
	balances, err := json.Marshal(c.Balances)
	if err != nil {
		return nil, err
	}
	volume, err := json.Marshal(c.Volume)
	if err != nil {
		return nil, err
	}
	return &checkpointModel{
		ID:           c.ID.String(),
		PeriodStart:  c.PeriodStart,
		PeriodEnd:    c.PeriodEnd,
		LastSequence: c.LastSequence,
		LastChecksum: c.LastChecksum,
		Balances:     balances,
		EntryCount:   c.EntryCount,
		Volume:       volume,
		Checksum:     c.Checksum,
		CreatedAt:    c.CreatedAt,
	}, nil
}
