// Package orchestrator implements the L3 payment orchestrator: the
// single entry point that coordinates idempotency, policy, risk, the
// ledger, and event emission, per spec §4.3.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/types"
)

const defaultHoldExpiration = 168 * time.Hour
const idempotencyTTL = 24 * time.Hour

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }
func WithFeePricer(p FeePricer) Option { return func(o *Orchestrator) { o.fees = p } }
func WithHoldStore(s HoldStore) Option { return func(o *Orchestrator) { o.holds = s } }
func WithEvents(e EventEmitter) Option { return func(o *Orchestrator) { o.events = e } }
func WithPolicyStore(s PolicyStore) Option { return func(o *Orchestrator) { o.policies = s } }
func WithRiskEngine(e *risk.Engine) Option { return func(o *Orchestrator) { o.risk = e } }
func WithRiskProfiles(s RiskProfileStore) Option { return func(o *Orchestrator) { o.riskProfiles = s } }

// WithFeeWallet sets the platform treasury wallet that collects every
// transfer's fee. Without it, Pay and CaptureHold charge no fee and no
// fee entry is emitted; EstimatePayment still reports the pricer's fee.
func WithFeeWallet(w id.WalletID) Option { return func(o *Orchestrator) { o.feeWallet = w } }

// Orchestrator is the L3 payment pipeline.
type Orchestrator struct {
	ledger   *ledger.Engine
	wallets  WalletStore
	agents   AgentStore
	merchants MerchantStore
	policies PolicyStore
	risk     *risk.Engine
	riskProfiles RiskProfileStore
	holds    HoldStore
	events   EventEmitter
	fees     FeePricer
	feeWallet id.WalletID
	logger   *slog.Logger

	mu          sync.Mutex
	idempotency map[string]idempotencyEntry
	txIndex     map[id.AgentID][]id.TransactionID
}

// New builds an Orchestrator over a ledger engine and the entity stores
// it needs to resolve wallets/agents/merchants.
func New(eng *ledger.Engine, wallets WalletStore, agents AgentStore, merchants MerchantStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ledger:    eng,
		wallets:   wallets,
		agents:    agents,
		merchants: merchants,
		fees:      NewFlatFeePricer(map[string]types.Money{"usdc": types.USDC("0.10")}),
		logger:    slog.Default(),
		idempotency: make(map[string]idempotencyEntry),
		txIndex:     make(map[id.AgentID][]id.TransactionID),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) emit(ctx context.Context, eventType string, payload map[string]any) {
	if o.events == nil {
		return
	}
	o.events.Emit(ctx, eventType, payload)
}

func (o *Orchestrator) fail(kind ErrorKind, message string) PaymentResult {
	return PaymentResult{Success: false, Status: StatusFailed, Error: kind, Message: message}
}

func (o *Orchestrator) cachedReplay(key string) (PaymentResult, bool) {
	if key == "" {
		return PaymentResult{}, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.idempotency[key]
	if !ok || time.Now().UTC().After(entry.expiresAt) {
		return PaymentResult{}, false
	}
	return entry.result, true
}

func (o *Orchestrator) cacheResult(key string, result PaymentResult) {
	if key == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.idempotency[key] = idempotencyEntry{result: result, expiresAt: time.Now().UTC().Add(idempotencyTTL)}
}

func (o *Orchestrator) recordTx(agentID id.AgentID, txID id.TransactionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.txIndex[agentID] = append(o.txIndex[agentID], txID)
}

// PayRequest carries the inputs to Pay.
type PayRequest struct {
	AgentID        id.AgentID
	Amount         types.Money
	RecipientWallet id.WalletID
	Purpose        string
	Scope          policy.Scope
	IdempotencyKey string

	// MerchantID optionally identifies the recipient as a known merchant,
	// so policy and risk evaluation can apply merchant/category rules and
	// reputation scoring. Zero means the recipient is treated as an
	// anonymous wallet. PayMerchant always sets this.
	MerchantID id.MerchantID
}

// Pay is the single entry point for an agent-initiated payment, per the
// 9-step algorithm in spec §4.3.
func (o *Orchestrator) Pay(ctx context.Context, req PayRequest) PaymentResult {
	// 1. Idempotency lookup.
	if cached, ok := o.cachedReplay(req.IdempotencyKey); ok {
		cached.Error = ErrIdempotentReplay
		return cached
	}

	// 2. Validation.
	if !req.Amount.IsPositive() {
		return o.fail(ErrInvalidAmount, "amount must be positive")
	}
	ag, err := o.agents.GetAgent(ctx, req.AgentID)
	if err != nil || ag == nil {
		return o.fail(ErrAgentNotFound, "agent not found")
	}
	agentWallet, err := o.wallets.GetWallet(ctx, ag.WalletID)
	if err != nil || agentWallet == nil {
		return o.fail(ErrWalletNotFound, "agent wallet not found")
	}
	if _, err := o.wallets.GetWallet(ctx, req.RecipientWallet); err != nil {
		return o.fail(ErrWalletNotFound, "recipient wallet not found")
	}

	// 2b. Merchant resolution, when the recipient is a known merchant.
	// Both policy and risk need the merchant's identity and category —
	// without this, every payment reads as an anonymous-recipient payment
	// regardless of how reputable the merchant actually is.
	var merchantID *id.MerchantID
	var merchantCategory string
	var riskMerchant *risk.MerchantProfile
	if !req.MerchantID.IsNil() {
		m, err := o.merchants.GetMerchant(ctx, req.MerchantID)
		if err != nil || m == nil {
			return o.fail(ErrMerchantNotFound, "merchant not found")
		}
		mid := req.MerchantID
		merchantID = &mid
		merchantCategory = m.Category
		riskMerchant = merchantProfile(m)
	}

	// 3. Fee pricing.
	fee := o.fees.Fee(req.Amount)
	if o.feeWallet.IsNil() {
		// No treasury wallet to collect it: no fee is charged.
		fee = types.Zero(req.Amount.Currency)
	}

	// 4. Policy check.
	if o.policies != nil {
		pol, _ := o.policies.GetPolicy(ctx, req.AgentID)
		if pol != nil {
			decision := pol.Evaluate(policy.EvalRequest{
				Amount:           req.Amount,
				Fee:              fee,
				MerchantID:       merchantID,
				MerchantCategory: merchantCategory,
				Scope:            req.Scope,
				Now:              time.Now().UTC(),
			})
			if !decision.Approved {
				result := o.fail(errorKindFromReason(string(decision.Reason)), decision.Message)
				o.emit(ctx, "payment.failed", map[string]any{"agent_id": req.AgentID.String(), "error": string(result.Error)})
				return result
			}
			if decision.RequiresApproval {
				return PaymentResult{Success: true, Status: StatusPendingApproval, ApprovalID: id.NewEventID().String()}
			}
		}
	}

	// 5. Risk evaluation.
	if o.risk != nil && o.riskProfiles != nil {
		profile, _ := o.riskProfiles.GetAgentProfile(ctx, req.AgentID)
		pc := risk.Context{
			Agent:            profile,
			Merchant:         riskMerchant,
			RecipientWallet:  req.RecipientWallet,
			MerchantCategory: merchantCategory,
			Amount:           req.Amount,
		}
		d := o.risk.Evaluate(ctx, pc)
		if d.Action == risk.ActionDeny {
			result := o.fail(ErrRiskDenied, "risk pipeline returned DENY")
			o.emit(ctx, "payment.failed", map[string]any{"agent_id": req.AgentID.String(), "error": string(result.Error)})
			return result
		}
		if d.Action == risk.ActionReview {
			return PaymentResult{Success: true, Status: StatusPendingApproval, ApprovalID: id.NewEventID().String()}
		}
	}

	// 6. Wallet-level recheck happens implicitly: the ledger transfer
	// below re-validates available balance atomically under its own lock.

	// 7. Ledger transfer.
	res, err := o.ledger.Transfer(ctx, agentWallet.ID, req.RecipientWallet, req.Amount, fee, o.feeWallet, req.Purpose)
	if err != nil {
		kind := ErrInternal
		if err == ledger.ErrInsufficientBalance {
			kind = ErrInsufficientBalance
		}
		result := o.fail(kind, err.Error())
		o.emit(ctx, "payment.failed", map[string]any{"agent_id": req.AgentID.String(), "error": string(kind)})
		o.cacheResult(req.IdempotencyKey, result)
		return result
	}

	// 8. Post-commit bookkeeping.
	if o.policies != nil {
		if pol, _ := o.policies.GetPolicy(ctx, req.AgentID); pol != nil {
			pol.RecordSpend(req.Amount)
		}
	}
	agentWallet.RecordSpend(req.Amount)
	_ = o.wallets.SaveWallet(ctx, agentWallet)
	if o.riskProfiles != nil {
		o.riskProfiles.RecordOutcome(ctx, req.AgentID, true, req.Amount, req.RecipientWallet, "")
	}
	o.recordTx(req.AgentID, res.Transaction.ID)

	result := PaymentResult{Success: true, Status: StatusCompleted, Transaction: res.Transaction, IdempotencyKey: req.IdempotencyKey}
	o.cacheResult(req.IdempotencyKey, result)

	// 9. Emit.
	o.emit(ctx, "payment.completed", map[string]any{
		"transaction_id": res.Transaction.ID.String(),
		"agent_id":       req.AgentID.String(),
		"amount":         req.Amount.String(),
	})

	return result
}

// PayMerchantRequest carries the inputs to PayMerchant.
type PayMerchantRequest struct {
	AgentID        id.AgentID
	MerchantID     id.MerchantID
	Amount         types.Money
	Purpose        string
	Scope          policy.Scope
	IdempotencyKey string
}

// PayMerchant resolves the merchant's wallet and delegates to Pay.
func (o *Orchestrator) PayMerchant(ctx context.Context, req PayMerchantRequest) PaymentResult {
	m, err := o.merchants.GetMerchant(ctx, req.MerchantID)
	if err != nil || m == nil {
		return o.fail(ErrMerchantNotFound, "merchant not found")
	}
	return o.Pay(ctx, PayRequest{
		AgentID:         req.AgentID,
		Amount:          req.Amount,
		RecipientWallet: m.WalletID,
		Purpose:         req.Purpose,
		Scope:           req.Scope,
		IdempotencyKey:  req.IdempotencyKey,
		MerchantID:      req.MerchantID,
	})
}

// EstimatePayment returns the fee and total for a proposed amount
// without mutating any state.
func (o *Orchestrator) EstimatePayment(amount types.Money) (fee, total types.Money) {
	fee = o.fees.Fee(amount)
	return fee, amount.Add(fee)
}

// GetTransaction looks up a committed ledger transaction.
func (o *Orchestrator) GetTransaction(txID id.TransactionID) (*ledger.Transaction, error) {
	return o.ledger.GetTransaction(txID)
}

// ListAgentTransactions lists transaction ids this orchestrator recorded
// for agentID, newest first.
func (o *Orchestrator) ListAgentTransactions(agentID id.AgentID, limit, offset int) []id.TransactionID {
	o.mu.Lock()
	defer o.mu.Unlock()
	all := o.txIndex[agentID]
	out := make([]id.TransactionID, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out
}

func holdErr(kind ErrorKind, message string) HoldResult {
	return HoldResult{Success: false, Error: kind, Message: message}
}

// CreateHoldRequest carries the inputs to CreateHold.
type CreateHoldRequest struct {
	AgentID          id.AgentID
	MerchantID       id.MerchantID
	Amount           types.Money
	Purpose          string
	ExpirationHours  float64
}

// CreateHold reserves funds against a future capture, per spec §4.3.
func (o *Orchestrator) CreateHold(ctx context.Context, req CreateHoldRequest) HoldResult {
	if !req.Amount.IsPositive() {
		return holdErr(ErrInvalidAmount, "amount must be positive")
	}
	ag, err := o.agents.GetAgent(ctx, req.AgentID)
	if err != nil || ag == nil {
		return holdErr(ErrAgentNotFound, "agent not found")
	}
	m, err := o.merchants.GetMerchant(ctx, req.MerchantID)
	if err != nil || m == nil {
		return holdErr(ErrMerchantNotFound, "merchant not found")
	}
	agentWallet, err := o.wallets.GetWallet(ctx, ag.WalletID)
	if err != nil || agentWallet == nil {
		return holdErr(ErrWalletNotFound, "agent wallet not found")
	}

	fee := o.fees.Fee(req.Amount)
	if o.policies != nil {
		if pol, _ := o.policies.GetPolicy(ctx, req.AgentID); pol != nil {
			mid := req.MerchantID
			decision := pol.Evaluate(policy.EvalRequest{
				Amount:           req.Amount,
				Fee:              fee,
				MerchantID:       &mid,
				MerchantCategory: m.Category,
				Now:              time.Now().UTC(),
			})
			if !decision.Approved {
				return holdErr(errorKindFromReason(string(decision.Reason)), decision.Message)
			}
		}
	}

	ledgerRes, err := o.ledger.CreateHold(ctx, agentWallet.ID, req.Amount, req.Purpose)
	if err != nil {
		kind := ErrInternal
		if err == ledger.ErrInsufficientBalance {
			kind = ErrInsufficientBalance
		}
		return holdErr(kind, err.Error())
	}

	expirationHours := req.ExpirationHours
	if expirationHours <= 0 {
		expirationHours = defaultHoldExpiration.Hours()
	}

	agentWallet.RecordSpend(req.Amount)
	_ = o.wallets.SaveWallet(ctx, agentWallet)

	hold := &PaymentHold{
		Entity:         types.NewEntity(),
		ID:             id.NewHoldID(),
		AgentID:        req.AgentID,
		WalletID:       agentWallet.ID,
		MerchantID:     req.MerchantID,
		Amount:         req.Amount,
		Purpose:        req.Purpose,
		Status:         HoldActive,
		ExpiresAt:      time.Now().UTC().Add(time.Duration(expirationHours * float64(time.Hour))),
		LedgerHoldTxID: ledgerRes.Transaction.ID,
	}
	if o.holds != nil {
		if err := o.holds.SaveHold(ctx, hold); err != nil {
			o.logger.Error("orchestrator: persist hold failed", "err", err)
		}
	}

	o.emit(ctx, "hold.created", map[string]any{"hold_id": hold.ID.String(), "agent_id": req.AgentID.String()})

	return HoldResult{Success: true, Hold: hold}
}

// CaptureHoldRequest carries the inputs to CaptureHold.
type CaptureHoldRequest struct {
	HoldID  id.HoldID
	Amount  *types.Money
	Purpose string
}

// CaptureHold releases a hold's reservation and pays the captured
// portion to the merchant, per spec §4.3.
func (o *Orchestrator) CaptureHold(ctx context.Context, req CaptureHoldRequest) PaymentResult {
	if o.holds == nil {
		return o.fail(ErrInternal, "no hold store configured")
	}
	hold, err := o.holds.GetHold(ctx, req.HoldID)
	if err != nil || hold == nil {
		return o.fail(ErrHoldNotActive, "hold not found")
	}
	if hold.Status != HoldActive {
		return o.fail(ErrHoldNotActive, "hold is not active")
	}
	if time.Now().UTC().After(hold.ExpiresAt) {
		hold.Status = HoldExpired
		hold.Touch()
		_ = o.holds.UpdateHold(ctx, hold)
		_, _ = o.ledger.VoidHold(ctx, hold.LedgerHoldTxID)
		return o.fail(ErrHoldExpired, "hold has expired")
	}

	m, err := o.merchants.GetMerchant(ctx, hold.MerchantID)
	if err != nil || m == nil {
		return o.fail(ErrMerchantNotFound, "merchant not found")
	}

	captureAmount := hold.Amount
	if req.Amount != nil {
		captureAmount = *req.Amount
	}
	if captureAmount.GreaterThan(hold.Amount) {
		return o.fail(ErrCaptureExceedsHold, "capture amount exceeds hold")
	}

	fee := o.fees.Fee(captureAmount)
	if o.feeWallet.IsNil() {
		fee = types.Zero(captureAmount.Currency)
	}
	ledgerRes, err := o.ledger.CaptureHold(ctx, hold.LedgerHoldTxID, m.WalletID, &captureAmount, fee, o.feeWallet, req.Purpose)
	if err != nil {
		kind := ErrInternal
		if err == ledger.ErrInsufficientBalance {
			kind = ErrInsufficientBalance
		}
		return o.fail(kind, err.Error())
	}

	agentWallet, err := o.wallets.GetWallet(ctx, hold.WalletID)
	if err == nil && agentWallet != nil {
		// The captured part stays booked as spend; only the uncaptured
		// remainder of the reservation is released.
		agentWallet.ReleaseSpend(hold.Amount.Subtract(captureAmount))
		_ = o.wallets.SaveWallet(ctx, agentWallet)
	}

	now := time.Now().UTC()
	hold.Status = HoldCaptured
	hold.CapturedAt = &now
	hold.CaptureTxID = ledgerRes.Transaction.ID
	hold.Touch()
	_ = o.holds.UpdateHold(ctx, hold)

	o.emit(ctx, "hold.captured", map[string]any{"hold_id": hold.ID.String(), "transaction_id": ledgerRes.Transaction.ID.String()})

	return PaymentResult{Success: true, Status: StatusCompleted, Transaction: ledgerRes.Transaction}
}

// VoidHold releases a hold's reservation without capturing any funds.
func (o *Orchestrator) VoidHold(ctx context.Context, holdID id.HoldID) HoldResult {
	if o.holds == nil {
		return holdErr(ErrInternal, "no hold store configured")
	}
	hold, err := o.holds.GetHold(ctx, holdID)
	if err != nil || hold == nil {
		return holdErr(ErrHoldNotActive, "hold not found")
	}
	if hold.Status != HoldActive {
		return holdErr(ErrHoldNotActive, "hold is not active")
	}

	if _, err := o.ledger.VoidHold(ctx, hold.LedgerHoldTxID); err != nil {
		return holdErr(ErrInternal, err.Error())
	}

	agentWallet, err := o.wallets.GetWallet(ctx, hold.WalletID)
	if err == nil && agentWallet != nil {
		agentWallet.ReleaseSpend(hold.Amount)
		_ = o.wallets.SaveWallet(ctx, agentWallet)
	}

	now := time.Now().UTC()
	hold.Status = HoldVoided
	hold.VoidedAt = &now
	hold.Touch()
	_ = o.holds.UpdateHold(ctx, hold)

	o.emit(ctx, "hold.voided", map[string]any{"hold_id": hold.ID.String()})

	return HoldResult{Success: true, Hold: hold}
}

// Refund reverses a completed payment, bounded by its remaining
// refundable amount, per spec §4.3.
func (o *Orchestrator) Refund(ctx context.Context, txID id.TransactionID, amount *types.Money, reason string) RefundResult {
	res, err := o.ledger.Refund(ctx, txID, amount, reason)
	if err != nil {
		kind := ErrInternal
		switch err {
		case ledger.ErrRefundExceedsOriginal:
			kind = ErrRefundExceedsOriginal
		case ledger.ErrRefundOnNonCompleted, ledger.ErrTransactionNotFound:
			kind = ErrRefundOnNonCompleted
		case ledger.ErrInsufficientBalance:
			kind = ErrInsufficientBalance
		}
		return RefundResult{Success: false, Error: kind, Message: err.Error()}
	}

	o.emit(ctx, "payment.refunded", map[string]any{"transaction_id": txID.String(), "refund_transaction_id": res.Transaction.ID.String()})

	return RefundResult{Success: true, Transaction: res.Transaction}
}
