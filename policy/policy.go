// Package policy implements the L2a spending-policy evaluator: per-agent
// limits, rolling time windows, merchant allow/deny rules, and the
// optional drift and approval checks described in spec §4.2.1.
package policy

import (
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Scope is a capability tag an agent's payment request is tagged with;
// policies restrict spending to an allowed set of scopes.
type Scope string

// ScopeAll matches any scope.
const ScopeAll Scope = "ALL"

// WindowKind names a rolling spending window.
type WindowKind string

const (
	WindowDaily   WindowKind = "daily"
	WindowWeekly  WindowKind = "weekly"
	WindowMonthly WindowKind = "monthly"
)

func (k WindowKind) duration() time.Duration {
	switch k {
	case WindowDaily:
		return 24 * time.Hour
	case WindowWeekly:
		return 7 * 24 * time.Hour
	case WindowMonthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

func (k WindowKind) reason() Reason {
	switch k {
	case WindowDaily:
		return ReasonDailyLimit
	case WindowWeekly:
		return ReasonWeeklyLimit
	default:
		return ReasonMonthlyLimit
	}
}

// TimeWindowLimit tracks spend against a rolling window, reset lazily
// the next time it is checked after expiry.
type TimeWindowLimit struct {
	Kind        WindowKind  `json:"kind"`
	Limit       types.Money `json:"limit"`
	Spent       types.Money `json:"spent"`
	WindowStart time.Time   `json:"window_start"`
}

func (w *TimeWindowLimit) resetIfExpired(now time.Time) {
	if w.Limit.IsZero() {
		return
	}
	if !now.Before(w.WindowStart.Add(w.Kind.duration())) {
		w.Spent = types.Zero(w.Limit.Currency)
		w.WindowStart = now
	}
}

func (w *TimeWindowLimit) wouldExceed(amount types.Money) bool {
	if w.Limit.IsZero() {
		return false
	}
	return w.Spent.Add(amount).GreaterThan(w.Limit)
}

func (w *TimeWindowLimit) record(amount types.Money) {
	if w.Limit.IsZero() {
		return
	}
	w.Spent = w.Spent.Add(amount)
}

// MerchantRuleAction is allow or deny.
type MerchantRuleAction string

const (
	MerchantAllow MerchantRuleAction = "allow"
	MerchantDeny  MerchantRuleAction = "deny"
)

// MerchantRule restricts spending to or away from a specific merchant, a
// whole merchant category, or both — a rule matches a request if either
// its MerchantID or its Category is set and matches.
type MerchantRule struct {
	MerchantID id.MerchantID      `json:"merchant_id,omitempty"`
	Category   string             `json:"category,omitempty"`
	Action     MerchantRuleAction `json:"action"`
	MaxPerTx   types.Money        `json:"max_per_tx,omitempty"` // allow-only, zero means unbounded
	Active     bool               `json:"active"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
}

func (r MerchantRule) isActive(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return false
	}
	return true
}

// matches reports whether the rule applies to a request against the given
// merchant id and/or category. A rule with both fields set requires only
// one of them to match, per spec §3/§4.2.1 step 6.
func (r MerchantRule) matches(merchantID *id.MerchantID, category string) bool {
	if !r.MerchantID.IsNil() && merchantID != nil && r.MerchantID == *merchantID {
		return true
	}
	if r.Category != "" && category != "" && r.Category == category {
		return true
	}
	return false
}

// SpendingPolicy is the full set of limits attached to one agent.
type SpendingPolicy struct {
	mu sync.Mutex

	ID      id.PolicyID `json:"id"`
	AgentID id.AgentID  `json:"agent_id"`

	AllowedScopes []Scope `json:"allowed_scopes"` // empty means ALL

	LimitPerTx  types.Money `json:"limit_per_tx,omitempty"`
	LimitTotal  types.Money `json:"limit_total,omitempty"`
	SpentTotal  types.Money `json:"spent_total"`

	Windows []*TimeWindowLimit `json:"windows"`
	Rules   []MerchantRule     `json:"rules"`

	MaxDriftScore      *float64     `json:"max_drift_score,omitempty"`
	ApprovalThreshold  *types.Money `json:"approval_threshold,omitempty"`
}

// New creates an empty policy with no restrictions beyond those the
// caller adds.
func New(agentID id.AgentID, currency string) *SpendingPolicy {
	return &SpendingPolicy{
		ID:         id.NewPolicyID(),
		AgentID:    agentID,
		SpentTotal: types.Zero(currency),
	}
}

// WithWindow attaches or replaces a rolling time-window limit.
func (p *SpendingPolicy) WithWindow(kind WindowKind, limit types.Money) *SpendingPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.Windows {
		if w.Kind == kind {
			w.Limit = limit
			return p
		}
	}
	p.Windows = append(p.Windows, &TimeWindowLimit{Kind: kind, Limit: limit, Spent: types.Zero(limit.Currency), WindowStart: time.Now().UTC()})
	return p
}

// Decision is the evaluator's outcome for one proposed spend.
type Decision struct {
	Approved          bool
	RequiresApproval   bool
	Reason            Reason
	Message           string
}

// EvalRequest carries everything the 9-step algorithm needs.
type EvalRequest struct {
	Amount           types.Money
	Fee              types.Money
	MerchantID       *id.MerchantID
	MerchantCategory string
	Scope            Scope
	DriftScore       *float64
	Now              time.Time
}

// Evaluate runs the 9-step algorithm from spec §4.2.1 under the policy's
// own lock.
func (p *SpendingPolicy) Evaluate(req EvalRequest) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// 1. Reset expired windows.
	for _, w := range p.Windows {
		w.resetIfExpired(now)
	}

	// 2. Scope.
	if !p.scopeAllowed(req.Scope) {
		return Decision{Reason: ReasonScopeNotAllowed, Message: "scope not permitted by policy"}
	}

	// 3. Per-transaction limit.
	if !p.LimitPerTx.IsZero() && req.Amount.GreaterThan(p.LimitPerTx) {
		return Decision{Reason: ReasonPerTransactionLimit, Message: "amount exceeds per-transaction limit"}
	}

	// 4. Lifetime limit.
	if !p.LimitTotal.IsZero() && p.SpentTotal.Add(req.Amount).GreaterThan(p.LimitTotal) {
		return Decision{Reason: ReasonTotalLimit, Message: "amount would exceed lifetime limit"}
	}

	// 5. Rolling windows.
	for _, w := range p.Windows {
		if w.wouldExceed(req.Amount) {
			return Decision{Reason: w.Kind.reason(), Message: "amount would exceed " + string(w.Kind) + " limit"}
		}
	}

	// 6. Merchant rules — matched by merchant id or category.
	if req.MerchantID != nil || req.MerchantCategory != "" {
		if d, ok := p.evaluateMerchantRules(now, req.MerchantID, req.MerchantCategory, req.Amount); !ok {
			return d
		}
	}

	// 7. Drift.
	if p.MaxDriftScore != nil && req.DriftScore != nil && *req.DriftScore > *p.MaxDriftScore {
		return Decision{Reason: ReasonGoalDriftExceeded, Message: "goal drift score exceeds threshold"}
	}

	// 8. Approval.
	if p.ApprovalThreshold != nil && req.Amount.GreaterThan(*p.ApprovalThreshold) {
		return Decision{Approved: true, RequiresApproval: true}
	}

	// 9. OK.
	return Decision{Approved: true}
}

func (p *SpendingPolicy) scopeAllowed(scope Scope) bool {
	if len(p.AllowedScopes) == 0 {
		return true
	}
	for _, s := range p.AllowedScopes {
		if s == ScopeAll || s == scope {
			return true
		}
	}
	return false
}

func (p *SpendingPolicy) evaluateMerchantRules(now time.Time, merchantID *id.MerchantID, category string, amount types.Money) (Decision, bool) {
	var allowRules []MerchantRule
	for _, r := range p.Rules {
		if !r.isActive(now) {
			continue
		}
		if r.Action == MerchantDeny && r.matches(merchantID, category) {
			return Decision{Reason: ReasonMerchantBlocked, Message: "merchant is blocked by policy"}, false
		}
		if r.Action == MerchantAllow {
			allowRules = append(allowRules, r)
		}
	}
	if len(allowRules) == 0 {
		return Decision{}, true
	}
	var matched *MerchantRule
	for i := range allowRules {
		if allowRules[i].matches(merchantID, category) {
			matched = &allowRules[i]
			break
		}
	}
	if matched == nil {
		return Decision{Reason: ReasonMerchantNotAllowed, Message: "merchant not in policy's allow list"}, false
	}
	if !matched.MaxPerTx.IsZero() && amount.GreaterThan(matched.MaxPerTx) {
		return Decision{Reason: ReasonMerchantSpecificCap, Message: "amount exceeds merchant-specific cap"}, false
	}
	return Decision{}, true
}

// RecordSpend books a successful spend against the lifetime total and
// every active window. Call only after the ledger transfer commits.
func (p *SpendingPolicy) RecordSpend(amount types.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SpentTotal = p.SpentTotal.Add(amount)
	for _, w := range p.Windows {
		w.record(amount)
	}
}
