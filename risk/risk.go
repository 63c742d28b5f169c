// Package risk implements the L2b risk rules pipeline: a handful of
// independent rules, each scoring a proposed payment in [0,100], and an
// aggregation engine that combines them into one DENY/REVIEW/APPROVE
// decision, per spec §4.2.2.
package risk

import (
	"context"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Action is a rule's or the engine's recommended disposition.
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReview  Action = "REVIEW"
	ActionDeny    Action = "DENY"
)

func worse(a, b Action) Action {
	rank := map[Action]int{ActionApprove: 0, ActionReview: 1, ActionDeny: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// MerchantProfile is the subset of merchant metadata the reputation rule
// needs.
type MerchantProfile struct {
	Found       bool
	TrustScore  float64
	AgeDays     int
	DisputeRate float64
	RefundRate  float64
	Verified    bool
}

// AgentProfile is the subset of an agent's risk-relevant history the
// pipeline reads and, post-confirmation, updates.
type AgentProfile struct {
	TransactionsLastHour int
	TransactionsLastDay  int

	HistoryCount   int
	AverageAmount  types.Money
	MaxAmount      types.Money
	AmountHistory  []types.Money // most recent last, capped at 100
	TypicalRecipients map[id.WalletID]bool
	TypicalCategories map[string]bool

	FailureCount        int
	ConsecutiveFailures int
}

// Context is everything a rule needs to evaluate one proposed payment.
type Context struct {
	Agent            AgentProfile
	Merchant         *MerchantProfile
	RecipientWallet  id.WalletID
	MerchantCategory string
	Amount           types.Money
}

// Result is one rule's scored opinion.
type Result struct {
	RuleName  string
	Score     float64
	Weight    float64
	Triggered bool
	Action    Action
	Factors   []string
	Details   map[string]any
}

func newResult(name string, weight float64) *Result {
	return &Result{RuleName: name, Weight: weight, Action: ActionApprove, Details: map[string]any{}}
}

func (r *Result) add(score float64, factor string) {
	r.Score += score
	r.Triggered = true
	r.Factors = append(r.Factors, factor)
}

func (r *Result) escalate(action Action) {
	r.Action = worse(r.Action, action)
}

func (r *Result) cap() {
	if r.Score > 100 {
		r.Score = 100
	}
	if r.Score < 0 {
		r.Score = 0
	}
}

// Rule is one independent risk signal.
type Rule interface {
	Name() string
	Weight() float64
	Evaluate(ctx context.Context, pc Context) *Result
}

// Decision is the pipeline's aggregated outcome.
type Decision struct {
	FinalScore float64
	Action     Action
	Results    []*Result
}

// Engine runs an ordered list of rules and aggregates their scores.
type Engine struct {
	rules          []Rule
	blockThreshold float64
	reviewThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithBlockThreshold overrides the default DENY threshold of 90.
func WithBlockThreshold(v float64) Option {
	return func(e *Engine) { e.blockThreshold = v }
}

// WithReviewThreshold overrides the default REVIEW threshold of 50.
func WithReviewThreshold(v float64) Option {
	return func(e *Engine) { e.reviewThreshold = v }
}

// NewEngine builds an engine over the given rules, in evaluation order.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{rules: rules, blockThreshold: 90, reviewThreshold: 50}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every rule and aggregates per spec §4.2.2:
//
//	weighted_total = Σ (score_i × weight_i); weight_total = Σ weight_i
//	final_score = min(100, weighted_total / weight_total)
func (e *Engine) Evaluate(ctx context.Context, pc Context) Decision {
	var weightedTotal, weightTotal float64
	action := ActionApprove
	results := make([]*Result, 0, len(e.rules))

	for _, rule := range e.rules {
		res := rule.Evaluate(ctx, pc)
		res.cap()
		results = append(results, res)
		weightedTotal += res.Score * res.Weight
		weightTotal += res.Weight
		action = worse(action, res.Action)
	}

	finalScore := 0.0
	if weightTotal > 0 {
		finalScore = weightedTotal / weightTotal
		if finalScore > 100 {
			finalScore = 100
		}
	}

	switch {
	case action == ActionDeny || finalScore >= e.blockThreshold:
		action = ActionDeny
	case action == ActionReview || finalScore >= e.reviewThreshold:
		action = ActionReview
	default:
		action = ActionApprove
	}

	return Decision{FinalScore: finalScore, Action: action, Results: results}
}
