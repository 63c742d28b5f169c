package risk

import (
	"context"
	"math"

	"github.com/sardis-labs/core/types"
)

// VelocityRule flags bursts of transaction volume within recent rolling
// windows.
type VelocityRule struct {
	HourlyLimit int
	DailyLimit  int
}

// NewVelocityRule builds the rule with spec-default limits (20/hour,
// 100/day).
func NewVelocityRule() *VelocityRule {
	return &VelocityRule{HourlyLimit: 20, DailyLimit: 100}
}

func (r *VelocityRule) Name() string   { return "velocity" }
func (r *VelocityRule) Weight() float64 { return 1.5 }

func (r *VelocityRule) Evaluate(_ context.Context, pc Context) *Result {
	res := newResult(r.Name(), r.Weight())

	hourRatio := ratio(pc.Agent.TransactionsLastHour, r.HourlyLimit)
	if hourRatio >= 1.0 {
		res.add(30, "high_hourly_velocity")
		switch {
		case hourRatio >= 2.0:
			res.add(30, "high_hourly_velocity")
			res.escalate(ActionDeny)
		case hourRatio >= 1.5:
			res.add(30, "high_hourly_velocity")
			res.escalate(ActionReview)
		}
	}

	dailyRatio := ratio(pc.Agent.TransactionsLastDay, r.DailyLimit)
	if dailyRatio >= 1.0 {
		res.add(20, "high_daily_velocity")
		switch {
		case dailyRatio >= 2.0:
			res.add(20, "high_daily_velocity")
			res.escalate(ActionDeny)
		case dailyRatio >= 1.5:
			res.add(20, "high_daily_velocity")
			res.escalate(ActionReview)
		}
	}

	if pc.Agent.TransactionsLastHour >= 10 {
		burst := math.Min(15, 2*float64(pc.Agent.TransactionsLastHour-10))
		if burst > 0 {
			res.add(burst, "burst_pattern")
		}
	}

	res.Details["transactions_last_hour"] = pc.Agent.TransactionsLastHour
	res.Details["transactions_last_day"] = pc.Agent.TransactionsLastDay
	return res
}

func ratio(count, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(count) / float64(limit)
}

// AmountAnomalyRule flags unusually large or deviant payment amounts.
type AmountAnomalyRule struct{}

func NewAmountAnomalyRule() *AmountAnomalyRule { return &AmountAnomalyRule{} }

func (r *AmountAnomalyRule) Name() string    { return "amount_anomaly" }
func (r *AmountAnomalyRule) Weight() float64 { return 1.2 }

func (r *AmountAnomalyRule) Evaluate(_ context.Context, pc Context) *Result {
	res := newResult(r.Name(), r.Weight())
	amount := amountFloat(pc.Amount)

	if amount >= 500 {
		res.add(30, "very_large_transaction")
		res.escalate(ActionReview)
	} else if amount >= 100 {
		res.add(15, "large_transaction")
	}

	if pc.Agent.HistoryCount >= 5 && !pc.Agent.AverageAmount.IsZero() {
		avg := amountFloat(pc.Agent.AverageAmount)
		if avg > 0 {
			deviation := amount / avg
			if deviation >= 10 {
				res.add(25, "extreme_deviation")
				res.escalate(ActionDeny)
			} else if deviation >= 3 {
				res.add(15, "significant_deviation")
			}
			res.Details["deviation"] = deviation
		}
	}

	if amount >= 100 && math.Mod(amount, 100) == 0 {
		res.add(0, "round_amount")
	}
	for _, threshold := range []float64{3000, 10000} {
		if amount < threshold && threshold-amount <= 500 {
			res.add(0, "near_reporting_threshold")
		}
	}

	res.Details["amount"] = amount
	return res
}

func amountFloat(m types.Money) float64 {
	f, _ := m.Amount.Float64()
	return f
}

// MerchantReputationRule scores the counterparty merchant's trust
// record.
type MerchantReputationRule struct{}

func NewMerchantReputationRule() *MerchantReputationRule { return &MerchantReputationRule{} }

func (r *MerchantReputationRule) Name() string    { return "merchant_reputation" }
func (r *MerchantReputationRule) Weight() float64 { return 1.0 }

func (r *MerchantReputationRule) Evaluate(_ context.Context, pc Context) *Result {
	res := newResult(r.Name(), r.Weight())

	if pc.Merchant == nil || !pc.Merchant.Found {
		res.add(20, "unknown_merchant")
		res.escalate(ActionReview)
		return res
	}
	m := pc.Merchant

	if m.TrustScore < 20 {
		res.add(30, "very_low_trust")
		res.escalate(ActionDeny)
	} else if m.TrustScore < 30 {
		res.add(15, "low_trust")
		res.escalate(ActionReview)
	}
	if m.AgeDays < 30 {
		res.add(15, "new_merchant")
	}
	if m.DisputeRate >= 0.05 {
		res.add(20, "high_dispute_rate")
	}
	if m.RefundRate >= 0.10 {
		res.add(10, "high_refund_rate")
	}
	if m.Verified {
		res.Score -= 10
		if res.Score < 0 {
			res.Score = 0
		}
	}

	res.Details["trust_score"] = m.TrustScore
	return res
}

// BehaviorFingerprintRule compares a payment against the agent's
// historical fingerprint (amounts, recipients, categories).
type BehaviorFingerprintRule struct{}

func NewBehaviorFingerprintRule() *BehaviorFingerprintRule { return &BehaviorFingerprintRule{} }

func (r *BehaviorFingerprintRule) Name() string    { return "behavior_fingerprint" }
func (r *BehaviorFingerprintRule) Weight() float64 { return 1.0 }

func (r *BehaviorFingerprintRule) Evaluate(_ context.Context, pc Context) *Result {
	res := newResult(r.Name(), r.Weight())

	if len(pc.Agent.AmountHistory) < 10 {
		return res
	}

	mean, stddev := meanStddev(pc.Agent.AmountHistory)
	amount := amountFloat(pc.Amount)
	if stddev > 0 {
		z := (amount - mean) / stddev
		if math.Abs(z) > 2.5 {
			res.add(math.Min(40, 20*math.Abs(z)/3), "unusual_amount")
		}
	}

	if pc.Agent.TypicalRecipients != nil && !pc.Agent.TypicalRecipients[pc.RecipientWallet] {
		res.add(10, "new_recipient")
	}
	if pc.Agent.TypicalCategories != nil && pc.MerchantCategory != "" && !pc.Agent.TypicalCategories[pc.MerchantCategory] {
		res.add(10, "new_category")
	}

	if res.Score >= 30 {
		res.escalate(ActionReview)
	}
	return res
}

func meanStddev(history []types.Money) (float64, float64) {
	n := len(history)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	vals := make([]float64, n)
	for i, m := range history {
		f := amountFloat(m)
		vals[i] = f
		sum += f
	}
	mean := sum / float64(n)
	variance := 0.0
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	return mean, math.Sqrt(variance)
}

// FailurePatternRule tracks recent failure rate and consecutive
// failures, and flags "probing" bursts of small-amount failures.
type FailurePatternRule struct{}

func NewFailurePatternRule() *FailurePatternRule { return &FailurePatternRule{} }

func (r *FailurePatternRule) Name() string    { return "failure_pattern" }
func (r *FailurePatternRule) Weight() float64 { return 1.3 }

func (r *FailurePatternRule) Evaluate(_ context.Context, pc Context) *Result {
	res := newResult(r.Name(), r.Weight())

	if pc.Agent.HistoryCount >= 5 {
		failureRate := float64(pc.Agent.FailureCount) / float64(pc.Agent.HistoryCount)
		if failureRate >= 0.40 {
			res.add(50, "high_failure_rate")
			res.escalate(ActionDeny)
		} else if failureRate >= 0.20 {
			res.add(25, "elevated_failure_rate")
			res.escalate(ActionReview)
		}
	}

	if pc.Agent.ConsecutiveFailures >= 6 {
		res.add(0, "consecutive_failures")
		res.escalate(ActionDeny)
	} else if pc.Agent.ConsecutiveFailures >= 3 {
		res.add(15, "consecutive_failures")
	}

	if pc.Agent.HistoryCount <= 10 && pc.Agent.FailureCount >= 3 {
		amount := amountFloat(pc.Amount)
		avg := amountFloat(pc.Agent.AverageAmount)
		if avg > 0 && amount > 2*avg {
			res.add(15, "probing_pattern")
		}
	}

	return res
}
