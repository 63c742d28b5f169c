package policy

import "errors"

// Reason is a stable, machine-readable rejection kind surfaced in
// PaymentResult.error by the orchestrator.
type Reason string

const (
	ReasonPerTransactionLimit  Reason = "per_transaction_limit"
	ReasonTotalLimit           Reason = "total_limit"
	ReasonDailyLimit           Reason = "daily_limit"
	ReasonWeeklyLimit          Reason = "weekly_limit"
	ReasonMonthlyLimit         Reason = "monthly_limit"
	ReasonMerchantBlocked      Reason = "merchant_blocked"
	ReasonMerchantNotAllowed   Reason = "merchant_not_allowed"
	ReasonMerchantSpecificCap  Reason = "merchant_specific_limit"
	ReasonScopeNotAllowed      Reason = "scope_not_allowed"
	ReasonGoalDriftExceeded    Reason = "goal_drift_exceeded"
)

var ErrNoPolicy = errors.New("policy: no spending policy configured for agent")
