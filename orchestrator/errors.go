package orchestrator

// ErrorKind is the stable, machine-readable failure taxonomy surfaced in
// PaymentResult.error, per spec §7.
type ErrorKind string

const (
	ErrInvalidAmount        ErrorKind = "invalid_amount"
	ErrWalletNotFound       ErrorKind = "wallet_not_found"
	ErrMerchantNotFound     ErrorKind = "merchant_not_found"
	ErrAgentNotFound        ErrorKind = "agent_not_found"
	ErrInsufficientBalance  ErrorKind = "insufficient_balance"
	ErrPerTransactionLimit  ErrorKind = "per_transaction_limit"
	ErrTotalLimit           ErrorKind = "total_limit"
	ErrDailyLimit           ErrorKind = "daily_limit"
	ErrWeeklyLimit          ErrorKind = "weekly_limit"
	ErrMonthlyLimit         ErrorKind = "monthly_limit"
	ErrMerchantSpecificCap  ErrorKind = "merchant_specific_limit"
	ErrMerchantBlocked      ErrorKind = "merchant_blocked"
	ErrMerchantNotAllowed   ErrorKind = "merchant_not_allowed"
	ErrScopeNotAllowed      ErrorKind = "scope_not_allowed"
	ErrGoalDriftExceeded    ErrorKind = "goal_drift_exceeded"
	ErrRiskDenied           ErrorKind = "risk_denied"
	ErrHoldNotActive        ErrorKind = "hold_not_active"
	ErrHoldExpired          ErrorKind = "hold_expired"
	ErrCaptureExceedsHold   ErrorKind = "capture_exceeds_hold"
	ErrRefundExceedsOriginal ErrorKind = "refund_exceeds_original"
	ErrRefundOnNonCompleted ErrorKind = "refund_on_non_completed"
	ErrIdempotentReplay     ErrorKind = "idempotent_replay"
	ErrInternal             ErrorKind = "internal"
)

// errorKindFromReason maps a policy.Reason string (already one of
// these stable tags) straight through; kept as a named conversion point
// so the mapping is visible in one place.
func errorKindFromReason(reason string) ErrorKind {
	return ErrorKind(reason)
}
