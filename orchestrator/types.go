package orchestrator

import (
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/types"
)

// PaymentStatus is the outcome disposition of a pay() call.
type PaymentStatus string

const (
	StatusCompleted       PaymentStatus = "COMPLETED"
	StatusFailed          PaymentStatus = "FAILED"
	StatusPendingApproval PaymentStatus = "PENDING_APPROVAL"
)

// PaymentResult is the uniform return value of pay/pay_merchant/capture_hold.
type PaymentResult struct {
	Success        bool
	Status         PaymentStatus
	Transaction    *ledger.Transaction
	Error          ErrorKind
	Message        string
	IdempotencyKey string
	ApprovalID     string
}

// HoldStatus tracks a PaymentHold's lifecycle.
type HoldStatus string

const (
	HoldActive   HoldStatus = "ACTIVE"
	HoldCaptured HoldStatus = "CAPTURED"
	HoldVoided   HoldStatus = "VOIDED"
	HoldExpired  HoldStatus = "EXPIRED"
)

// PaymentHold is the orchestrator-level reservation record, wrapping the
// ledger's own hold transaction with agent/merchant metadata the ledger
// itself does not need to know about.
type PaymentHold struct {
	types.Entity

	ID         id.HoldID        `json:"id"`
	AgentID    id.AgentID       `json:"agent_id"`
	WalletID   id.WalletID      `json:"wallet_id"`
	MerchantID id.MerchantID    `json:"merchant_id"`
	Amount     types.Money      `json:"amount"`
	Purpose    string           `json:"purpose,omitempty"`
	Status     HoldStatus       `json:"status"`
	ExpiresAt  time.Time        `json:"expires_at"`

	LedgerHoldTxID id.TransactionID `json:"ledger_hold_tx_id"`

	CapturedAt *time.Time       `json:"captured_at,omitempty"`
	VoidedAt   *time.Time       `json:"voided_at,omitempty"`
	CaptureTxID id.TransactionID `json:"capture_tx_id,omitempty"`
}

// HoldResult is the uniform return value of create_hold/void_hold.
type HoldResult struct {
	Success bool
	Hold    *PaymentHold
	Error   ErrorKind
	Message string
}

// RefundResult is the return value of refund.
type RefundResult struct {
	Success     bool
	Transaction *ledger.Transaction
	Error       ErrorKind
	Message     string
}

// idempotencyEntry caches a pay() result for 24h per spec §5.
type idempotencyEntry struct {
	result    PaymentResult
	expiresAt time.Time
}
