package ledger

import (
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Kind names the logical operation a Transaction groups entries for.
type Kind string

const (
	KindTransfer Kind = "transfer"
	KindRefund   Kind = "refund"
	KindHold     Kind = "hold"
	KindVoid     Kind = "void"
	KindCapture  Kind = "capture"
	// KindMint represents funds entering the ledger from outside the
	// closed system (an external stablecoin deposit), a single CREDIT
	// entry with no matching debit.
	KindMint Kind = "mint"
)

// TransactionStatus tracks refund eligibility for a committed Transaction.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionRefunded  TransactionStatus = "REFUNDED" // fully refunded
)

// Transaction is a named group of entries representing one logical
// operation. Within a committed transfer/refund transaction, the sum of
// signed entry amounts is zero per currency (double-entry balance); hold
// and release transactions are single-entry and exempt from that check,
// since they deliberately do not move the balance (see DESIGN.md's
// resolution of this point).
type Transaction struct {
	types.Entity

	ID       id.TransactionID `json:"id"`
	Kind     Kind             `json:"kind"`
	EntryIDs []id.EntryID     `json:"entry_ids"`

	FromWallet id.WalletID `json:"from_wallet,omitempty"`
	ToWallet   id.WalletID `json:"to_wallet,omitempty"`
	Currency   string      `json:"currency"`
	Amount     types.Money `json:"amount"`          // principal amount, excludes fee
	Fee        types.Money `json:"fee,omitempty"`
	FeeWallet  id.WalletID `json:"fee_wallet,omitempty"`

	Description string `json:"description,omitempty"`

	// HoldTxRef is set on capture/void transactions, referencing the
	// original hold transaction's ID, and on refund transactions,
	// referencing the refunded transaction's ID.
	HoldTxRef id.TransactionID `json:"hold_tx_ref,omitempty"`
	// HoldReleased is set on the original hold-kind transaction once a
	// capture or void consumes its reservation; a hold may only be
	// released once.
	HoldReleased bool `json:"hold_released,omitempty"`

	Status         TransactionStatus `json:"status"`
	RefundedAmount types.Money       `json:"refunded_amount"`
}

// RemainingRefundable returns how much of Amount has not yet been
// refunded.
func (t *Transaction) RemainingRefundable() types.Money {
	return t.Amount.Subtract(t.RefundedAmount)
}

// RecordRefund books amount against the running refund tally and marks
// the transaction REFUNDED once the cumulative refund reaches the
// original amount.
func (t *Transaction) RecordRefund(amount types.Money) {
	t.RefundedAmount = t.RefundedAmount.Add(amount)
	if !t.RefundedAmount.LessThan(t.Amount) {
		t.Status = TransactionRefunded
	}
	t.Touch()
}

// IsRefundable reports whether the transaction is in a state eligible for
// refund per spec §4.3: it must exist and be COMPLETED, never already
// fully REFUNDED.
func (t *Transaction) IsRefundable() bool {
	return t.Status == TransactionCompleted
}

// TransferResult is the uniform outcome of every ledger.Engine mutating
// operation (transfer, refund, create_hold, capture_hold, void_hold).
type TransferResult struct {
	Success     bool
	Transaction *Transaction
	Entries     []*Entry
	Err         error
}

// Checkpoint is a periodic snapshot of ledger state, per spec §3.
type Checkpoint struct {
	ID            id.CheckpointID        `json:"id"`
	PeriodStart   time.Time              `json:"period_start"`
	PeriodEnd     time.Time              `json:"period_end"`
	LastSequence  uint64                 `json:"last_sequence"`
	LastChecksum  string                 `json:"last_checksum"`
	Balances      map[string]map[string]types.Money `json:"balances"` // wallet -> currency -> balance
	EntryCount    uint64                 `json:"entry_count"`
	Volume        map[string]types.Money `json:"volume"` // currency -> total absolute volume
	Checksum      string                 `json:"checksum"`
	CreatedAt     time.Time              `json:"created_at"`
}
