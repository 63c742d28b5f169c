package ledger

import (
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// EntryType classifies a ledger entry's role in a transaction.
type EntryType string

const (
	EntryDebit   EntryType = "DEBIT"
	EntryCredit  EntryType = "CREDIT"
	EntryFee     EntryType = "FEE"
	EntryRefund  EntryType = "REFUND"
	EntryHold    EntryType = "HOLD"
	EntryRelease EntryType = "RELEASE"
)

// MovesBalance reports whether entries of this type participate in the
// wallet balance cache. HOLD and RELEASE entries affect only the held
// cache, never the balance itself, per spec §4.1's create_hold semantics.
func (t EntryType) MovesBalance() bool {
	switch t {
	case EntryDebit, EntryCredit, EntryFee, EntryRefund:
		return true
	default:
		return false
	}
}

// Sign returns the signed-amount convention for balancing checks: DEBIT
// and HOLD contribute negative, CREDIT/REFUND/RELEASE/FEE contribute
// positive, per spec §3.
func (t EntryType) Sign() int {
	switch t {
	case EntryDebit, EntryHold:
		return -1
	default:
		return 1
	}
}

// EntryStatus is the lifecycle status of a committed entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "PENDING"
	EntryConfirmed EntryStatus = "CONFIRMED"
	EntryVoid      EntryStatus = "VOID"
)

// Entry is the atomic unit of the ledger: an immutable, hash-chained
// record of one signed amount against one wallet in one currency.
//
// Once committed, an entry's Amount, Type, and Checksum never change.
// Status is the one field with a second life: void_hold flips a HOLD
// entry's Status to VOID in place, without touching the checksum chain
// or reopening the balancing math that produced it.
type Entry struct {
	Sequence uint64      `json:"sequence"`
	ID       id.EntryID  `json:"id"`
	Type     EntryType   `json:"type"`
	WalletID id.WalletID `json:"wallet_id"`
	Currency string      `json:"currency"`
	Amount   types.Money `json:"amount"` // always positive; Type.Sign() carries direction

	CounterpartID id.EntryID       `json:"counterpart_id,omitempty"`
	TransactionID id.TransactionID `json:"transaction_id"`

	Status      EntryStatus `json:"status"`
	Description string      `json:"description,omitempty"`

	PreviousChecksum string `json:"previous_checksum"`
	Checksum         string `json:"checksum"`

	CreatedAt time.Time `json:"created_at"`
}

// SignedAmount returns the entry's amount with the sign convention used
// in the transaction balancing check.
func (e *Entry) SignedAmount() types.Money {
	if e.Type.Sign() < 0 {
		return e.Amount.Negate()
	}
	return e.Amount
}
