// Package settlement defines the optional on-chain settlement driver
// boundary described in spec §6 "Ledger egress". Its absence never
// affects ledger correctness — every ledger semantic is defined purely
// internally; a driver only attaches an immutable record after the fact.
package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Status is the lifecycle state of an on-chain recording attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Request carries what a driver needs to record a ledger transaction
// on-chain.
type Request struct {
	InternalTxID id.TransactionID
	FromAddress  string
	ToAddress    string
	Amount       types.Money
	Currency     string
}

// OnChainRecord is an immutable record attached to a ledger transaction
// once a driver accepts or confirms a settlement attempt.
type OnChainRecord struct {
	InternalTxID id.TransactionID `json:"internal_tx_id"`
	Chain        string           `json:"chain"`
	TxHash       string           `json:"tx_hash"`
	Status       Status           `json:"status"`
	ExplorerURL  string           `json:"explorer_url,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Driver is the abstract settlement boundary. A conforming
// implementation submits the transfer to some external chain and
// reports back a chain identifier, transaction hash, status, and an
// explorer URL for humans. Drivers are expected to do their own
// confirmation polling out of band; Submit itself may return with
// Status == pending.
type Driver interface {
	Submit(ctx context.Context, req Request) (OnChainRecord, error)
}

// Recorder attaches OnChainRecords to transactions and answers whether a
// transaction has at least one confirmed record.
type Recorder struct {
	driver  Driver
	mu      sync.Mutex
	records map[id.TransactionID][]OnChainRecord
}

// NewRecorder wraps driver (nil is valid: Settle becomes a no-op,
// matching "absence of a driver does not affect correctness").
func NewRecorder(driver Driver) *Recorder {
	return &Recorder{driver: driver, records: make(map[id.TransactionID][]OnChainRecord)}
}

// Settle asks the configured driver to record txID on-chain and stores
// the resulting record. A nil driver is a deliberate no-op.
func (r *Recorder) Settle(ctx context.Context, req Request) (OnChainRecord, error) {
	if r.driver == nil {
		return OnChainRecord{}, nil
	}
	record, err := r.driver.Submit(ctx, req)
	if err != nil {
		return OnChainRecord{}, err
	}
	record.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.records[req.InternalTxID] = append(r.records[req.InternalTxID], record)
	r.mu.Unlock()

	return record, nil
}

// Records returns every on-chain record attached to txID, oldest first.
func (r *Recorder) Records(txID id.TransactionID) []OnChainRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OnChainRecord, len(r.records[txID]))
	copy(out, r.records[txID])
	return out
}

// IsSettled reports whether txID has at least one confirmed record.
func (r *Recorder) IsSettled(txID id.TransactionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records[txID] {
		if rec.Status == StatusConfirmed {
			return true
		}
	}
	return false
}
