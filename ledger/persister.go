package ledger

import "context"

// Persister is an optional write-through durability hook. The Engine is
// the authoritative in-memory source of truth; a Persister, when
// supplied, is called synchronously inside the same critical section as
// the in-memory commit so a crash can never leave the durable store
// ahead of memory. Persist failures are logged and do not roll back the
// in-memory commit — durability is best-effort, not transactional with
// the ledger's own state machine.
type Persister interface {
	AppendEntry(ctx context.Context, entry *Entry) error
	UpdateEntry(ctx context.Context, entry *Entry) error
	SaveTransaction(ctx context.Context, tx *Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error
}

// noopPersister is used when the engine is constructed without one.
type noopPersister struct{}

func (noopPersister) AppendEntry(context.Context, *Entry) error            { return nil }
func (noopPersister) UpdateEntry(context.Context, *Entry) error           { return nil }
func (noopPersister) SaveTransaction(context.Context, *Transaction) error { return nil }
func (noopPersister) UpdateTransaction(context.Context, *Transaction) error {
	return nil
}
func (noopPersister) SaveCheckpoint(context.Context, *Checkpoint) error { return nil }
