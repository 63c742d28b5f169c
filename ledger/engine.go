// Package ledger implements the L1 append-only, hash-chained double-entry
// ledger: the single source of truth for wallet balances. Every mutating
// operation commits through a three-step critical section (assign
// sequence number, chain the previous checksum, compute the entry's own
// checksum) guarded by one engine-level mutex, so concurrent callers can
// never observe a torn or double-spent state.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPersister attaches a write-through durability hook.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithLogger overrides the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine is the in-memory, mutex-guarded ledger state machine.
type Engine struct {
	mu sync.Mutex

	persister Persister
	logger    *slog.Logger

	lastSequence uint64
	lastChecksum string

	entries      []*Entry
	entriesByID  map[id.EntryID]*Entry
	walletEntries map[id.WalletID][]*Entry // newest-last; reversed on read

	transactions map[id.TransactionID]*Transaction

	balance map[id.WalletID]map[string]types.Money
	held    map[id.WalletID]map[string]types.Money
}

// NewEngine constructs an empty Engine. An empty chain's lastChecksum is
// "genesis", per spec §3.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		persister:     noopPersister{},
		logger:        slog.Default(),
		lastChecksum:  genesis,
		entriesByID:   make(map[id.EntryID]*Entry),
		walletEntries: make(map[id.WalletID][]*Entry),
		transactions:  make(map[id.TransactionID]*Transaction),
		balance:       make(map[id.WalletID]map[string]types.Money),
		held:          make(map[id.WalletID]map[string]types.Money),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) balanceOf(wallet id.WalletID, currency string) types.Money {
	byCur, ok := e.balance[wallet]
	if !ok {
		return types.Zero(currency)
	}
	m, ok := byCur[currency]
	if !ok {
		return types.Zero(currency)
	}
	return m
}

func (e *Engine) heldOf(wallet id.WalletID, currency string) types.Money {
	byCur, ok := e.held[wallet]
	if !ok {
		return types.Zero(currency)
	}
	m, ok := byCur[currency]
	if !ok {
		return types.Zero(currency)
	}
	return m
}

func (e *Engine) addBalance(wallet id.WalletID, delta types.Money) {
	byCur, ok := e.balance[wallet]
	if !ok {
		byCur = make(map[string]types.Money)
		e.balance[wallet] = byCur
	}
	byCur[delta.Currency] = e.balanceOf(wallet, delta.Currency).Add(delta)
}

func (e *Engine) addHeld(wallet id.WalletID, delta types.Money) {
	byCur, ok := e.held[wallet]
	if !ok {
		byCur = make(map[string]types.Money)
		e.held[wallet] = byCur
	}
	byCur[delta.Currency] = e.heldOf(wallet, delta.Currency).Add(delta)
}

// GetBalance returns the wallet's full balance cache value.
func (e *Engine) GetBalance(wallet id.WalletID, currency string) types.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balanceOf(wallet, currency)
}

// GetHeldAmount returns the wallet's currently reserved (held) amount.
func (e *Engine) GetHeldAmount(wallet id.WalletID, currency string) types.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heldOf(wallet, currency)
}

// GetAvailableBalance returns balance minus held, the amount a wallet may
// actually spend right now.
func (e *Engine) GetAvailableBalance(wallet id.WalletID, currency string) types.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balanceOf(wallet, currency).Subtract(e.heldOf(wallet, currency))
}

// GetTransaction looks up a committed transaction by ID.
func (e *Engine) GetTransaction(txID id.TransactionID) (*Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.transactions[txID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// GetEntriesForWallet returns up to limit entries for wallet, newest
// first, skipping offset.
func (e *Engine) GetEntriesForWallet(wallet id.WalletID, limit, offset int) []*Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.walletEntries[wallet]
	out := make([]*Entry, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out
}

// commit assigns sequence numbers and chained checksums to entries (in
// order), appends them to the log, updates the per-wallet index, and
// registers the owning transaction. Callers must hold e.mu. It does not
// touch the balance/held caches; callers apply those deltas themselves
// once the balancing check has passed.
func (e *Engine) commit(ctx context.Context, tx *Transaction, entries []*Entry) {
	now := time.Now().UTC()
	for _, entry := range entries {
		e.lastSequence++
		entry.Sequence = e.lastSequence
		entry.PreviousChecksum = e.lastChecksum
		entry.Status = EntryConfirmed
		entry.CreatedAt = now
		entry.Checksum = chainChecksum(entry.PreviousChecksum, entryContent(entry))
		e.lastChecksum = entry.Checksum

		e.entries = append(e.entries, entry)
		e.entriesByID[entry.ID] = entry
		e.walletEntries[entry.WalletID] = append(e.walletEntries[entry.WalletID], entry)
		tx.EntryIDs = append(tx.EntryIDs, entry.ID)

		if err := e.persister.AppendEntry(ctx, entry); err != nil {
			e.logger.Error("ledger: persist entry failed", "entry_id", entry.ID.String(), "err", err)
		}
	}
	e.transactions[tx.ID] = tx
	if err := e.persister.SaveTransaction(ctx, tx); err != nil {
		e.logger.Error("ledger: persist transaction failed", "tx_id", tx.ID.String(), "err", err)
	}
}

// balancingCheck verifies the sum of signed, balance-moving entry amounts
// is zero per currency, per spec §4.1. HOLD/RELEASE entries are excluded
// since they never move the balance cache by design.
func balancingCheck(entries []*Entry) bool {
	sums := make(map[string]types.Money)
	for _, entry := range entries {
		if !entry.Type.MovesBalance() {
			continue
		}
		cur := entry.Currency
		if _, ok := sums[cur]; !ok {
			sums[cur] = types.Zero(cur)
		}
		sums[cur] = sums[cur].Add(entry.SignedAmount())
	}
	for _, sum := range sums {
		if !sum.IsZero() {
			return false
		}
	}
	return true
}

func newEntry(typ EntryType, wallet id.WalletID, amount types.Money, txID id.TransactionID, description string) *Entry {
	return &Entry{
		ID:            id.NewEntryID(),
		Type:          typ,
		WalletID:      wallet,
		Currency:      amount.Currency,
		Amount:        amount,
		TransactionID: txID,
		Description:   description,
	}
}

// Transfer moves amount from one wallet to another, optionally carving a
// fee out to feeWallet, as a single atomic double-entry transaction.
func (e *Engine) Transfer(ctx context.Context, from, to id.WalletID, amount, fee types.Money, feeWallet id.WalletID, description string) (*TransferResult, error) {
	if !amount.IsPositive() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}
	if fee.IsNegative() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}
	if !fee.IsZero() && fee.Currency != amount.Currency {
		return &TransferResult{Err: ErrCurrencyMismatch}, ErrCurrencyMismatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	total := amount.Add(fee)
	available := e.balanceOf(from, amount.Currency).Subtract(e.heldOf(from, amount.Currency))
	if total.GreaterThan(available) {
		return &TransferResult{Err: ErrInsufficientBalance}, ErrInsufficientBalance
	}

	txID := id.NewTransactionID()
	debit := newEntry(EntryDebit, from, total, txID, description)
	credit := newEntry(EntryCredit, to, amount, txID, description)
	debit.CounterpartID = credit.ID
	credit.CounterpartID = debit.ID
	entries := []*Entry{debit, credit}
	if !fee.IsZero() {
		feeEntry := newEntry(EntryFee, feeWallet, fee, txID, "fee: "+description)
		entries = append(entries, feeEntry)
	}

	if !balancingCheck(entries) {
		return &TransferResult{Err: ErrUnbalanced}, ErrUnbalanced
	}

	tx := &Transaction{
		Entity:      types.NewEntity(),
		ID:          txID,
		Kind:        KindTransfer,
		FromWallet:  from,
		ToWallet:    to,
		Currency:    amount.Currency,
		Amount:      amount,
		Fee:         fee,
		FeeWallet:   feeWallet,
		Description: description,
		Status:      TransactionCompleted,
		RefundedAmount: types.Zero(amount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addBalance(from, total.Negate())
	e.addBalance(to, amount)
	if !fee.IsZero() {
		e.addBalance(feeWallet, fee)
	}

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

// Mint credits wallet with amount from outside the closed ledger (an
// external stablecoin deposit landing on-chain, reconciled by a
// settlement driver). It is the one operation exempt from the
// double-entry balancing check by design: the offsetting debit lives on
// a rail the ledger does not model.
func (e *Engine) Mint(ctx context.Context, wallet id.WalletID, amount types.Money, description string) (*TransferResult, error) {
	if !amount.IsPositive() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	txID := id.NewTransactionID()
	credit := newEntry(EntryCredit, wallet, amount, txID, description)
	entries := []*Entry{credit}

	tx := &Transaction{
		Entity:         types.NewEntity(),
		ID:             txID,
		Kind:           KindMint,
		ToWallet:       wallet,
		Currency:       amount.Currency,
		Amount:         amount,
		Description:    description,
		Status:         TransactionCompleted,
		RefundedAmount: types.Zero(amount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addBalance(wallet, amount)

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

// CreateHold reserves amount against wallet's available balance without
// moving the balance cache itself.
func (e *Engine) CreateHold(ctx context.Context, wallet id.WalletID, amount types.Money, description string) (*TransferResult, error) {
	if !amount.IsPositive() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	available := e.balanceOf(wallet, amount.Currency).Subtract(e.heldOf(wallet, amount.Currency))
	if amount.GreaterThan(available) {
		return &TransferResult{Err: ErrInsufficientBalance}, ErrInsufficientBalance
	}

	txID := id.NewTransactionID()
	holdEntry := newEntry(EntryHold, wallet, amount, txID, description)
	entries := []*Entry{holdEntry}

	tx := &Transaction{
		Entity:      types.NewEntity(),
		ID:          txID,
		Kind:        KindHold,
		FromWallet:  wallet,
		Currency:    amount.Currency,
		Amount:      amount,
		Description: description,
		Status:      TransactionCompleted,
		RefundedAmount: types.Zero(amount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addHeld(wallet, amount)

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

func (e *Engine) lookupActiveHold(holdTxID id.TransactionID) (*Transaction, error) {
	holdTx, ok := e.transactions[holdTxID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	if holdTx.Kind != KindHold {
		return nil, ErrHoldNotFound
	}
	if holdTx.HoldReleased {
		return nil, ErrHoldNotActive
	}
	return holdTx, nil
}

// CaptureHold releases the full hold reservation and, in the same atomic
// commit, transfers captureAmount (defaulting to the full hold amount)
// plus an optional fee to `to`. The release and the transfer share one
// transaction so the operation can never leave a partially-applied state.
func (e *Engine) CaptureHold(ctx context.Context, holdTxID id.TransactionID, to id.WalletID, captureAmount *types.Money, fee types.Money, feeWallet id.WalletID, description string) (*TransferResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	holdTx, err := e.lookupActiveHold(holdTxID)
	if err != nil {
		return &TransferResult{Err: err}, err
	}

	amount := holdTx.Amount
	if captureAmount != nil {
		amount = *captureAmount
	}
	if !amount.IsPositive() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}
	if amount.GreaterThan(holdTx.Amount) {
		return &TransferResult{Err: ErrCaptureExceedsHold}, ErrCaptureExceedsHold
	}
	if fee.IsNegative() {
		return &TransferResult{Err: ErrInvalidAmount}, ErrInvalidAmount
	}

	wallet := holdTx.FromWallet
	total := amount.Add(fee)
	// The hold's full reservation is released as part of this commit, so
	// availability for this check adds it back before subtracting total.
	available := e.balanceOf(wallet, amount.Currency).
		Subtract(e.heldOf(wallet, amount.Currency)).
		Add(holdTx.Amount)
	if total.GreaterThan(available) {
		return &TransferResult{Err: ErrInsufficientBalance}, ErrInsufficientBalance
	}

	txID := id.NewTransactionID()
	release := newEntry(EntryRelease, wallet, holdTx.Amount, txID, "release hold "+holdTxID.String())
	debit := newEntry(EntryDebit, wallet, total, txID, description)
	credit := newEntry(EntryCredit, to, amount, txID, description)
	debit.CounterpartID = credit.ID
	credit.CounterpartID = debit.ID
	entries := []*Entry{release, debit, credit}
	if !fee.IsZero() {
		entries = append(entries, newEntry(EntryFee, feeWallet, fee, txID, "fee: "+description))
	}

	if !balancingCheck(entries) {
		return &TransferResult{Err: ErrUnbalanced}, ErrUnbalanced
	}

	tx := &Transaction{
		Entity:         types.NewEntity(),
		ID:             txID,
		Kind:           KindCapture,
		FromWallet:     wallet,
		ToWallet:       to,
		Currency:       amount.Currency,
		Amount:         amount,
		Fee:            fee,
		FeeWallet:      feeWallet,
		Description:    description,
		HoldTxRef:      holdTxID,
		Status:         TransactionCompleted,
		RefundedAmount: types.Zero(amount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addHeld(wallet, holdTx.Amount.Negate())
	e.addBalance(wallet, total.Negate())
	e.addBalance(to, amount)
	if !fee.IsZero() {
		e.addBalance(feeWallet, fee)
	}

	holdTx.HoldReleased = true
	holdTx.Touch()
	if err := e.persister.UpdateTransaction(ctx, holdTx); err != nil {
		e.logger.Error("ledger: persist hold release failed", "tx_id", holdTxID.String(), "err", err)
	}

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

// VoidHold releases a hold's full reservation without moving any balance,
// and marks the original HOLD entry VOID so it no longer reads as an
// outstanding reservation in the wallet's entry history.
func (e *Engine) VoidHold(ctx context.Context, holdTxID id.TransactionID) (*TransferResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	holdTx, err := e.lookupActiveHold(holdTxID)
	if err != nil {
		return &TransferResult{Err: err}, err
	}

	txID := id.NewTransactionID()
	release := newEntry(EntryRelease, holdTx.FromWallet, holdTx.Amount, txID, "void hold "+holdTxID.String())
	entries := []*Entry{release}

	tx := &Transaction{
		Entity:         types.NewEntity(),
		ID:             txID,
		Kind:           KindVoid,
		FromWallet:     holdTx.FromWallet,
		Currency:       holdTx.Amount.Currency,
		Amount:         holdTx.Amount,
		HoldTxRef:      holdTxID,
		Status:         TransactionCompleted,
		RefundedAmount: types.Zero(holdTx.Amount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addHeld(holdTx.FromWallet, holdTx.Amount.Negate())

	holdTx.HoldReleased = true
	holdTx.Touch()
	if err := e.persister.UpdateTransaction(ctx, holdTx); err != nil {
		e.logger.Error("ledger: persist hold release failed", "tx_id", holdTxID.String(), "err", err)
	}

	for _, entryID := range holdTx.EntryIDs {
		entry, ok := e.entriesByID[entryID]
		if !ok || entry.Type != EntryHold {
			continue
		}
		entry.Status = EntryVoid
		if err := e.persister.UpdateEntry(ctx, entry); err != nil {
			e.logger.Error("ledger: persist hold entry void failed", "entry_id", entry.ID.String(), "err", err)
		}
	}

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

// Refund reverses amount (defaulting to the original transaction's full
// remaining-refundable amount) of a completed transfer or capture back to
// its original sender.
func (e *Engine) Refund(ctx context.Context, originalTxID id.TransactionID, amount *types.Money, description string) (*TransferResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	original, ok := e.transactions[originalTxID]
	if !ok {
		return &TransferResult{Err: ErrTransactionNotFound}, ErrTransactionNotFound
	}
	if original.Kind != KindTransfer && original.Kind != KindCapture {
		return &TransferResult{Err: ErrRefundOnNonCompleted}, ErrRefundOnNonCompleted
	}
	if !original.IsRefundable() {
		return &TransferResult{Err: ErrRefundOnNonCompleted}, ErrRefundOnNonCompleted
	}

	refundAmount := original.RemainingRefundable()
	if amount != nil {
		refundAmount = *amount
	}
	if !refundAmount.IsPositive() || refundAmount.GreaterThan(original.RemainingRefundable()) {
		return &TransferResult{Err: ErrRefundExceedsOriginal}, ErrRefundExceedsOriginal
	}

	source := original.ToWallet
	dest := original.FromWallet

	available := e.balanceOf(source, refundAmount.Currency).Subtract(e.heldOf(source, refundAmount.Currency))
	if refundAmount.GreaterThan(available) {
		return &TransferResult{Err: ErrInsufficientBalance}, ErrInsufficientBalance
	}

	txID := id.NewTransactionID()
	debit := newEntry(EntryDebit, source, refundAmount, txID, description)
	credit := newEntry(EntryRefund, dest, refundAmount, txID, description)
	debit.CounterpartID = credit.ID
	credit.CounterpartID = debit.ID
	entries := []*Entry{debit, credit}

	if !balancingCheck(entries) {
		return &TransferResult{Err: ErrUnbalanced}, ErrUnbalanced
	}

	tx := &Transaction{
		Entity:         types.NewEntity(),
		ID:             txID,
		Kind:           KindRefund,
		FromWallet:     source,
		ToWallet:       dest,
		Currency:       refundAmount.Currency,
		Amount:         refundAmount,
		Description:    description,
		HoldTxRef:      originalTxID,
		Status:         TransactionCompleted,
		RefundedAmount: types.Zero(refundAmount.Currency),
	}

	e.commit(ctx, tx, entries)
	e.addBalance(source, refundAmount.Negate())
	e.addBalance(dest, refundAmount)

	original.RecordRefund(refundAmount)
	if err := e.persister.UpdateTransaction(ctx, original); err != nil {
		e.logger.Error("ledger: persist refund tally failed", "tx_id", originalTxID.String(), "err", err)
	}

	return &TransferResult{Success: true, Transaction: tx, Entries: entries}, nil
}

// VerifyIntegrity recomputes the hash chain over every committed entry in
// sequence order and compares it against the stored checksums.
func (e *Engine) VerifyIntegrity(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := genesis
	for _, entry := range e.entries {
		if entry.PreviousChecksum != prev {
			return false, ErrSequenceGap
		}
		want := chainChecksum(prev, entryContent(entry))
		if want != entry.Checksum {
			return false, ErrChecksumMismatch
		}
		prev = entry.Checksum
	}
	return true, nil
}

// CreateCheckpoint snapshots the current balance caches and chain
// position.
func (e *Engine) CreateCheckpoint(ctx context.Context) (*Checkpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	balances := make(map[string]map[string]types.Money, len(e.balance))
	for wallet, byCur := range e.balance {
		copied := make(map[string]types.Money, len(byCur))
		for cur, m := range byCur {
			copied[cur] = m
		}
		balances[wallet.String()] = copied
	}

	volume := make(map[string]types.Money)
	for _, entry := range e.entries {
		if !entry.Type.MovesBalance() {
			continue
		}
		if _, ok := volume[entry.Currency]; !ok {
			volume[entry.Currency] = types.Zero(entry.Currency)
		}
		volume[entry.Currency] = volume[entry.Currency].Add(entry.Amount)
	}

	now := time.Now().UTC()
	cp := &Checkpoint{
		ID:           id.NewCheckpointID(),
		PeriodEnd:    now,
		LastSequence: e.lastSequence,
		LastChecksum: e.lastChecksum,
		Balances:     balances,
		EntryCount:   uint64(len(e.entries)),
		Volume:       volume,
		CreatedAt:    now,
	}
	cp.Checksum = chainChecksum(e.lastChecksum, cp.ID.String())

	if err := e.persister.SaveCheckpoint(ctx, cp); err != nil {
		e.logger.Error("ledger: persist checkpoint failed", "checkpoint_id", cp.ID.String(), "err", err)
	}

	return cp, nil
}
