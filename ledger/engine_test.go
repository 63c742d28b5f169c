package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
	"github.com/stretchr/testify/require"
)

func fundWallet(t *testing.T, e *Engine, wallet id.WalletID, amount types.Money) {
	t.Helper()
	res, err := e.Mint(context.Background(), wallet, amount, "seed")
	require.NoError(t, err)
	require.True(t, res.Success)
}

// S1: a basic payment with a fee splits correctly between recipient and
// fee wallet and debits the payer the full total.
func TestEngineTransferWithFee(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	agentWallet := id.NewWalletID()
	merchantWallet := id.NewWalletID()
	feeWallet := id.NewWalletID()

	fundWallet(t, e, agentWallet, types.USDC("100.00"))

	res, err := e.Transfer(ctx, agentWallet, merchantWallet, types.USDC("40.00"), types.USDC("1.00"), feeWallet, "purchase")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, KindTransfer, res.Transaction.Kind)
	require.Len(t, res.Entries, 3)

	require.True(t, e.GetBalance(agentWallet, "usdc").Equal(types.USDC("59.00")))
	require.True(t, e.GetBalance(merchantWallet, "usdc").Equal(types.USDC("40.00")))
	require.True(t, e.GetBalance(feeWallet, "usdc").Equal(types.USDC("1.00")))

	ok, err := e.VerifyIntegrity(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEngineTransferInsufficientBalance(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	from := id.NewWalletID()
	to := id.NewWalletID()
	fundWallet(t, e, from, types.USDC("10.00"))

	_, err := e.Transfer(ctx, from, to, types.USDC("50.00"), types.Zero("usdc"), id.WalletID{}, "overspend")
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

// S4: create a hold, capture less than the full amount, and confirm the
// remainder is released rather than left reserved.
func TestEngineHoldCapturePartial(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	wallet := id.NewWalletID()
	merchant := id.NewWalletID()
	fundWallet(t, e, wallet, types.USDC("100.00"))

	holdRes, err := e.CreateHold(ctx, wallet, types.USDC("30.00"), "pre-auth")
	require.NoError(t, err)
	require.True(t, holdRes.Success)

	require.True(t, e.GetHeldAmount(wallet, "usdc").Equal(types.USDC("30.00")))
	require.True(t, e.GetAvailableBalance(wallet, "usdc").Equal(types.USDC("70.00")))

	captureAmount := types.USDC("20.00")
	capRes, err := e.CaptureHold(ctx, holdRes.Transaction.ID, merchant, &captureAmount, types.Zero("usdc"), id.WalletID{}, "capture")
	require.NoError(t, err)
	require.True(t, capRes.Success)

	// Full hold released, only the captured amount actually moved.
	require.True(t, e.GetHeldAmount(wallet, "usdc").IsZero())
	require.True(t, e.GetBalance(wallet, "usdc").Equal(types.USDC("80.00")))
	require.True(t, e.GetBalance(merchant, "usdc").Equal(types.USDC("20.00")))

	// The hold cannot be captured twice.
	_, err = e.CaptureHold(ctx, holdRes.Transaction.ID, merchant, nil, types.Zero("usdc"), id.WalletID{}, "capture again")
	require.ErrorIs(t, err, ErrHoldNotActive)
}

func TestEngineVoidHold(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	wallet := id.NewWalletID()
	fundWallet(t, e, wallet, types.USDC("50.00"))

	holdRes, err := e.CreateHold(ctx, wallet, types.USDC("20.00"), "pre-auth")
	require.NoError(t, err)

	_, err = e.VoidHold(ctx, holdRes.Transaction.ID)
	require.NoError(t, err)

	require.True(t, e.GetHeldAmount(wallet, "usdc").IsZero())
	require.True(t, e.GetBalance(wallet, "usdc").Equal(types.USDC("50.00")))
	require.Len(t, holdRes.Entries, 1)
	require.Equal(t, EntryHold, holdRes.Entries[0].Type)
	require.Equal(t, EntryVoid, holdRes.Entries[0].Status)

	_, err = e.VoidHold(ctx, holdRes.Transaction.ID)
	require.ErrorIs(t, err, ErrHoldNotActive)
}

func TestEngineCaptureExceedsHold(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	wallet := id.NewWalletID()
	merchant := id.NewWalletID()
	fundWallet(t, e, wallet, types.USDC("50.00"))

	holdRes, err := e.CreateHold(ctx, wallet, types.USDC("10.00"), "pre-auth")
	require.NoError(t, err)

	over := types.USDC("15.00")
	_, err = e.CaptureHold(ctx, holdRes.Transaction.ID, merchant, &over, types.Zero("usdc"), id.WalletID{}, "capture")
	require.ErrorIs(t, err, ErrCaptureExceedsHold)
}

// S5: refunds are bounded by the original amount and cap out once fully
// refunded.
func TestEngineRefundBounded(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	from := id.NewWalletID()
	to := id.NewWalletID()
	fundWallet(t, e, from, types.USDC("100.00"))

	txRes, err := e.Transfer(ctx, from, to, types.USDC("50.00"), types.Zero("usdc"), id.WalletID{}, "purchase")
	require.NoError(t, err)

	partial := types.USDC("20.00")
	refundRes, err := e.Refund(ctx, txRes.Transaction.ID, &partial, "partial refund")
	require.NoError(t, err)
	require.True(t, refundRes.Success)
	require.True(t, e.GetBalance(from, "usdc").Equal(types.USDC("70.00")))
	require.True(t, e.GetBalance(to, "usdc").Equal(types.USDC("30.00")))

	// Refunding more than the remainder fails.
	tooMuch := types.USDC("31.00")
	_, err = e.Refund(ctx, txRes.Transaction.ID, &tooMuch, "over-refund")
	require.ErrorIs(t, err, ErrRefundExceedsOriginal)

	// Refunding exactly the remainder succeeds and marks it fully refunded.
	remainder := types.USDC("30.00")
	_, err = e.Refund(ctx, txRes.Transaction.ID, &remainder, "final refund")
	require.NoError(t, err)

	updated, err := e.GetTransaction(txRes.Transaction.ID)
	require.NoError(t, err)
	require.Equal(t, TransactionRefunded, updated.Status)

	_, err = e.Refund(ctx, txRes.Transaction.ID, nil, "no more left")
	require.ErrorIs(t, err, ErrRefundOnNonCompleted)
}

// S7: concurrent transfers racing against the same wallet must never
// overdraw the balance — exactly enough of them succeed to exhaust funds.
func TestEngineConcurrentTransfersCannotDoubleSpend(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	from := id.NewWalletID()
	to := id.NewWalletID()
	fundWallet(t, e, from, types.USDC("100.00"))

	const attempts = 50
	var wg sync.WaitGroup
	var succeeded, failed int64
	var mu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Transfer(ctx, from, to, types.USDC("5.00"), types.Zero("usdc"), id.WalletID{}, "race")
			mu.Lock()
			defer mu.Unlock()
			if err == nil && res.Success {
				succeeded++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(20), succeeded) // 100.00 / 5.00
	require.Equal(t, int64(attempts)-20, failed)
	require.True(t, e.GetBalance(from, "usdc").IsZero())
	require.True(t, e.GetBalance(to, "usdc").Equal(types.USDC("100.00")))

	ok, err := e.VerifyIntegrity(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEngineSequenceMonotonic(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	from := id.NewWalletID()
	to := id.NewWalletID()
	fundWallet(t, e, from, types.USDC("30.00"))

	res, err := e.Transfer(ctx, from, to, types.USDC("10.00"), types.Zero("usdc"), id.WalletID{}, "x")
	require.NoError(t, err)

	var last uint64
	for _, entry := range res.Entries {
		require.Greater(t, entry.Sequence, last)
		last = entry.Sequence
	}
}

func TestEngineCheckpoint(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	from := id.NewWalletID()
	to := id.NewWalletID()
	fundWallet(t, e, from, types.USDC("20.00"))
	_, err := e.Transfer(ctx, from, to, types.USDC("5.00"), types.Zero("usdc"), id.WalletID{}, "x")
	require.NoError(t, err)

	cp, err := e.CreateCheckpoint(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cp.Checksum)
	require.Equal(t, uint64(3), cp.EntryCount) // 1 mint + 2 transfer entries
}
