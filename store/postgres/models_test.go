package postgres

import (
	"testing"
	"time"

	"github.com/sardis-labs/core/agent"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/merchant"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/policy"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
	"github.com/stretchr/testify/require"
)

func TestWalletModelRoundTrip(t *testing.T) {
	w := wallet.New(id.NewAgentID(), wallet.PrincipalAgent)
	w.SpentTotal = types.USDC("12.50")
	w.PerTxLimit = types.USDC("100.00")

	back, err := fromWalletModel(toWalletModel(w))
	require.NoError(t, err)
	require.Equal(t, w.ID, back.ID)
	require.Equal(t, w.PrincipalID, back.PrincipalID)
	require.True(t, w.SpentTotal.Equal(back.SpentTotal))
	require.True(t, w.PerTxLimit.Equal(back.PerTxLimit))
	require.Equal(t, w.Active, back.Active)
}

func TestWalletModelRoundTripPreservesZeroCardID(t *testing.T) {
	w := wallet.New(id.NewMerchantID(), wallet.PrincipalMerchant)
	back, err := fromWalletModel(toWalletModel(w))
	require.NoError(t, err)
	require.Equal(t, id.Nil, back.CardID)
}

func TestAgentModelRoundTrip(t *testing.T) {
	a := agent.New("owner-1", "payments-bot", id.NewWalletID(), agent.TrustHigh)
	a.Metadata = map[string]string{"env": "prod"}

	back, err := fromAgentModel(toAgentModel(a))
	require.NoError(t, err)
	require.Equal(t, a.ID, back.ID)
	require.Equal(t, a.OwnerID, back.OwnerID)
	require.Equal(t, a.WalletID, back.WalletID)
	require.Equal(t, a.TrustTier, back.TrustTier)
	require.Equal(t, "prod", back.Metadata["env"])
}

func TestMerchantModelRoundTrip(t *testing.T) {
	m := merchant.New("owner-2", "Acme Cloud", "infrastructure", id.NewWalletID())
	m.Verified = true
	m.TrustScore = 87.5

	back, err := fromMerchantModel(toMerchantModel(m))
	require.NoError(t, err)
	require.Equal(t, m.ID, back.ID)
	require.Equal(t, m.Name, back.Name)
	require.Equal(t, m.Category, back.Category)
	require.True(t, back.Verified)
	require.Equal(t, m.TrustScore, back.TrustScore)
}

func TestPolicyModelRoundTrip(t *testing.T) {
	p := policy.New(id.NewAgentID(), "usdc")

	model, err := toPolicyModel(p)
	require.NoError(t, err)
	require.Equal(t, p.AgentID.String(), model.AgentID)

	back, err := fromPolicyModel(model)
	require.NoError(t, err)
	require.Equal(t, p.ID, back.ID)
	require.Equal(t, p.AgentID, back.AgentID)
}

func TestHoldModelRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	h := &orchestrator.PaymentHold{
		ID:             id.NewHoldID(),
		AgentID:        id.NewAgentID(),
		WalletID:       id.NewWalletID(),
		MerchantID:     id.NewMerchantID(),
		Amount:         types.USDC("42.00"),
		Purpose:        "compute",
		Status:         orchestrator.HoldActive,
		ExpiresAt:      now.Add(time.Hour),
		LedgerHoldTxID: id.NewTransactionID(),
	}

	back, err := fromHoldModel(toHoldModel(h))
	require.NoError(t, err)
	require.Equal(t, h.ID, back.ID)
	require.Equal(t, h.Status, back.Status)
	require.True(t, h.Amount.Equal(back.Amount))
	require.Equal(t, h.LedgerHoldTxID, back.LedgerHoldTxID)
	require.Equal(t, id.Nil, back.CaptureTxID, "an uncaptured hold must round-trip with a zero capture tx id")
}

func TestEntryModelRoundTrip(t *testing.T) {
	e := &ledger.Entry{
		Sequence:         7,
		ID:               id.NewEntryID(),
		Type:             ledger.EntryDebit,
		WalletID:         id.NewWalletID(),
		Currency:         "usdc",
		Amount:           types.USDC("10.00"),
		TransactionID:    id.NewTransactionID(),
		Status:           ledger.EntryConfirmed,
		PreviousChecksum: "genesis",
		Checksum:         "abc123",
		CreatedAt:        time.Now().UTC(),
	}

	back, err := fromEntryModel(toEntryModel(e))
	require.NoError(t, err)
	require.Equal(t, e.ID, back.ID)
	require.Equal(t, e.Type, back.Type)
	require.True(t, e.Amount.Equal(back.Amount))
	require.Equal(t, e.Checksum, back.Checksum)
}

func TestTransactionModelRoundTrip(t *testing.T) {
	tx := &ledger.Transaction{
		ID:         id.NewTransactionID(),
		Kind:       ledger.KindTransfer,
		EntryIDs:   []id.EntryID{id.NewEntryID(), id.NewEntryID()},
		FromWallet: id.NewWalletID(),
		ToWallet:   id.NewWalletID(),
		Currency:   "usdc",
		Amount:     types.USDC("25.00"),
		Fee:        types.USDC("0.10"),
		FeeWallet:  id.NewWalletID(),
		Status:     ledger.TransactionCompleted,
	}

	back, err := fromTransactionModel(toTransactionModel(tx))
	require.NoError(t, err)
	require.Equal(t, tx.ID, back.ID)
	require.Equal(t, tx.Kind, back.Kind)
	require.Len(t, back.EntryIDs, 2)
	require.True(t, tx.Amount.Equal(back.Amount))
	require.True(t, tx.Fee.Equal(back.Fee))
	require.Equal(t, tx.FromWallet, back.FromWallet)
	require.Equal(t, tx.ToWallet, back.ToWallet)
}

func TestOrZero(t *testing.T) {
	require.Equal(t, "0", orZero(""))
	require.Equal(t, "5", orZero("5"))
}
