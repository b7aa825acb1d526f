package copier_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/copier"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *storage.SQLiteLedger {
	t.Helper()
	store, err := storage.NewSQLiteLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedWallet(t *testing.T, store *storage.SQLiteLedger, address string) {
	t.Helper()
	err := store.SaveWallet(context.Background(), domain.TrackedWallet{
		Address:   address,
		Alias:     "test-wallet",
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestAccountant_DepositAndWithdraw(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	require.NoError(t, acct.Deposit(ctx, "0xabc", 100, "initial"))
	require.NoError(t, acct.Withdraw(ctx, "0xabc", 25, "partial"))

	w, err := store.GetWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, w.TotalDeposited, 0.001)
	assert.InDelta(t, 25.0, w.TotalWithdrawn, 0.001)

	txs, err := store.GetTransactions(ctx, "0xabc")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestAccountant_RejectsNonPositiveAmounts(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	assert.ErrorIs(t, acct.Deposit(ctx, "0xabc", 0, ""), domain.ErrInvalidAmount)
	assert.ErrorIs(t, acct.Withdraw(ctx, "0xabc", -5, ""), domain.ErrInvalidAmount)
}

func TestAccountant_DepositUnknownWallet(t *testing.T) {
	store := newTestLedger(t)
	acct := copier.NewAccountant(store)

	err := acct.Deposit(context.Background(), "0xnobody", 100, "")
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestAccountant_OpenThenAverage(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	signal := makeSignal(domain.SideBuy, 0.30, 10)
	signal.SourceWallet = "0xabc"

	// Primer fill: 10 shares a 0.30
	pos, err := acct.OpenOrAverage(ctx, signal, 10, 3.0)
	require.NoError(t, err)
	assert.Equal(t, domain.PositionOpen, pos.Status)
	assert.Equal(t, 10.0, pos.Shares)

	// Segundo fill sobre la misma posición: 5 shares a 0.60
	pos, err = acct.OpenOrAverage(ctx, signal, 5, 3.0)
	require.NoError(t, err)
	assert.Equal(t, 15.0, pos.Shares)
	assert.InDelta(t, 6.0, pos.TotalCost, 0.001)
	assert.InDelta(t, 0.40, pos.AvgEntryPrice, 0.001)

	// Sigue habiendo una sola posición abierta para el par
	open, err := store.ListPositions(ctx, "0xabc", true)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestAccountant_CloseRealizesPnl(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	signal := makeSignal(domain.SideBuy, 0.40, 10)
	signal.SourceWallet = "0xabc"
	_, err := acct.OpenOrAverage(ctx, signal, 10, 4.0)
	require.NoError(t, err)

	pos, err := acct.Close(ctx, "0xabc", signal.TokenID, 0.70, 7.0, domain.CloseCopiedSell)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pos.RealizedPnl, 0.001)

	// Cerrada: deja de existir como posición abierta
	_, err = store.GetOpenPosition(ctx, "0xabc", signal.TokenID)
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestAccountant_CloseWithoutPosition(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)

	_, err := acct.Close(context.Background(), "0xabc", "token-x", 0.5, 5, domain.CloseManual)
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestAccountant_CloseAsSettled_TotalLoss(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	signal := makeSignal(domain.SideBuy, 0.40, 10)
	signal.SourceWallet = "0xabc"
	_, err := acct.OpenOrAverage(ctx, signal, 20, 8.0)
	require.NoError(t, err)

	pos, err := acct.CloseAsSettled(ctx, "0xabc", signal.TokenID, 0, domain.CloseReconciled)
	require.NoError(t, err)
	assert.InDelta(t, -8.0, pos.RealizedPnl, 0.001)
	assert.Equal(t, domain.CloseReconciled, pos.CloseKind)
}

func TestAccountant_StatsInvariant(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	require.NoError(t, acct.Deposit(ctx, "0xabc", 100, ""))
	require.NoError(t, acct.Withdraw(ctx, "0xabc", 10, ""))

	buy := makeSignal(domain.SideBuy, 0.50, 10)
	buy.SourceWallet = "0xabc"
	_, err := acct.OpenOrAverage(ctx, buy, 60, 30.0)
	require.NoError(t, err)

	other := makeSignal(domain.SideBuy, 0.50, 10)
	other.SourceWallet = "0xabc"
	other.TokenID = "token-no-002"
	_, err = acct.OpenOrAverage(ctx, other, 20, 10.0)
	require.NoError(t, err)
	_, err = acct.CloseAsSettled(ctx, "0xabc", "token-no-002", 1, domain.CloseManual)
	require.NoError(t, err)

	stats, err := acct.Stats(ctx, "0xabc")
	require.NoError(t, err)

	assert.InDelta(t, 30.0, stats.Exposure, 0.001)
	assert.InDelta(t, 10.0, stats.RealizedPnl, 0.001) // 20 × $1 - $10
	assert.Equal(t, 1, stats.OpenCount)
	assert.Equal(t, 1, stats.ClosedCount)

	// Available = Deposited - Withdrawn + RealizedPnl - Exposure
	want := stats.Deposited - stats.Withdrawn + stats.RealizedPnl - stats.Exposure
	assert.InDelta(t, want, stats.Available, 0.001)
	assert.InDelta(t, 70.0, stats.Available, 0.001)
}

func TestAccountant_OperatingPool(t *testing.T) {
	store := newTestLedger(t)
	seedWallet(t, store, "0xabc")
	acct := copier.NewAccountant(store)
	ctx := context.Background()

	require.NoError(t, acct.FundPool(ctx, 500))
	require.NoError(t, acct.DefundPool(ctx, 50))
	require.NoError(t, acct.Deposit(ctx, "0xabc", 100, ""))

	view, err := acct.OperatingView(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 500.0, view.Deposited, 0.001)
	assert.InDelta(t, 50.0, view.Withdrawn, 0.001)
	assert.InDelta(t, 100.0, view.Allocated, 0.001)
	assert.InDelta(t, 350.0, view.Available, 0.001)
}
