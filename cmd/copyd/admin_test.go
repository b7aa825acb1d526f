package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminLedger(t *testing.T) *storage.SQLiteLedger {
	t.Helper()
	s, err := storage.NewSQLiteLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFundedWallet(t *testing.T, store *storage.SQLiteLedger, address string) {
	t.Helper()
	err := store.SaveWallet(context.Background(), domain.TrackedWallet{
		Address:        address,
		Alias:          "whale-1",
		Enabled:        true,
		TotalDeposited: 100,
		TotalWithdrawn: 10,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
}

// brokenWalletStore simula un ledger cuyas lecturas de wallet fallan por
// algo distinto a "no existe".
type brokenWalletStore struct {
	*storage.SQLiteLedger
	err error
}

func (s *brokenWalletStore) GetWallet(_ context.Context, _ string) (domain.TrackedWallet, error) {
	return domain.TrackedWallet{}, s.err
}

func TestTrackWallet_CreatesNew(t *testing.T) {
	store := newAdminLedger(t)
	ctx := context.Background()

	require.NoError(t, trackWallet(ctx, store, "0xnew", "fresh"))

	w, err := store.GetWallet(ctx, "0xnew")
	require.NoError(t, err)
	assert.Equal(t, "fresh", w.Alias)
	assert.True(t, w.Enabled)
}

func TestTrackWallet_PreservesFundingTotals(t *testing.T) {
	store := newAdminLedger(t)
	ctx := context.Background()
	seedFundedWallet(t, store, "0xabc")

	require.NoError(t, trackWallet(ctx, store, "0xabc", "renamed"))

	w, err := store.GetWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "renamed", w.Alias)
	assert.InDelta(t, 100.0, w.TotalDeposited, 0.001)
	assert.InDelta(t, 10.0, w.TotalWithdrawn, 0.001)
}

func TestTrackWallet_ReadErrorDoesNotWipeWallet(t *testing.T) {
	store := newAdminLedger(t)
	ctx := context.Background()
	seedFundedWallet(t, store, "0xabc")

	broken := &brokenWalletStore{SQLiteLedger: store, err: errors.New("database is locked")}
	err := trackWallet(ctx, broken, "0xabc", "renamed")
	assert.Error(t, err)

	// Los totales sobreviven: el error de lectura no recreó la wallet
	w, err := store.GetWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "whale-1", w.Alias)
	assert.InDelta(t, 100.0, w.TotalDeposited, 0.001)
}

func TestSyncWallets_PreservesFundingTotals(t *testing.T) {
	store := newAdminLedger(t)
	ctx := context.Background()
	seedFundedWallet(t, store, "0xabc")

	enabled := false
	err := syncWallets(ctx, store, []config.WalletConfig{
		{Address: "0xabc", Alias: "from-yaml", Enabled: &enabled},
		{Address: "0xnew", Alias: "brand-new"},
	})
	require.NoError(t, err)

	w, err := store.GetWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", w.Alias)
	assert.False(t, w.Enabled)
	assert.InDelta(t, 100.0, w.TotalDeposited, 0.001)
	assert.InDelta(t, 10.0, w.TotalWithdrawn, 0.001)

	fresh, err := store.GetWallet(ctx, "0xnew")
	require.NoError(t, err)
	assert.True(t, fresh.Enabled)
	assert.Equal(t, 0.0, fresh.TotalDeposited)
}

func TestSyncWallets_ReadErrorAborts(t *testing.T) {
	store := newAdminLedger(t)
	ctx := context.Background()
	seedFundedWallet(t, store, "0xabc")

	broken := &brokenWalletStore{SQLiteLedger: store, err: errors.New("malformed overrides json")}
	err := syncWallets(ctx, broken, []config.WalletConfig{{Address: "0xabc", Alias: "from-yaml"}})
	assert.Error(t, err)

	w, err := store.GetWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "whale-1", w.Alias)
	assert.InDelta(t, 100.0, w.TotalDeposited, 0.001)
}
