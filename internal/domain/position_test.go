package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFill_WeightedAverage(t *testing.T) {
	p := Position{Status: PositionOpen}

	p.ApplyFill(10, 3.0) // 10 shares @ 0.30
	p.ApplyFill(5, 3.0)  // 5 shares @ 0.60

	assert.Equal(t, 15.0, p.Shares)
	assert.InDelta(t, 6.0, p.TotalCost, 0.001)
	assert.InDelta(t, 0.40, p.AvgEntryPrice, 0.001)
}

func TestClose_ComputesRealizedPnl(t *testing.T) {
	p := Position{Status: PositionOpen}
	p.ApplyFill(10, 4.0)

	err := p.Close(0.70, 7.0, CloseCopiedSell, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, PositionClosed, p.Status)
	assert.InDelta(t, 3.0, p.RealizedPnl, 0.001)
	assert.Equal(t, CloseCopiedSell, p.CloseKind)
	require.NotNil(t, p.ClosedAt)
}

func TestClose_Terminal(t *testing.T) {
	p := Position{Status: PositionOpen}
	p.ApplyFill(10, 4.0)

	require.NoError(t, p.Close(0.70, 7.0, CloseCopiedSell, time.Now().UTC()))
	err := p.Close(0.80, 8.0, CloseManual, time.Now().UTC())

	assert.ErrorIs(t, err, ErrPositionClosed)
	assert.InDelta(t, 3.0, p.RealizedPnl, 0.001) // el primer close no se pisa
}

func TestClose_TotalLossAtZero(t *testing.T) {
	p := Position{Status: PositionOpen}
	p.ApplyFill(20, 8.0)

	require.NoError(t, p.Close(0, 0, CloseReconciled, time.Now().UTC()))
	assert.InDelta(t, -8.0, p.RealizedPnl, 0.001)
}

func TestSignalValid(t *testing.T) {
	base := CopySignal{
		SourceWallet: "0xwhale",
		Side:         SideBuy,
		TokenID:      "token-1",
		Price:        0.5,
		Size:         10,
		TxHash:       "0xtx",
		Timestamp:    time.Now().UTC(),
	}
	assert.True(t, base.Valid())

	cases := []struct {
		name   string
		mutate func(*CopySignal)
	}{
		{"missing tx hash", func(s *CopySignal) { s.TxHash = "" }},
		{"missing token", func(s *CopySignal) { s.TokenID = "" }},
		{"bad side", func(s *CopySignal) { s.Side = "HOLD" }},
		{"price zero", func(s *CopySignal) { s.Price = 0 }},
		{"price at one", func(s *CopySignal) { s.Price = 1 }},
		{"size zero", func(s *CopySignal) { s.Size = 0 }},
		{"zero timestamp", func(s *CopySignal) { s.Timestamp = time.Time{} }},
	}
	for _, tc := range cases {
		s := base
		tc.mutate(&s)
		assert.False(t, s.Valid(), tc.name)
	}
}

func TestSignalNotional(t *testing.T) {
	s := CopySignal{Price: 0.40, Size: 50}
	assert.InDelta(t, 20.0, s.Notional(), 0.001)
}
