package copier_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/internal/copier"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
)

func makeSignal(side string, price, size float64) domain.CopySignal {
	return domain.CopySignal{
		SourceWallet: "0xwhale",
		Side:         side,
		TokenID:      "token-yes-001",
		ConditionID:  "0xcond",
		Price:        price,
		Size:         size,
		TxHash:       "0xtx-" + side,
		Timestamp:    time.Now().UTC(),
	}
}

func convictionPolicy() domain.Policy {
	return domain.Policy{
		CopyBuys:        true,
		CopySells:       true,
		MinPrice:        0.02,
		MaxPrice:        0.98,
		MinSourceSize:   1,
		SizingMode:      domain.SizingConviction,
		ConvictionRatio: 0.10,
		MaxCostPerTrade: 25,
		MaxExposure:     250,
		MaxTradesPerRun: 5,
		MaxRunSpend:     50,
	}
}

// --- Conviction ---

func TestSize_Conviction_DustBelowOneDollar(t *testing.T) {
	// Notional $0.50 → dust, no se copia
	signal := makeSignal(domain.SideBuy, 0.50, 1)
	calc := copier.Size(signal, convictionPolicy())

	assert.Equal(t, domain.SizingConviction, calc.Mode)
	assert.Equal(t, 0.0, calc.Shares)
	assert.Equal(t, 0.0, calc.FinalCost)
}

func TestSize_Conviction_SmallTradeMatchesNotional(t *testing.T) {
	// Notional $3.00 a precio 0.60 → match 1:1 → floor(3/0.6) = 5 shares
	signal := makeSignal(domain.SideBuy, 0.60, 5)
	calc := copier.Size(signal, convictionPolicy())

	assert.InDelta(t, 3.0, calc.Input, 0.001)
	assert.Equal(t, 5.0, calc.Shares)
	assert.InDelta(t, 3.0, calc.FinalCost, 0.001)
}

func TestSize_Conviction_LargeTradeDampened(t *testing.T) {
	// Notional $20 a precio 0.40, ratio 0.10 → $2 → floor(2/0.4) = 5 shares
	signal := makeSignal(domain.SideBuy, 0.40, 50)
	calc := copier.Size(signal, convictionPolicy())

	assert.InDelta(t, 2.0, calc.Input, 0.001)
	assert.Equal(t, 5.0, calc.Shares)
	assert.InDelta(t, 2.0, calc.FinalCost, 0.001)
}

func TestSize_Conviction_LargeTradeFloorAtOneDollar(t *testing.T) {
	// Notional $6, ratio 0.10 → $0.60 → suelo de $1
	signal := makeSignal(domain.SideBuy, 0.30, 20)
	calc := copier.Size(signal, convictionPolicy())

	assert.InDelta(t, 1.0, calc.Input, 0.001)
	assert.Equal(t, 3.0, calc.Shares) // floor(1/0.3)
}

func TestSize_Conviction_CappedByMaxCost(t *testing.T) {
	// Notional $1000, ratio 0.10 → $100 → cap en max_cost_per_trade $25
	signal := makeSignal(domain.SideBuy, 0.50, 2000)
	calc := copier.Size(signal, convictionPolicy())

	assert.InDelta(t, 25.0, calc.Input, 0.001)
	assert.Equal(t, 50.0, calc.Shares) // floor(25/0.5)
	assert.InDelta(t, 25.0, calc.FinalCost, 0.001)
}

// --- Otros modos ---

func TestSize_FixedDollar(t *testing.T) {
	pol := convictionPolicy()
	pol.SizingMode = domain.SizingFixedDollar
	pol.FixedDollar = 5

	calc := copier.Size(makeSignal(domain.SideBuy, 0.50, 100), pol)
	assert.Equal(t, 10.0, calc.Shares)
	assert.InDelta(t, 5.0, calc.FinalCost, 0.001)
}

func TestSize_FixedShares(t *testing.T) {
	pol := convictionPolicy()
	pol.SizingMode = domain.SizingFixedShares
	pol.FixedShares = 10

	calc := copier.Size(makeSignal(domain.SideBuy, 0.25, 100), pol)
	assert.Equal(t, 10.0, calc.Shares)
	assert.InDelta(t, 2.5, calc.FinalCost, 0.001)
}

func TestSize_Proportional_MinimumOneShare(t *testing.T) {
	pol := convictionPolicy()
	pol.SizingMode = domain.SizingProportional
	pol.CopyRatio = 0.05

	// 0.05 × 10 = 0.5 → floor 0 → mínimo 1 share
	calc := copier.Size(makeSignal(domain.SideBuy, 0.50, 10), pol)
	assert.Equal(t, 1.0, calc.Shares)
}

func TestSize_Match(t *testing.T) {
	pol := convictionPolicy()
	pol.SizingMode = domain.SizingMatch

	calc := copier.Size(makeSignal(domain.SideBuy, 0.50, 42), pol)
	assert.Equal(t, 42.0, calc.Shares)
	assert.InDelta(t, 21.0, calc.FinalCost, 0.001)
}

func TestSizeExit_FullPosition(t *testing.T) {
	pos := domain.Position{Shares: 15, AvgEntryPrice: 0.40, TotalCost: 6}
	assert.Equal(t, 15.0, copier.SizeExit(pos))
}
