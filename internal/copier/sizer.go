package copier

// sizer.go — Position sizing for accepted signals.
//
// Conviction (el modo por defecto) es asimétrico a propósito: los trades
// pequeños ("probes") se copian 1:1 en dólares, los grandes se amortiguan
// proporcionalmente y se acotan por max_cost_per_trade. Nunca se piden
// shares fraccionales.

import (
	"math"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	dustNotional  = 1.0 // notional < $1 → dust, no se copia
	matchNotional = 5.0 // $1–$5 → match 1:1 en dólares
	minConviction = 1.0 // suelo en dólares para trades grandes
)

// Size calcula las shares a comprar para un BUY aceptado según el modo de
// sizing de la política efectiva. Devuelve 0 si el trade no merece ejecución
// (dust); el caller debe saltarlo antes de gastar esfuerzo en el venue.
func Size(signal domain.CopySignal, pol domain.Policy) domain.SizingCalc {
	calc := domain.SizingCalc{Mode: pol.SizingMode}

	switch pol.SizingMode {
	case domain.SizingFixedDollar:
		calc.Input = pol.FixedDollar
		calc.Shares = math.Floor(pol.FixedDollar / signal.Price)

	case domain.SizingFixedShares:
		calc.Input = pol.FixedShares
		calc.Shares = math.Floor(pol.FixedShares)

	case domain.SizingProportional:
		calc.Input = signal.Size
		calc.Shares = math.Floor(pol.CopyRatio * signal.Size)
		if calc.Shares < 1 {
			calc.Shares = 1
		}

	case domain.SizingMatch:
		calc.Input = signal.Size
		calc.Shares = signal.Size

	default: // conviction
		calc.Mode = domain.SizingConviction
		dollars := convictionDollars(signal.Notional(), pol)
		calc.Input = dollars
		if dollars > 0 {
			calc.Shares = math.Floor(dollars / signal.Price)
		}
	}

	calc.FinalCost = calc.Shares * signal.Price
	return calc
}

// SizeExit devuelve el size de salida para un SELL copiado: siempre la
// cantidad completa de la posición.
func SizeExit(pos domain.Position) float64 {
	return pos.Shares
}

// convictionDollars aplica la regla de conviction al notional original.
func convictionDollars(notional float64, pol domain.Policy) float64 {
	switch {
	case notional < dustNotional:
		return 0
	case notional <= matchNotional:
		return notional
	default:
		dollars := math.Max(minConviction, pol.ConvictionRatio*notional)
		return math.Min(dollars, pol.MaxCostPerTrade)
	}
}
