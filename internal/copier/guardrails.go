package copier

// guardrails.go — Pure decision function over a signal and an effective policy.
//
// Los SELL saltan todos los filtros de entrada excepto copy_sells_enabled:
// un exit signal existe para preservar capital, no para seleccionar entradas,
// así que el sistema debe poder salir incluso a un precio fuera de rango.
//
// Para los BUY todas las reglas pre-trade se evalúan y registran aunque la
// primera falle — el trace de auditoría es completo, el short-circuit aplica
// solo a la decisión.

import (
	"fmt"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// RunTotals son los contadores mutables que el orquestador arrastra a lo
// largo de un run. Las reglas de capacidad dependen de los trades anteriores
// del mismo run, no del signal aislado.
type RunTotals struct {
	Trades           int
	Spend            float64
	ExistingExposure float64
	Available        float64
}

// Evaluate produce el trace de reglas pre-trade para un signal.
// Nunca muta estado; determinista dados sus inputs.
func Evaluate(signal domain.CopySignal, pol domain.Policy) domain.GuardrailEvaluation {
	var eval domain.GuardrailEvaluation

	if signal.Side == domain.SideSell {
		eval.Record(boolCheck(domain.RuleCopySells, pol.CopySells, "copy exits disabled for this wallet"))
		return eval
	}

	eval.Record(boolCheck(domain.RuleCopyBuys, pol.CopyBuys, "copy entries disabled for this wallet"))
	eval.Record(domain.RuleCheck{
		Name:      domain.RuleMinPrice,
		Actual:    signal.Price,
		Threshold: pol.MinPrice,
		Pass:      signal.Price >= pol.MinPrice,
		Detail:    fmt.Sprintf("price %.4f vs min %.4f", signal.Price, pol.MinPrice),
	})
	eval.Record(domain.RuleCheck{
		Name:      domain.RuleMaxPrice,
		Actual:    signal.Price,
		Threshold: pol.MaxPrice,
		Pass:      signal.Price <= pol.MaxPrice,
		Detail:    fmt.Sprintf("price %.4f vs max %.4f", signal.Price, pol.MaxPrice),
	})
	eval.Record(domain.RuleCheck{
		Name:      domain.RuleMinSize,
		Actual:    signal.Size,
		Threshold: pol.MinSourceSize,
		Pass:      signal.Size >= pol.MinSourceSize,
		Detail:    fmt.Sprintf("source size %.2f vs min %.2f", signal.Size, pol.MinSourceSize),
	})

	return eval
}

// CheckRunLimits evalúa las cuatro reglas de capacidad para el coste de un
// BUY concreto, en orden fijo. Devuelve los checks (todos, para el trace) y
// si el trade cabe. Un fallo aquí es un hard stop del run, no un skip por
// signal — son límites de capacidad, no filtros por trade.
func CheckRunLimits(cost float64, totals RunTotals, pol domain.Policy) ([]domain.RuleCheck, bool) {
	projExposure := totals.ExistingExposure + totals.Spend + cost
	projAvailable := totals.Available - totals.Spend - cost

	checks := []domain.RuleCheck{
		{
			Name:      domain.RuleMaxTradesPerRun,
			Actual:    float64(totals.Trades + 1),
			Threshold: float64(pol.MaxTradesPerRun),
			Pass:      totals.Trades+1 <= pol.MaxTradesPerRun,
			Detail:    fmt.Sprintf("trade %d of %d allowed this run", totals.Trades+1, pol.MaxTradesPerRun),
		},
		{
			Name:      domain.RuleMaxRunSpend,
			Actual:    totals.Spend + cost,
			Threshold: pol.MaxRunSpend,
			Pass:      totals.Spend+cost <= pol.MaxRunSpend,
			Detail:    fmt.Sprintf("run spend %.2f+%.2f vs cap %.2f", totals.Spend, cost, pol.MaxRunSpend),
		},
		{
			Name:      domain.RuleProjectedExposure,
			Actual:    projExposure,
			Threshold: pol.MaxExposure,
			Pass:      pol.AllowOverdraft || projExposure <= pol.MaxExposure,
			Detail:    fmt.Sprintf("exposure %.2f+%.2f+%.2f vs max %.2f", totals.ExistingExposure, totals.Spend, cost, pol.MaxExposure),
		},
		{
			Name:      domain.RuleProjectedAvailable,
			Actual:    projAvailable,
			Threshold: 0,
			Pass:      pol.AllowOverdraft || projAvailable >= 0,
			Detail:    fmt.Sprintf("available %.2f after spending %.2f", projAvailable, totals.Spend+cost),
		},
	}

	for _, c := range checks {
		if !c.Pass {
			return checks, false
		}
	}
	return checks, true
}

func boolCheck(name string, enabled bool, detail string) domain.RuleCheck {
	actual := 0.0
	if enabled {
		actual = 1.0
		detail = "enabled"
	}
	return domain.RuleCheck{
		Name:      name,
		Actual:    actual,
		Threshold: 1,
		Pass:      enabled,
		Detail:    detail,
	}
}
