package domain

import "fmt"

// Nombres de reglas pre-trade, en el orden fijo de evaluación.
const (
	RuleCopySells = "copy_sells_enabled"
	RuleCopyBuys  = "copy_buys_enabled"
	RuleMinPrice  = "min_price"
	RuleMaxPrice  = "max_price"
	RuleMinSize   = "min_size"
)

// Reglas de running-total, evaluadas durante la ejecución del run.
const (
	RuleMaxTradesPerRun    = "max_trades_per_run"
	RuleMaxRunSpend        = "max_run_spend"
	RuleProjectedExposure  = "projected_exposure"
	RuleProjectedAvailable = "projected_available"
)

// Outcome final de la evaluación de un signal.
const (
	OutcomePlaced  = "placed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RuleCheck es el resultado de una regla individual: valor real, umbral,
// pass/fail y una derivación opcional para el audit trace.
type RuleCheck struct {
	Name      string  `json:"name"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
	Detail    string  `json:"detail,omitempty"`
}

// SizingCalc registra el cálculo de sizing de un BUY aceptado.
type SizingCalc struct {
	Mode      string  `json:"mode"`
	Input     float64 `json:"input"` // dólares objetivo o size original según el modo
	Shares    float64 `json:"shares"`
	FinalCost float64 `json:"final_cost"`
}

// GuardrailEvaluation es el trace ordenado de reglas producido por un signal.
// Se persiste verbatim con el CopiedTradeRecord para auditoría. Todas las
// reglas pre-trade se registran aunque la primera falle: el short-circuit
// aplica solo a la decisión, nunca al trace.
type GuardrailEvaluation struct {
	Checks     []RuleCheck `json:"checks"`
	Outcome    string      `json:"outcome"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Sizing     *SizingCalc `json:"sizing,omitempty"`
}

// Record añade una regla al trace y fija el skip reason si es la primera
// que falla.
func (e *GuardrailEvaluation) Record(c RuleCheck) {
	e.Checks = append(e.Checks, c)
	if !c.Pass && e.SkipReason == "" {
		e.SkipReason = fmt.Sprintf("%s: %s", c.Name, c.Detail)
	}
}

// Accepted indica si ninguna regla registrada ha fallado.
func (e *GuardrailEvaluation) Accepted() bool {
	for _, c := range e.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}
