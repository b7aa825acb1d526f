package domain

import "time"

// Estados de una posición.
const (
	PositionOpen   = "OPEN"
	PositionClosed = "CLOSED"
)

// Cómo se cerró una posición.
const (
	CloseCopiedSell = "COPIED_SELL"
	CloseManual     = "MANUAL_SETTLEMENT"
	CloseReconciled = "RECONCILED"
)

// Position es un holding abierto o cerrado, único por (wallet, token)
// mientras está abierto. El invariante es TotalCost = Σ costes de los fills
// que produjeron Shares, y AvgEntryPrice = TotalCost / Shares.
type Position struct {
	ID            string
	Wallet        string
	TokenID       string
	ConditionID   string
	Title         string
	Shares        float64
	AvgEntryPrice float64
	TotalCost     float64
	Status        string
	OpenedAt      time.Time

	// Solo para posiciones cerradas
	ExitPrice   float64
	Proceeds    float64
	RealizedPnl float64
	CloseKind   string
	ClosedAt    *time.Time
}

// ApplyFill añade un fill BUY a la posición, recalculando el precio medio
// ponderado por coste.
func (p *Position) ApplyFill(shares, cost float64) {
	p.Shares += shares
	p.TotalCost += cost
	if p.Shares > 0 {
		p.AvgEntryPrice = p.TotalCost / p.Shares
	}
}

// Close marca la posición como cerrada con los proceeds dados.
// Es terminal: una posición cerrada no se reabre ni se re-cierra.
func (p *Position) Close(exitPrice, proceeds float64, kind string, at time.Time) error {
	if p.Status == PositionClosed {
		return ErrPositionClosed
	}
	p.Status = PositionClosed
	p.ExitPrice = exitPrice
	p.Proceeds = proceeds
	p.RealizedPnl = proceeds - p.TotalCost
	p.CloseKind = kind
	p.ClosedAt = &at
	return nil
}
