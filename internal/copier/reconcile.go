package copier

// reconcile.go — Compara posiciones internas abiertas contra la lista
// autoritativa del venue y fuerza el settlement de las discrepancias.
//
// Si un token ya no aparece en el feed de posiciones del venue, la posición
// se asume liquidada. Como el outcome real (ganó/perdió) no siempre puede
// derivarse de ese feed, el default conservador la contabiliza como pérdida
// total (settlementPrice = 0) hasta que se cablee un oráculo de settlement
// de mayor fidelidad. Preferimos subestimar ganancias a sobreestimarlas.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ports"
)

// Reconciler cierra posiciones que el venue liquidó en silencio.
// Diseñado para correr en una cadencia más lenta que el copy loop, porque
// depende de la finalidad de settlement del lado del venue.
type Reconciler struct {
	venue        ports.Venue
	store        ports.LedgerStore
	acct         *Accountant
	venueAddress string // nuestra cuenta en el venue, no la wallet origen
}

// NewReconciler crea un Reconciler para la cuenta del venue dada.
func NewReconciler(venue ports.Venue, store ports.LedgerStore, venueAddress string) *Reconciler {
	return &Reconciler{
		venue:        venue,
		store:        store,
		acct:         NewAccountant(store),
		venueAddress: venueAddress,
	}
}

// Reconcile fuerza el settlement de las posiciones abiertas de una wallet
// cuyo token ya no existe en el venue. Devuelve cuántas cerró. Idempotente:
// una posición cerrada deja de estar abierta y no se re-cierra.
func (r *Reconciler) Reconcile(ctx context.Context, wallet string) (int, error) {
	open, err := r.store.ListPositions(ctx, wallet, true)
	if err != nil {
		return 0, fmt.Errorf("reconciler.Reconcile %s: list: %w", wallet, err)
	}
	if len(open) == 0 {
		return 0, nil
	}

	venuePositions, err := r.venue.Positions(ctx, r.venueAddress)
	if err != nil {
		return 0, fmt.Errorf("reconciler.Reconcile %s: venue positions: %w", wallet, err)
	}

	onVenue := make(map[string]bool, len(venuePositions))
	for _, vp := range venuePositions {
		onVenue[vp.TokenID] = true
	}

	settled := 0
	for _, pos := range open {
		if onVenue[pos.TokenID] {
			continue // sigue viva en el venue, no se toca
		}

		closed, err := r.acct.CloseAsSettled(ctx, wallet, pos.TokenID, 0, domain.CloseReconciled)
		if err != nil {
			return settled, fmt.Errorf("reconciler.Reconcile %s/%s: %w", wallet, pos.TokenID, err)
		}
		settled++
		slog.Info("position force-settled",
			"wallet", wallet,
			"token", shortID(pos.TokenID),
			"pnl", fmt.Sprintf("%.2f", closed.RealizedPnl),
		)
	}
	return settled, nil
}
