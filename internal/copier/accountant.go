package copier

// accountant.go — Toda la aritmética de balances, exposición y P&L.
//
// El subledger es independiente del estado de cuenta del venue: los stats se
// recalculan siempre desde transacciones y posiciones, nunca se almacenan
// redundantemente. Las mutaciones son atómicas respecto a una wallet.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"github.com/google/uuid"
)

// Accountant posee la contabilidad por wallet y la vista del pool operativo.
type Accountant struct {
	store ports.LedgerStore
}

// NewAccountant crea un Accountant sobre el ledger store dado.
func NewAccountant(store ports.LedgerStore) *Accountant {
	return &Accountant{store: store}
}

// Deposit registra un depósito contra una wallet y actualiza su total.
func (a *Accountant) Deposit(ctx context.Context, wallet string, amount float64, note string) error {
	return a.fund(ctx, wallet, amount, note, domain.TxDeposit)
}

// Withdraw registra un retiro contra una wallet y actualiza su total.
func (a *Accountant) Withdraw(ctx context.Context, wallet string, amount float64, note string) error {
	return a.fund(ctx, wallet, amount, note, domain.TxWithdrawal)
}

func (a *Accountant) fund(ctx context.Context, wallet string, amount float64, note, kind string) error {
	if amount <= 0 {
		return fmt.Errorf("accountant.fund %s: %w", wallet, domain.ErrInvalidAmount)
	}

	w, err := a.store.GetWallet(ctx, wallet)
	if err != nil {
		return fmt.Errorf("accountant.fund %s: %w", wallet, err)
	}

	tx := domain.SubledgerTransaction{
		ID:        uuid.New().String(),
		Wallet:    wallet,
		Type:      kind,
		Amount:    amount,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("accountant.fund %s: append tx: %w", wallet, err)
	}

	if kind == domain.TxDeposit {
		w.TotalDeposited += amount
	} else {
		w.TotalWithdrawn += amount
	}
	if err := a.store.SaveWallet(ctx, w); err != nil {
		return fmt.Errorf("accountant.fund %s: save wallet: %w", wallet, err)
	}
	return nil
}

// OpenOrAverage abre una posición para (wallet, token) o, si ya existe una
// abierta, recalcula el precio medio ponderado y acumula coste y shares.
func (a *Accountant) OpenOrAverage(ctx context.Context, signal domain.CopySignal, shares, cost float64) (domain.Position, error) {
	pos, err := a.store.GetOpenPosition(ctx, signal.SourceWallet, signal.TokenID)
	switch {
	case err == nil:
		pos.ApplyFill(shares, cost)
	case errors.Is(err, domain.ErrPositionNotFound):
		pos = domain.Position{
			ID:          uuid.New().String(),
			Wallet:      signal.SourceWallet,
			TokenID:     signal.TokenID,
			ConditionID: signal.ConditionID,
			Title:       signal.Title,
			Status:      domain.PositionOpen,
			OpenedAt:    time.Now().UTC(),
		}
		pos.ApplyFill(shares, cost)
	default:
		return domain.Position{}, fmt.Errorf("accountant.OpenOrAverage: %w", err)
	}

	if err := a.store.SavePosition(ctx, pos); err != nil {
		return domain.Position{}, fmt.Errorf("accountant.OpenOrAverage: save: %w", err)
	}
	return pos, nil
}

// Close cierra la posición abierta de (wallet, token) con los proceeds dados
// y computa el P&L realizado. Terminal: falla si no hay posición abierta.
func (a *Accountant) Close(ctx context.Context, wallet, tokenID string, exitPrice, proceeds float64, kind string) (domain.Position, error) {
	pos, err := a.store.GetOpenPosition(ctx, wallet, tokenID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("accountant.Close %s/%s: %w", wallet, tokenID, err)
	}

	if err := pos.Close(exitPrice, proceeds, kind, time.Now().UTC()); err != nil {
		return domain.Position{}, fmt.Errorf("accountant.Close %s/%s: %w", wallet, tokenID, err)
	}

	if err := a.store.SavePosition(ctx, pos); err != nil {
		return domain.Position{}, fmt.Errorf("accountant.Close %s/%s: save: %w", wallet, tokenID, err)
	}
	return pos, nil
}

// CloseAsSettled cierra una posición a precio de settlement: proceeds =
// shares × settlementPrice (1 para outcome ganador, 0 para perdedor). Lo usan
// la reconciliación y el settlement manual.
func (a *Accountant) CloseAsSettled(ctx context.Context, wallet, tokenID string, settlementPrice float64, kind string) (domain.Position, error) {
	pos, err := a.store.GetOpenPosition(ctx, wallet, tokenID)
	if err != nil {
		return domain.Position{}, fmt.Errorf("accountant.CloseAsSettled %s/%s: %w", wallet, tokenID, err)
	}
	proceeds := pos.Shares * settlementPrice
	return a.Close(ctx, wallet, tokenID, settlementPrice, proceeds, kind)
}

// Stats devuelve el estado derivado de una wallet. Invariante:
// Available = Deposited - Withdrawn + RealizedPnl - Exposure.
func (a *Accountant) Stats(ctx context.Context, wallet string) (domain.WalletStats, error) {
	w, err := a.store.GetWallet(ctx, wallet)
	if err != nil {
		return domain.WalletStats{}, fmt.Errorf("accountant.Stats %s: %w", wallet, err)
	}

	positions, err := a.store.ListPositions(ctx, wallet, false)
	if err != nil {
		return domain.WalletStats{}, fmt.Errorf("accountant.Stats %s: positions: %w", wallet, err)
	}

	stats := domain.WalletStats{
		Deposited: w.TotalDeposited,
		Withdrawn: w.TotalWithdrawn,
	}
	for _, p := range positions {
		switch p.Status {
		case domain.PositionOpen:
			stats.Exposure += p.TotalCost
			stats.OpenCount++
		case domain.PositionClosed:
			stats.RealizedPnl += p.RealizedPnl
			stats.ClosedCount++
		}
	}

	stats.Available = stats.Deposited - stats.Withdrawn + stats.RealizedPnl - stats.Exposure
	net := stats.Deposited - stats.Withdrawn
	if net > 0 {
		stats.ReturnPercent = stats.RealizedPnl / net * 100
	}
	return stats, nil
}

// FundPool deposita capital en la cuenta operativa.
func (a *Accountant) FundPool(ctx context.Context, amount float64) error {
	return a.movePool(ctx, amount, true)
}

// DefundPool retira capital de la cuenta operativa.
func (a *Accountant) DefundPool(ctx context.Context, amount float64) error {
	return a.movePool(ctx, amount, false)
}

func (a *Accountant) movePool(ctx context.Context, amount float64, deposit bool) error {
	if amount <= 0 {
		return fmt.Errorf("accountant.movePool: %w", domain.ErrInvalidAmount)
	}
	acct, err := a.store.GetOperatingAccount(ctx)
	if err != nil {
		return fmt.Errorf("accountant.movePool: %w", err)
	}
	if deposit {
		acct.Deposited += amount
	} else {
		acct.Withdrawn += amount
	}
	if err := a.store.SaveOperatingAccount(ctx, acct); err != nil {
		return fmt.Errorf("accountant.movePool: save: %w", err)
	}
	return nil
}

// OperatingView devuelve la vista derivada del pool: "allocated" se computa
// como la suma de depósitos netos de todas las wallets, nunca se almacena —
// evita bugs de doble contabilidad.
func (a *Accountant) OperatingView(ctx context.Context) (domain.OperatingView, error) {
	acct, err := a.store.GetOperatingAccount(ctx)
	if err != nil {
		return domain.OperatingView{}, fmt.Errorf("accountant.OperatingView: %w", err)
	}

	wallets, err := a.store.ListWallets(ctx, false)
	if err != nil {
		return domain.OperatingView{}, fmt.Errorf("accountant.OperatingView: wallets: %w", err)
	}

	view := domain.OperatingView{
		Deposited: acct.Deposited,
		Withdrawn: acct.Withdrawn,
	}
	for _, w := range wallets {
		view.Allocated += w.TotalDeposited - w.TotalWithdrawn
	}
	view.Available = view.Deposited - view.Withdrawn - view.Allocated
	return view, nil
}
