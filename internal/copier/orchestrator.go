package copier

// orchestrator.go — One run per tracked wallet: fetch → dedup → evaluate →
// size → execute → record.
//
// Todos los caminos terminan en un PollRun persistido, incluso en fallo
// parcial: los errores incrementan contadores, nunca abortan el run en
// silencio. La única excepción son los errores de ledger durante la
// contabilidad, que propagan y cortan el loop de BUYs — un ledger
// inconsistente no se enmascara.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"github.com/google/uuid"
)

const maxVenueErrorLen = 200

// Config controla el comportamiento de un run del orquestador.
type Config struct {
	DryRun      bool
	MaxTradeAge time.Duration
	Defaults    domain.Policy
}

// Orchestrator ejecuta el pipeline de copy-decision para una wallet.
type Orchestrator struct {
	cfg   Config
	feed  ports.TradeFeed
	venue ports.Venue
	store ports.LedgerStore
	acct  *Accountant
}

// NewOrchestrator crea un Orchestrator con las dependencias inyectadas.
func NewOrchestrator(cfg Config, feed ports.TradeFeed, venue ports.Venue, store ports.LedgerStore) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		feed:  feed,
		venue: venue,
		store: store,
		acct:  NewAccountant(store),
	}
}

// Accountant expone el subledger del orquestador (reporting, admin ops).
func (o *Orchestrator) Accountant() *Accountant {
	return o.acct
}

// RunWallet procesa una wallet de principio a fin y persiste el PollRun.
// Los errores devueltos ya quedaron registrados en el run; el caller solo
// debe loguearlos, nunca crashear por ellos.
func (o *Orchestrator) RunWallet(ctx context.Context, w domain.TrackedWallet) (domain.PollRun, error) {
	run := domain.PollRun{
		ID:        uuid.New().String(),
		Wallet:    w.Address,
		StartedAt: time.Now().UTC(),
	}
	pol := w.Overrides.Merge(o.cfg.Defaults)

	stats, err := o.acct.Stats(ctx, w.Address)
	if err != nil {
		run.Note = "stats failed: " + err.Error()
		return o.complete(ctx, run), err
	}

	// Gate de funding: una wallet sin depósitos o sin balance disponible no
	// llega ni a fetch. El overdraft explícito salta ambos gates.
	if !pol.AllowOverdraft {
		if stats.Deposited == 0 {
			run.Note = "skipped: wallet has no deposits"
			return o.complete(ctx, run), nil
		}
		if stats.Available <= 0 {
			run.Note = fmt.Sprintf("skipped: no available balance (%.2f)", stats.Available)
			return o.complete(ctx, run), nil
		}
	}

	cutoff := time.Now().UTC().Add(-o.cfg.MaxTradeAge)
	signals, err := o.feed.FetchUserTrades(ctx, w.Address, cutoff)
	if err != nil {
		run.Failed++
		run.Note = "fetch failed: " + err.Error()
		return o.complete(ctx, run), fmt.Errorf("orchestrator.RunWallet %s: fetch: %w", w.Address, err)
	}
	run.Found = len(signals)
	if len(signals) == 0 {
		return o.complete(ctx, run), nil
	}

	fresh, err := o.dedup(ctx, w.Address, signals)
	if err != nil {
		run.Failed++
		run.Note = "dedup failed: " + err.Error()
		return o.complete(ctx, run), fmt.Errorf("orchestrator.RunWallet %s: dedup: %w", w.Address, err)
	}
	run.New = len(fresh)

	totals := RunTotals{
		ExistingExposure: stats.Exposure,
		Available:        stats.Available,
	}
	hardStop := false

	// Los signals se procesan en el orden del feed (más recientes primero):
	// los running totals acumulan en ese orden, así que los trades más nuevos
	// tienen prioridad sobre la capacidad restante del run.
	for _, signal := range fresh {
		var execErr error
		if signal.Side == domain.SideSell {
			execErr = o.processSell(ctx, signal, pol, &run)
		} else {
			if hardStop {
				// Capacidad agotada: los BUYs restantes no se registran, así
				// siguen siendo elegibles cuando el siguiente run tenga budget.
				continue
			}
			execErr = o.processBuy(ctx, signal, pol, &totals, &hardStop, &run)
		}
		if execErr != nil {
			run.Note = "ledger error: " + execErr.Error()
			o.advanceCursor(ctx, w.Address, signals)
			return o.complete(ctx, run), execErr
		}
	}

	o.advanceCursor(ctx, w.Address, signals)
	return o.complete(ctx, run), nil
}

// processSell maneja un exit signal. Un SELL sin posición abierta es un skip
// esperado e inofensivo, nunca un fallo.
func (o *Orchestrator) processSell(ctx context.Context, signal domain.CopySignal, pol domain.Policy, run *domain.PollRun) error {
	eval := Evaluate(signal, pol)
	rec := o.newRecord(signal, eval)

	if !eval.Accepted() {
		return o.skip(ctx, rec, eval.SkipReason, run)
	}

	pos, err := o.store.GetOpenPosition(ctx, signal.SourceWallet, signal.TokenID)
	if errors.Is(err, domain.ErrPositionNotFound) {
		return o.skip(ctx, rec, "no position to exit", run)
	}
	if err != nil {
		return fmt.Errorf("get position %s: %w", signal.TokenID, err)
	}

	shares := SizeExit(pos)
	rec.CopyPrice = signal.Price
	rec.CopyShares = shares

	if o.cfg.DryRun {
		return o.skip(ctx, rec, "dry run", run)
	}

	rec.Status = domain.StatusPending
	if err := o.store.SaveTradeRecord(ctx, rec); err != nil {
		return fmt.Errorf("save record %s: %w", rec.TxHash, err)
	}

	result, err := o.venue.SubmitOrder(ctx, domain.SideSell, signal.TokenID, signal.Price, shares)
	if err != nil || result.Failed() {
		return o.fail(ctx, rec, result, err, run)
	}

	proceeds := shares * signal.Price
	pos, err = o.acct.Close(ctx, signal.SourceWallet, signal.TokenID, signal.Price, proceeds, domain.CloseCopiedSell)
	if err != nil {
		return fmt.Errorf("close position %s: %w", signal.TokenID, err)
	}

	rec.Status = domain.StatusPlaced
	rec.OrderID = result.OrderID
	rec.Evaluation.Outcome = domain.OutcomePlaced
	run.Copied++
	slog.Info("copied exit",
		"wallet", signal.SourceWallet,
		"token", shortID(signal.TokenID),
		"shares", shares,
		"pnl", fmt.Sprintf("%.2f", pos.RealizedPnl),
	)
	return o.store.SaveTradeRecord(ctx, rec)
}

// processBuy maneja un entry signal. Las reglas de capacidad se evalúan
// contra los totals acumulados del run; su primer fallo activa el hard stop.
func (o *Orchestrator) processBuy(ctx context.Context, signal domain.CopySignal, pol domain.Policy, totals *RunTotals, hardStop *bool, run *domain.PollRun) error {
	eval := Evaluate(signal, pol)
	rec := o.newRecord(signal, eval)

	if !eval.Accepted() {
		return o.skip(ctx, rec, eval.SkipReason, run)
	}

	sizing := Size(signal, pol)
	rec.Evaluation.Sizing = &sizing
	if sizing.Shares < 1 {
		reason := fmt.Sprintf("%s sizing produced no shares (input %.2f at price %.4f)", sizing.Mode, sizing.Input, signal.Price)
		if sizing.Mode == domain.SizingConviction {
			reason = fmt.Sprintf("dust: source notional %.2f below minimum", signal.Notional())
		}
		return o.skip(ctx, rec, reason, run)
	}
	rec.CopyPrice = signal.Price
	rec.CopyShares = sizing.Shares
	rec.CopyCost = sizing.FinalCost

	checks, ok := CheckRunLimits(sizing.FinalCost, *totals, pol)
	for _, c := range checks {
		rec.Evaluation.Record(c)
	}
	if !ok {
		*hardStop = true
		return o.skip(ctx, rec, rec.Evaluation.SkipReason, run)
	}

	if o.cfg.DryRun {
		totals.Trades++
		totals.Spend += sizing.FinalCost
		return o.skip(ctx, rec, "dry run", run)
	}

	rec.Status = domain.StatusPending
	if err := o.store.SaveTradeRecord(ctx, rec); err != nil {
		return fmt.Errorf("save record %s: %w", rec.TxHash, err)
	}

	result, err := o.venue.SubmitOrder(ctx, domain.SideBuy, signal.TokenID, signal.Price, sizing.Shares)
	if err != nil || result.Failed() {
		return o.fail(ctx, rec, result, err, run)
	}

	if _, err := o.acct.OpenOrAverage(ctx, signal, sizing.Shares, sizing.FinalCost); err != nil {
		return fmt.Errorf("open position %s: %w", signal.TokenID, err)
	}

	totals.Trades++
	totals.Spend += sizing.FinalCost
	rec.Status = domain.StatusPlaced
	rec.OrderID = result.OrderID
	rec.Evaluation.Outcome = domain.OutcomePlaced
	run.Copied++
	run.TotalCost += sizing.FinalCost
	slog.Info("copied entry",
		"wallet", signal.SourceWallet,
		"token", shortID(signal.TokenID),
		"shares", sizing.Shares,
		"cost", fmt.Sprintf("%.2f", sizing.FinalCost),
	)
	return o.store.SaveTradeRecord(ctx, rec)
}

// skip persiste el record como SKIPPED con su motivo estructurado.
// Un rechazo de guardrail no es un error: es un outcome normal.
func (o *Orchestrator) skip(ctx context.Context, rec domain.CopiedTradeRecord, reason string, run *domain.PollRun) error {
	rec.Status = domain.StatusSkipped
	rec.Reason = reason
	rec.Evaluation.Outcome = domain.OutcomeSkipped
	run.Skipped++
	slog.Debug("signal skipped", "wallet", rec.Wallet, "tx", shortID(rec.TxHash), "reason", reason)
	if err := o.store.SaveTradeRecord(ctx, rec); err != nil {
		return fmt.Errorf("save skip record %s: %w", rec.TxHash, err)
	}
	return nil
}

// fail persiste el record como FAILED con el error del venue truncado.
// El ledger queda intacto: nunca hay mutación parcial de posición en fallo.
func (o *Orchestrator) fail(ctx context.Context, rec domain.CopiedTradeRecord, result ports.OrderResult, submitErr error, run *domain.PollRun) error {
	reason := result.ErrMsg
	if submitErr != nil {
		reason = submitErr.Error()
	}
	rec.Status = domain.StatusFailed
	rec.Reason = truncate(reason, maxVenueErrorLen)
	rec.Evaluation.Outcome = domain.OutcomeFailed
	run.Failed++
	slog.Warn("order submission failed", "wallet", rec.Wallet, "tx", shortID(rec.TxHash), "err", rec.Reason)
	if err := o.store.SaveTradeRecord(ctx, rec); err != nil {
		return fmt.Errorf("save failed record %s: %w", rec.TxHash, err)
	}
	return nil
}

// dedup filtra los signals cuyo tx hash ya tiene un CopiedTradeRecord.
func (o *Orchestrator) dedup(ctx context.Context, wallet string, signals []domain.CopySignal) ([]domain.CopySignal, error) {
	fresh := make([]domain.CopySignal, 0, len(signals))
	for _, s := range signals {
		seen, err := o.store.HasTradeRecord(ctx, wallet, s.TxHash)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, s)
		}
	}
	return fresh, nil
}

// advanceCursor avanza el cursor de dedup al signal más reciente visto,
// independientemente del outcome del run.
func (o *Orchestrator) advanceCursor(ctx context.Context, wallet string, signals []domain.CopySignal) {
	if len(signals) == 0 {
		return
	}
	newest := signals[0] // el feed devuelve más recientes primero
	err := o.store.SaveCursor(ctx, domain.Cursor{
		Wallet:   wallet,
		LastSeen: newest.Timestamp,
		LastTx:   newest.TxHash,
	})
	if err != nil {
		slog.Warn("cursor save failed", "wallet", wallet, "err", err)
	}
}

// complete persiste el PollRun final. Nunca falla hacia arriba: un error de
// auditoría se loguea y ya.
func (o *Orchestrator) complete(ctx context.Context, run domain.PollRun) domain.PollRun {
	run.Duration = time.Since(run.StartedAt)
	if err := o.store.SavePollRun(ctx, run); err != nil {
		slog.Warn("poll run save failed", "wallet", run.Wallet, "err", err)
	}
	return run
}

func (o *Orchestrator) newRecord(signal domain.CopySignal, eval domain.GuardrailEvaluation) domain.CopiedTradeRecord {
	return domain.CopiedTradeRecord{
		ID:          uuid.New().String(),
		Wallet:      signal.SourceWallet,
		TxHash:      signal.TxHash,
		Side:        signal.Side,
		TokenID:     signal.TokenID,
		ConditionID: signal.ConditionID,
		Title:       signal.Title,
		SourcePrice: signal.Price,
		SourceSize:  signal.Size,
		Status:      domain.StatusPending,
		Evaluation:  eval,
		SignalAt:    signal.Timestamp,
		ProcessedAt: time.Now().UTC(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:10] + "..."
}
