package copier

// daemon.go — Scheduler cooperativo de una sola hebra.
//
// Un ciclo procesa las wallets trackeadas SECUENCIALMENTE: así los guardrails
// de running-total ven una vista consistente sin locks. La concurrencia se
// evita deliberadamente en lugar de coordinarse — la corrección de los
// límites de capacidad es más fácil de razonar bajo secuencia estricta.
//
// Dos cadencias independientes (copy en segundos, reconciliación en minutos)
// conviven en el mismo loop mediante checks de tiempo transcurrido, así que
// nunca compiten por la mutación del ledger de una misma wallet.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polycopy/internal/ports"
)

// DaemonConfig controla las cadencias del loop.
type DaemonConfig struct {
	PollInterval      time.Duration
	ReconcileInterval time.Duration
}

// Daemon dirige el orquestador y la reconciliación hasta que el contexto
// se cancele.
type Daemon struct {
	cfg        DaemonConfig
	orch       *Orchestrator
	reconciler *Reconciler
	store      ports.LedgerStore
}

// NewDaemon crea un Daemon.
func NewDaemon(cfg DaemonConfig, orch *Orchestrator, reconciler *Reconciler, store ports.LedgerStore) *Daemon {
	return &Daemon{cfg: cfg, orch: orch, reconciler: reconciler, store: store}
}

// Run ejecuta el loop hasta la cancelación. El run en curso de la wallet
// actual siempre termina antes de salir — no hay abort a mitad de run.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("copy daemon starting",
		"poll_interval", d.cfg.PollInterval,
		"reconcile_interval", d.cfg.ReconcileInterval,
	)

	lastReconcile := time.Time{} // fuerza una reconciliación en el primer ciclo

	for {
		d.RunCycle(ctx)

		if time.Since(lastReconcile) >= d.cfg.ReconcileInterval {
			d.RunReconcile(ctx)
			lastReconcile = time.Now()
		}

		if !sleep(ctx, d.cfg.PollInterval) {
			slog.Info("copy daemon stopped")
			return nil
		}
	}
}

// RunCycle procesa todas las wallets habilitadas, una a una. El shutdown se
// chequea entre wallets, nunca dentro de un run.
func (d *Daemon) RunCycle(ctx context.Context) {
	wallets, err := d.store.ListWallets(ctx, true)
	if err != nil {
		slog.Error("cycle: list wallets failed", "err", err)
		return
	}

	for _, w := range wallets {
		if ctx.Err() != nil {
			return
		}
		run, err := d.orch.RunWallet(ctx, w)
		if err != nil {
			slog.Error("wallet run failed", "wallet", w.Address, "err", err)
			continue
		}
		if run.Found > 0 || run.Note != "" {
			slog.Info("wallet run complete",
				"wallet", w.Alias,
				"found", run.Found,
				"new", run.New,
				"copied", run.Copied,
				"skipped", run.Skipped,
				"failed", run.Failed,
				"cost", run.TotalCost,
				"note", run.Note,
			)
		}
	}
}

// RunReconcile reconcilia todas las wallets habilitadas.
func (d *Daemon) RunReconcile(ctx context.Context) {
	wallets, err := d.store.ListWallets(ctx, true)
	if err != nil {
		slog.Error("reconcile: list wallets failed", "err", err)
		return
	}

	for _, w := range wallets {
		if ctx.Err() != nil {
			return
		}
		settled, err := d.reconciler.Reconcile(ctx, w.Address)
		if err != nil {
			slog.Error("reconcile failed", "wallet", w.Address, "err", err)
			continue
		}
		if settled > 0 {
			slog.Info("reconcile complete", "wallet", w.Alias, "settled", settled)
		}
	}
}

// sleep espera el intervalo en incrementos de un segundo para que el
// shutdown responda rápido. Devuelve false si el contexto se canceló.
func sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		slice := time.Second
		if rem := time.Until(deadline); rem < slice {
			slice = rem
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(slice):
		}
	}
	return ctx.Err() == nil
}
