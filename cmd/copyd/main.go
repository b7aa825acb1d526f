package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/alejandrodnm/polycopy/internal/adapters/notify"
	"github.com/alejandrodnm/polycopy/internal/adapters/polymarket"
	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/copier"
)

// liveEnableVar must be set to "1" before the daemon accepts -live.
// Without it the process refuses to start in live mode.
const liveEnableVar = "POLYCOPY_ENABLE_LIVE"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one copy cycle and exit")
	live := flag.Bool("live", false, "submit real orders (requires "+liveEnableVar+"=1)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	report := flag.Bool("report", false, "print wallet report and exit")
	track := flag.String("track", "", "register a wallet: address:alias")
	deposit := flag.String("deposit", "", "deposit against a wallet: address:amount")
	withdraw := flag.String("withdraw", "", "withdraw from a wallet: address:amount")
	fund := flag.Float64("fund", 0, "deposit into the operating pool")
	defund := flag.Float64("defund", 0, "withdraw from the operating pool")
	settle := flag.String("settle", "", "manually settle a position: address:token:price")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	dryRun, err := resolveDryRun(cfg.Copier.DryRun, *live)
	if err != nil {
		slog.Error("refusing to start in live mode", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteLedger(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := syncWallets(ctx, store, cfg.Wallets); err != nil {
		slog.Error("failed to sync config wallets", "err", err)
		os.Exit(1)
	}

	client := polymarket.NewClient(cfg.API.DataBase, cfg.API.ExecutorBase)
	orch := copier.NewOrchestrator(copier.Config{
		DryRun:      dryRun,
		MaxTradeAge: cfg.MaxTradeAge(),
		Defaults:    cfg.Policy(),
	}, client, client, store)

	if done := runAdmin(ctx, store, orch.Accountant(), adminArgs{
		track:    *track,
		deposit:  *deposit,
		withdraw: *withdraw,
		fund:     *fund,
		defund:   *defund,
		settle:   *settle,
		report:   *report,
	}); done {
		return
	}

	slog.Info("polycopy starting",
		"config", *configPath,
		"poll_interval", cfg.PollInterval(),
		"reconcile_interval", cfg.ReconcileInterval(),
		"dry_run", dryRun,
		"once", *once,
	)

	if !dryRun {
		fmt.Printf("\n⚠️  LIVE MODE — REAL ORDERS WILL BE SUBMITTED\n")
		fmt.Printf("   Max cost/trade: $%.2f | Max exposure: $%.2f | Max run spend: $%.2f\n",
			cfg.Guardrails.MaxCostPerTrade, cfg.Guardrails.MaxExposure, cfg.Guardrails.MaxRunSpend)
		fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			slog.Info("live mode aborted by user")
			return
		}
	}

	reconciler := copier.NewReconciler(client, store, cfg.Copier.VenueAddress)
	daemon := copier.NewDaemon(copier.DaemonConfig{
		PollInterval:      cfg.PollInterval(),
		ReconcileInterval: cfg.ReconcileInterval(),
	}, orch, reconciler, store)

	if *once {
		daemon.RunCycle(ctx)
		daemon.RunReconcile(ctx)
		return
	}

	if err := daemon.Run(ctx); err != nil {
		slog.Error("daemon exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polycopy stopped cleanly")
}

// resolveDryRun decide el modo efectivo de ejecución. Cualquier camino hacia
// live — el flag -live o dry_run: false en el YAML — exige el opt-in explícito
// por variable de entorno; sin él el proceso se niega a arrancar.
func resolveDryRun(configDryRun, liveFlag bool) (bool, error) {
	dryRun := configDryRun && !liveFlag
	if !dryRun && os.Getenv(liveEnableVar) != "1" {
		return false, fmt.Errorf("%s=1 is required to submit real orders", liveEnableVar)
	}
	return dryRun, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// runReport imprime el estado de todas las wallets y el pool.
func runReport(ctx context.Context, store *storage.SQLiteLedger, acct *copier.Accountant) error {
	wallets, err := store.ListWallets(ctx, false)
	if err != nil {
		return err
	}

	var reports []notify.WalletReport
	for _, w := range wallets {
		stats, err := acct.Stats(ctx, w.Address)
		if err != nil {
			return err
		}
		open, err := store.ListPositions(ctx, w.Address, true)
		if err != nil {
			return err
		}
		reports = append(reports, notify.WalletReport{Wallet: w, Stats: stats, Open: open})
	}

	pool, err := acct.OperatingView(ctx)
	if err != nil {
		return err
	}

	notify.NewConsole().PrintReport(reports, pool)
	return nil
}
