package main

// admin.go — One-shot admin operations: wallet registration, funding,
// manual settlement and reporting. Each runs against the ledger and exits.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/alejandrodnm/polycopy/internal/adapters/storage"
	"github.com/alejandrodnm/polycopy/internal/copier"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/ports"
)

type adminArgs struct {
	track    string
	deposit  string
	withdraw string
	fund     float64
	defund   float64
	settle   string
	report   bool
}

// runAdmin ejecuta las operaciones admin pedidas. Devuelve true si hubo
// alguna — el caller no arranca el daemon en ese caso.
func runAdmin(ctx context.Context, store *storage.SQLiteLedger, acct *copier.Accountant, args adminArgs) bool {
	ran := false
	fail := func(op string, err error) {
		slog.Error(op+" failed", "err", err)
		os.Exit(1)
	}

	if args.track != "" {
		address, alias, err := splitPair(args.track)
		if err != nil {
			fail("track", err)
		}
		if err := trackWallet(ctx, store, address, alias); err != nil {
			fail("track", err)
		}
		slog.Info("wallet tracked", "address", address, "alias", alias)
		ran = true
	}

	if args.deposit != "" {
		address, amount, err := splitAmount(args.deposit)
		if err != nil {
			fail("deposit", err)
		}
		if err := acct.Deposit(ctx, address, amount, "manual deposit"); err != nil {
			fail("deposit", err)
		}
		slog.Info("deposit recorded", "address", address, "amount", amount)
		ran = true
	}

	if args.withdraw != "" {
		address, amount, err := splitAmount(args.withdraw)
		if err != nil {
			fail("withdraw", err)
		}
		if err := acct.Withdraw(ctx, address, amount, "manual withdrawal"); err != nil {
			fail("withdraw", err)
		}
		slog.Info("withdrawal recorded", "address", address, "amount", amount)
		ran = true
	}

	if args.fund > 0 {
		if err := acct.FundPool(ctx, args.fund); err != nil {
			fail("fund", err)
		}
		slog.Info("operating pool funded", "amount", args.fund)
		ran = true
	}

	if args.defund > 0 {
		if err := acct.DefundPool(ctx, args.defund); err != nil {
			fail("defund", err)
		}
		slog.Info("operating pool defunded", "amount", args.defund)
		ran = true
	}

	if args.settle != "" {
		address, token, price, err := splitSettle(args.settle)
		if err != nil {
			fail("settle", err)
		}
		pos, err := acct.CloseAsSettled(ctx, address, token, price, domain.CloseManual)
		if err != nil {
			fail("settle", err)
		}
		slog.Info("position settled",
			"address", address,
			"token", token,
			"price", price,
			"pnl", fmt.Sprintf("%.2f", pos.RealizedPnl),
		)
		ran = true
	}

	if args.report {
		if err := runReport(ctx, store, acct); err != nil {
			fail("report", err)
		}
		ran = true
	}

	return ran
}

// trackWallet registra una wallet nueva, o reactiva/renombra una existente
// sin tocar sus totales de funding. Solo la ausencia confirmada crea una
// wallet fresca: un error de lectura propaga, nunca pisa el historial.
func trackWallet(ctx context.Context, store ports.LedgerStore, address, alias string) error {
	w, err := store.GetWallet(ctx, address)
	if errors.Is(err, domain.ErrWalletNotFound) {
		w = domain.TrackedWallet{
			Address:   address,
			CreatedAt: time.Now().UTC(),
		}
	} else if err != nil {
		return err
	}
	w.Alias = alias
	w.Enabled = true
	return store.SaveWallet(ctx, w)
}

// syncWallets aplica las wallets declaradas en el YAML al ledger. Los
// totales de funding nunca se tocan desde config; si el ledger no se puede
// leer, el sync aborta en vez de recrear la wallet desde cero.
func syncWallets(ctx context.Context, store ports.LedgerStore, wallets []config.WalletConfig) error {
	for _, wc := range wallets {
		if wc.Address == "" {
			continue
		}
		w, err := store.GetWallet(ctx, wc.Address)
		if errors.Is(err, domain.ErrWalletNotFound) {
			w = domain.TrackedWallet{
				Address:   wc.Address,
				Enabled:   true,
				CreatedAt: time.Now().UTC(),
			}
		} else if err != nil {
			return err
		}
		if wc.Alias != "" {
			w.Alias = wc.Alias
		}
		if wc.Enabled != nil {
			w.Enabled = *wc.Enabled
		}
		w.Overrides = wc.Overrides
		if err := store.SaveWallet(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func splitPair(s string) (string, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected address:alias, got %q", s)
	}
	return parts[0], parts[1], nil
}

func splitAmount(s string) (string, float64, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("expected address:amount, got %q", s)
	}
	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid amount %q: %w", parts[1], err)
	}
	return parts[0], amount, nil
}

func splitSettle(s string) (string, string, float64, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("expected address:token:price, got %q", s)
	}
	price, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid settlement price %q: %w", parts[2], err)
	}
	return parts[0], parts[1], price, nil
}
