package ports

import (
	"context"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// LedgerStore persists the copy-trading subledger: tracked wallets, their
// transactions and positions, copied trade records, poll runs, and the
// per-wallet dedup cursor. Single-writer semantics are assumed — the core
// engine is the only mutating consumer.
type LedgerStore interface {
	// Wallets
	SaveWallet(ctx context.Context, w domain.TrackedWallet) error
	GetWallet(ctx context.Context, address string) (domain.TrackedWallet, error)
	ListWallets(ctx context.Context, enabledOnly bool) ([]domain.TrackedWallet, error)

	// Subledger transactions (append-only)
	AppendTransaction(ctx context.Context, tx domain.SubledgerTransaction) error
	GetTransactions(ctx context.Context, wallet string) ([]domain.SubledgerTransaction, error)

	// Positions — upsert by ID; at most one OPEN row per (wallet, token).
	SavePosition(ctx context.Context, p domain.Position) error
	GetOpenPosition(ctx context.Context, wallet, tokenID string) (domain.Position, error)
	ListPositions(ctx context.Context, wallet string, openOnly bool) ([]domain.Position, error)

	// Copied trade records — upsert by (wallet, tx hash).
	SaveTradeRecord(ctx context.Context, r domain.CopiedTradeRecord) error
	HasTradeRecord(ctx context.Context, wallet, txHash string) (bool, error)

	// Dedup cursor
	GetCursor(ctx context.Context, wallet string) (domain.Cursor, error)
	SaveCursor(ctx context.Context, c domain.Cursor) error

	// Poll run audit records (append-only)
	SavePollRun(ctx context.Context, run domain.PollRun) error

	// Operating account (singleton pool)
	GetOperatingAccount(ctx context.Context) (domain.OperatingAccount, error)
	SaveOperatingAccount(ctx context.Context, a domain.OperatingAccount) error
}
