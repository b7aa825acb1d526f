package storage

// sqlite.go — Ledger store del subledger de copy-trading.
//
// Tablas:
//   wallets             — wallets trackeadas, con overrides de guardrails (JSON)
//   wallet_transactions — depósitos/retiros, append-only
//   positions           — holdings; índice parcial único por (wallet, token) OPEN
//   copied_trades       — un record por signal procesado, UNIQUE(wallet, tx_hash)
//   poll_runs           — auditoría de cada run del orquestador
//   cursors             — puntero de dedup por wallet
//   operating_account   — pool singleton de capital sin desplegar
//
// Prune automático al arrancar: poll_runs > 30d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
    address         TEXT PRIMARY KEY,
    alias           TEXT NOT NULL DEFAULT '',
    enabled         INTEGER NOT NULL DEFAULT 1,
    overrides       TEXT NOT NULL DEFAULT '{}',
    total_deposited REAL NOT NULL DEFAULT 0,
    total_withdrawn REAL NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_transactions (
    id         TEXT PRIMARY KEY,
    wallet     TEXT NOT NULL,
    type       TEXT NOT NULL,
    amount     REAL NOT NULL,
    note       TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tx_wallet ON wallet_transactions(wallet);

CREATE TABLE IF NOT EXISTS positions (
    id              TEXT PRIMARY KEY,
    wallet          TEXT NOT NULL,
    token_id        TEXT NOT NULL,
    condition_id    TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL DEFAULT '',
    shares          REAL NOT NULL DEFAULT 0,
    avg_entry_price REAL NOT NULL DEFAULT 0,
    total_cost      REAL NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'OPEN',
    opened_at       DATETIME NOT NULL,
    exit_price      REAL NOT NULL DEFAULT 0,
    proceeds        REAL NOT NULL DEFAULT 0,
    realized_pnl    REAL NOT NULL DEFAULT 0,
    close_kind      TEXT NOT NULL DEFAULT '',
    closed_at       DATETIME
);

-- A lo sumo una posición OPEN por (wallet, token)
CREATE UNIQUE INDEX IF NOT EXISTS idx_pos_open_pair
    ON positions(wallet, token_id) WHERE status = 'OPEN';
CREATE INDEX IF NOT EXISTS idx_pos_wallet ON positions(wallet);

CREATE TABLE IF NOT EXISTS copied_trades (
    id           TEXT PRIMARY KEY,
    wallet       TEXT NOT NULL,
    tx_hash      TEXT NOT NULL,
    side         TEXT NOT NULL,
    token_id     TEXT NOT NULL,
    condition_id TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    source_price REAL NOT NULL DEFAULT 0,
    source_size  REAL NOT NULL DEFAULT 0,
    copy_price   REAL NOT NULL DEFAULT 0,
    copy_shares  REAL NOT NULL DEFAULT 0,
    copy_cost    REAL NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'PENDING',
    order_id     TEXT NOT NULL DEFAULT '',
    reason       TEXT NOT NULL DEFAULT '',
    evaluation   TEXT NOT NULL DEFAULT '{}',
    signal_at    DATETIME,
    processed_at DATETIME NOT NULL,
    UNIQUE(wallet, tx_hash)
);

CREATE INDEX IF NOT EXISTS idx_trades_wallet ON copied_trades(wallet, processed_at DESC);

CREATE TABLE IF NOT EXISTS poll_runs (
    id          TEXT PRIMARY KEY,
    wallet      TEXT NOT NULL,
    found       INTEGER NOT NULL DEFAULT 0,
    new_count   INTEGER NOT NULL DEFAULT 0,
    copied      INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    total_cost  REAL NOT NULL DEFAULT 0,
    note        TEXT NOT NULL DEFAULT '',
    started_at  DATETIME NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_wallet ON poll_runs(wallet, started_at DESC);

CREATE TABLE IF NOT EXISTS cursors (
    wallet    TEXT PRIMARY KEY,
    last_seen DATETIME NOT NULL,
    last_tx   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS operating_account (
    id        INTEGER PRIMARY KEY DEFAULT 1,
    deposited REAL NOT NULL DEFAULT 0,
    withdrawn REAL NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO operating_account (id) VALUES (1);
`

const retentionRuns = 30 * 24 * time.Hour // poll runs: 30 días

// SQLiteLedger implementa ports.LedgerStore usando SQLite (pure Go, sin CGo).
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger abre (o crea) la base de datos en la ruta dada, aplica el
// schema y limpia runs antiguos.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}

	s := &SQLiteLedger{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// pruneOld elimina runs antiguos para mantener la DB ligera.
func (s *SQLiteLedger) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM poll_runs WHERE started_at < ?`, cutoff)
}

// parseTime tolera los formatos con los que el driver serializa DATETIME.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
