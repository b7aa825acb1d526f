package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// SaveTradeRecord hace upsert por (wallet, tx_hash): el record se crea una
// vez por signal y se actualiza in place cuando la ejecución completa.
// La evaluación de guardrails se persiste verbatim como JSON para auditoría.
func (s *SQLiteLedger) SaveTradeRecord(ctx context.Context, r domain.CopiedTradeRecord) error {
	eval, err := json.Marshal(r.Evaluation)
	if err != nil {
		return fmt.Errorf("storage.SaveTradeRecord: marshal evaluation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO copied_trades
			(id, wallet, tx_hash, side, token_id, condition_id, title,
			 source_price, source_size, copy_price, copy_shares, copy_cost,
			 status, order_id, reason, evaluation, signal_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wallet, tx_hash) DO UPDATE SET
			copy_price   = excluded.copy_price,
			copy_shares  = excluded.copy_shares,
			copy_cost    = excluded.copy_cost,
			status       = excluded.status,
			order_id     = excluded.order_id,
			reason       = excluded.reason,
			evaluation   = excluded.evaluation,
			processed_at = excluded.processed_at
	`, r.ID, r.Wallet, r.TxHash, r.Side, r.TokenID, r.ConditionID, r.Title,
		r.SourcePrice, r.SourceSize, r.CopyPrice, r.CopyShares, r.CopyCost,
		r.Status, r.OrderID, r.Reason, string(eval), r.SignalAt.UTC(), r.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.SaveTradeRecord %s: %w", r.TxHash, err)
	}
	return nil
}

// HasTradeRecord indica si ya existe un record para (wallet, tx hash):
// la base de la ingestión idempotente.
func (s *SQLiteLedger) HasTradeRecord(ctx context.Context, wallet, txHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM copied_trades WHERE wallet = ? AND tx_hash = ?`,
		wallet, txHash,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage.HasTradeRecord %s: %w", txHash, err)
	}
	return true, nil
}

// GetCursor devuelve el cursor de dedup de una wallet; cursor cero si la
// wallet nunca corrió.
func (s *SQLiteLedger) GetCursor(ctx context.Context, wallet string) (domain.Cursor, error) {
	var c domain.Cursor
	var lastSeen string
	err := s.db.QueryRowContext(ctx,
		`SELECT wallet, last_seen, last_tx FROM cursors WHERE wallet = ?`,
		wallet,
	).Scan(&c.Wallet, &lastSeen, &c.LastTx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cursor{Wallet: wallet}, nil
	}
	if err != nil {
		return domain.Cursor{}, fmt.Errorf("storage.GetCursor %s: %w", wallet, err)
	}
	c.LastSeen = parseTime(lastSeen)
	return c, nil
}

// SaveCursor hace upsert del cursor de una wallet.
func (s *SQLiteLedger) SaveCursor(ctx context.Context, c domain.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (wallet, last_seen, last_tx) VALUES (?, ?, ?)
		ON CONFLICT(wallet) DO UPDATE SET
			last_seen = excluded.last_seen,
			last_tx   = excluded.last_tx
	`, c.Wallet, c.LastSeen.UTC(), c.LastTx)
	if err != nil {
		return fmt.Errorf("storage.SaveCursor %s: %w", c.Wallet, err)
	}
	return nil
}

// SavePollRun persiste el registro de auditoría de un run. Append-only.
func (s *SQLiteLedger) SavePollRun(ctx context.Context, run domain.PollRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_runs
			(id, wallet, found, new_count, copied, skipped, failed, total_cost, note, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Wallet, run.Found, run.New, run.Copied, run.Skipped, run.Failed,
		run.TotalCost, run.Note, run.StartedAt.UTC(), run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("storage.SavePollRun %s: %w", run.Wallet, err)
	}
	return nil
}
