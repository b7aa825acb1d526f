package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// SaveWallet hace upsert de una wallet por address. Los overrides se
// serializan como JSON: son opcionales y cambian de forma con frecuencia.
func (s *SQLiteLedger) SaveWallet(ctx context.Context, w domain.TrackedWallet) error {
	overrides, err := json.Marshal(w.Overrides)
	if err != nil {
		return fmt.Errorf("storage.SaveWallet: marshal overrides: %w", err)
	}

	enabled := 0
	if w.Enabled {
		enabled = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wallets (address, alias, enabled, overrides, total_deposited, total_withdrawn, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			alias           = excluded.alias,
			enabled         = excluded.enabled,
			overrides       = excluded.overrides,
			total_deposited = excluded.total_deposited,
			total_withdrawn = excluded.total_withdrawn
	`, w.Address, w.Alias, enabled, string(overrides), w.TotalDeposited, w.TotalWithdrawn, w.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.SaveWallet %s: %w", w.Address, err)
	}
	return nil
}

// GetWallet devuelve una wallet por address.
func (s *SQLiteLedger) GetWallet(ctx context.Context, address string) (domain.TrackedWallet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, alias, enabled, overrides, total_deposited, total_withdrawn, created_at
		FROM wallets WHERE address = ?
	`, address)

	w, err := scanWallet(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TrackedWallet{}, fmt.Errorf("storage.GetWallet %s: %w", address, domain.ErrWalletNotFound)
	}
	if err != nil {
		return domain.TrackedWallet{}, fmt.Errorf("storage.GetWallet %s: %w", address, err)
	}
	return w, nil
}

// ListWallets devuelve todas las wallets, opcionalmente solo las habilitadas.
func (s *SQLiteLedger) ListWallets(ctx context.Context, enabledOnly bool) ([]domain.TrackedWallet, error) {
	query := `
		SELECT address, alias, enabled, overrides, total_deposited, total_withdrawn, created_at
		FROM wallets`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage.ListWallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.TrackedWallet
	for rows.Next() {
		w, err := scanWallet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("storage.ListWallets: scan: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// AppendTransaction registra un depósito o retiro. Append-only.
func (s *SQLiteLedger) AppendTransaction(ctx context.Context, tx domain.SubledgerTransaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet, type, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.Wallet, tx.Type, tx.Amount, tx.Note, tx.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storage.AppendTransaction %s: %w", tx.Wallet, err)
	}
	return nil
}

// GetTransactions devuelve las transacciones de una wallet, más nuevas primero.
func (s *SQLiteLedger) GetTransactions(ctx context.Context, wallet string) ([]domain.SubledgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet, type, amount, note, created_at
		FROM wallet_transactions WHERE wallet = ?
		ORDER BY created_at DESC
	`, wallet)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTransactions %s: %w", wallet, err)
	}
	defer rows.Close()

	var txs []domain.SubledgerTransaction
	for rows.Next() {
		var tx domain.SubledgerTransaction
		var createdAt string
		if err := rows.Scan(&tx.ID, &tx.Wallet, &tx.Type, &tx.Amount, &tx.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.GetTransactions: scan: %w", err)
		}
		tx.CreatedAt = parseTime(createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetOperatingAccount devuelve el pool singleton.
func (s *SQLiteLedger) GetOperatingAccount(ctx context.Context) (domain.OperatingAccount, error) {
	var a domain.OperatingAccount
	err := s.db.QueryRowContext(ctx,
		`SELECT deposited, withdrawn FROM operating_account WHERE id = 1`,
	).Scan(&a.Deposited, &a.Withdrawn)
	if err != nil {
		return domain.OperatingAccount{}, fmt.Errorf("storage.GetOperatingAccount: %w", err)
	}
	return a, nil
}

// SaveOperatingAccount persiste el pool singleton.
func (s *SQLiteLedger) SaveOperatingAccount(ctx context.Context, a domain.OperatingAccount) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE operating_account SET deposited = ?, withdrawn = ? WHERE id = 1`,
		a.Deposited, a.Withdrawn,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOperatingAccount: %w", err)
	}
	return nil
}

// scanWallet centraliza el scan de filas de wallets.
func scanWallet(scan func(...any) error) (domain.TrackedWallet, error) {
	var w domain.TrackedWallet
	var enabled int
	var overrides, createdAt string

	if err := scan(&w.Address, &w.Alias, &enabled, &overrides, &w.TotalDeposited, &w.TotalWithdrawn, &createdAt); err != nil {
		return domain.TrackedWallet{}, err
	}

	w.Enabled = enabled == 1
	w.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(overrides), &w.Overrides); err != nil {
		return domain.TrackedWallet{}, fmt.Errorf("unmarshal overrides: %w", err)
	}
	return w, nil
}
