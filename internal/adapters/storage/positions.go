package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// SavePosition hace upsert de una posición por ID. El índice parcial único
// sobre (wallet, token_id, status OPEN) garantiza el invariante de una sola
// posición abierta por par.
func (s *SQLiteLedger) SavePosition(ctx context.Context, p domain.Position) error {
	var closedAt any
	if p.ClosedAt != nil {
		closedAt = p.ClosedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions
			(id, wallet, token_id, condition_id, title, shares, avg_entry_price,
			 total_cost, status, opened_at, exit_price, proceeds, realized_pnl,
			 close_kind, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shares          = excluded.shares,
			avg_entry_price = excluded.avg_entry_price,
			total_cost      = excluded.total_cost,
			status          = excluded.status,
			exit_price      = excluded.exit_price,
			proceeds        = excluded.proceeds,
			realized_pnl    = excluded.realized_pnl,
			close_kind      = excluded.close_kind,
			closed_at       = excluded.closed_at
	`, p.ID, p.Wallet, p.TokenID, p.ConditionID, p.Title, p.Shares, p.AvgEntryPrice,
		p.TotalCost, p.Status, p.OpenedAt.UTC(), p.ExitPrice, p.Proceeds, p.RealizedPnl,
		p.CloseKind, closedAt)
	if err != nil {
		return fmt.Errorf("storage.SavePosition %s/%s: %w", p.Wallet, p.TokenID, err)
	}
	return nil
}

// GetOpenPosition devuelve la posición abierta de (wallet, token), o
// domain.ErrPositionNotFound si no existe.
func (s *SQLiteLedger) GetOpenPosition(ctx context.Context, wallet, tokenID string) (domain.Position, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wallet, token_id, condition_id, title, shares, avg_entry_price,
		       total_cost, status, opened_at, exit_price, proceeds, realized_pnl,
		       close_kind, closed_at
		FROM positions WHERE wallet = ? AND token_id = ? AND status = 'OPEN'
	`, wallet, tokenID)

	p, err := scanPosition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, fmt.Errorf("storage.GetOpenPosition %s/%s: %w", wallet, tokenID, domain.ErrPositionNotFound)
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.GetOpenPosition %s/%s: %w", wallet, tokenID, err)
	}
	return p, nil
}

// ListPositions devuelve las posiciones de una wallet, opcionalmente solo
// las abiertas. Más recientes primero.
func (s *SQLiteLedger) ListPositions(ctx context.Context, wallet string, openOnly bool) ([]domain.Position, error) {
	query := `
		SELECT id, wallet, token_id, condition_id, title, shares, avg_entry_price,
		       total_cost, status, opened_at, exit_price, proceeds, realized_pnl,
		       close_kind, closed_at
		FROM positions WHERE wallet = ?`
	if openOnly {
		query += ` AND status = 'OPEN'`
	}
	query += ` ORDER BY opened_at DESC`

	rows, err := s.db.QueryContext(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPositions %s: %w", wallet, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("storage.ListPositions: scan: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// scanPosition centraliza el scan de filas de positions.
func scanPosition(scan func(...any) error) (domain.Position, error) {
	var p domain.Position
	var openedAt string
	var closedAt sql.NullString

	err := scan(&p.ID, &p.Wallet, &p.TokenID, &p.ConditionID, &p.Title, &p.Shares,
		&p.AvgEntryPrice, &p.TotalCost, &p.Status, &openedAt, &p.ExitPrice,
		&p.Proceeds, &p.RealizedPnl, &p.CloseKind, &closedAt)
	if err != nil {
		return domain.Position{}, err
	}

	p.OpenedAt = parseTime(openedAt)
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		p.ClosedAt = &t
	}
	return p, nil
}
