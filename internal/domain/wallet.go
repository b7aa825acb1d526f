package domain

import (
	"errors"
	"time"
)

// Errores centinela del subledger.
var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrPositionClosed   = errors.New("position already closed")
)

// TrackedWallet es una wallet origen cuyos trades se copian.
// Nunca se borra físicamente: deshabilitar preserva el historial.
type TrackedWallet struct {
	Address        string
	Alias          string
	Enabled        bool
	Overrides      GuardrailOverrides
	TotalDeposited float64
	TotalWithdrawn float64
	CreatedAt      time.Time
}

// Tipos de transacción del subledger.
const (
	TxDeposit    = "DEPOSIT"
	TxWithdrawal = "WITHDRAWAL"
)

// SubledgerTransaction es un depósito o retiro inmutable contra una wallet.
type SubledgerTransaction struct {
	ID        string
	Wallet    string
	Type      string // DEPOSIT / WITHDRAWAL
	Amount    float64
	Note      string
	CreatedAt time.Time
}

// OperatingAccount es el pool singleton de capital sin desplegar.
// "Allocated" y "Available" son derivados, nunca se almacenan.
type OperatingAccount struct {
	Deposited float64
	Withdrawn float64
}

// OperatingView es la vista derivada del pool operativo.
type OperatingView struct {
	Deposited float64
	Withdrawn float64
	Allocated float64 // suma de depósitos netos de todas las wallets
	Available float64 // Deposited - Withdrawn - Allocated
}

// WalletStats es el estado derivado de una wallet: siempre recalculado desde
// transacciones y posiciones para evitar drift, nunca persistido.
type WalletStats struct {
	Deposited     float64
	Withdrawn     float64
	Exposure      float64 // suma de totalCost de posiciones abiertas
	RealizedPnl   float64
	Available     float64 // Deposited - Withdrawn + RealizedPnl - Exposure
	ReturnPercent float64
	OpenCount     int
	ClosedCount   int
}
