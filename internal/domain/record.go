package domain

import "time"

// Estados de un CopiedTradeRecord.
const (
	StatusPending = "PENDING"
	StatusPlaced  = "PLACED"
	StatusFilled  = "FILLED"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// CopiedTradeRecord es el resultado durable de procesar un signal. Se crea
// una sola vez por (wallet, tx hash original) — la ingestión es idempotente —
// y se actualiza in place cuando la ejecución completa.
type CopiedTradeRecord struct {
	ID           string
	Wallet       string
	TxHash       string // tx hash del trade original: clave de dedup
	Side         string
	TokenID      string
	ConditionID  string
	Title        string
	SourcePrice  float64
	SourceSize   float64
	CopyPrice    float64
	CopyShares   float64
	CopyCost     float64
	Status       string
	OrderID      string // id de la orden en el venue, si se colocó
	Reason       string // motivo de skip o fallo
	Evaluation   GuardrailEvaluation
	SignalAt     time.Time
	ProcessedAt  time.Time
}

// PollRun es el registro de auditoría de una invocación del orquestador para
// una wallet. Append-only.
type PollRun struct {
	ID        string
	Wallet    string
	Found     int
	New       int
	Copied    int
	Skipped   int
	Failed    int
	TotalCost float64
	Note      string
	StartedAt time.Time
	Duration  time.Duration
}

// Cursor es el puntero de dedup por wallet: último timestamp y tx hash visto.
// Se avanza al final de cada run, independientemente del resultado.
type Cursor struct {
	Wallet   string
	LastSeen time.Time
	LastTx   string
}
