package domain

import "time"

// Side de un trade observado o copiado.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// CopySignal es un trade observado en una wallet origen, candidato a copiar.
// Inmutable una vez parseado; la clave única es (SourceWallet, TxHash).
type CopySignal struct {
	SourceWallet string
	Side         string // BUY o SELL
	TokenID      string
	ConditionID  string
	Price        float64
	Size         float64
	TxHash       string
	Timestamp    time.Time

	// Metadata del mercado, solo informativa
	Title string
	Slug  string
}

// Notional devuelve el valor en dólares del trade original.
func (s CopySignal) Notional() float64 {
	return s.Size * s.Price
}

// Valid indica si el signal tiene los campos mínimos para ser procesado.
// Los registros malformados de la API se descartan en el boundary, nunca
// entran al engine.
func (s CopySignal) Valid() bool {
	return s.TxHash != "" &&
		s.TokenID != "" &&
		(s.Side == SideBuy || s.Side == SideSell) &&
		s.Price > 0 && s.Price < 1 &&
		s.Size > 0 &&
		!s.Timestamp.IsZero()
}
