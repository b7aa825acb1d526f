package polymarket

// feed.go — Trade Feed Client sobre la Data API pública.
//
// La API devuelve shapes poco estrictos (casing variable, números como
// strings). Aquí se parsea a un CopySignal estricto con validación
// exhaustiva: los registros malformados se descartan con un debug log,
// nunca propagan hacia el engine.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

const (
	tradesPerPage  = 100
	tradesMaxPages = 5
)

type rawUserTrade struct {
	ProxyWallet     string      `json:"proxyWallet"`
	Side            string      `json:"side"`
	Asset           string      `json:"asset"`
	ConditionID     string      `json:"conditionId"`
	Price           json.Number `json:"price"`
	Size            json.Number `json:"size"`
	Timestamp       json.Number `json:"timestamp"`
	TransactionHash string      `json:"transactionHash"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
}

// FetchUserTrades obtiene los trades recientes de una wallet origen,
// más recientes primero. Pagina hasta el age cutoff o hasta que una página
// llegue incompleta.
func (c *Client) FetchUserTrades(ctx context.Context, address string, since time.Time) ([]domain.CopySignal, error) {
	var all []domain.CopySignal

	for page := 0; page < tradesMaxPages; page++ {
		offset := page * tradesPerPage
		url := fmt.Sprintf("%s/trades?user=%s&limit=%d&offset=%d",
			c.dataBase, address, tradesPerPage, offset)

		var resp []rawUserTrade
		if err := c.get(ctx, c.dataLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("data-api.FetchUserTrades: %w", err)
		}

		if len(resp) == 0 {
			break
		}

		reachedCutoff := false
		for _, rt := range resp {
			signal, ok := parseTrade(rt, address)
			if !ok {
				slog.Debug("dropping malformed trade", "wallet", address, "tx", rt.TransactionHash)
				continue
			}
			if signal.Timestamp.Before(since) {
				reachedCutoff = true
				break
			}
			all = append(all, signal)
		}

		if reachedCutoff || len(resp) < tradesPerPage {
			break
		}
	}

	return all, nil
}

// parseTrade convierte el shape laxo de la API al tipo interno estricto.
func parseTrade(rt rawUserTrade, wallet string) (domain.CopySignal, bool) {
	price, _ := rt.Price.Float64()
	size, _ := rt.Size.Float64()

	signal := domain.CopySignal{
		SourceWallet: wallet,
		Side:         strings.ToUpper(rt.Side),
		TokenID:      rt.Asset,
		ConditionID:  rt.ConditionID,
		Price:        price,
		Size:         size,
		TxHash:       rt.TransactionHash,
		Timestamp:    parseTradeTimestamp(rt.Timestamp),
		Title:        rt.Title,
		Slug:         rt.Slug,
	}
	return signal, signal.Valid()
}

func parseTradeTimestamp(n json.Number) time.Time {
	s := n.String()
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.Unix(sec/1000, (sec%1000)*int64(time.Millisecond)).UTC()
		}
		return time.Unix(sec, 0).UTC()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC()
	}
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
