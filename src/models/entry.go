package models

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/username/inversiones/src/utils"
)

type TradeType string

const (
	TradeBuy  TradeType = "compra"
	TradeSell TradeType = "venta"
)

// TransactionEntry is a transaction typed in by hand rather than loaded from a file.
type TransactionEntry struct {
	TransactionDate string    `json:"transaction_date"`
	Instrument      string    `json:"instrument"`
	Type            TradeType `json:"type"`
	USDAmount       float64   `json:"usd_amount"`
	Shares          float64   `json:"shares"`
	PurchasePrice   float64   `json:"purchase_price"`
	// CurrentPrice defaults to PurchasePrice when missing or zero.
	CurrentPrice *float64 `json:"current_price,omitempty"`
}

// Build validates the entry and turns it into a canonical record with the
// derived fields filled in. A sale stores negative amount and shares.
func (e TransactionEntry) Build() (Transaction, error) {
	date, ok := utils.ParseDate(e.TransactionDate)
	if !ok {
		return Transaction{}, fmt.Errorf("invalid transaction_date %q", e.TransactionDate)
	}
	instrument := strings.TrimSpace(e.Instrument)
	if instrument == "" {
		return Transaction{}, errors.New("instrument is required")
	}
	required := []struct {
		name  string
		value float64
	}{
		{"usd_amount", e.USDAmount},
		{"shares", e.Shares},
		{"purchase_price", e.PurchasePrice},
	}
	for _, r := range required {
		if r.value == 0 || math.IsNaN(r.value) || math.IsInf(r.value, 0) {
			return Transaction{}, fmt.Errorf("%s must be a non-zero number", r.name)
		}
	}

	usd, shares := e.USDAmount, e.Shares
	switch TradeType(strings.ToLower(strings.TrimSpace(string(e.Type)))) {
	case "", TradeBuy:
	case TradeSell:
		usd, shares = -math.Abs(usd), -math.Abs(shares)
	default:
		return Transaction{}, fmt.Errorf("type must be %q or %q, got %q", TradeBuy, TradeSell, e.Type)
	}

	currentPrice := e.PurchasePrice
	if e.CurrentPrice != nil && *e.CurrentPrice != 0 && !math.IsNaN(*e.CurrentPrice) && !math.IsInf(*e.CurrentPrice, 0) {
		currentPrice = *e.CurrentPrice
	}

	tx := Transaction{
		TransactionDate: &date,
		Instrument:      &instrument,
		USDAmount:       Ptr(usd),
		Shares:          Ptr(shares),
		PurchasePrice:   Ptr(e.PurchasePrice),
		CurrentPrice:    Ptr(currentPrice),
	}
	tx.CurrentValue = DeriveCurrentValue(tx.Shares, tx.CurrentPrice)
	tx.ReturnPct = DeriveReturnPct(tx.PurchasePrice, tx.CurrentPrice)
	tx.ReturnLocalCurrency = DeriveReturnLocalCurrency(tx.USDAmount, tx.ReturnPct)
	return tx, nil
}
