package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionEntry_BuildPurchase(t *testing.T) {
	tx, err := TransactionEntry{
		TransactionDate: "2025-01-01",
		Instrument:      " AAPL ",
		Type:            TradeBuy,
		USDAmount:       10000,
		Shares:          50,
		PurchasePrice:   200,
		CurrentPrice:    Ptr(250.0),
	}.Build()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *tx.TransactionDate)
	assert.Equal(t, "AAPL", tx.InstrumentName())
	assert.Equal(t, 12500.0, *tx.CurrentValue)
	assert.Equal(t, 25.0, *tx.ReturnPct)
	assert.Equal(t, 2375000.0, *tx.ReturnLocalCurrency)
}

func TestTransactionEntry_BuildSaleNegatesAndDefaultsCurrentPrice(t *testing.T) {
	tx, err := TransactionEntry{
		TransactionDate: "15/03/2025",
		Instrument:      "GOOGL",
		Type:            "VENTA",
		USDAmount:       1500,
		Shares:          10,
		PurchasePrice:   150,
	}.Build()
	require.NoError(t, err)

	assert.Equal(t, -1500.0, *tx.USDAmount)
	assert.Equal(t, -10.0, *tx.Shares)
	assert.Equal(t, 150.0, *tx.CurrentPrice)
	assert.Equal(t, -1500.0, *tx.CurrentValue)
	assert.Equal(t, 0.0, *tx.ReturnPct)
	assert.Equal(t, 0.0, *tx.ReturnLocalCurrency)
}

func TestTransactionEntry_BuildRejectsIncompleteEntries(t *testing.T) {
	valid := TransactionEntry{TransactionDate: "2025-01-01", Instrument: "AAPL", USDAmount: 1, Shares: 1, PurchasePrice: 1}
	_, err := valid.Build()
	require.NoError(t, err)

	tests := map[string]func(e *TransactionEntry){
		"bad date":      func(e *TransactionEntry) { e.TransactionDate = "someday" },
		"no instrument": func(e *TransactionEntry) { e.Instrument = "  " },
		"zero usd":      func(e *TransactionEntry) { e.USDAmount = 0 },
		"zero shares":   func(e *TransactionEntry) { e.Shares = 0 },
		"zero price":    func(e *TransactionEntry) { e.PurchasePrice = 0 },
		"unknown type":  func(e *TransactionEntry) { e.Type = "swap" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			e := valid
			mutate(&e)
			_, err := e.Build()
			assert.Error(t, err)
		})
	}
}
