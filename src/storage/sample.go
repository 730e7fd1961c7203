package storage

import (
	"time"

	"github.com/username/inversiones/src/models"
)

// SampleRecords is the starter portfolio used when no data has been uploaded.
func SampleRecords() models.RecordSet {
	return models.RecordSet{
		sampleRecord(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "AAPL", 10000, 50, 200, 250),
		sampleRecord(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), "GOOGL", 15000, 30, 500, 480),
	}
}

func sampleRecord(date time.Time, instrument string, usd, shares, purchase, current float64) models.Transaction {
	tx := models.Transaction{
		TransactionDate: &date,
		Instrument:      &instrument,
		USDAmount:       &usd,
		Shares:          &shares,
		PurchasePrice:   &purchase,
		CurrentPrice:    &current,
	}
	tx.CurrentValue = models.DeriveCurrentValue(tx.Shares, tx.CurrentPrice)
	tx.ReturnPct = models.DeriveReturnPct(tx.PurchasePrice, tx.CurrentPrice)
	tx.ReturnLocalCurrency = models.DeriveReturnLocalCurrency(tx.USDAmount, tx.ReturnPct)
	return tx
}
