package parsers

import (
	"time"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/models"
)

// Loader is the normalization engine: it reads a file, maps its headers to
// canonical fields, coerces every cell and derives the missing fields.
type Loader struct {
	headers HeaderTable
}

func NewLoader() *Loader {
	return &Loader{headers: DefaultHeaderTable()}
}

// NewLoaderWithHeaders uses a custom header table, typically DefaultHeaderTable().With(...).
func NewLoaderWithHeaders(headers HeaderTable) *Loader {
	return &Loader{headers: headers}
}

// Load returns the canonical record set for filePath. It fails with
// *IOError when the file cannot be read and *UnsupportedFormatError when it
// cannot be parsed; cell-level problems never fail the load.
func (l *Loader) Load(filePath string) (models.RecordSet, error) {
	start := time.Now()

	table, err := OpenTable(filePath)
	if err != nil {
		return nil, err
	}

	columns := l.headers.Resolve(table.Header)
	if len(columns) == 0 {
		logger.L.Warn("No recognized columns in file header", "path", filePath, "header", table.Header)
	}
	var derived []string
	for _, f := range models.CanonicalFields {
		if _, ok := columns[f]; !ok && f.IsDerived() {
			derived = append(derived, f.String())
		}
	}

	records := make(models.RecordSet, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, buildRecord(row, columns, table.Spreadsheet))
	}

	logger.L.Info("Loaded transactions",
		"path", filePath,
		"format", Ext(filePath),
		"sheet", table.Sheet,
		"rows", len(records),
		"mappedColumns", len(columns),
		"derivedFields", derived,
		"duration", time.Since(start))
	return records, nil
}

func buildRecord(row []string, columns map[models.Field]int, spreadsheet bool) models.Transaction {
	cell := func(f models.Field) (string, bool) {
		idx, ok := columns[f]
		if !ok {
			return "", false
		}
		if idx < len(row) {
			return row[idx], true
		}
		return "", true
	}
	number := func(f models.Field) *float64 {
		raw, ok := cell(f)
		if !ok {
			return models.Ptr(0.0)
		}
		return coerceFloat(raw)
	}

	var tx models.Transaction
	if raw, ok := cell(models.FieldTransactionDate); ok {
		tx.TransactionDate = coerceDate(raw, spreadsheet)
	}
	if raw, ok := cell(models.FieldInstrument); ok {
		tx.Instrument = coerceText(raw)
	}
	tx.USDAmount = number(models.FieldUSDAmount)
	tx.Shares = number(models.FieldShares)
	tx.PurchasePrice = number(models.FieldPurchasePrice)
	tx.CurrentPrice = number(models.FieldCurrentPrice)

	if raw, ok := cell(models.FieldCurrentValue); ok {
		tx.CurrentValue = coerceFloat(raw)
	} else {
		tx.CurrentValue = models.DeriveCurrentValue(tx.Shares, tx.CurrentPrice)
	}
	if raw, ok := cell(models.FieldReturnPct); ok {
		tx.ReturnPct = coerceFloat(raw)
	} else {
		tx.ReturnPct = models.DeriveReturnPct(tx.PurchasePrice, tx.CurrentPrice)
	}
	if raw, ok := cell(models.FieldReturnLocalCurrency); ok {
		tx.ReturnLocalCurrency = coerceFloat(raw)
	} else {
		tx.ReturnLocalCurrency = models.DeriveReturnLocalCurrency(tx.USDAmount, tx.ReturnPct)
	}
	return tx
}
