package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/security/validation"
)

// CanonicalHeader is the header row of the persisted file, in canonical field order.
func CanonicalHeader() []string {
	header := make([]string, len(models.CanonicalFields))
	for i, f := range models.CanonicalFields {
		header[i] = f.String()
	}
	return header
}

// WriteCanonical writes records as canonical CSV. Reloading the output yields
// the same record set.
func WriteCanonical(w io.Writer, records models.RecordSet) error {
	return writeRecords(w, records, false)
}

// WriteExport writes the canonical CSV for download, guarding instrument names
// against spreadsheet formula injection.
func WriteExport(w io.Writer, records models.RecordSet) error {
	return writeRecords(w, records, true)
}

func writeRecords(w io.Writer, records models.RecordSet, sanitize bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CanonicalHeader()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, tx := range records {
		row := canonicalRow(tx)
		if sanitize {
			row[models.FieldInstrument] = validation.SanitizeForFormulaInjection(row[models.FieldInstrument])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func canonicalRow(tx models.Transaction) []string {
	row := make([]string, len(models.CanonicalFields))
	if tx.TransactionDate != nil {
		row[models.FieldTransactionDate] = tx.TransactionDate.Format(models.DateLayout)
	}
	if tx.Instrument != nil {
		row[models.FieldInstrument] = *tx.Instrument
	}
	row[models.FieldUSDAmount] = formatFloat(tx.USDAmount)
	row[models.FieldShares] = formatFloat(tx.Shares)
	row[models.FieldPurchasePrice] = formatFloat(tx.PurchasePrice)
	row[models.FieldCurrentPrice] = formatFloat(tx.CurrentPrice)
	row[models.FieldCurrentValue] = formatFloat(tx.CurrentValue)
	row[models.FieldReturnPct] = formatFloat(tx.ReturnPct)
	row[models.FieldReturnLocalCurrency] = formatFloat(tx.ReturnLocalCurrency)
	return row
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
