package models

import "time"

const (
	// FXRate is the fixed number of local currency units (CLP) per USD.
	FXRate = 950.0

	BaseCurrency  = "USD"
	LocalCurrency = "CLP"

	// DateLayout is how transaction dates are written to the canonical file.
	DateLayout = "2006-01-02"
)

// Transaction is one normalized investment record. A nil field means the
// source value was missing or could not be coerced.
type Transaction struct {
	TransactionDate     *time.Time `json:"transaction_date"`
	Instrument          *string    `json:"instrument"`
	USDAmount           *float64   `json:"usd_amount"`
	Shares              *float64   `json:"shares"`
	PurchasePrice       *float64   `json:"purchase_price"`
	CurrentPrice        *float64   `json:"current_price"`
	CurrentValue        *float64   `json:"current_value"`
	ReturnPct           *float64   `json:"return_pct"`
	ReturnLocalCurrency *float64   `json:"return_local_currency"`
}

// RecordSet is the table produced by a single load, in source row order.
type RecordSet []Transaction

// InstrumentName returns the instrument or an empty string when it is unknown.
func (t Transaction) InstrumentName() string {
	if t.Instrument == nil {
		return ""
	}
	return *t.Instrument
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// ValueOrZero dereferences p, treating nil as zero.
func ValueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
