package models

import "strings"

// Field identifies one of the nine canonical transaction attributes.
type Field int

const (
	FieldTransactionDate Field = iota
	FieldInstrument
	FieldUSDAmount
	FieldShares
	FieldPurchasePrice
	FieldCurrentPrice
	FieldCurrentValue
	FieldReturnPct
	FieldReturnLocalCurrency
)

var fieldNames = [...]string{
	FieldTransactionDate:     "transaction_date",
	FieldInstrument:          "instrument",
	FieldUSDAmount:           "usd_amount",
	FieldShares:              "shares",
	FieldPurchasePrice:       "purchase_price",
	FieldCurrentPrice:        "current_price",
	FieldCurrentValue:        "current_value",
	FieldReturnPct:           "return_pct",
	FieldReturnLocalCurrency: "return_local_currency",
}

// CanonicalFields lists every field in the column order of the persisted file.
var CanonicalFields = []Field{
	FieldTransactionDate,
	FieldInstrument,
	FieldUSDAmount,
	FieldShares,
	FieldPurchasePrice,
	FieldCurrentPrice,
	FieldCurrentValue,
	FieldReturnPct,
	FieldReturnLocalCurrency,
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// IsDerived reports whether the field is computed when the source omits it.
func (f Field) IsDerived() bool {
	return f == FieldCurrentValue || f == FieldReturnPct || f == FieldReturnLocalCurrency
}

// ParseField returns the field whose canonical name matches name, ignoring case.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}
