package utils

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders amount in the currency's display format, rounded to the
// currency's minor unit (e.g. "$12,500.00" for USD, no decimals for CLP).
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatPercent renders p with two decimals and a percent sign.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// FormatNumber renders v with at most four decimals and no trailing zeros.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}
