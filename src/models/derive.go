package models

import "math"

// DeriveCurrentValue computes shares * currentPrice. A nil operand yields nil.
func DeriveCurrentValue(shares, currentPrice *float64) *float64 {
	if shares == nil || currentPrice == nil {
		return nil
	}
	return finite(*shares * *currentPrice)
}

// DeriveReturnPct computes the percentage gain of currentPrice over
// purchasePrice. It is nil when purchasePrice is zero or either price is nil.
func DeriveReturnPct(purchasePrice, currentPrice *float64) *float64 {
	if purchasePrice == nil || currentPrice == nil || *purchasePrice == 0 {
		return nil
	}
	return finite((*currentPrice - *purchasePrice) / *purchasePrice * 100)
}

// DeriveReturnLocalCurrency converts the profit implied by returnPct on
// usdAmount into local currency at FXRate.
func DeriveReturnLocalCurrency(usdAmount, returnPct *float64) *float64 {
	if usdAmount == nil || returnPct == nil {
		return nil
	}
	return finite(*usdAmount * (*returnPct / 100) * FXRate)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
