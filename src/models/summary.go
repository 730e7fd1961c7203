package models

// PortfolioSummary aggregates the active record set for the dashboard.
type PortfolioSummary struct {
	TotalInvested            float64 `json:"total_invested"`
	TotalValue               float64 `json:"total_value"`
	TotalReturnLocalCurrency float64 `json:"total_return_local_currency"`
	TotalReturnPct           float64 `json:"total_return_pct"`
	RecordCount              int     `json:"record_count"`
}

// InstrumentAllocation is the share of current value held in one instrument.
type InstrumentAllocation struct {
	Instrument string  `json:"instrument"`
	Value      float64 `json:"value"`
	SharePct   float64 `json:"share_pct"`
}

type AlertKind string

const (
	AlertTakeProfit AlertKind = "TAKE_PROFIT"
	AlertReview     AlertKind = "REVIEW"
)

// Alert flags a record whose return crossed one of the configured thresholds.
type Alert struct {
	Instrument string    `json:"instrument"`
	Kind       AlertKind `json:"kind"`
	ReturnPct  float64   `json:"return_pct"`
	Message    string    `json:"message"`
}
