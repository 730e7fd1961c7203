package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/inversiones/src/models"
)

var hundred = decimal.NewFromInt(100)

type summaryProcessorImpl struct{}

func NewSummaryProcessor() SummaryProcessor {
	return &summaryProcessorImpl{}
}

// Calculate sums invested amount, current value and local-currency return.
// Null fields count as zero. The percentage return is 0 when nothing was invested.
func (p *summaryProcessorImpl) Calculate(records models.RecordSet) models.PortfolioSummary {
	invested, value, localReturn := decimal.Zero, decimal.Zero, decimal.Zero

	for _, tx := range records {
		invested = invested.Add(toDecimal(tx.USDAmount))
		value = value.Add(toDecimal(tx.CurrentValue))
		localReturn = localReturn.Add(toDecimal(tx.ReturnLocalCurrency))
	}

	returnPct := decimal.Zero
	if !invested.IsZero() {
		returnPct = value.Sub(invested).Div(invested).Mul(hundred)
	}

	return models.PortfolioSummary{
		TotalInvested:            invested.InexactFloat64(),
		TotalValue:               value.InexactFloat64(),
		TotalReturnLocalCurrency: localReturn.InexactFloat64(),
		TotalReturnPct:           returnPct.InexactFloat64(),
		RecordCount:              len(records),
	}
}

func toDecimal(v *float64) decimal.Decimal {
	return decimal.NewFromFloat(models.ValueOrZero(v))
}
