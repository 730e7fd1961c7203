package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/inversiones/src/models"
)

// UnknownInstrument labels records without an instrument name.
const UnknownInstrument = "(unknown)"

type distributionProcessorImpl struct{}

func NewDistributionProcessor() DistributionProcessor {
	return &distributionProcessorImpl{}
}

// Calculate groups current value by instrument in order of first appearance.
// Instruments whose values net to zero are dropped; negative totals are
// reported by magnitude.
func (p *distributionProcessorImpl) Calculate(records models.RecordSet) []models.InstrumentAllocation {
	totals := make(map[string]decimal.Decimal)
	var order []string

	for _, tx := range records {
		name := tx.InstrumentName()
		if name == "" {
			name = UnknownInstrument
		}
		current, seen := totals[name]
		if !seen {
			order = append(order, name)
		}
		totals[name] = current.Add(toDecimal(tx.CurrentValue))
	}

	grand := decimal.Zero
	kept := order[:0]
	for _, name := range order {
		v := totals[name].Abs()
		if v.IsZero() {
			continue
		}
		totals[name] = v
		grand = grand.Add(v)
		kept = append(kept, name)
	}

	allocations := make([]models.InstrumentAllocation, 0, len(kept))
	for _, name := range kept {
		v := totals[name]
		allocations = append(allocations, models.InstrumentAllocation{
			Instrument: name,
			Value:      v.InexactFloat64(),
			SharePct:   v.Div(grand).Mul(hundred).Round(2).InexactFloat64(),
		})
	}
	return allocations
}
