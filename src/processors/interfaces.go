package processors

import (
	"github.com/username/inversiones/src/models"
)

// SummaryProcessor defines the interface for aggregating a record set into portfolio totals.
type SummaryProcessor interface {
	Calculate(records models.RecordSet) models.PortfolioSummary
}

// DistributionProcessor defines the interface for splitting current value by instrument.
type DistributionProcessor interface {
	Calculate(records models.RecordSet) []models.InstrumentAllocation
}

// AlertProcessor defines the interface for flagging records whose return crossed a threshold.
type AlertProcessor interface {
	Process(records models.RecordSet) []models.Alert
}
