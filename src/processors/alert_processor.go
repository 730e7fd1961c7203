package processors

import (
	"fmt"

	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/utils"
)

const (
	DefaultTakeProfitPct = 20.0
	DefaultReviewPct     = -10.0
)

type alertProcessorImpl struct {
	takeProfitPct float64
	reviewPct     float64
}

// NewAlertProcessor flags returns strictly above takeProfitPct and strictly
// below reviewPct.
func NewAlertProcessor(takeProfitPct, reviewPct float64) AlertProcessor {
	return &alertProcessorImpl{takeProfitPct: takeProfitPct, reviewPct: reviewPct}
}

func (p *alertProcessorImpl) Process(records models.RecordSet) []models.Alert {
	alerts := []models.Alert{}
	for _, tx := range records {
		if tx.ReturnPct == nil {
			continue
		}
		pct := *tx.ReturnPct
		name := tx.InstrumentName()
		if name == "" {
			name = UnknownInstrument
		}

		switch {
		case pct > p.takeProfitPct:
			alerts = append(alerts, models.Alert{
				Instrument: name,
				Kind:       models.AlertTakeProfit,
				ReturnPct:  utils.RoundFloat(pct, 2),
				Message:    fmt.Sprintf("%s is up %.2f%%, consider taking profit", name, pct),
			})
		case pct < p.reviewPct:
			alerts = append(alerts, models.Alert{
				Instrument: name,
				Kind:       models.AlertReview,
				ReturnPct:  utils.RoundFloat(pct, 2),
				Message:    fmt.Sprintf("%s is down %.2f%%, review the position", name, -pct),
			})
		}
	}
	return alerts
}
