package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/services"
	"github.com/username/inversiones/src/utils"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"usd": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return utils.FormatMoney(*v, models.BaseCurrency)
	},
	"clp": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return utils.FormatMoney(*v, models.LocalCurrency)
	},
	"num": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return utils.FormatNumber(*v)
	},
	"pct": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return utils.FormatPercent(*v)
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(utils.DefaultDateFormat)
	},
	"money":   utils.FormatMoney,
	"percent": utils.FormatPercent,
}).ParseFS(templateFS, "templates/dashboard.html"))

// Query parameters carrying a one-shot message to the dashboard.
const (
	flashMessageParam = "flash"
	flashKindParam    = "kind"

	FlashOK    = "ok"
	FlashError = "error"
)

type flash struct {
	Message string
	Kind    string
}

type dashboardView struct {
	Summary      models.PortfolioSummary
	Records      models.RecordSet
	Distribution []models.InstrumentAllocation
	Alerts       []models.Alert
	Status       services.Status
	FXRate       float64
	Flash        *flash
}

type DashboardHandler struct {
	portfolioService services.PortfolioService
}

func NewDashboardHandler(service services.PortfolioService) *DashboardHandler {
	return &DashboardHandler{portfolioService: service}
}

// HandleDashboard renders the summary cards, alerts and the full record table.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	view := dashboardView{
		Records: h.portfolioService.Current(),
		Status:  h.portfolioService.Status(),
		FXRate:  models.FXRate,
		Flash:   flashFromQuery(r),
	}
	var err error
	if view.Summary, err = h.portfolioService.GetSummary(); err != nil {
		log.Warn("Dashboard rendered without summary", "error", err)
	}
	if view.Distribution, err = h.portfolioService.GetDistribution(); err != nil {
		log.Warn("Dashboard rendered without distribution", "error", err)
	}
	if view.Alerts, err = h.portfolioService.GetAlerts(); err != nil {
		log.Warn("Dashboard rendered without alerts", "error", err)
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		log.Error("Failed to render dashboard", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("Failed to write dashboard response", "error", err)
	}
}

func flashFromQuery(r *http.Request) *flash {
	query := r.URL.Query()
	message := query.Get(flashMessageParam)
	if message == "" {
		return nil
	}
	kind := FlashOK
	if query.Get(flashKindParam) == FlashError {
		kind = FlashError
	}
	return &flash{Message: message, Kind: kind}
}
