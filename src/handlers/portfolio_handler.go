package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/services"
	"github.com/username/inversiones/src/storage"
	"github.com/username/inversiones/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: service}
}

func (h *PortfolioHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, services.ReportSummary)
}

func (h *PortfolioHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, services.ReportTransactions)
}

func (h *PortfolioHandler) HandleGetDistribution(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, services.ReportDistribution)
}

func (h *PortfolioHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, services.ReportAlerts)
}

// serveReport answers with 304 when the client already holds the current
// version of the report, and with the JSON report otherwise.
func (h *PortfolioHandler) serveReport(w http.ResponseWriter, r *http.Request, kind string) {
	log := logger.FromContext(r.Context())

	report, err := h.portfolioService.GetReport(kind)
	if errors.Is(err, services.ErrNoData) {
		utils.SendJSONError(w, "No portfolio data loaded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("Error retrieving report", "report", kind, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving %s", kind), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	quotedETag := fmt.Sprintf("\"%s\"", report.ETag)
	w.Header().Set("ETag", quotedETag)
	clientETag := r.Header.Get("If-None-Match")
	for _, cETag := range strings.Split(clientETag, ",") {
		if strings.TrimSpace(cETag) == quotedETag {
			log.Debug("ETag match", "report", kind, "etag", report.ETag, "version", report.Version)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	utils.SendJSON(w, report.Data)
}

// HandleExportTransactions downloads the active record set as canonical CSV.
func (h *PortfolioHandler) HandleExportTransactions(w http.ResponseWriter, r *http.Request) {
	records := h.portfolioService.Current()
	fileName := fmt.Sprintf("inversiones_%s.csv", time.Now().UTC().Format("20060102"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := storage.WriteExport(w, records); err != nil {
		logger.FromContext(r.Context()).Error("Error writing CSV export", "records", len(records), "error", err)
	}
}

func (h *PortfolioHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.portfolioService.Status()
	utils.SendJSON(w, map[string]any{
		"status":    "ok",
		"version":   status.Version,
		"records":   status.Records,
		"loaded_at": status.LoadedAt,
		"source":    status.Source,
	})
}
