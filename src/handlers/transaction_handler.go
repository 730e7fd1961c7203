package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/services"
	"github.com/username/inversiones/src/utils"
)

const maxEntryBytes = 64 * 1024

// TransactionHandler serves manual edits of the active record set.
type TransactionHandler struct {
	portfolioService services.PortfolioService
}

func NewTransactionHandler(service services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{portfolioService: service}
}

func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	change, err := h.portfolioService.AddTransaction(entry)
	if err != nil {
		sendChangeError(w, r, err)
		return
	}
	utils.SendJSONStatus(w, change, http.StatusCreated)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	change, err := h.portfolioService.UpdateTransaction(index, entry)
	if err != nil {
		sendChangeError(w, r, err)
		return
	}
	utils.SendJSON(w, change)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	change, err := h.portfolioService.DeleteTransaction(index)
	if err != nil {
		sendChangeError(w, r, err)
		return
	}
	utils.SendJSON(w, change)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		utils.SendJSONError(w, "Transaction index must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (models.TransactionEntry, bool) {
	var entry models.TransactionEntry
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&entry); err != nil {
		logger.FromContext(r.Context()).Warn("Invalid transaction body", "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return entry, false
	}
	return entry, true
}

func sendChangeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrInvalidTransaction):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNoData):
		utils.SendJSONError(w, "No portfolio data loaded yet", http.StatusNotFound)
	case errors.Is(err, services.ErrStorageFailed):
		log.Error("Manual change could not be stored", "error", err)
		utils.SendJSONError(w, "An internal error occurred while saving the transaction. Please try again later.", http.StatusInternalServerError)
	default:
		log.Error("Internal error applying manual change", "error", err)
		utils.SendJSONError(w, "An internal error occurred. Please try again later.", http.StatusInternalServerError)
	}
}
