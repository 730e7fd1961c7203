package services

import (
	"io"
	"time"

	"github.com/username/inversiones/src/models"
)

// UploadResult describes a successfully installed upload.
type UploadResult struct {
	FileName    string                  `json:"file_name"`
	RecordCount int                     `json:"record_count"`
	Summary     models.PortfolioSummary `json:"summary"`
	LoadedAt    time.Time               `json:"loaded_at"`
}

// Status describes the active record set.
type Status struct {
	Version  uint64    `json:"version"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
	// Source is the upload name, the canonical file name or "manual entry".
	Source string `json:"source"`
}

// TransactionChange is the outcome of a manual add, update or delete.
type TransactionChange struct {
	Index       int                 `json:"index"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	RecordCount int                 `json:"record_count"`
}

// Report kinds accepted by PortfolioService.GetReport.
const (
	ReportTransactions = "transactions"
	ReportSummary      = "summary"
	ReportDistribution = "distribution"
	ReportAlerts       = "alerts"
)

// Report is a report body together with the ETag of that exact body.
type Report struct {
	Kind    string
	Version uint64
	ETag    string
	Data    any
}

// PortfolioService owns the active record set and the reports derived from it.
type PortfolioService interface {
	Bootstrap() error
	ProcessUpload(fileName string, r io.Reader) (*UploadResult, error)
	AddTransaction(entry models.TransactionEntry) (*TransactionChange, error)
	UpdateTransaction(index int, entry models.TransactionEntry) (*TransactionChange, error)
	DeleteTransaction(index int) (*TransactionChange, error)
	Current() models.RecordSet
	Status() Status
	GetSummary() (models.PortfolioSummary, error)
	GetDistribution() ([]models.InstrumentAllocation, error)
	GetAlerts() ([]models.Alert, error)
	GetReport(kind string) (*Report, error)
}
