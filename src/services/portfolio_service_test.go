package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/parsers"
	"github.com/username/inversiones/src/processors"
	"github.com/username/inversiones/src/storage"
	"github.com/username/inversiones/src/utils"
)

func newTestService(t *testing.T, seed bool) (PortfolioService, *storage.FileStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, filepath.Join(dir, "uploads"), "transactions.csv")
	require.NoError(t, err)

	svc := NewPortfolioService(
		parsers.NewLoader(),
		store,
		processors.NewSummaryProcessor(),
		processors.NewDistributionProcessor(),
		processors.NewAlertProcessor(processors.DefaultTakeProfitPct, processors.DefaultReviewPct),
		cache.New(DefaultCacheExpiration, CacheCleanupInterval),
		seed,
	)
	return svc, store
}

const uploadCSV = "Fecha,Indice,USD Transaccionados,Cantidad de Shares,Precio Accion,Precio Actual\n" +
	"2025-01-01,AAPL,10000,50,200,250\n" +
	"2025-02-01,GOOGL,15000,100,150,144\n" +
	"2025-03-01,TSLA,1000,10,100,80\n"

func TestPortfolioService_NoDataBeforeBootstrap(t *testing.T) {
	svc, _ := newTestService(t, true)

	_, err := svc.GetSummary()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = svc.GetReport(ReportTransactions)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = svc.AddTransaction(models.TransactionEntry{})
	assert.Error(t, err)
	assert.Empty(t, svc.Current())
	assert.Equal(t, Status{}, svc.Status())
}

func TestPortfolioService_BootstrapSeedsSample(t *testing.T) {
	svc, store := newTestService(t, true)

	require.NoError(t, svc.Bootstrap())

	records := svc.Current()
	require.Len(t, records, 2)
	assert.Equal(t, "AAPL", records[0].InstrumentName())
	_, err := os.Stat(store.CanonicalPath())
	assert.NoError(t, err)

	status := svc.Status()
	assert.Equal(t, "transactions.csv", status.Source)
	assert.Equal(t, 2, status.Records)
	assert.False(t, status.LoadedAt.IsZero())

	summary, err := svc.GetSummary()
	require.NoError(t, err)
	assert.Equal(t, 25000.0, summary.TotalInvested)
	assert.Equal(t, 26900.0, summary.TotalValue)
	assert.Equal(t, 7.6, summary.TotalReturnPct)
}

func TestPortfolioService_BootstrapWithoutSeed(t *testing.T) {
	svc, store := newTestService(t, false)

	require.NoError(t, svc.Bootstrap())
	assert.Empty(t, svc.Current())
	_, err := os.Stat(store.CanonicalPath())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	summary, err := svc.GetSummary()
	require.NoError(t, err)
	assert.Equal(t, models.PortfolioSummary{}, summary)
}

func TestPortfolioService_BootstrapRejectsCorruptCanonical(t *testing.T) {
	svc, store := newTestService(t, false)
	require.NoError(t, os.WriteFile(store.CanonicalPath(), []byte("\xff\xfe\x00"), 0o600))

	err := svc.Bootstrap()
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestPortfolioService_ProcessUpload(t *testing.T) {
	svc, store := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())
	before, err := svc.GetReport(ReportTransactions)
	require.NoError(t, err)

	result, err := svc.ProcessUpload("mis inversiones.csv", strings.NewReader(uploadCSV))
	require.NoError(t, err)
	assert.Equal(t, "mis inversiones.csv", result.FileName)
	assert.Equal(t, 3, result.RecordCount)
	assert.Equal(t, 26000.0, result.Summary.TotalInvested)
	assert.False(t, result.LoadedAt.IsZero())

	records := svc.Current()
	require.Len(t, records, 3)
	assert.Equal(t, "TSLA", records[2].InstrumentName())

	after, err := svc.GetReport(ReportTransactions)
	require.NoError(t, err)
	assert.NotEqual(t, before.ETag, after.ETag)
	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, "mis inversiones.csv", svc.Status().Source)
	assert.Empty(t, uploadedFiles(t, store), "raw uploads are removed once installed")

	alerts, err := svc.GetAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, models.AlertTakeProfit, alerts[0].Kind)
	assert.Equal(t, "TSLA", alerts[1].Instrument)

	distribution, err := svc.GetDistribution()
	require.NoError(t, err)
	require.Len(t, distribution, 3)
	assert.Equal(t, "AAPL", distribution[0].Instrument)

	reloaded, err := parsers.NewLoader().Load(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, records, reloaded, "the canonical file mirrors the active set")
}

func TestPortfolioService_FailedUploadKeepsPreviousSet(t *testing.T) {
	svc, store := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())
	canonicalBefore, err := os.ReadFile(store.CanonicalPath())
	require.NoError(t, err)

	_, err = svc.ProcessUpload("broken.xlsx", strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingFailed)
	var formatErr *parsers.UnsupportedFormatError
	assert.True(t, errors.As(err, &formatErr))

	assert.Len(t, svc.Current(), 2)
	canonicalAfter, err := os.ReadFile(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, canonicalBefore, canonicalAfter)
	assert.Empty(t, uploadedFiles(t, store), "rejected uploads are removed too")
}

func uploadedFiles(t *testing.T, store *storage.FileStore) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(filepath.Dir(store.CanonicalPath()), "uploads"))
	require.NoError(t, err)
	return entries
}

func TestPortfolioService_CurrentIsACopy(t *testing.T) {
	svc, _ := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	records := svc.Current()
	records[0].Instrument = models.Ptr("MUTATED")

	assert.Equal(t, "AAPL", svc.Current()[0].InstrumentName())
}

func TestPortfolioService_GetReport(t *testing.T) {
	svc, _ := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	seen := map[string]bool{}
	for _, kind := range []string{ReportTransactions, ReportSummary, ReportDistribution, ReportAlerts} {
		report, err := svc.GetReport(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, report.Kind)
		assert.NotEmpty(t, report.ETag)
		assert.NotNil(t, report.Data)

		again, err := svc.GetReport(kind)
		require.NoError(t, err)
		assert.Equal(t, report.ETag, again.ETag)
		seen[report.ETag] = true
	}
	assert.Len(t, seen, 4)

	_, err := svc.GetReport("bogus")
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestPortfolioService_ReportETagMatchesItsBody(t *testing.T) {
	svc, _ := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			_, err := svc.ProcessUpload("upload.csv", strings.NewReader(uploadCSV))
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 50; i++ {
		report, err := svc.GetReport(ReportTransactions)
		require.NoError(t, err)
		etag, err := utils.GenerateETag(report.Data)
		require.NoError(t, err)
		assert.Equal(t, etag, report.ETag, "version %d", report.Version)
	}
	wg.Wait()
}

func TestPortfolioService_AddTransaction(t *testing.T) {
	svc, store := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())
	before := svc.Status()

	change, err := svc.AddTransaction(models.TransactionEntry{
		TransactionDate: "2025-04-01",
		Instrument:      "MSFT",
		Type:            models.TradeBuy,
		USDAmount:       4000,
		Shares:          10,
		PurchasePrice:   400,
		CurrentPrice:    models.Ptr(440.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, change.Index)
	assert.Equal(t, 3, change.RecordCount)
	require.NotNil(t, change.Transaction.CurrentValue)
	assert.Equal(t, 4400.0, *change.Transaction.CurrentValue)

	records := svc.Current()
	require.Len(t, records, 3)
	assert.Equal(t, "MSFT", records[2].InstrumentName())

	status := svc.Status()
	assert.Equal(t, SourceManualEntry, status.Source)
	assert.Greater(t, status.Version, before.Version)

	summary, err := svc.GetSummary()
	require.NoError(t, err)
	assert.Equal(t, 29000.0, summary.TotalInvested)

	reloaded, err := parsers.NewLoader().Load(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, records, reloaded)
}

func TestPortfolioService_UpdateTransaction(t *testing.T) {
	svc, _ := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	change, err := svc.UpdateTransaction(0, models.TransactionEntry{
		TransactionDate: "2025-01-15",
		Instrument:      "AAPL",
		Type:            models.TradeSell,
		USDAmount:       2500,
		Shares:          10,
		PurchasePrice:   250,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, change.Index)
	assert.Equal(t, 2, change.RecordCount)

	records := svc.Current()
	require.Len(t, records, 2)
	require.NotNil(t, records[0].USDAmount)
	assert.Equal(t, -2500.0, *records[0].USDAmount)
	assert.Equal(t, -10.0, *records[0].Shares)
	assert.Equal(t, 250.0, *records[0].CurrentPrice)
	assert.Equal(t, "GOOGL", records[1].InstrumentName())

	_, err = svc.UpdateTransaction(2, models.TransactionEntry{
		TransactionDate: "2025-01-15", Instrument: "AAPL", USDAmount: 1, Shares: 1, PurchasePrice: 1,
	})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestPortfolioService_DeleteTransaction(t *testing.T) {
	svc, store := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	change, err := svc.DeleteTransaction(0)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", change.Transaction.InstrumentName())
	assert.Equal(t, 1, change.RecordCount)

	records := svc.Current()
	require.Len(t, records, 1)
	assert.Equal(t, "GOOGL", records[0].InstrumentName())

	reloaded, err := parsers.NewLoader().Load(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, records, reloaded)

	for _, index := range []int{-1, 1, 10} {
		_, err := svc.DeleteTransaction(index)
		assert.ErrorIs(t, err, ErrTransactionNotFound, "index %d", index)
	}
	assert.Len(t, svc.Current(), 1)
}

func TestPortfolioService_InvalidEntryLeavesSetUntouched(t *testing.T) {
	svc, store := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())
	before := svc.Status()
	canonicalBefore, err := os.ReadFile(store.CanonicalPath())
	require.NoError(t, err)

	_, err = svc.AddTransaction(models.TransactionEntry{Instrument: "AAPL", USDAmount: 100})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	assert.Equal(t, before, svc.Status())
	canonicalAfter, err := os.ReadFile(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, canonicalBefore, canonicalAfter)
}

func TestPortfolioService_ConcurrentReadsDuringUploads(t *testing.T) {
	svc, _ := newTestService(t, true)
	require.NoError(t, svc.Bootstrap())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessUpload("upload.csv", strings.NewReader(uploadCSV))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			n := len(svc.Current())
			assert.True(t, n == 2 || n == 3, "saw a partial record set of %d", n)
			_, err := svc.GetSummary()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, svc.Current(), 3)
}
