package services

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/parsers"
	"github.com/username/inversiones/src/processors"
	"github.com/username/inversiones/src/storage"
	"github.com/username/inversiones/src/utils"
)

const (
	// Report cache keys, suffixed with the record set version.
	ckSummary      = "summary_v%d"
	ckDistribution = "distribution_v%d"
	ckAlerts       = "alerts_v%d"
	ckETag         = "etag_%s_v%d"

	// SourceManualEntry labels record sets produced by manual edits.
	SourceManualEntry = "manual entry"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// snapshot is an immutable active record set. It is replaced, never modified.
type snapshot struct {
	version  uint64
	records  models.RecordSet
	loadedAt time.Time
	source   string
}

type portfolioServiceImpl struct {
	loader                parsers.RecordLoader
	store                 *storage.FileStore
	summaryProcessor      processors.SummaryProcessor
	distributionProcessor processors.DistributionProcessor
	alertProcessor        processors.AlertProcessor
	reportCache           *cache.Cache
	seedSample            bool

	active  atomic.Pointer[snapshot]
	version atomic.Uint64
	// uploadMu keeps persistence and installation of new record sets in the
	// same order.
	uploadMu sync.Mutex
}

func NewPortfolioService(
	loader parsers.RecordLoader,
	store *storage.FileStore,
	summaryProcessor processors.SummaryProcessor,
	distributionProcessor processors.DistributionProcessor,
	alertProcessor processors.AlertProcessor,
	reportCache *cache.Cache,
	seedSample bool,
) PortfolioService {
	return &portfolioServiceImpl{
		loader:                loader,
		store:                 store,
		summaryProcessor:      summaryProcessor,
		distributionProcessor: distributionProcessor,
		alertProcessor:        alertProcessor,
		reportCache:           reportCache,
		seedSample:            seedSample,
	}
}

// Bootstrap loads the canonical file as the initial active set, seeding the
// sample portfolio first when allowed and nothing has been persisted yet.
func (s *portfolioServiceImpl) Bootstrap() error {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	if s.seedSample {
		if _, err := s.store.EnsureCanonical(); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
	}

	path := s.store.CanonicalPath()
	records, err := s.loader.Load(path)
	if err != nil {
		var ioErr *parsers.IOError
		if !s.seedSample && errors.As(err, &ioErr) {
			logger.L.Info("No canonical file yet, starting with an empty portfolio", "path", path)
			s.install(models.RecordSet{}, filepath.Base(path))
			return nil
		}
		return fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	s.install(records, filepath.Base(path))
	logger.L.Info("Portfolio bootstrapped", "path", path, "records", len(records))
	return nil
}

// ProcessUpload normalizes an uploaded file and makes it the active set. The
// previous set stays active on any failure.
func (s *portfolioServiceImpl) ProcessUpload(fileName string, r io.Reader) (*UploadResult, error) {
	start := time.Now()
	logger.L.Info("ProcessUpload START", "fileName", fileName)

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	path, err := s.store.SaveUpload(fileName, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	records, err := s.loader.Load(path)
	if rmErr := s.store.RemoveUpload(path); rmErr != nil {
		logger.L.Warn("Failed to remove raw upload", "path", path, "error", rmErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	if err := s.store.PersistCanonical(records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	snap := s.install(records, fileName)
	summary := s.summaryProcessor.Calculate(records)
	s.reportCache.Set(fmt.Sprintf(ckSummary, snap.version), summary, cache.DefaultExpiration)

	logger.L.Info("ProcessUpload END", "fileName", fileName, "records", len(records), "duration", time.Since(start))
	return &UploadResult{
		FileName:    fileName,
		RecordCount: len(records),
		Summary:     summary,
		LoadedAt:    snap.loadedAt,
	}, nil
}

// AddTransaction appends a manually entered record to the active set.
func (s *portfolioServiceImpl) AddTransaction(entry models.TransactionEntry) (*TransactionChange, error) {
	tx, err := entry.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return s.mutate(func(records models.RecordSet) (models.RecordSet, *TransactionChange, error) {
		records = append(records, tx)
		return records, &TransactionChange{Index: len(records) - 1, Transaction: &tx}, nil
	})
}

// UpdateTransaction replaces the record at index with a manually entered one.
func (s *portfolioServiceImpl) UpdateTransaction(index int, entry models.TransactionEntry) (*TransactionChange, error) {
	tx, err := entry.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return s.mutate(func(records models.RecordSet) (models.RecordSet, *TransactionChange, error) {
		if index < 0 || index >= len(records) {
			return nil, nil, fmt.Errorf("%w: index %d", ErrTransactionNotFound, index)
		}
		records[index] = tx
		return records, &TransactionChange{Index: index, Transaction: &tx}, nil
	})
}

// DeleteTransaction removes the record at index. Later records shift down.
func (s *portfolioServiceImpl) DeleteTransaction(index int) (*TransactionChange, error) {
	return s.mutate(func(records models.RecordSet) (models.RecordSet, *TransactionChange, error) {
		if index < 0 || index >= len(records) {
			return nil, nil, fmt.Errorf("%w: index %d", ErrTransactionNotFound, index)
		}
		removed := records[index]
		return slices.Delete(records, index, index+1), &TransactionChange{Index: index, Transaction: &removed}, nil
	})
}

// mutate applies change to a copy of the active set, persists the result and
// installs it. The active set is untouched when any step fails.
func (s *portfolioServiceImpl) mutate(
	change func(models.RecordSet) (models.RecordSet, *TransactionChange, error),
) (*TransactionChange, error) {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	snap, err := s.activeSnapshot()
	if err != nil {
		return nil, err
	}
	records, result, err := change(slices.Clone(snap.records))
	if err != nil {
		return nil, err
	}
	if err := s.store.PersistCanonical(records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	s.install(records, SourceManualEntry)

	result.RecordCount = len(records)
	logger.L.Info("Applied manual change", "index", result.Index, "records", result.RecordCount)
	return result, nil
}

func (s *portfolioServiceImpl) install(records models.RecordSet, source string) *snapshot {
	snap := &snapshot{
		version:  s.version.Add(1),
		records:  records,
		loadedAt: time.Now().UTC(),
		source:   source,
	}
	previous := s.active.Swap(snap)
	if previous != nil {
		s.invalidate(previous.version)
	}
	logger.L.Debug("Installed active record set", "version", snap.version, "source", source, "records", len(records))
	return snap
}

// invalidate drops every cached report computed for version.
func (s *portfolioServiceImpl) invalidate(version uint64) {
	keys := []string{
		fmt.Sprintf(ckSummary, version),
		fmt.Sprintf(ckDistribution, version),
		fmt.Sprintf(ckAlerts, version),
	}
	for _, kind := range []string{ReportTransactions, ReportSummary, ReportDistribution, ReportAlerts} {
		keys = append(keys, fmt.Sprintf(ckETag, kind, version))
	}
	for _, key := range keys {
		s.reportCache.Delete(key)
	}
}

func (s *portfolioServiceImpl) activeSnapshot() (*snapshot, error) {
	snap := s.active.Load()
	if snap == nil {
		return nil, ErrNoData
	}
	return snap, nil
}

// Current returns a copy of the active record set; callers may not observe
// later uploads through it.
func (s *portfolioServiceImpl) Current() models.RecordSet {
	snap := s.active.Load()
	if snap == nil {
		return models.RecordSet{}
	}
	return slices.Clone(snap.records)
}

func (s *portfolioServiceImpl) Status() Status {
	snap := s.active.Load()
	if snap == nil {
		return Status{}
	}
	return Status{
		Version:  snap.version,
		Records:  len(snap.records),
		LoadedAt: snap.loadedAt,
		Source:   snap.source,
	}
}

func (s *portfolioServiceImpl) GetSummary() (models.PortfolioSummary, error) {
	snap, err := s.activeSnapshot()
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	return s.summaryFor(snap), nil
}

func (s *portfolioServiceImpl) GetDistribution() ([]models.InstrumentAllocation, error) {
	snap, err := s.activeSnapshot()
	if err != nil {
		return nil, err
	}
	return s.distributionFor(snap), nil
}

func (s *portfolioServiceImpl) GetAlerts() ([]models.Alert, error) {
	snap, err := s.activeSnapshot()
	if err != nil {
		return nil, err
	}
	return s.alertsFor(snap), nil
}

func (s *portfolioServiceImpl) summaryFor(snap *snapshot) models.PortfolioSummary {
	return cached(s.reportCache, fmt.Sprintf(ckSummary, snap.version), func() models.PortfolioSummary {
		return s.summaryProcessor.Calculate(snap.records)
	})
}

func (s *portfolioServiceImpl) distributionFor(snap *snapshot) []models.InstrumentAllocation {
	return cached(s.reportCache, fmt.Sprintf(ckDistribution, snap.version), func() []models.InstrumentAllocation {
		return s.distributionProcessor.Calculate(snap.records)
	})
}

func (s *portfolioServiceImpl) alertsFor(snap *snapshot) []models.Alert {
	return cached(s.reportCache, fmt.Sprintf(ckAlerts, snap.version), func() []models.Alert {
		return s.alertProcessor.Process(snap.records)
	})
}

// GetReport returns a report body and its ETag, both computed from the same
// record set version.
func (s *portfolioServiceImpl) GetReport(kind string) (*Report, error) {
	snap, err := s.activeSnapshot()
	if err != nil {
		return nil, err
	}

	var data any
	switch kind {
	case ReportTransactions:
		data = slices.Clone(snap.records)
	case ReportSummary:
		data = s.summaryFor(snap)
	case ReportDistribution:
		data = s.distributionFor(snap)
	case ReportAlerts:
		data = s.alertsFor(snap)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, kind)
	}

	key := fmt.Sprintf(ckETag, kind, snap.version)
	etag, found := "", false
	if v, ok := s.reportCache.Get(key); ok {
		etag, found = v.(string)
	}
	if !found {
		etag, err = utils.GenerateETag(data)
		if err != nil {
			return nil, fmt.Errorf("failed to generate etag for %s: %w", kind, err)
		}
		s.reportCache.Set(key, etag, cache.DefaultExpiration)
	}

	return &Report{Kind: kind, Version: snap.version, ETag: etag, Data: data}, nil
}

func cached[T any](c *cache.Cache, key string, compute func() T) T {
	if v, found := c.Get(key); found {
		logger.L.Debug("Cache hit", "key", key)
		return v.(T)
	}
	logger.L.Debug("Cache miss, recalculating", "key", key)
	v := compute()
	c.Set(key, v, cache.DefaultExpiration)
	return v
}
