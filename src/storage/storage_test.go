package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/parsers"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir, filepath.Join(dir, "uploads"), "transactions.csv")
	require.NoError(t, err)
	return store
}

func TestNewFileStore_RejectsPathInName(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileStore(dir, dir, "../escape.csv")
	assert.Error(t, err)
	_, err = NewFileStore(dir, dir, "")
	assert.Error(t, err)
}

func TestWriteCanonical_Format(t *testing.T) {
	var buf bytes.Buffer
	records := models.RecordSet{
		SampleRecords()[0],
		{Instrument: models.Ptr("=HYPERLINK()"), USDAmount: models.Ptr(0.1)},
	}

	require.NoError(t, WriteCanonical(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "transaction_date,instrument,usd_amount,shares,purchase_price,current_price,current_value,return_pct,return_local_currency", lines[0])
	assert.Equal(t, "2025-01-01,AAPL,10000,50,200,250,12500,25,2375000", lines[1])
	assert.Equal(t, ",=HYPERLINK(),0.1,,,,,,", lines[2])
}

func TestWriteExport_SanitizesInstrument(t *testing.T) {
	var buf bytes.Buffer
	records := models.RecordSet{{Instrument: models.Ptr("=cmd|' /C calc'!A0")}}

	require.NoError(t, WriteExport(&buf, records))

	assert.Contains(t, buf.String(), "'=cmd|' /C calc'!A0")
}

func TestCanonicalRoundTrip(t *testing.T) {
	store := newStore(t)
	loader := parsers.NewLoader()

	original := models.RecordSet{
		SampleRecords()[0],
		SampleRecords()[1],
		{Instrument: models.Ptr("ZERO"), USDAmount: models.Ptr(100.0), Shares: models.Ptr(1.0), PurchasePrice: models.Ptr(0.0), CurrentPrice: models.Ptr(3.3333333333333335)},
		{},
	}
	original[2].CurrentValue = models.DeriveCurrentValue(original[2].Shares, original[2].CurrentPrice)

	require.NoError(t, store.PersistCanonical(original))
	first, err := loader.Load(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, original[:3], first[:3])
	assert.Len(t, first, 3, "the all-null record is written as a blank row and skipped")

	require.NoError(t, store.PersistCanonical(first))
	second, err := loader.Load(store.CanonicalPath())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPersistCanonical_LeavesNoTempFiles(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.PersistCanonical(SampleRecords()))
	require.NoError(t, store.PersistCanonical(SampleRecords()[:1]))

	entries, err := os.ReadDir(filepath.Dir(store.CanonicalPath()))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"transactions.csv", "uploads"}, names)
}

func TestEnsureCanonical(t *testing.T) {
	store := newStore(t)

	created, err := store.EnsureCanonical()
	require.NoError(t, err)
	assert.True(t, created)

	records, err := parsers.NewLoader().Load(store.CanonicalPath())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AAPL", records[0].InstrumentName())
	assert.Equal(t, "GOOGL", records[1].InstrumentName())
	assert.Equal(t, 14400.0, *records[1].CurrentValue)
	assert.Equal(t, -570000.0, *records[1].ReturnLocalCurrency)

	require.NoError(t, store.PersistCanonical(records[:1]))
	created, err = store.EnsureCanonical()
	require.NoError(t, err)
	assert.False(t, created, "an existing canonical file is never overwritten")
}

func TestSaveUpload(t *testing.T) {
	store := newStore(t)

	first, err := store.SaveUpload("../../Portfolio.XLSX", strings.NewReader("data"))
	require.NoError(t, err)
	second, err := store.SaveUpload("Portfolio.XLSX", strings.NewReader("data"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, ".xlsx", filepath.Ext(first))
	assert.Equal(t, filepath.Join(filepath.Dir(store.CanonicalPath()), "uploads"), filepath.Dir(first))

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestRemoveUpload(t *testing.T) {
	store := newStore(t)

	path, err := store.SaveUpload("portfolio.csv", strings.NewReader("data"))
	require.NoError(t, err)
	require.NoError(t, store.RemoveUpload(path))
	assert.NoFileExists(t, path)

	// Already gone is not an error.
	assert.NoError(t, store.RemoveUpload(path))

	require.NoError(t, store.PersistCanonical(SampleRecords()))
	assert.Error(t, store.RemoveUpload(store.CanonicalPath()))
	assert.FileExists(t, store.CanonicalPath())
}
