package parsers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/security/validation"
	"github.com/xuri/excelize/v2"
)

// PreferredSheet is the sheet name looked for in workbooks, matched
// case-insensitively after trimming.
const PreferredSheet = "inversiones"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is the raw content of a file: a header row and the data rows below it.
type Table struct {
	Header []string
	Rows   [][]string
	// Sheet is the selected worksheet; empty for delimited text.
	Sheet string
	// Spreadsheet is set when cells came from a workbook, where dates may be
	// stored as serial numbers.
	Spreadsheet bool
}

// SelectSheet picks the sheet named "inversiones" (any case, surrounding
// whitespace ignored) or falls back to the first sheet in declared order.
func SelectSheet(names []string) (string, bool) {
	for _, name := range names {
		if strings.ToLower(strings.TrimSpace(name)) == PreferredSheet {
			return name, true
		}
	}
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// OpenTable reads filePath as a workbook when its extension says so and as
// delimited text otherwise.
func OpenTable(filePath string) (*Table, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, &IOError{Path: filePath, Err: err}
	}
	if info.IsDir() {
		return nil, &IOError{Path: filePath, Err: errors.New("is a directory")}
	}

	if validation.IsSpreadsheet(filePath) {
		return readWorkbook(filePath)
	}
	return readDelimited(filePath)
}

func readWorkbook(filePath string) (*Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "cannot open workbook", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.L.Warn("Failed to close workbook", "path", filePath, "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	sheet, ok := SelectSheet(sheets)
	if !ok {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "workbook has no sheets"}
	}
	logger.L.Debug("Selected worksheet", "path", filePath, "sheet", sheet, "available", sheets)

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "cannot read sheet " + sheet, Err: err}
	}
	return newTable(filePath, rows, sheet, true)
}

func readDelimited(filePath string) (*Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &IOError{Path: filePath, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "content is not UTF-8 delimited text"}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	// Hand-typed cells such as `BRK "B"` keep their quotes as text.
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "malformed delimited text", Err: err}
	}
	return newTable(filePath, rows, "", false)
}

// detectDelimiter picks ';' or tab over ',' when it dominates the header line.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	commas := bytes.Count(line, []byte{','})
	best, bestCount := ',', commas
	for _, candidate := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func newTable(filePath string, rows [][]string, sheet string, spreadsheet bool) (*Table, error) {
	// The header is the first row with any content.
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &UnsupportedFormatError{Path: filePath, Reason: "no header row"}
	}
	t := &Table{
		Header:      rows[0],
		Rows:        make([][]string, 0, len(rows)-1),
		Sheet:       sheet,
		Spreadsheet: spreadsheet,
	}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Ext returns the lower-cased extension used for format selection.
func Ext(filePath string) string {
	return strings.ToLower(filepath.Ext(filePath))
}
