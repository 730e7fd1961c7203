package parsers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/username/inversiones/src/utils"
	"github.com/xuri/excelize/v2"
)

// Serial day numbers outside this range are not treated as workbook dates.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// coerceFloat parses a numeric cell. Anything that is not a plain finite
// number, including empty cells and locale-formatted values such as "1.234,5",
// yields nil.
func coerceFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// coerceDate parses a date cell. Workbook cells may also hold serial day
// numbers, which are converted with the 1900 date system.
func coerceDate(raw string, spreadsheet bool) *time.Time {
	if t, ok := utils.ParseDate(raw); ok {
		return &t
	}
	if !spreadsheet {
		return nil
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	t = utils.TruncateToDay(t)
	return &t
}

// coerceText keeps the cell verbatim; blank cells become nil.
func coerceText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}
