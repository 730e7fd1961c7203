package utils

import (
	"strings"
	"time"
)

const DefaultDateFormat = "02-01-2006"

// dateLayouts are tried in order. Slash and dash forms with the day first
// follow the dd-mm-yyyy convention of the source spreadsheets.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	DefaultDateFormat,
	"02/01/2006",
	"02.01.2006",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"2-1-2006",
	"2/1/2006",
}

// ParseDate parses a date string in any of the known layouts and returns the
// calendar day at UTC midnight. ok is false when no layout matches.
func ParseDate(dateStr string) (t time.Time, ok bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, dateStr); err == nil {
			return TruncateToDay(parsed), true
		}
	}
	return time.Time{}, false
}

// TruncateToDay drops the time of day, keeping the calendar date in t's zone.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
