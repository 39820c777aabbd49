// Package normalize converts locale-ambiguous amount and date strings into
// canonical values. Imported spreadsheets mix Brazilian (1.234,56) and
// international (1,234.56) conventions, often in the same file.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a raw amount string into a decimal value.
//
// Currency symbols and whitespace are stripped. The separator that occurs
// last in the string is treated as the decimal separator and the other one
// as a thousands separator. Parenthesized values are negative. Anything that
// does not survive cleanup parses to zero - callers must treat zero as
// "invalid, skip this row", never as a legitimate free transaction.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	// Drop currency symbols, spaces and any other decoration.
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return decimal.Zero
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		// Brazilian: comma is the decimal separator.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot > lastComma:
		// International: dot is the decimal separator.
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

var fallbackLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"20060102",
}

// ParseDate converts a raw date string into a calendar date.
//
// Slash-separated dates are resolved positionally: a 4-digit year above 1900
// in the last part means day/month/year, in the first part year/month/day.
// Everything else goes through a small set of fallback layouts. Unparseable
// input resolves to now - a lossy fallback, but an import must not stall on
// one bad cell.
func ParseDate(raw string, now time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 3 {
			if t, ok := dateFromParts(parts[2], parts[1], parts[0]); ok {
				return t // day/month/year
			}
			if t, ok := dateFromParts(parts[0], parts[1], parts[2]); ok {
				return t // year/month/day
			}
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// dateFromParts builds a date when yearStr is a plausible 4-digit year.
func dateFromParts(yearStr, monthStr, dayStr string) (time.Time, bool) {
	if len(strings.TrimSpace(yearStr)) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil || year <= 1900 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthStr))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
