package sheet

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// excelEpoch is day zero of the 1900 date system. Using Dec 30 instead of
// Dec 31 absorbs the classic lotus leap-year bug, so serial 45292 lands on
// 2024-01-01 like every spreadsheet host renders it.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseAmount turns a raw cell into a number. Currency glyphs and whitespace
// are stripped; when both '.' and ',' appear, whichever occurs later is the
// decimal separator and the other marks thousands. A lone comma is a decimal
// separator only when it looks like one (a single comma with one or two
// trailing digits) and marks thousands otherwise, so "3,209" reads as 3209
// while "12,5" reads as 12.5. Unparseable input yields 0, never an error, so
// one bad cell cannot sink a whole row.
func ParseAmount(raw string) float64 {
	var cleaned strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	// Currency markers like "Rs." leave an orphan separator at the front;
	// drop it as long as a real separator remains further in.
	s := cleaned.String()
	for len(s) > 0 && (s[0] == '.' || s[0] == ',') && strings.ContainsAny(s[1:], ".,") {
		s = s[1:]
	}
	if s == "" || s == "." || s == "," {
		return 0
	}

	decimalAt := decimalIndex(s)

	var num strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', ',':
			if i == decimalAt {
				num.WriteByte('.')
			}
			// earlier separators mark thousands
		default:
			num.WriteByte(s[i])
		}
	}

	f, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// decimalIndex picks the decimal separator position, or -1 when every
// separator marks thousands.
func decimalIndex(s string) int {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both kinds present: the rightmost one is the decimal separator.
		if lastComma > lastDot {
			return lastComma
		}
		return lastDot
	case lastDot >= 0:
		return lastDot
	case lastComma >= 0:
		// A comma is only a decimal separator in the European style:
		// exactly one comma, one or two digits after it.
		trailing := len(s) - lastComma - 1
		if strings.Count(s, ",") == 1 && trailing >= 1 && trailing <= 2 {
			return lastComma
		}
		return -1
	default:
		return -1
	}
}

// ParseDate normalizes a raw cell to an ISO YYYY-MM-DD string. Numeric input
// is read as a spreadsheet date serial. String input is tried against
// DD-MM-YYYY and YYYY-MM-DD (with '-' or '/' separators); anything else comes
// back trimmed but unconverted. Empty output means "no date", which is a
// legitimate signal, not an error.
func ParseDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return ""
		}
		return excelEpoch.AddDate(0, 0, int(serial)).Format("2006-01-02")
	}

	normalized := strings.ReplaceAll(s, "/", "-")
	for _, layout := range []string{"02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
