package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// OCR digit confusions repaired by NormalizeDecimal. Character repairs run
// before separator disambiguation: digit context must be established first,
// otherwise "l,234" style tokens misclassify their separators.
var (
	oneBetweenDigits  = regexp.MustCompile(`(\d)[lI]([\d.])`)
	oneAtTokenEnd     = regexp.MustCompile(`(\d)[lI]$`)
	oneAtTokenStart   = regexp.MustCompile(`^[lI](\d)`)
	zeroBetweenDigits = regexp.MustCompile(`(\d)O([\d.])`)
	zeroAtTokenStart  = regexp.MustCompile(`^O([\d.])`)
	zeroAtTokenEnd    = regexp.MustCompile(`(\d)O$`)
)

// NormalizeDecimal repairs common OCR confusions in a numeric token and
// parses it as a float. "l" and "I" adjacent to digits become "1", "O"
// adjacent to digits becomes "0". A token containing both "," and "." is
// read with "," as a thousands separator; "," alone is read as the decimal
// separator. Unparseable input yields 0.0; this function never fails.
func NormalizeDecimal(s string) float64 {
	s = replaceUntilStable(s, oneBetweenDigits, "${1}1$2")
	s = oneAtTokenEnd.ReplaceAllString(s, "${1}1")
	s = oneAtTokenStart.ReplaceAllString(s, "1$1")
	s = replaceUntilStable(s, zeroBetweenDigits, "${1}0$2")
	s = zeroAtTokenStart.ReplaceAllString(s, "0$1")
	s = zeroAtTokenEnd.ReplaceAllString(s, "${1}0")

	// Separator disambiguation: with both "," and "." present, the one
	// occurring last is the decimal separator and the other marks thousands
	// groups ("1,234.56" and "1.234,56" both mean 1234.56). A lone comma is
	// a decimal separator.
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0.0
	}
	return v
}

// replaceUntilStable applies re repeatedly until the string stops changing.
// The in-digit-context repairs consume their surrounding digits, so adjacent
// confusions ("2l2l2") need a second pass to all be caught.
func replaceUntilStable(s string, re *regexp.Regexp, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}
