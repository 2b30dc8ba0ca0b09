package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrency   = regexp.MustCompile(`(?i)€|\$|£|\bEUR\b`)
	reAllSpaces  = regexp.MustCompile(`[\s\p{Z}]+`)
	reDigitsOnly = regexp.MustCompile(`^\d+$`)
)

// ParseNumber reads PT/EN formatted decimals. A comma is always the decimal
// mark (dots before it are thousands separators). Without a comma, a final
// dot group of 2-3 digits is the decimal part, otherwise dots are thousands
// separators: "8.297" -> 8.297, "1.5" -> 15, "1.277,00" -> 1277.
func ParseNumber(input string) (float64, bool) {
	s := reCurrency.ReplaceAllString(input, "")
	s = reAllSpaces.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		last := parts[len(parts)-1]
		if len(last) >= 2 && len(last) <= 3 && reDigitsOnly.MatchString(last) {
			s = strings.Join(parts[:len(parts)-1], "") + "." + last
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
