package dart

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrEmptyAmount = errors.New("empty amount")

var reDigits = regexp.MustCompile(`[,\s]`)

// ParseAmount parses a DART amount string such as "1,234,567" or "-12,000".
// Blank values and "-" are reported as ErrEmptyAmount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, ErrEmptyAmount
	}

	s = reDigits.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, "%")

	// 괄호 음수 표기: (1,000)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if negative {
		v = -v
	}
	return v, nil
}
