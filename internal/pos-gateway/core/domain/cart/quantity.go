package cart

import (
	"strconv"
	"strings"
)

// NormalizeQuantity clamps non-positive quantities to 1.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ParseQuantity coerces raw UI input into a quantity. It reads the leading
// integer of the trimmed input ("3", "3 uds", "+2") and falls back to 1 when
// there is none or the value is not positive.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	q, err := strconv.Atoi(s[:end])
	if err != nil {
		return 1
	}
	return NormalizeQuantity(q)
}
