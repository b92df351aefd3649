package timetable

import (
	"math"
	"strconv"
	"strings"
)

// ParseSequence converts a cell to an integer. It never fails: empty,
// non-numeric, non-finite and out-of-range input all yield 0. A decimal value
// is truncated toward zero, so "12.0" and "12.7" both give 12.
func ParseSequence(cell string) int64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}

	f := ParseDistance(s)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// ParseDistance converts a cell to a float. Empty, non-numeric and non-finite
// input yield 0.
func ParseDistance(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// StripStationName removes trailing commas. Applying it twice is the same as
// applying it once.
func StripStationName(name string) string {
	return strings.TrimRight(name, ",")
}
