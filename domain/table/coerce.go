package table

import (
	"math"
	"strconv"
	"strings"
)

// AsFloat converts ints, floats and numeric-looking strings to float64.
// Anything without a numeric reading (nil, formula specs, free text)
// returns 0; the fold loops rely on that so one odd cell never aborts a
// summary.
func AsFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		cleaned := strings.TrimSpace(t)
		if cleaned == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	}
	return 0
}

// AsInt converts like AsFloat but truncates toward zero, so "10.5" counts
// ten pallets, not eleven.
func AsInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case float32:
		return int(t)
	case string:
		cleaned := strings.TrimSpace(t)
		if cleaned == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// CoerceCell normalizes a resolved value for writing: empty strings become
// nil (a true empty cell, not an empty text cell), numeric-looking strings
// become numbers, and floats that carry an integer value become ints so the
// sheet shows 12 rather than 12.0. Everything else passes through.
func CoerceCell(v any) any {
	switch t := v.(type) {
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return normalizeFloat(f)
		}
		return t
	case float64:
		return normalizeFloat(t)
	case float32:
		return normalizeFloat(float64(t))
	}
	return v
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return f
}
