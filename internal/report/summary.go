package report

import (
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// quantityColumns names the payload columns worth summarizing. Anything
// else in the table data is identifiers or free text.
var quantityColumns = []string{"pcs", "sqft", "pallet_count", "net", "gross", "cbm"}

// ColumnStats summarizes one numeric payload column across every table.
type ColumnStats struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Summarize folds the quantity columns of a processed-tables payload
// (table key -> column-oriented data) into per-column statistics. Values
// that do not parse as numbers are skipped, matching how the payload
// mixes numeric strings with real numbers.
func Summarize(tables map[string]any) map[string]ColumnStats {
	series := make(map[string][]float64)

	for _, raw := range tables {
		tableData, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, col := range quantityColumns {
			list, ok := tableData[col].([]any)
			if !ok {
				continue
			}
			for _, v := range list {
				if f, ok := toFloat(v); ok {
					series[col] = append(series[col], f)
				}
			}
		}
	}

	if len(series) == 0 {
		return nil
	}

	summary := make(map[string]ColumnStats, len(series))
	for col, values := range series {
		cs := ColumnStats{
			Total: floats.Sum(values),
			Count: len(values),
		}
		if mean, err := stats.Mean(values); err == nil {
			cs.Mean = mean
		}
		if median, err := stats.Median(values); err == nil {
			cs.Median = median
		}
		if max, err := stats.Max(values); err == nil {
			cs.Max = max
		}
		summary[col] = cs
	}
	return summary
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
