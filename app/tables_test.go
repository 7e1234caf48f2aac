package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicegen/domain/table"
)

func TestSortedTableKeys_NumericFirst(t *testing.T) {
	tables := map[string]any{
		"10":      nil,
		"2":       nil,
		"1":       nil,
		"extra":   nil,
		"addenda": nil,
	}
	assert.Equal(t, []string{"1", "2", "10", "addenda", "extra"}, sortedTableKeys(tables))
}

func TestGlobalWeights_SumsAcrossTables(t *testing.T) {
	data := map[string]any{
		"processed_tables_data": map[string]any{
			"1": map[string]any{
				"weight_summary": map[string]any{"net": 515.5, "gross": 550.0},
			},
			"2": map[string]any{
				// Nested under footer_data, the other shape the parser emits.
				"footer_data": map[string]any{
					"weight_summary": map[string]any{"net": 150.0, "gross": 160.0},
				},
			},
		},
	}

	total := globalWeights(data)
	assert.InDelta(t, 665.5, total.Net, 1e-9)
	assert.InDelta(t, 710.0, total.Gross, 1e-9)
}

func TestGlobalWeights_NoTables(t *testing.T) {
	assert.True(t, globalWeights(map[string]any{}).IsZero())
}

func TestDecodeLeatherSummary(t *testing.T) {
	raw := map[string]any{
		"BUFFALO": map[string]any{
			"pallet_count": 2.0,
			"col_sqft":     1600.25,
		},
		"COW": map[string]any{
			"pallet_count": 3.0,
			"col_sqft":     2400.5,
		},
	}

	summary := decodeLeatherSummary(raw)

	buffalo := summary[table.LeatherBuffalo]
	assert.Equal(t, 2, buffalo.PalletCount)
	assert.InDelta(t, 1600.25, buffalo.ColumnSums["col_sqft"], 1e-9)

	cow := summary[table.LeatherCow]
	assert.Equal(t, 3, cow.PalletCount)
	assert.InDelta(t, 2400.5, cow.ColumnSums["col_sqft"], 1e-9)
}

func TestSheetDataSource_Mapping(t *testing.T) {
	data := map[string]any{
		"standard_aggregation_results": "std",
		"custom_aggregation_results":   "custom",
		"processed_tables_data":        "tables",
	}

	cases := map[string]any{
		"aggregation":            "std",
		"DAF_aggregation":        "std",
		"custom_aggregation":     "custom",
		"processed_tables":       "tables",
		"processed_tables_multi": "tables",
		"something_else":         "std",
	}
	for source, want := range cases {
		assert.Equal(t, want, sheetDataSource(source, data), "source %s", source)
	}
}
