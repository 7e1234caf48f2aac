package table

import (
	"testing"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
)

func calcHeader() layout.HeaderInfo {
	return layout.HeaderInfo{
		FirstRow:   5,
		SecondRow:  6,
		NumColumns: 5,
		Columns: map[core.ColumnID]int{
			"col_no":     1,
			"col_desc":   2,
			"col_qty_sf": 3,
			"col_net":    4,
			"col_gross":  5,
		},
		Colspans: map[core.ColumnID]int{},
	}
}

func TestCalculate_RowArithmetic(t *testing.T) {
	data := ResolvedTable{
		Rows: []Row{
			{"col_desc": "COW LEATHER", "col_qty_sf": 100.0},
			{"col_desc": "COW LEATHER", "col_qty_sf": 50.0},
		},
	}

	footer := Calculate(calcHeader(), data)

	if footer.DataStartRow != 7 {
		t.Errorf("data starts at %d, want 7 (second header row + 1)", footer.DataStartRow)
	}
	if footer.DataEndRow != 8 {
		t.Errorf("data ends at %d, want 8", footer.DataEndRow)
	}
	if footer.FooterRowStart != 9 {
		t.Errorf("footer starts at %d, want 9", footer.FooterRowStart)
	}
	if !footer.HasData() {
		t.Error("two rows should report data")
	}
}

func TestCalculate_EmptyTable(t *testing.T) {
	footer := Calculate(calcHeader(), ResolvedTable{})

	// No rows: the data range is empty and the footer lands where the first
	// data row would have been.
	if footer.HasData() {
		t.Error("empty table must not report data")
	}
	if footer.FooterRowStart != 7 {
		t.Errorf("footer starts at %d, want 7", footer.FooterRowStart)
	}
	if footer.DataRange().Count() != 0 {
		t.Errorf("data range should be empty, got %d rows", footer.DataRange().Count())
	}
}

func TestCalculate_WeightFold(t *testing.T) {
	data := ResolvedTable{
		Rows: []Row{
			{"col_net": 120.5, "col_gross": "130.5"},
			{"col_net": "80", "col_gross": 90},
			{"col_net": "n/a", "col_gross": nil}, // no numeric reading, counts as zero
		},
	}

	footer := Calculate(calcHeader(), data)

	if footer.WeightSummary.Net != 200.5 {
		t.Errorf("net = %v, want 200.5", footer.WeightSummary.Net)
	}
	if footer.WeightSummary.Gross != 220.5 {
		t.Errorf("gross = %v, want 220.5", footer.WeightSummary.Gross)
	}
}

func TestCalculate_PrecomputedSummariesWinVerbatim(t *testing.T) {
	pallets := 42
	data := ResolvedTable{
		Rows: []Row{
			{"col_desc": "BUFFALO LEATHER", "col_net": 999.0},
		},
		PalletCounts: []any{"7"},
		WeightSummary: &WeightSummary{
			Net:   1.5,
			Gross: 2.5,
		},
		LeatherSummary: LeatherSummary{
			LeatherBuffalo: {PalletCount: 3, ColumnSums: map[core.ColumnID]float64{"col_qty_sf": 10}},
		},
		PalletTotal: &pallets,
	}

	footer := Calculate(calcHeader(), data)

	if footer.WeightSummary.Net != 1.5 || footer.WeightSummary.Gross != 2.5 {
		t.Errorf("precomputed weights not used verbatim: %+v", footer.WeightSummary)
	}
	if footer.TotalPallets != 42 {
		t.Errorf("precomputed pallet total ignored: %d", footer.TotalPallets)
	}
	if got := footer.LeatherSummary[LeatherBuffalo].PalletCount; got != 3 {
		t.Errorf("precomputed leather summary ignored: pallets %d", got)
	}
}

func TestCalculate_LeatherClassification(t *testing.T) {
	data := ResolvedTable{
		Rows: []Row{
			{"col_desc": "Buffalo Split Leather", "col_qty_sf": 100.0},
			{"col_desc": "COW CRUST", "col_qty_sf": 60.0},
			{"col_desc": "finished leather", "col_qty_sf": 40.0}, // no buffalo mention -> cow
		},
		PalletCounts: []any{2, 1, "3"},
	}

	footer := Calculate(calcHeader(), data)

	buffalo := footer.LeatherSummary[LeatherBuffalo]
	cow := footer.LeatherSummary[LeatherCow]

	if buffalo.PalletCount != 2 {
		t.Errorf("buffalo pallets = %d, want 2", buffalo.PalletCount)
	}
	if cow.PalletCount != 4 {
		t.Errorf("cow pallets = %d, want 4", cow.PalletCount)
	}
	if buffalo.ColumnSums["col_qty_sf"] != 100 {
		t.Errorf("buffalo qty = %v, want 100", buffalo.ColumnSums["col_qty_sf"])
	}
	if cow.ColumnSums["col_qty_sf"] != 100 {
		t.Errorf("cow qty = %v, want 100", cow.ColumnSums["col_qty_sf"])
	}
	if footer.TotalPallets != 6 {
		t.Errorf("total pallets = %d, want 6", footer.TotalPallets)
	}
}

func TestCalculate_LongWeightIDPreferred(t *testing.T) {
	header := calcHeader()
	header.Columns["col_net_weight"] = 6
	data := ResolvedTable{
		Rows: []Row{
			{"col_net_weight": 10.0, "col_net": 99.0},
		},
	}

	footer := Calculate(header, data)
	if footer.WeightSummary.Net != 10 {
		t.Errorf("col_net_weight should shadow col_net, got net %v", footer.WeightSummary.Net)
	}
}

func TestLeatherTotals_IsZero(t *testing.T) {
	if !(LeatherTotals{}).IsZero() {
		t.Error("empty totals should be zero")
	}
	if (LeatherTotals{PalletCount: 1}).IsZero() {
		t.Error("pallets make totals nonzero")
	}
	sums := LeatherTotals{ColumnSums: map[core.ColumnID]float64{"col_qty_sf": 0.5}}
	if sums.IsZero() {
		t.Error("column sums make totals nonzero")
	}
}

func TestLeatherType_DisplayText(t *testing.T) {
	if LeatherCow.DisplayText() != "LEATHER" {
		t.Errorf("cow display = %q", LeatherCow.DisplayText())
	}
	if LeatherBuffalo.DisplayText() != "BUFFALO LEATHER" {
		t.Errorf("buffalo display = %q", LeatherBuffalo.DisplayText())
	}
}
