package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/style"
	"invoicegen/domain/table"
	"invoicegen/internal/testkit"
)

func intPtr(n int) *int { return &n }

func processorLayout(headerRow int) layout.SheetLayout {
	return layout.SheetLayout{
		HeaderRow: headerRow,
		Columns: []layout.ColumnDef{
			{ID: "col_no", Header: "NO."},
			{ID: "col_desc", Header: "DESCRIPTION"},
			{ID: "col_pcs", Header: "PCS"},
		},
		Footer: layout.FooterConfig{
			Kind:              layout.FooterRegular,
			TotalTextColumnID: "col_no",
			PalletColumnID:    "col_desc",
			SumColumnIDs:      []core.ColumnID{"col_pcs"},
		},
	}
}

func resolvedRows(pcs ...int) []table.Row {
	rows := make([]table.Row, len(pcs))
	for i, n := range pcs {
		rows[i] = table.Row{"col_no": i + 1, "col_desc": "COW LEATHER", "col_pcs": n}
	}
	return rows
}

func TestSheetProcessor_SingleTable(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	result, err := NewSheetProcessor(f, sheet).Process(SheetParams{
		Layout: processorLayout(1),
		Styles: style.NewRegistry(nil, nil),
		Tables: []table.ResolvedTable{{Rows: resolvedRows(100, 200)}},
	})
	require.NoError(t, err)

	require.Len(t, result.Tables, 1)
	assert.False(t, result.GrandTotal, "one table never gets a grand total")
	assert.Equal(t, 2, result.RowsOut)
	assert.Equal(t, 5, result.NextRow)

	got, _ := f.GetCellValue(sheet, "A4")
	assert.Equal(t, "TOTAL:", got)
	formula, _ := f.GetCellFormula(sheet, "C4")
	assert.Contains(t, formula, "SUM(C2:C3)")
}

func TestSheetProcessor_NoTables(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	result, err := NewSheetProcessor(f, sheet).Process(SheetParams{
		Layout: processorLayout(5),
		Styles: style.NewRegistry(nil, nil),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	assert.Equal(t, 5, result.NextRow)
}

func TestSheetProcessor_MultiTableGrandTotal(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	sheetLayout := processorLayout(1)
	sheetLayout.Footer.WeightSummary = layout.WeightSummaryConfig{
		Enabled:       true,
		LabelColumnID: "col_desc",
		ValueColumnID: "col_pcs",
	}

	tables := []table.ResolvedTable{
		{
			Rows:          resolvedRows(100, 200),
			PalletTotal:   intPtr(2),
			WeightSummary: &table.WeightSummary{Net: 100, Gross: 110},
		},
		{
			Rows:          resolvedRows(300, 400),
			PalletTotal:   intPtr(3),
			WeightSummary: &table.WeightSummary{Net: 50, Gross: 60},
		},
	}

	result, err := NewSheetProcessor(f, sheet).Process(SheetParams{
		Layout: sheetLayout,
		Styles: style.NewRegistry(nil, nil),
		Tables: tables,
	})
	require.NoError(t, err)

	require.Len(t, result.Tables, 2)
	assert.True(t, result.GrandTotal)
	assert.Equal(t, 4, result.RowsOut)

	// Table one: header 1, data 2-3, footer 4. One spacer row, then
	// table two: header 6, data 7-8, footer 9. Grand total block 10-12.
	got, _ := f.GetCellValue(sheet, "A4")
	assert.Equal(t, "TOTAL:", got)
	got, _ = f.GetCellValue(sheet, "A9")
	assert.Equal(t, "TOTAL:", got)
	got, _ = f.GetCellValue(sheet, "A10")
	assert.Equal(t, "TOTAL OF:", got)
	assert.Equal(t, 13, result.NextRow)

	// Per-table footers lose the weight add-on on multi-table sheets;
	// the spacer row between the tables stays blank.
	got, _ = f.GetCellValue(sheet, "B5")
	assert.Empty(t, got)

	// Pallet counts: per table, then summed on the grand total.
	got, _ = f.GetCellValue(sheet, "B4")
	assert.Equal(t, "2 PALLETS", got)
	got, _ = f.GetCellValue(sheet, "B10")
	assert.Equal(t, "5 PALLETS", got)

	// The grand total sums every table's data range in one formula.
	formula, _ := f.GetCellFormula(sheet, "C10")
	assert.Contains(t, formula, "C2:C3,C7:C8")

	// Weight rows render once, under the grand total, with summed values.
	got, _ = f.GetCellValue(sheet, "B11")
	assert.Equal(t, "NW(KGS)", got)
	raw := excelize.Options{RawCellValue: true}
	got, _ = f.GetCellValue(sheet, "C11", raw)
	assert.Equal(t, "150", got)
	got, _ = f.GetCellValue(sheet, "C12", raw)
	assert.Equal(t, "170", got)
}

func TestSheetProcessor_GlobalWeightsSubstituteZeroFold(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	sheetLayout := processorLayout(1)
	sheetLayout.Footer.WeightSummary = layout.WeightSummaryConfig{
		Enabled:       true,
		LabelColumnID: "col_desc",
		ValueColumnID: "col_pcs",
	}

	// The table's rows carry no weight columns, so its own fold is zero.
	_, err := NewSheetProcessor(f, sheet).Process(SheetParams{
		Layout:        sheetLayout,
		Styles:        style.NewRegistry(nil, nil),
		Tables:        []table.ResolvedTable{{Rows: resolvedRows(100)}},
		GlobalWeights: table.WeightSummary{Net: 77.5, Gross: 80},
	})
	require.NoError(t, err)

	// Main total row sits on 4; the substituted weights render on 5-6.
	raw := excelize.Options{RawCellValue: true}
	got, _ := f.GetCellValue(sheet, "C5", raw)
	assert.Equal(t, "77.5", got)
	got, _ = f.GetCellValue(sheet, "C6", raw)
	assert.Equal(t, "80", got)
}

func TestSheetProcessor_TemplateRoundTrip(t *testing.T) {
	opts := testkit.DefaultTemplateOptions()
	f, err := testkit.NewKit().BuildTemplate(opts)
	require.NoError(t, err)
	defer f.Close()

	footerStart, err := DetectFooterStart(f, opts.Sheet, opts.HeaderRow)
	require.NoError(t, err)
	snap, err := CaptureSnapshot(f, opts.Sheet, opts.HeaderRow-1, footerStart)
	require.NoError(t, err)

	result, err := NewSheetProcessor(f, opts.Sheet).Process(SheetParams{
		Layout:   processorLayout(opts.HeaderRow),
		Styles:   style.NewRegistry(nil, nil),
		Snapshot: snap,
		Tables:   []table.ResolvedTable{{Rows: resolvedRows(100, 200)}},
	})
	require.NoError(t, err)

	// Decorative header survives the rebuild.
	got, _ := f.GetCellValue(opts.Sheet, "A2")
	assert.Equal(t, "PACKING LIST", got)

	// The engine's own header and footer replace the template's sample
	// table: header 5, data 6-7, footer 8.
	got, _ = f.GetCellValue(opts.Sheet, "A5")
	assert.Equal(t, "NO.", got)
	got, _ = f.GetCellValue(opts.Sheet, "A8")
	assert.Equal(t, "TOTAL:", got)
	formula, _ := f.GetCellFormula(opts.Sheet, "C8")
	assert.Contains(t, formula, "SUM(C6:C7)")

	// The captured template footer replays under the rendered table: its
	// total row shifts from template row 8 to row 9, the signature row
	// from 10 to 11.
	got, _ = f.GetCellValue(opts.Sheet, "A9")
	assert.Equal(t, opts.FooterText, got)
	got, _ = f.GetCellValue(opts.Sheet, "A11")
	assert.Equal(t, "AUTHORIZED SIGNATURE", got)
	assert.Equal(t, 12, result.NextRow)
}
