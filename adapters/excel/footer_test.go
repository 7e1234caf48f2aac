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
	"invoicegen/internal/errors"
)

func newFooterFixture(t *testing.T) (*excelize.File, string, *FooterBuilder) {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	sheet := f.GetSheetName(0)
	styler := NewCellStyler(f, style.NewRegistry(nil, nil))
	return f, sheet, NewFooterBuilder(f, sheet, styler)
}

func footerHeader() layout.HeaderInfo {
	return flatHeader(1, "col_no", "col_desc", "col_pcs", "col_sqft")
}

func regularFooterConfig() layout.FooterConfig {
	return layout.FooterConfig{
		Kind:              layout.FooterRegular,
		TotalTextColumnID: "col_no",
		PalletColumnID:    "col_desc",
		SumColumnIDs:      []core.ColumnID{"col_pcs", "col_sqft"},
	}
}

func TestFooterBuilder_RegularFooter(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9, TotalPallets: 3}
	next, err := b.Build(regularFooterConfig(), footerHeader(), footer, []layout.RowRange{layout.NewRowRange(2, 9)})
	require.NoError(t, err)
	assert.Equal(t, 11, next)

	got, _ := f.GetCellValue(sheet, "A10")
	assert.Equal(t, "TOTAL:", got)
	got, _ = f.GetCellValue(sheet, "B10")
	assert.Equal(t, "3 PALLETS", got)

	formula, err := f.GetCellFormula(sheet, "C10")
	require.NoError(t, err)
	assert.Contains(t, formula, "SUM(C2:C9)")
	formula, _ = f.GetCellFormula(sheet, "D10")
	assert.Contains(t, formula, "SUM(D2:D9)")
}

func TestFooterBuilder_MultiRangeSum(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	ranges := []layout.RowRange{
		layout.NewRowRange(2, 4),
		layout.NewRowRange(0, 0), // empty, must drop out of the formula
		layout.NewRowRange(6, 8),
	}
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 8}
	_, err := b.Build(regularFooterConfig(), footerHeader(), footer, ranges)
	require.NoError(t, err)

	formula, err := f.GetCellFormula(sheet, "C10")
	require.NoError(t, err)
	assert.Contains(t, formula, "C2:C4,C6:C8")
}

func TestFooterBuilder_SinglePallet(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9, TotalPallets: 1}
	_, err := b.Build(regularFooterConfig(), footerHeader(), footer, nil)
	require.NoError(t, err)

	got, _ := f.GetCellValue(sheet, "B10")
	assert.Equal(t, "1 PALLET", got)
}

func TestFooterBuilder_BlankRowBefore(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.BlankRowBefore = true
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9}
	next, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, next)

	got, _ := f.GetCellValue(sheet, "A10")
	assert.Empty(t, got, "spacer row stays blank")
	got, _ = f.GetCellValue(sheet, "A11")
	assert.Equal(t, "TOTAL:", got)
}

func TestFooterBuilder_Banner(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.Banner = layout.BannerConfig{Enabled: true, ColumnID: "col_no", Text: "HS CODE: 4107.12", Merge: 3}
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9}
	next, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, next, "banner consumes one row before the total")

	got, _ := f.GetCellValue(sheet, "A10")
	assert.Equal(t, "HS CODE: 4107.12", got)
	got, _ = f.GetCellValue(sheet, "A11")
	assert.Equal(t, "TOTAL:", got)

	merges, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A10", merges[0].GetStartAxis())
	assert.Equal(t, "C10", merges[0].GetEndAxis())
}

func TestFooterBuilder_GrandTotalDefaults(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.Kind = layout.FooterGrandTotal
	// Banners belong to regular footers; a grand total never renders one.
	cfg.Banner = layout.BannerConfig{Enabled: true, ColumnID: "col_no", Text: "SHOULD NOT APPEAR"}
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9, TotalPallets: 5}
	next, err := b.Build(cfg, footerHeader(), footer, []layout.RowRange{layout.NewRowRange(2, 9)})
	require.NoError(t, err)
	assert.Equal(t, 11, next)

	got, _ := f.GetCellValue(sheet, "A10")
	assert.Equal(t, "TOTAL OF:", got)
	got, _ = f.GetCellValue(sheet, "B10")
	assert.Equal(t, "5 PALLETS", got)
}

func TestFooterBuilder_WeightSummaryRows(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.WeightSummary = layout.WeightSummaryConfig{Enabled: true, LabelColumnID: "col_desc", ValueColumnID: "col_pcs"}
	footer := table.FooterData{
		FooterRowStart: 10,
		DataStartRow:   2,
		DataEndRow:     9,
		WeightSummary:  table.WeightSummary{Net: 1234.5, Gross: 1300.25},
	}
	next, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)
	assert.Equal(t, 13, next, "main row plus net and gross rows")

	got, _ := f.GetCellValue(sheet, "B11")
	assert.Equal(t, "NW(KGS)", got)
	got, _ = f.GetCellValue(sheet, "B12")
	assert.Equal(t, "GW(KGS):", got)

	raw := excelize.Options{RawCellValue: true}
	got, _ = f.GetCellValue(sheet, "C11", raw)
	assert.Equal(t, "1234.5", got)
	got, _ = f.GetCellValue(sheet, "C12", raw)
	assert.Equal(t, "1300.25", got)
}

func TestFooterBuilder_LeatherSummaryOnGrandTotal(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.Kind = layout.FooterGrandTotal
	cfg.PalletColumnID = "col_sqft"
	cfg.LeatherSummary = layout.LeatherSummaryConfig{Enabled: true}
	footer := table.FooterData{
		FooterRowStart: 10,
		DataStartRow:   2,
		DataEndRow:     9,
		LeatherSummary: table.LeatherSummary{
			table.LeatherBuffalo: {PalletCount: 2, ColumnSums: map[core.ColumnID]float64{"col_pcs": 500}},
			table.LeatherCow:     {}, // nothing to report, row skipped
		},
	}
	next, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, next, "one add-on row for the single non-empty type")

	got, _ := f.GetCellValue(sheet, "A11")
	assert.Equal(t, "TOTAL OF:", got)
	got, _ = f.GetCellValue(sheet, "B11")
	assert.Equal(t, "BUFFALO LEATHER", got)
	got, _ = f.GetCellValue(sheet, "D11")
	assert.Equal(t, "2 PALLETS", got)
	raw := excelize.Options{RawCellValue: true}
	got, _ = f.GetCellValue(sheet, "C11", raw)
	assert.Equal(t, "500", got)
}

func TestFooterBuilder_NumericColumnReference(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.TotalTextColumnID = "1" // zero-based index form: second grid column
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9}
	_, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)

	got, _ := f.GetCellValue(sheet, "B10")
	assert.Equal(t, "TOTAL:", got)
}

func TestFooterBuilder_MergeRules(t *testing.T) {
	f, sheet, b := newFooterFixture(t)

	cfg := regularFooterConfig()
	cfg.MergeRules = []layout.MergeRule{{StartColumnID: "col_pcs", Colspan: 5}}
	footer := table.FooterData{FooterRowStart: 10, DataStartRow: 2, DataEndRow: 9}
	_, err := b.Build(cfg, footerHeader(), footer, nil)
	require.NoError(t, err)

	// Colspan 5 from column C would overrun the header; the merge clamps
	// to the last header column.
	merges, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "C10", merges[0].GetStartAxis())
	assert.Equal(t, "D10", merges[0].GetEndAxis())
}

func TestFooterBuilder_InvalidStartRow(t *testing.T) {
	_, _, b := newFooterFixture(t)

	_, err := b.Build(regularFooterConfig(), footerHeader(), table.FooterData{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
