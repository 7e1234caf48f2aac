package excel

import (
	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/style"
	"invoicegen/domain/table"
	"invoicegen/internal"
)

// SheetParams carries one sheet's full rendering input: the compiled
// structure and styles, the mode, the captured template snapshot, and the
// resolved tables in render order.
type SheetParams struct {
	Layout layout.SheetLayout
	Styles style.Registry
	Mode   layout.Mode

	// Snapshot is the sheet's captured decorative state; nil renders the
	// tables without any template restoration.
	Snapshot *TemplateSnapshot

	// Tables holds one ResolvedTable per logical table, already in order.
	Tables []table.ResolvedTable

	// GlobalWeights carries cross-table weight totals computed elsewhere;
	// they substitute for any table (or grand total) whose own weights
	// fold to zero.
	GlobalWeights table.WeightSummary
}

// SheetResult reports where everything on one sheet landed.
type SheetResult struct {
	Tables     []TableResult
	NextRow    int
	GrandTotal bool
	RowsOut    int
}

// SheetProcessor renders all logical tables of one sheet, stacks a grand
// total under them when there is more than one, and finally replays the
// decorative template footer at the true last row. Table N+1 starts only
// once table N's next free row is known; the whole pass is strictly
// sequential.
type SheetProcessor struct {
	file   *excelize.File
	sheet  string
	logger *internal.Logger
}

// NewSheetProcessor creates a processor for one output sheet.
func NewSheetProcessor(file *excelize.File, sheet string) *SheetProcessor {
	return &SheetProcessor{
		file:   file,
		sheet:  sheet,
		logger: internal.DefaultLogger,
	}
}

// Process renders the sheet. On a multi-table sheet the per-table footers
// stay plain (no weight or leather add-ons); those render once, on the
// border-free grand total that closes the sheet. A single-table sheet
// keeps its add-ons on the one regular footer it has.
func (p *SheetProcessor) Process(params SheetParams) (SheetResult, error) {
	if len(params.Tables) == 0 {
		p.logger.Warn("No resolved tables for %s; sheet left as captured", p.sheet)
		return SheetResult{NextRow: params.Layout.HeaderRow}, nil
	}

	if params.Snapshot != nil {
		params.Snapshot.ClearTableRegion(p.sheet)
	}

	director := NewLayoutBuilder(p.file, p.sheet, params.Styles, params.Snapshot)
	multi := len(params.Tables) > 1

	tableFooter := params.Layout.Footer
	if multi {
		tableFooter.WeightSummary.Enabled = false
		tableFooter.LeatherSummary.Enabled = false
	}
	tableLayout := params.Layout
	tableLayout.Footer = tableFooter

	result := SheetResult{}
	cursor := layout.RowCursor(params.Layout.HeaderRow)
	grandPallets := 0
	grandWeights := table.WeightSummary{}
	aggregated := table.LeatherSummary{}
	var dataRanges []layout.RowRange

	for i, resolved := range params.Tables {
		built, err := director.BuildTable(TableParams{
			HeaderRow:         cursor.Row(),
			Mode:              params.Mode,
			Layout:            tableLayout,
			Data:              resolved,
			SkipHeaderRestore: i > 0,
			GlobalWeights:     params.GlobalWeights,
		})
		if err != nil {
			return SheetResult{}, err
		}

		result.Tables = append(result.Tables, built)
		result.RowsOut += built.Footer.DataRange().Count()
		grandPallets += built.Footer.TotalPallets
		grandWeights.Net += built.Footer.WeightSummary.Net
		grandWeights.Gross += built.Footer.WeightSummary.Gross
		if built.Footer.HasData() {
			dataRanges = append(dataRanges, built.Footer.DataRange())
		}
		mergeLeatherSummary(aggregated, built.Footer.LeatherSummary)

		cursor = layout.RowCursor(built.NextRow)
		if multi && i < len(params.Tables)-1 {
			// One spacer row between stacked tables.
			cursor = cursor.Next()
		}
	}

	if multi {
		nextRow, err := p.buildGrandTotal(director, params, cursor.Row(), grandPallets, grandWeights, aggregated, dataRanges)
		if err != nil {
			return SheetResult{}, err
		}
		cursor = layout.RowCursor(nextRow)
		result.GrandTotal = true
	}

	if params.Snapshot != nil {
		plan, _ := layout.BuildColumnPlan(params.Layout.Columns, params.Mode)
		lastHeader := result.Tables[len(result.Tables)-1].Header
		if err := params.Snapshot.RestoreFooter(p.sheet, cursor.Row(), plan, lastHeader.NumColumns); err != nil {
			return SheetResult{}, err
		}
		footerRows := params.Snapshot.FooterEndRow - params.Snapshot.FooterStartRow + 1
		cursor = cursor.Advance(footerRows)
	}

	result.NextRow = cursor.Row()
	p.logger.Info("Processed %s: %d tables, %d data rows, next free row %d",
		p.sheet, len(result.Tables), result.RowsOut, result.NextRow)
	return result, nil
}

// buildGrandTotal writes the border-free cross-table footer: the same
// content as a regular footer but summing every table's data range, with
// the weight and leather add-ons re-enabled.
func (p *SheetProcessor) buildGrandTotal(director *LayoutBuilder, params SheetParams, row, pallets int, weights table.WeightSummary, leather table.LeatherSummary, ranges []layout.RowRange) (int, error) {
	cfg := params.Layout.Footer
	cfg.Kind = layout.FooterGrandTotal
	cfg.BlankRowBefore = false
	cfg.Banner.Enabled = false

	if weights.IsZero() {
		weights = params.GlobalWeights
	}

	overall := overallRange(ranges, row)
	footerData := table.FooterData{
		FooterRowStart: row,
		DataStartRow:   overall.Start,
		DataEndRow:     overall.End,
		TotalPallets:   pallets,
		LeatherSummary: leather,
		WeightSummary:  weights,
	}

	header := layoutHeaderOfLastTable(director)
	nextRow, err := director.FooterBuilder().Build(cfg, header, footerData, ranges)
	if err != nil {
		return 0, err
	}
	for r := row; r < nextRow; r++ {
		director.Styler().RowHeight(p.sheet, r, "footer")
	}
	p.logger.Info("Wrote grand total on %s at row %d (%d pallets, %d ranges)", p.sheet, row, pallets, len(ranges))
	return nextRow, nil
}

// layoutHeaderOfLastTable returns the header geometry the grand total
// aligns to. Every table on a sheet shares one column layout, so the
// director's last build is authoritative.
func layoutHeaderOfLastTable(director *LayoutBuilder) layout.HeaderInfo {
	return director.lastHeader
}

// mergeLeatherSummary folds one table's per-type totals into the running
// cross-table aggregate.
func mergeLeatherSummary(into, from table.LeatherSummary) {
	for leatherType, totals := range from {
		agg := into[leatherType]
		if agg.ColumnSums == nil {
			agg.ColumnSums = make(map[core.ColumnID]float64)
		}
		agg.PalletCount += totals.PalletCount
		for col, sum := range totals.ColumnSums {
			agg.ColumnSums[col] += sum
		}
		into[leatherType] = agg
	}
}

// overallRange spans from the first table's first data row to the last
// table's last; with no data it degenerates to the row above the footer.
func overallRange(ranges []layout.RowRange, footerRow int) layout.RowRange {
	if len(ranges) == 0 {
		return layout.NewRowRange(footerRow-1, footerRow-1)
	}
	overall := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start < overall.Start {
			overall.Start = r.Start
		}
		if r.End > overall.End {
			overall.End = r.End
		}
	}
	return overall
}
