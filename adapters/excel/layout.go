package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicegen/domain/layout"
	"invoicegen/domain/style"
	"invoicegen/domain/table"
	"invoicegen/internal"
	"invoicegen/internal/errors"
)

// TableParams carries everything LayoutBuilder needs for one logical
// table on a sheet.
type TableParams struct {
	// HeaderRow is where this table's header band starts.
	HeaderRow int

	// Mode selects which columns survive.
	Mode layout.Mode

	// Layout is the sheet's compiled structure; the table uses its
	// columns, footer config and vertical merge list.
	Layout layout.SheetLayout

	// Data is the table's resolved rows and precomputed summaries.
	Data table.ResolvedTable

	// SumRanges overrides the ranges the footer sums cover; nil means the
	// table's own data range.
	SumRanges []layout.RowRange

	// SkipHeaderRestore suppresses the decorative header replay; every
	// table after the first on a multi-table sheet sets it, since the
	// decoration belongs above the first table only.
	SkipHeaderRestore bool

	// GlobalWeights substitutes cross-table weight totals when the
	// table's own weights come out zero.
	GlobalWeights table.WeightSummary
}

// TableResult reports where one table landed.
type TableResult struct {
	Header  layout.HeaderInfo
	Footer  table.FooterData
	NextRow int
}

// LayoutBuilder sequences the structural builders for one logical table:
// column plan, header band, footer calculation, data rows, decorative
// header replay, footer block. The decorative header is restored only
// after the data is built, because only then is the actual column count
// known; restoring first would misalign the decoration whenever the table
// is wider or narrower than the template.
type LayoutBuilder struct {
	file     *excelize.File
	sheet    string
	styler   *CellStyler
	snapshot *TemplateSnapshot
	header   *HeaderBuilder
	data     *DataTableBuilder
	footer   *FooterBuilder
	logger   *internal.Logger

	// lastHeader remembers the most recent table's header geometry; the
	// sheet processor aligns the grand total to it.
	lastHeader layout.HeaderInfo
}

// NewLayoutBuilder creates the builder team for one output sheet.
// snapshot may be nil for sheets rendered without a template.
func NewLayoutBuilder(file *excelize.File, sheet string, styles style.Registry, snapshot *TemplateSnapshot) *LayoutBuilder {
	styler := NewCellStyler(file, styles)
	return &LayoutBuilder{
		file:     file,
		sheet:    sheet,
		styler:   styler,
		snapshot: snapshot,
		header:   NewHeaderBuilder(file, sheet, styler),
		data:     NewDataTableBuilder(file, sheet, styler),
		footer:   NewFooterBuilder(file, sheet, styler),
		logger:   internal.DefaultLogger,
	}
}

// Styler exposes the shared styler for callers that write rows outside a
// table, such as the grand-total footer on multi-table sheets.
func (d *LayoutBuilder) Styler() *CellStyler { return d.styler }

// FooterBuilder exposes the footer builder for the same callers.
func (d *LayoutBuilder) FooterBuilder() *FooterBuilder { return d.footer }

// BuildTable renders one table and returns its geometry and the next free
// row. Fatal errors (unbuildable header, content loss on restore, an
// impossible footer position) abort the sheet.
func (d *LayoutBuilder) BuildTable(params TableParams) (TableResult, error) {
	started := time.Now()

	if params.HeaderRow < 1 {
		return TableResult{}, errors.ConfigInvalid(fmt.Sprintf("table header row %d on %s is not a valid position", params.HeaderRow, d.sheet))
	}

	// Step 1: mode-filter the columns and derive the template mapping.
	plan, kept := layout.BuildColumnPlan(params.Layout.Columns, params.Mode)
	if len(kept) == 0 {
		return TableResult{}, errors.TemplateInvalid(fmt.Sprintf("no columns survive the active mode on %s", d.sheet))
	}

	// Step 2: write the header band.
	info, err := d.header.Build(params.HeaderRow, kept)
	if err != nil {
		return TableResult{}, fmt.Errorf("building header on %s: %w", d.sheet, err)
	}
	d.lastHeader = info

	// Step 3: fold the rows into footer data, substituting global weights
	// when the table's own weights are zero.
	footerData := table.Calculate(info, params.Data)
	if footerData.WeightSummary.IsZero() && !params.GlobalWeights.IsZero() {
		footerData.WeightSummary = params.GlobalWeights
	}

	// Step 4: write the data rows.
	d.data.Build(info, params.Data.Rows, params.Layout.VerticalMergeColumns)

	// Step 5: replay the decorative header now that the actual column
	// count is known.
	if !params.SkipHeaderRestore && d.snapshot != nil {
		if err := d.snapshot.RestoreHeader(d.sheet, plan, info.NumColumns); err != nil {
			return TableResult{}, fmt.Errorf("restoring template header on %s: %w", d.sheet, err)
		}
	}

	// Step 6: write the footer block over the covered ranges.
	ranges := params.SumRanges
	if ranges == nil {
		ranges = []layout.RowRange{footerData.DataRange()}
	}
	nextRow, err := d.footer.Build(params.Layout.Footer, info, footerData, ranges)
	if err != nil {
		return TableResult{}, fmt.Errorf("building footer on %s: %w", d.sheet, err)
	}

	// Step 7: the footer's height covers every row it produced, blank
	// spacer included.
	for row := footerData.FooterRowStart; row < nextRow; row++ {
		d.styler.RowHeight(d.sheet, row, "footer")
	}

	d.logger.Info("Built table on %s: header row %d, data rows %d-%d, footer rows %d-%d (%dms)",
		d.sheet, params.HeaderRow, footerData.DataStartRow, footerData.DataEndRow,
		footerData.FooterRowStart, nextRow-1, time.Since(started).Milliseconds())

	return TableResult{Header: info, Footer: footerData, NextRow: nextRow}, nil
}
