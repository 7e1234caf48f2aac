package excel

import (
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/mapping"
	"invoicegen/domain/style"
	"invoicegen/domain/table"
	"invoicegen/internal"
)

// boundColumn is one leaf column bound to its output position.
type boundColumn struct {
	id   core.ColumnID
	col  int
	span int
}

// DataTableBuilder writes resolved rows under the header band: values,
// instantiated formulas, per-cell data styling, row heights, and the
// automatic horizontal and vertical merges that follow the rows.
type DataTableBuilder struct {
	file   *excelize.File
	sheet  string
	styler *CellStyler
	logger *internal.Logger
}

// NewDataTableBuilder creates a data builder for one output sheet.
func NewDataTableBuilder(file *excelize.File, sheet string, styler *CellStyler) *DataTableBuilder {
	return &DataTableBuilder{
		file:   file,
		sheet:  sheet,
		styler: styler,
		logger: internal.DefaultLogger,
	}
}

// Build writes the rows and returns the last written data row; with no
// rows it returns the header's second row, so the footer lands directly
// under the header either way.
func (b *DataTableBuilder) Build(header layout.HeaderInfo, rows []table.Row, verticalMergeColumns []core.ColumnID) int {
	dataStart := header.DataStartRow()
	lastRow := header.SecondRow
	columns := leafColumns(header)

	for i, row := range rows {
		rowNum := dataStart + i
		lastRow = rowNum
		b.styler.RowHeight(b.sheet, rowNum, "data")

		for _, bc := range columns {
			value, present := row[bc.id]
			if !present {
				// Number columns absent from resolved data count themselves.
				if !strings.Contains(strings.ToLower(string(bc.id)), "no") {
					continue
				}
				value = i + 1
			}
			b.writeCell(header, bc, rowNum, value)
		}
	}

	if len(rows) > 0 {
		b.applyColspanMerges(columns, dataStart, lastRow)
		for _, id := range verticalMergeColumns {
			col, ok := header.Column(id)
			if !ok {
				continue
			}
			b.mergeVerticalAllOrNothing(col, dataStart, lastRow)
		}
	}

	b.logger.Debug("Built %d data rows on %s (rows %d-%d)", len(rows), b.sheet, dataStart, lastRow)
	return lastRow
}

func (b *DataTableBuilder) writeCell(header layout.HeaderInfo, bc boundColumn, rowNum int, value any) {
	ref, err := excelize.CoordinatesToCellName(bc.col, rowNum)
	if err != nil {
		return
	}

	switch v := value.(type) {
	case mapping.Formula:
		if err := b.file.SetCellFormula(b.sheet, ref, v.Instantiate(header, rowNum)); err != nil {
			b.logger.Warn("Failed to write formula at %s!%s: %v", b.sheet, ref, err)
		}
	default:
		if coerced := table.CoerceCell(value); coerced != nil {
			if err := b.file.SetCellValue(b.sheet, ref, coerced); err != nil {
				b.logger.Warn("Failed to write value at %s!%s: %v", b.sheet, ref, err)
			}
		}
	}

	var overrides []style.Override
	if bc.id == mapping.ColStatic {
		overrides = append(overrides, style.WithBorder(style.BorderSidesOnly))
	}
	for c := bc.col; c < bc.col+bc.span; c++ {
		b.styler.Apply(b.sheet, c, rowNum, bc.id, "data", overrides...)
	}
}

// applyColspanMerges merges each multi-column leaf across its span on
// every data row, mirroring the span the header established above it.
func (b *DataTableBuilder) applyColspanMerges(columns []boundColumn, fromRow, toRow int) {
	for _, bc := range columns {
		if bc.span < 2 {
			continue
		}
		for row := fromRow; row <= toRow; row++ {
			topLeft, err1 := excelize.CoordinatesToCellName(bc.col, row)
			bottomRight, err2 := excelize.CoordinatesToCellName(bc.col+bc.span-1, row)
			if err1 != nil || err2 != nil {
				continue
			}
			if err := b.file.MergeCell(b.sheet, topLeft, bottomRight); err != nil {
				b.logger.Warn("Failed to merge %s:%s on %s: %v", topLeft, bottomRight, b.sheet, err)
			}
		}
	}
}

// mergeVerticalAllOrNothing merges a column's data range into one cell
// only when every cell in it holds the same non-empty value. A single
// differing value cancels the merge for the whole range: partially merged
// repetition reads worse than no merge at all.
func (b *DataTableBuilder) mergeVerticalAllOrNothing(col, startRow, endRow int) {
	if startRow >= endRow {
		return
	}
	anchor, err := excelize.CoordinatesToCellName(col, startRow)
	if err != nil {
		return
	}
	first, err := b.file.GetCellValue(b.sheet, anchor)
	if err != nil || first == "" {
		return
	}
	for row := startRow + 1; row <= endRow; row++ {
		ref, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return
		}
		value, err := b.file.GetCellValue(b.sheet, ref)
		if err != nil || value != first {
			return
		}
	}

	bottom, err := excelize.CoordinatesToCellName(col, endRow)
	if err != nil {
		return
	}
	if err := b.file.MergeCell(b.sheet, anchor, bottom); err != nil {
		b.logger.Warn("Vertical merge %s:%s failed on %s: %v", anchor, bottom, b.sheet, err)
		return
	}
	b.centerMergeAnchor(anchor)
}

// centerMergeAnchor re-registers the anchor's style with centered
// alignment so the single value sits in the middle of the merged block.
func (b *DataTableBuilder) centerMergeAnchor(ref string) {
	styleID, err := b.file.GetCellStyle(b.sheet, ref)
	if err != nil {
		return
	}
	st := &excelize.Style{}
	if styleID != 0 {
		if existing, err := b.file.GetStyle(styleID); err == nil && existing != nil {
			st = existing
		}
	}
	if st.Alignment == nil {
		st.Alignment = &excelize.Alignment{}
	}
	st.Alignment.Horizontal = "center"
	st.Alignment.Vertical = "center"

	centered, err := b.file.NewStyle(st)
	if err != nil {
		return
	}
	if err := b.file.SetCellStyle(b.sheet, ref, ref, centered); err != nil {
		b.logger.Warn("Failed to center merged cell %s on %s: %v", ref, b.sheet, err)
	}
}

// leafColumns lists the header's leaf columns in output order. Leaves are
// exactly the ids with a recorded colspan; parents never appear there.
func leafColumns(header layout.HeaderInfo) []boundColumn {
	cols := make([]boundColumn, 0, len(header.Colspans))
	for id, span := range header.Colspans {
		col, ok := header.Column(id)
		if !ok {
			continue
		}
		if span < 1 {
			span = 1
		}
		cols = append(cols, boundColumn{id: id, col: col, span: span})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].col < cols[j].col })
	return cols
}
