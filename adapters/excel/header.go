package excel

import (
	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/internal"
	"invoicegen/internal/errors"
)

// headerCell is one flattened header cell: offsets from the header origin
// plus span and join id. Parents spanning their children sit on the first
// row; children sit on the second.
type headerCell struct {
	rowOffset int
	colOffset int
	rowspan   int
	colspan   int
	text      string
	id        core.ColumnID
	parent    bool
}

// HeaderBuilder writes the column header band for one table: a single row
// for flat layouts, two rows when any column splits into children.
type HeaderBuilder struct {
	file   *excelize.File
	sheet  string
	styler *CellStyler
	logger *internal.Logger
}

// NewHeaderBuilder creates a header builder for one output sheet.
func NewHeaderBuilder(file *excelize.File, sheet string, styler *CellStyler) *HeaderBuilder {
	return &HeaderBuilder{
		file:   file,
		sheet:  sheet,
		styler: styler,
		logger: internal.DefaultLogger,
	}
}

// Build writes the header at startRow and reports where everything
// landed. The id map carries every cell with an id, parents included;
// Colspans holds only leaf spans, so later automatic merging never
// re-merges a parent that already spans via its header merge.
func (b *HeaderBuilder) Build(startRow int, columns []layout.ColumnDef) (layout.HeaderInfo, error) {
	if len(columns) == 0 {
		return layout.HeaderInfo{}, errors.TemplateInvalid("no columns to build a header from")
	}

	info := layout.HeaderInfo{
		FirstRow:  startRow,
		SecondRow: startRow,
		Columns:   make(map[core.ColumnID]int),
		Colspans:  make(map[core.ColumnID]int),
	}
	established := collectMerges(b.file, b.sheet)
	heightDone := make(map[int]bool)

	for _, hc := range flattenColumns(columns) {
		row := startRow + hc.rowOffset
		col := 1 + hc.colOffset
		endRow := row + hc.rowspan - 1
		endCol := col + hc.colspan - 1
		if endRow > info.SecondRow {
			info.SecondRow = endRow
		}
		if endCol > info.NumColumns {
			info.NumColumns = endCol
		}
		if hc.id != "" {
			info.Columns[hc.id] = col
			if !hc.parent {
				info.Colspans[hc.id] = hc.colspan
			}
		}

		ref, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			continue
		}
		if hc.text != "" && !insideMergeInterior(established, col, row) {
			if err := b.file.SetCellValue(b.sheet, ref, hc.text); err != nil {
				b.logger.Warn("Failed to write header text at %s!%s: %v", b.sheet, ref, err)
			}
		}

		for r := row; r <= endRow; r++ {
			for c := col; c <= endCol; c++ {
				b.styler.Apply(b.sheet, c, r, hc.id, "header")
			}
		}
		if !heightDone[row] {
			b.styler.RowHeight(b.sheet, row, "header")
			heightDone[row] = true
		}
		if hc.id != "" && !hc.parent {
			for c := col; c <= endCol; c++ {
				b.styler.ColumnWidth(b.sheet, c, hc.id)
			}
		}

		if hc.rowspan > 1 || hc.colspan > 1 {
			endRef, err := excelize.CoordinatesToCellName(endCol, endRow)
			if err != nil {
				continue
			}
			if err := b.file.MergeCell(b.sheet, ref, endRef); err != nil {
				b.logger.Warn("Failed to merge header cells %s:%s: %v", ref, endRef, err)
			}
		}
	}

	b.logger.Debug("Built header on %s: rows %d-%d, %d columns, %d mapped ids",
		b.sheet, info.FirstRow, info.SecondRow, info.NumColumns, len(info.Columns))
	return info, nil
}

// flattenColumns lays the def tree out on the two header rows with a
// single advancing column cursor. A def with children becomes a parent
// cell spanning them on row zero plus one cell per child on row one; a
// flat def keeps its own row/colspan.
func flattenColumns(columns []layout.ColumnDef) []headerCell {
	var cells []headerCell
	cursor := 0

	for _, def := range columns {
		if len(def.Children) > 0 {
			cells = append(cells, headerCell{
				colOffset: cursor,
				rowspan:   1,
				colspan:   len(def.Children),
				text:      def.Header,
				id:        def.ID,
				parent:    true,
			})
			for i, child := range def.Children {
				cells = append(cells, headerCell{
					rowOffset: 1,
					colOffset: cursor + i,
					rowspan:   1,
					colspan:   1,
					text:      child.Header,
					id:        child.ID,
				})
			}
			cursor += len(def.Children)
			continue
		}

		rowspan := def.Rowspan
		if rowspan < 1 {
			rowspan = 1
		}
		colspan := def.Colspan
		if colspan < 1 {
			colspan = 1
		}
		cells = append(cells, headerCell{
			colOffset: cursor,
			rowspan:   rowspan,
			colspan:   colspan,
			text:      def.Header,
			id:        def.ID,
		})
		cursor += colspan
	}
	return cells
}

// insideMergeInterior reports whether the cell sits inside one of the
// spans without being its anchor; such cells belong to an established
// merge and are never rewritten.
func insideMergeInterior(spans []MergeSpan, col, row int) bool {
	for _, m := range spans {
		if col < m.StartCol || col > m.EndCol || row < m.StartRow || row > m.EndRow {
			continue
		}
		if col == m.StartCol && row == m.StartRow {
			return false
		}
		return true
	}
	return false
}
