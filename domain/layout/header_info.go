package layout

import (
	"invoicegen/domain/core"
)

// HeaderInfo is the header builder's account of where everything landed.
// Columns maps each leaf id to its 1-based output column; Colspans holds
// the merge width of multi-column leaves and deliberately excludes parents
// with children, so automatic data-row merging never double-merges a span
// the header already merged.
type HeaderInfo struct {
	FirstRow   int
	SecondRow  int
	NumColumns int
	Columns    map[core.ColumnID]int
	Colspans   map[core.ColumnID]int
}

// Column returns the 1-based output column of id.
func (h HeaderInfo) Column(id core.ColumnID) (int, bool) {
	col, ok := h.Columns[id]
	return col, ok
}

// Letter returns the spreadsheet column letter of id, or "" when the id is
// not part of this header.
func (h HeaderInfo) Letter(id core.ColumnID) string {
	col, ok := h.Columns[id]
	if !ok {
		return ""
	}
	return ColumnLetter(col)
}

// ColumnAt is the reverse lookup: the id whose span covers the given
// 1-based output column.
func (h HeaderInfo) ColumnAt(col int) (core.ColumnID, bool) {
	for id, start := range h.Columns {
		span := h.Colspans[id]
		if span < 1 {
			span = 1
		}
		if col >= start && col < start+span {
			return id, true
		}
	}
	return "", false
}

// DataStartRow is the first data row under the two header rows.
func (h HeaderInfo) DataStartRow() int { return h.SecondRow + 1 }

// ColumnLetter converts a 1-based column index to its letter name
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+(col%26))) + result
		col /= 26
	}
	return result
}
