package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicegen/domain/layout"
	"invoicegen/internal"
	"invoicegen/internal/errors"
)

// footerScanRows caps how far below the table header the footer boundary
// search and the footer-end scan may walk.
const footerScanRows = 50

// footerScanCols caps how many columns the boundary search inspects.
const footerScanCols = 20

// footerBlankRunLimit ends the footer-end scan after this many consecutive
// blank rows.
const footerBlankRunLimit = 10

// CapturedCell is one recorded template cell: the raw stored value, the
// cell type needed to write it back with the right spreadsheet type, the
// formula if any, and the workbook style id. Style ids stay valid for the
// lifetime of the file, so restore reapplies them without ever decoding
// the style content.
type CapturedCell struct {
	Row     int
	Col     int
	Value   string
	Type    excelize.CellType
	Formula string
	StyleID int
}

func (c CapturedCell) hasContent() bool {
	return c.Value != "" || c.Formula != ""
}

// MergeSpan is one merged rectangle in template coordinates.
type MergeSpan struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

func (m MergeSpan) colSpan() int { return m.EndCol - m.StartCol + 1 }

func (m MergeSpan) coversRow(row int) bool {
	return row >= m.StartRow && row <= m.EndRow
}

func (m MergeSpan) contains(col, row int) bool {
	return col >= m.StartCol && col <= m.EndCol && m.coversRow(row)
}

// TemplateSnapshot holds the decorative regions of one template sheet: the
// header grid above the table and the footer grid below it, with merges,
// row heights and column widths. It is captured once per sheet, mutated in
// memory by the text replacement pass, and replayed onto the output sheet
// through a column plan — the header immediately, the footer after the
// last table once its final row is known.
type TemplateSnapshot struct {
	Sheet          string
	HeaderEndRow   int
	FooterStartRow int
	FooterEndRow   int
	TemplateCols   int

	Header       []CapturedCell
	Footer       []CapturedCell
	HeaderMerges []MergeSpan
	FooterMerges []MergeSpan
	RowHeights   map[int]float64
	ColWidths    map[int]float64

	file        *excelize.File
	logger      *internal.Logger
	generalized map[int]int
}

// CaptureSnapshot records the template sheet's decorative regions. The
// header region is rows 1..headerEndRow; the footer region starts at
// footerStartRow and ends at the last row with content inside the scan
// window. Empty cells with no explicit style are never recorded.
func CaptureSnapshot(file *excelize.File, sheet string, headerEndRow, footerStartRow int) (*TemplateSnapshot, error) {
	logger := internal.DefaultLogger
	if headerEndRow < 1 {
		return nil, errors.TemplateInvalid("header end row must be positive")
	}
	if footerStartRow <= headerEndRow {
		return nil, errors.TemplateInvalid("footer start row must lie below the header region")
	}

	maxRow, maxCol := sheetExtents(file, sheet)
	merges := collectMerges(file, sheet)

	footerEndRow := findFooterEnd(file, sheet, footerStartRow, maxRow, maxCol, merges)

	snap := &TemplateSnapshot{
		Sheet:          sheet,
		HeaderEndRow:   headerEndRow,
		FooterStartRow: footerStartRow,
		FooterEndRow:   footerEndRow,
		TemplateCols:   maxCol,
		RowHeights:     make(map[int]float64),
		ColWidths:      make(map[int]float64),
		file:           file,
		logger:         logger,
		generalized:    make(map[int]int),
	}

	snap.Header = captureRegion(file, sheet, 1, headerEndRow, maxCol, merges)
	snap.Footer = captureRegion(file, sheet, footerStartRow, footerEndRow, maxCol, merges)

	for _, m := range merges {
		switch {
		case m.EndRow <= headerEndRow:
			snap.HeaderMerges = append(snap.HeaderMerges, m)
		case m.StartRow >= footerStartRow && m.EndRow <= footerEndRow:
			snap.FooterMerges = append(snap.FooterMerges, m)
		}
	}

	for row := 1; row <= headerEndRow; row++ {
		snap.recordRowHeight(sheet, row)
	}
	for row := footerStartRow; row <= footerEndRow; row++ {
		snap.recordRowHeight(sheet, row)
	}
	for col := 1; col <= maxCol; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			continue
		}
		if width, err := file.GetColWidth(sheet, name); err == nil && width > 0 {
			snap.ColWidths[col] = width
		}
	}

	if len(snap.Footer) == 0 {
		logger.Info("Footer region of %s (rows %d-%d) is blank; nothing to restore below the tables", sheet, footerStartRow, footerEndRow)
	}
	logger.Debug("Captured template state for %s: %d header cells (rows 1-%d), %d footer cells (rows %d-%d), %d merges",
		sheet, len(snap.Header), headerEndRow, len(snap.Footer), footerStartRow, footerEndRow, len(snap.HeaderMerges)+len(snap.FooterMerges))
	return snap, nil
}

// footerMarker is one boundary detection strategy. The strict markers
// share a single row-major pass, so the topmost row carrying any of them
// decides the boundary; the relaxed marker scans only after the strict
// pass found nothing and logs a warning on use.
type footerMarker struct {
	name    string
	relaxed bool
	match   func(text string) bool
}

var signatureKeywords = []string{"the buyer", "the seller", "beneficiary", "authorized signature"}

var footerMarkerTiers = [][]footerMarker{
	{
		{name: "total label", match: func(t string) bool {
			return strings.Contains(t, "total") && strings.Contains(t, ":")
		}},
		{name: "sum formula", match: func(t string) bool {
			return strings.HasPrefix(t, "=sum")
		}},
		{name: "signature block", match: func(t string) bool {
			for _, kw := range signatureKeywords {
				if strings.Contains(t, kw) {
					return true
				}
			}
			return false
		}},
	},
	{
		{name: "bare total label", relaxed: true, match: func(t string) bool {
			return strings.Contains(t, "total")
		}},
	},
}

// DetectFooterStart locates the first decorative row below the table
// region of a template sheet. The scan starts two rows under the table
// header (leaving room for at least one data row) and walks a bounded
// window row by row, strict markers before the relaxed tier. No marker
// within the window is a fatal configuration error: guessing a boundary
// here would corrupt every generated document for that template.
func DetectFooterStart(file *excelize.File, sheet string, tableHeaderRow int) (int, error) {
	logger := internal.DefaultLogger
	maxRow, maxCol := sheetExtents(file, sheet)

	scanStart := tableHeaderRow + 2
	if scanStart > maxRow {
		return 0, errors.TemplateInvalid(fmt.Sprintf(
			"table header row %d leaves no room below it on %s; structure config does not match the template", tableHeaderRow, sheet))
	}
	scanEnd := scanStart + footerScanRows
	if scanEnd > maxRow {
		scanEnd = maxRow
	}
	colLimit := maxCol
	if colLimit > footerScanCols {
		colLimit = footerScanCols
	}

	for _, tier := range footerMarkerTiers {
		for row := scanStart; row <= scanEnd; row++ {
			for col := 1; col <= colLimit; col++ {
				text := strings.ToLower(strings.TrimSpace(cellText(file, sheet, col, row)))
				if text == "" {
					continue
				}
				for _, marker := range tier {
					if !marker.match(text) {
						continue
					}
					if marker.relaxed {
						logger.Warn("Footer of %s detected via relaxed %s at row %d; add a colon or a SUM formula to the template for reliable detection", sheet, marker.name, row)
					} else {
						logger.Debug("Footer of %s detected via %s at row %d", sheet, marker.name, row)
					}
					return row, nil
				}
			}
		}
	}
	return 0, errors.FooterNotFound(sheet, scanStart, scanEnd)
}

// RestoreHeader replays the captured header grid onto the output sheet
// through the column plan: cells re-homed or failed per the content-safety
// rule, merges span-preserved, row heights and column widths reapplied.
// When the table grew wider than the template, the last template column's
// styling extends rightward to cover the gap.
func (s *TemplateSnapshot) RestoreHeader(target string, plan layout.ColumnPlan, targetCols int) error {
	if err := s.replayCells(target, s.Header, plan, 0); err != nil {
		return err
	}
	s.extendLastColumnStyle(target, s.Header, 0, targetCols)
	s.replayMerges(target, s.HeaderMerges, plan, 0)
	s.applyRowHeights(target, 1, s.HeaderEndRow, 0)
	s.applyColumnWidths(target, plan)
	return nil
}

// RestoreFooter replays the captured footer grid at the actual footer
// position. Rows shift by the offset between where the footer sat in the
// template and where the rendered tables ended; columns go through the
// same plan and re-homing rules as the header.
func (s *TemplateSnapshot) RestoreFooter(target string, actualStartRow int, plan layout.ColumnPlan, targetCols int) error {
	offset := actualStartRow - s.FooterStartRow
	if err := s.replayCells(target, s.Footer, plan, offset); err != nil {
		return err
	}
	s.extendLastColumnStyle(target, s.Footer, offset, targetCols)
	s.replayMerges(target, s.FooterMerges, plan, offset)
	s.applyRowHeights(target, s.FooterStartRow, s.FooterEndRow, offset)
	return nil
}

// replayCells writes captured cells through the plan. A cell whose column
// was removed is dropped when empty, re-homed to an adjacent surviving
// column whose own template slot is empty, or reported as content loss.
func (s *TemplateSnapshot) replayCells(target string, cells []CapturedCell, plan layout.ColumnPlan, rowOffset int) error {
	index := make(map[[2]int]int, len(cells))
	for i, c := range cells {
		index[[2]int{c.Row, c.Col}] = i
	}

	for _, cell := range cells {
		outCol, ok := plan.Map(cell.Col)
		if !ok {
			if !cell.hasContent() {
				continue
			}
			outCol, ok = s.rehome(cells, index, plan, cell)
			if !ok {
				ref, _ := excelize.CoordinatesToCellName(cell.Col, cell.Row)
				return errors.ContentLoss(s.Sheet+"!"+ref, cell.Value)
			}
		}

		ref, err := excelize.CoordinatesToCellName(outCol, cell.Row+rowOffset)
		if err != nil {
			continue
		}
		if cell.Formula != "" {
			if err := s.file.SetCellFormula(target, ref, cell.Formula); err != nil {
				s.logger.Warn("Failed to restore formula at %s!%s: %v", target, ref, err)
			}
		} else if cell.Value != "" {
			if err := writeTypedValue(s.file, target, ref, cell); err != nil {
				s.logger.Warn("Failed to restore value at %s!%s: %v", target, ref, err)
			}
		}
		if cell.StyleID != 0 {
			if err := s.file.SetCellStyle(target, ref, ref, cell.StyleID); err != nil {
				s.logger.Warn("Failed to restore style at %s!%s: %v", target, ref, err)
			}
		}
	}
	return nil
}

// rehome finds the adjacent surviving column for content stranded on a
// removed one: first the left neighbor, then the right, accepting either
// only when its own template slot at that row holds nothing.
func (s *TemplateSnapshot) rehome(cells []CapturedCell, index map[[2]int]int, plan layout.ColumnPlan, cell CapturedCell) (int, bool) {
	for _, neighborCol := range []int{cell.Col - 1, cell.Col + 1} {
		if neighborCol < 1 {
			continue
		}
		if i, ok := index[[2]int{cell.Row, neighborCol}]; ok && cells[i].hasContent() {
			continue
		}
		outCol, ok := plan.Map(neighborCol)
		if !ok {
			continue
		}
		s.logger.Debug("Re-homed content %q from removed column %d to output column %d (row %d)", cell.Value, cell.Col, outCol, cell.Row)
		return outCol, true
	}
	return 0, false
}

// extendLastColumnStyle replicates the last template column's styling
// (never its values) rightward when the rendered table is wider than the
// template, so the decorative regions keep their frame across the full
// width.
func (s *TemplateSnapshot) extendLastColumnStyle(target string, cells []CapturedCell, rowOffset, targetCols int) {
	if targetCols <= s.TemplateCols {
		return
	}
	for _, cell := range cells {
		if cell.Col != s.TemplateCols || cell.StyleID == 0 {
			continue
		}
		for col := s.TemplateCols + 1; col <= targetCols; col++ {
			ref, err := excelize.CoordinatesToCellName(col, cell.Row+rowOffset)
			if err != nil {
				continue
			}
			if err := s.file.SetCellStyle(target, ref, ref, cell.StyleID); err != nil {
				s.logger.Warn("Failed to extend styling to %s!%s: %v", target, ref, err)
			}
		}
	}
}

// replayMerges rebuilds merge rectangles with the start column translated
// by the plan and the original span width preserved: the end column is
// reconstructed as mappedStart + span - 1, never by mapping both
// endpoints, which would silently shrink a merge whose interior columns
// were removed. A merge whose start column was removed anchors on the
// first surviving column inside its span; a merge with no surviving
// column is skipped. Conflicting existing merges are unmerged first; a
// merge that still fails is logged and skipped, since merges are a visual
// nicety, not data.
func (s *TemplateSnapshot) replayMerges(target string, merges []MergeSpan, plan layout.ColumnPlan, rowOffset int) {
	for _, m := range merges {
		startCol, ok := plan.Map(m.StartCol)
		for col := m.StartCol + 1; !ok && col <= m.EndCol; col++ {
			startCol, ok = plan.Map(col)
		}
		if !ok {
			s.logger.Debug("Skipping merge at rows %d-%d: every column in %d-%d was removed", m.StartRow, m.EndRow, m.StartCol, m.EndCol)
			continue
		}

		endCol := startCol + m.colSpan() - 1
		startRow := m.StartRow + rowOffset
		endRow := m.EndRow + rowOffset
		if startCol == endCol && startRow == endRow {
			continue
		}

		top, err1 := excelize.CoordinatesToCellName(startCol, startRow)
		bottom, err2 := excelize.CoordinatesToCellName(endCol, endRow)
		if err1 != nil || err2 != nil {
			continue
		}
		if err := s.file.UnmergeCell(target, top, bottom); err != nil {
			s.logger.Debug("Unmerge before restore failed for %s:%s on %s: %v", top, bottom, target, err)
		}
		if err := s.file.MergeCell(target, top, bottom); err != nil {
			s.logger.Warn("Skipping merge %s:%s on %s: %v", top, bottom, target, err)
		}
	}
}

func (s *TemplateSnapshot) applyRowHeights(target string, fromRow, toRow, offset int) {
	for row := fromRow; row <= toRow; row++ {
		height, ok := s.RowHeights[row]
		if !ok || height <= 0 {
			continue
		}
		if err := s.file.SetRowHeight(target, row+offset, height); err != nil {
			s.logger.Warn("Failed to restore height of row %d on %s: %v", row+offset, target, err)
		}
	}
}

func (s *TemplateSnapshot) applyColumnWidths(target string, plan layout.ColumnPlan) {
	for col := 1; col <= s.TemplateCols; col++ {
		width, ok := s.ColWidths[col]
		if !ok {
			continue
		}
		outCol, mapped := plan.Map(col)
		if !mapped {
			continue
		}
		name, err := excelize.ColumnNumberToName(outCol)
		if err != nil {
			continue
		}
		if err := s.file.SetColWidth(target, name, name, width); err != nil {
			s.logger.Warn("Failed to restore width of column %s on %s: %v", name, target, err)
		}
	}
}

// ClearTableRegion blanks everything between the decorative header and
// the end of the captured footer: the template's sample table content,
// its footer rows, and every merge that reaches into the region. The
// builders then write onto a clean canvas, and the captured footer
// re-renders at its actual position instead of colliding with the
// template's copy.
func (s *TemplateSnapshot) ClearTableRegion(target string) {
	for _, m := range collectMerges(s.file, target) {
		if m.EndRow <= s.HeaderEndRow {
			continue
		}
		top, err1 := excelize.CoordinatesToCellName(m.StartCol, m.StartRow)
		bottom, err2 := excelize.CoordinatesToCellName(m.EndCol, m.EndRow)
		if err1 != nil || err2 != nil {
			continue
		}
		if err := s.file.UnmergeCell(target, top, bottom); err != nil {
			s.logger.Debug("Failed to unmerge %s:%s on %s: %v", top, bottom, target, err)
		}
	}

	for row := s.HeaderEndRow + 1; row <= s.FooterEndRow; row++ {
		for col := 1; col <= s.TemplateCols; col++ {
			ref, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				continue
			}
			if err := s.file.SetCellValue(target, ref, nil); err != nil {
				s.logger.Debug("Failed to clear %s!%s: %v", target, ref, err)
			}
		}
	}
	s.logger.Debug("Cleared table region rows %d-%d on %s", s.HeaderEndRow+1, s.FooterEndRow, target)
}

func (s *TemplateSnapshot) recordRowHeight(sheet string, row int) {
	if height, err := s.file.GetRowHeight(sheet, row); err == nil && height > 0 {
		s.RowHeights[row] = height
	}
}

// captureRegion records every cell in the row range that carries a value,
// a formula, or an explicit style. Unstyled empty cells are uninteresting
// and never recorded. Interior cells of a merged range capture style only:
// excelize reports the anchor's value for every cell of a merge, and
// carrying that phantom value into re-homing would fail valid templates.
func captureRegion(file *excelize.File, sheet string, fromRow, toRow, maxCol int, merges []MergeSpan) []CapturedCell {
	var cells []CapturedCell
	for row := fromRow; row <= toRow; row++ {
		for col := 1; col <= maxCol; col++ {
			ref, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				continue
			}
			value, _ := file.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
			formula, _ := file.GetCellFormula(sheet, ref)
			styleID, _ := file.GetCellStyle(sheet, ref)
			if mergeInterior(merges, col, row) {
				value, formula = "", ""
			}
			if value == "" && formula == "" && styleID == 0 {
				continue
			}
			cellType, _ := file.GetCellType(sheet, ref)
			cells = append(cells, CapturedCell{
				Row:     row,
				Col:     col,
				Value:   value,
				Type:    cellType,
				Formula: formula,
				StyleID: styleID,
			})
		}
	}
	return cells
}

// mergeInterior reports whether the cell sits inside a merged range without
// being its anchor.
func mergeInterior(merges []MergeSpan, col, row int) bool {
	for _, m := range merges {
		if m.contains(col, row) {
			return col != m.StartCol || row != m.StartRow
		}
	}
	return false
}

// findFooterEnd walks down from the footer start looking for the last row
// with content, counting merge coverage as content. The scan gives up
// after ten consecutive blank rows or at the window edge; a footer with
// no content at all keeps the start row as its end.
func findFooterEnd(file *excelize.File, sheet string, footerStartRow, maxRow, maxCol int, merges []MergeSpan) int {
	footerEnd := footerStartRow
	blankRun := 0
	limit := footerStartRow + footerScanRows
	if limit > maxRow {
		limit = maxRow
	}

	for row := footerStartRow; row <= limit; row++ {
		if rowHasContent(file, sheet, row, maxCol, merges) {
			footerEnd = row
			blankRun = 0
			continue
		}
		blankRun++
		if blankRun >= footerBlankRunLimit {
			break
		}
	}
	return footerEnd
}

func rowHasContent(file *excelize.File, sheet string, row, maxCol int, merges []MergeSpan) bool {
	for col := 1; col <= maxCol; col++ {
		if cellText(file, sheet, col, row) != "" {
			return true
		}
	}
	for _, m := range merges {
		if m.coversRow(row) {
			return true
		}
	}
	return false
}

// cellText returns the cell's value, falling back to its formula so that
// formula cells without a cached result still count as content.
func cellText(file *excelize.File, sheet string, col, row int) string {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	if value, err := file.GetCellValue(sheet, ref); err == nil && value != "" {
		return value
	}
	if formula, err := file.GetCellFormula(sheet, ref); err == nil {
		return formula
	}
	return ""
}

// writeTypedValue writes a captured raw value back with its original
// spreadsheet type, so numbers and dates stay numeric instead of turning
// into text.
func writeTypedValue(file *excelize.File, sheet, ref string, cell CapturedCell) error {
	switch cell.Type {
	case excelize.CellTypeNumber, excelize.CellTypeDate:
		if num, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			return file.SetCellValue(sheet, ref, num)
		}
	case excelize.CellTypeBool:
		return file.SetCellBool(sheet, ref, cell.Value == "1" || strings.EqualFold(cell.Value, "true"))
	}
	return file.SetCellValue(sheet, ref, cell.Value)
}

// collectMerges reads the sheet's merge rectangles into coordinate spans.
func collectMerges(file *excelize.File, sheet string) []MergeSpan {
	raw, err := file.GetMergeCells(sheet)
	if err != nil {
		return nil
	}
	spans := make([]MergeSpan, 0, len(raw))
	for _, m := range raw {
		startCol, startRow, err1 := excelize.CellNameToCoordinates(m.GetStartAxis())
		endCol, endRow, err2 := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		spans = append(spans, MergeSpan{
			StartCol: startCol,
			StartRow: startRow,
			EndCol:   endCol,
			EndRow:   endRow,
		})
	}
	return spans
}

// sheetExtents reports the sheet's last row and column, taking the larger
// of the value extents and the stored dimension reference (which covers
// styled-but-empty trailing cells).
func sheetExtents(file *excelize.File, sheet string) (int, int) {
	maxRow, maxCol := 0, 0
	if rows, err := file.GetRows(sheet); err == nil {
		maxRow = len(rows)
		for _, row := range rows {
			if len(row) > maxCol {
				maxCol = len(row)
			}
		}
	}
	if dim, err := file.GetSheetDimension(sheet); err == nil && dim != "" {
		corner := dim
		if i := strings.IndexByte(dim, ':'); i >= 0 {
			corner = dim[i+1:]
		}
		if col, row, err := excelize.CellNameToCoordinates(corner); err == nil {
			if row > maxRow {
				maxRow = row
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}
	return maxRow, maxCol
}
