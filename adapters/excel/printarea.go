package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"invoicegen/internal"
)

// a4PaperSize is the xlsx paper size code for A4.
const a4PaperSize = 9

// ConfigurePrintArea applies the standard print setup to one rendered
// sheet: A4 portrait, fit to one page wide, narrow side margins, content
// centered horizontally, and a print area spanning the sheet's populated
// rectangle (merged cells counted at full extent). Print setup is a
// finishing touch; any failure here logs and leaves the sheet printable
// with workbook defaults.
func ConfigurePrintArea(file *excelize.File, sheet string) {
	logger := internal.DefaultLogger

	size := a4PaperSize
	orientation := "portrait"
	fitToWidth := 1
	if err := file.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitToWidth,
	}); err != nil {
		logger.Warn("Failed to set page layout on %s: %v", sheet, err)
	}

	side := 0.1
	vertical := 0.75
	centered := true
	if err := file.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Left:         &side,
		Right:        &side,
		Top:          &vertical,
		Bottom:       &vertical,
		Horizontally: &centered,
	}); err != nil {
		logger.Warn("Failed to set page margins on %s: %v", sheet, err)
	}

	area, ok := printBounds(file, sheet)
	if !ok {
		logger.Debug("Sheet %s has no content; print area left unset", sheet)
		return
	}
	if err := file.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: area,
		Scope:    sheet,
	}); err != nil {
		logger.Warn("Failed to set print area %s on %s: %v", area, sheet, err)
		return
	}
	logger.Debug("Print area of %s set to %s", sheet, area)
}

// printBounds computes the populated rectangle of the sheet as an
// absolute defined-name reference. A merged range whose anchor holds
// content extends the rectangle to the merge's full size.
func printBounds(file *excelize.File, sheet string) (string, bool) {
	minRow, maxRow, minCol, maxCol := 0, 0, 0, 0

	rows, err := file.GetRows(sheet)
	if err != nil {
		return "", false
	}
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			rowNum, colNum := r+1, c+1
			if minRow == 0 || rowNum < minRow {
				minRow = rowNum
			}
			if rowNum > maxRow {
				maxRow = rowNum
			}
			if minCol == 0 || colNum < minCol {
				minCol = colNum
			}
			if colNum > maxCol {
				maxCol = colNum
			}
		}
	}
	if minRow == 0 {
		return "", false
	}

	for _, m := range collectMerges(file, sheet) {
		if anchor := cellText(file, sheet, m.StartCol, m.StartRow); anchor == "" {
			continue
		}
		if m.StartRow < minRow {
			minRow = m.StartRow
		}
		if m.EndRow > maxRow {
			maxRow = m.EndRow
		}
		if m.StartCol < minCol {
			minCol = m.StartCol
		}
		if m.EndCol > maxCol {
			maxCol = m.EndCol
		}
	}

	start, err1 := excelize.CoordinatesToCellName(minCol, minRow, true)
	end, err2 := excelize.CoordinatesToCellName(maxCol, maxRow, true)
	if err1 != nil || err2 != nil {
		return "", false
	}
	return fmt.Sprintf("'%s'!%s:%s", sheet, start, end), true
}
