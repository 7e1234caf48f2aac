package excel

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/style"
	"invoicegen/internal"
)

// borderStyleCodes maps border weight names to excelize border style codes.
var borderStyleCodes = map[string]int{
	"thin":   1,
	"medium": 2,
	"dashed": 3,
	"dotted": 4,
	"thick":  5,
	"double": 6,
	"hair":   7,
}

// StyleManager registers resolved cell styles with the workbook and caches
// the returned style ids. Styles are immutable once registered, so two
// cells with the same resolved content share one id; the cache key is the
// resolved style with the width and row height zeroed out, since those two
// travel through dimension calls rather than the style record.
type StyleManager struct {
	file  *excelize.File
	cache map[style.CellStyle]int
}

// NewStyleManager creates a style manager bound to one workbook.
func NewStyleManager(file *excelize.File) *StyleManager {
	return &StyleManager{
		file:  file,
		cache: make(map[style.CellStyle]int),
	}
}

// StyleID returns the workbook style id for a resolved style, registering
// it on first use.
func (m *StyleManager) StyleID(resolved style.CellStyle) (int, error) {
	key := resolved
	key.Width = 0
	key.RowHeight = 0

	if id, ok := m.cache[key]; ok {
		return id, nil
	}
	id, err := m.file.NewStyle(translateStyle(key))
	if err != nil {
		return 0, err
	}
	m.cache[key] = id
	return id, nil
}

// translateStyle converts a resolved style into the excelize style record.
// Absent properties stay absent: an empty format means the default General
// format, an empty border kind means no borders.
func translateStyle(s style.CellStyle) *excelize.Style {
	xs := &excelize.Style{
		Border: borderEdges(s.Border),
	}

	font := excelize.Font{
		Bold:   s.Bold,
		Italic: s.Italic,
	}
	if s.FontSize > 0 {
		font.Size = s.FontSize
	}
	if s.FontName != "" {
		font.Family = s.FontName
	}
	if font != (excelize.Font{}) {
		xs.Font = &font
	}

	if s.FillColor != "" {
		xs.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(s.FillColor, "#")},
		}
	}

	if s.Alignment != "" || s.VerticalAlignment != "" || s.WrapText {
		xs.Alignment = &excelize.Alignment{
			Horizontal: s.Alignment,
			Vertical:   s.VerticalAlignment,
			WrapText:   s.WrapText,
		}
	}

	if s.Format != "" && !strings.EqualFold(s.Format, "General") {
		format := s.Format
		xs.CustomNumFmt = &format
	}

	return xs
}

// borderEdges expands a border kind into its edge list. Plain weight names
// ("thin", "medium", ...) draw the full grid at that weight; sides_only
// draws left and right, no_bottom everything except the bottom edge.
func borderEdges(kind style.BorderKind) []excelize.Border {
	if kind == style.BorderNone {
		return nil
	}

	weight := borderStyleCodes["thin"]
	edges := []string{"left", "right", "top", "bottom"}

	switch kind {
	case style.BorderSidesOnly:
		edges = []string{"left", "right"}
	case style.BorderNoBottom:
		edges = []string{"left", "right", "top"}
	default:
		if code, ok := borderStyleCodes[string(kind)]; ok {
			weight = code
		}
	}

	borders := make([]excelize.Border, 0, len(edges))
	for _, edge := range edges {
		borders = append(borders, excelize.Border{
			Type:  edge,
			Color: "000000",
			Style: weight,
		})
	}
	return borders
}

// CellStyler resolves and applies styles for the structural builders. It
// owns the registry lookup, the style id cache, and the dimension calls
// (column widths, row heights) that excelize keeps outside the style
// record. Resolution diagnostics are logged once per column/context pair
// so a thousand-row table does not repeat the same warning per cell.
type CellStyler struct {
	file    *excelize.File
	manager *StyleManager
	styles  style.Registry
	logger  *internal.Logger
	warned  map[string]bool
}

// NewCellStyler creates a styler over one workbook and one sheet's
// compiled style registry.
func NewCellStyler(file *excelize.File, styles style.Registry) *CellStyler {
	return &CellStyler{
		file:    file,
		manager: NewStyleManager(file),
		styles:  styles,
		logger:  internal.DefaultLogger,
		warned:  make(map[string]bool),
	}
}

// Apply resolves the style for one cell and applies it. Missing style
// properties degrade the output and are logged, never fatal.
func (cs *CellStyler) Apply(sheet string, col, row int, colID core.ColumnID, context string, overrides ...style.Override) {
	resolved, diags := cs.styles.Resolve(colID, context, overrides...)
	cs.reportDiagnostics(diags)
	cs.ApplyResolved(sheet, col, row, resolved)
}

// ApplyResolved applies an already-resolved style to one cell.
func (cs *CellStyler) ApplyResolved(sheet string, col, row int, resolved style.CellStyle) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		cs.logger.Warn("Invalid cell coordinates (%d,%d) on %s: %v", col, row, sheet, err)
		return
	}
	id, err := cs.manager.StyleID(resolved)
	if err != nil {
		cs.logger.Warn("Failed to register style for %s!%s: %v", sheet, cell, err)
		return
	}
	if err := cs.file.SetCellStyle(sheet, cell, cell, id); err != nil {
		cs.logger.Warn("Failed to style %s!%s: %v", sheet, cell, err)
	}
}

// Resolve exposes registry resolution with diagnostic logging, for callers
// that need the style content itself (row heights, widths).
func (cs *CellStyler) Resolve(colID core.ColumnID, context string, overrides ...style.Override) style.CellStyle {
	resolved, diags := cs.styles.Resolve(colID, context, overrides...)
	cs.reportDiagnostics(diags)
	return resolved
}

// RowHeight applies a context's configured row height, if any.
func (cs *CellStyler) RowHeight(sheet string, row int, context string) {
	ctx, ok := cs.styles.Context(context)
	if !ok || ctx.RowHeight <= 0 {
		return
	}
	if err := cs.file.SetRowHeight(sheet, row, ctx.RowHeight); err != nil {
		cs.logger.Warn("Failed to set height of row %d on %s: %v", row, sheet, err)
	}
}

// ColumnWidth applies one column's configured width at the given output
// position.
func (cs *CellStyler) ColumnWidth(sheet string, col int, colID core.ColumnID) {
	width := cs.styles.ColumnWidth(colID)
	if width <= 0 {
		return
	}
	name := columnName(col)
	if err := cs.file.SetColWidth(sheet, name, name, width); err != nil {
		cs.logger.Warn("Failed to set width of column %s on %s: %v", name, sheet, err)
	}
}

func (cs *CellStyler) reportDiagnostics(diags []style.Diagnostic) {
	for _, d := range diags {
		key := string(d.ColumnID) + "/" + d.Context + "/" + d.Property
		if cs.warned[key] {
			continue
		}
		cs.warned[key] = true
		cs.logger.Warn("No %s styling for column %q in context %q; output degrades to defaults", d.Property, d.ColumnID, d.Context)
	}
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}
