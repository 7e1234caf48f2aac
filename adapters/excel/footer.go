package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/mapping"
	"invoicegen/domain/style"
	"invoicegen/domain/table"
	"invoicegen/internal"
	"invoicegen/internal/errors"
)

// weightFormat forces the thousands format on weight add-on values.
const weightFormat = "#,##0.00"

// leatherOrder fixes the add-on row order: buffalo first, then cow.
var leatherOrder = []table.LeatherType{table.LeatherBuffalo, table.LeatherCow}

// FooterBuilder writes the footer block of one table, always in the same
// order: optional blank row, optional banner (regular footers only), the
// main total row, then the weight and leather add-ons. Regular footers
// carry the full border grid; grand totals render the same content with
// every border stripped.
type FooterBuilder struct {
	file   *excelize.File
	sheet  string
	styler *CellStyler
	logger *internal.Logger
}

// NewFooterBuilder creates a footer builder for one output sheet.
func NewFooterBuilder(file *excelize.File, sheet string, styler *CellStyler) *FooterBuilder {
	return &FooterBuilder{
		file:   file,
		sheet:  sheet,
		styler: styler,
		logger: internal.DefaultLogger,
	}
}

// Build writes the footer block starting at footer.FooterRowStart and
// returns the next free row. Sum formulas cover the supplied ranges, so a
// grand total passes every table's data range while a regular footer
// passes its own. Missing labels and incomplete add-ons degrade with loud
// logs; only an impossible start row is an error.
func (b *FooterBuilder) Build(cfg layout.FooterConfig, header layout.HeaderInfo, footer table.FooterData, sumRanges []layout.RowRange) (int, error) {
	if footer.FooterRowStart < 1 {
		return 0, errors.ConfigInvalid(fmt.Sprintf("footer row %d on %s is not a valid position", footer.FooterRowStart, b.sheet))
	}

	kind := cfg.Kind
	switch kind {
	case layout.FooterRegular, layout.FooterGrandTotal:
	case "":
		kind = layout.FooterRegular
	default:
		b.logger.Error("Unknown footer kind %q on %s; rendering as a regular footer", cfg.Kind, b.sheet)
		kind = layout.FooterRegular
	}

	row := footer.FooterRowStart
	if cfg.BlankRowBefore {
		row++
	}

	if cfg.Banner.Enabled && kind == layout.FooterRegular {
		if b.buildBanner(cfg.Banner, header, row) {
			row++
		}
	}

	b.buildMainRow(cfg, kind, header, footer, sumRanges, row)
	row++

	if cfg.WeightSummary.Enabled {
		row = b.buildWeightSummary(cfg.WeightSummary, header, footer.WeightSummary, row)
	}
	if cfg.LeatherSummary.Enabled && kind == layout.FooterGrandTotal {
		row = b.buildLeatherSummary(cfg, header, footer, row)
	}

	return row, nil
}

// buildBanner writes the free-text row preceding a regular footer (an HS
// code line, a shipping mark). Incomplete config skips the banner without
// consuming the row.
func (b *FooterBuilder) buildBanner(banner layout.BannerConfig, header layout.HeaderInfo, row int) bool {
	if banner.ColumnID == "" || banner.Text == "" {
		b.logger.Warn("Banner on %s needs both a column id and text; skipped", b.sheet)
		return false
	}
	col, ok := resolveFooterColumn(header, banner.ColumnID)
	if !ok {
		b.logger.Error("Banner column %q is not part of the header on %s; banner skipped", banner.ColumnID, b.sheet)
		return false
	}

	b.setText(col, row, banner.Text)
	b.applyColspanMergesAt(header, row)
	if banner.Merge > 1 {
		b.mergeAt(col, row, col+banner.Merge-1, row)
	}
	b.styleFooterRow(header, row, layout.FooterRegular)
	b.styler.RowHeight(b.sheet, row, "footer")
	return true
}

// buildMainRow writes the total row itself: the total label, the pallet
// count text, and one multi-range SUM per configured sum column.
func (b *FooterBuilder) buildMainRow(cfg layout.FooterConfig, kind layout.FooterKind, header layout.HeaderInfo, footer table.FooterData, sumRanges []layout.RowRange, row int) {
	totalCol, ok := resolveFooterColumn(header, cfg.TotalTextColumnID)
	if !ok {
		b.logger.Error("Total text column %q is not mapped on %s; total label omitted", cfg.TotalTextColumnID, b.sheet)
	} else {
		b.setText(totalCol, row, totalText(cfg, kind))
	}

	if footer.TotalPallets > 0 && cfg.PalletColumnID != "" {
		if col, ok := resolveFooterColumn(header, cfg.PalletColumnID); ok {
			b.setText(col, row, palletText(footer.TotalPallets))
		} else {
			b.logger.Warn("Pallet column %q is not mapped on %s; pallet count omitted", cfg.PalletColumnID, b.sheet)
		}
	}

	if formula := sumFormulaParts(sumRanges); len(formula) > 0 {
		for _, id := range cfg.SumColumnIDs {
			col, ok := header.Column(id)
			if !ok {
				// Documented behavior: an unmapped sum column omits that
				// one sum rather than failing the footer.
				b.logger.Debug("Sum column %q is not mapped on %s; sum omitted", id, b.sheet)
				continue
			}
			letter := layout.ColumnLetter(col)
			ranges := make([]string, len(formula))
			for i, r := range formula {
				ranges[i] = fmt.Sprintf("%s%d:%s%d", letter, r.Start, letter, r.End)
			}
			ref, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				continue
			}
			if err := b.file.SetCellFormula(b.sheet, ref, "=SUM("+strings.Join(ranges, ",")+")"); err != nil {
				b.logger.Warn("Failed to write sum formula at %s!%s: %v", b.sheet, ref, err)
			}
		}
	}

	b.styleFooterRow(header, row, kind)
	b.styler.RowHeight(b.sheet, row, "footer")

	b.applyColspanMergesAt(header, row)
	for _, rule := range cfg.MergeRules {
		start, ok := resolveFooterColumn(header, rule.StartColumnID)
		if !ok || rule.Colspan < 2 {
			continue
		}
		end := start + rule.Colspan - 1
		if end > header.NumColumns {
			end = header.NumColumns
		}
		b.mergeAt(start, row, end, row)
	}
}

// buildWeightSummary writes the two weight rows (net then gross) and
// returns the next free row. The value cells force the thousands format;
// the rows carry no borders.
func (b *FooterBuilder) buildWeightSummary(cfg layout.WeightSummaryConfig, header layout.HeaderInfo, weights table.WeightSummary, row int) int {
	labelCol, labelOK := resolveFooterColumn(header, cfg.LabelColumnID)
	valueCol, valueOK := resolveFooterColumn(header, cfg.ValueColumnID)
	if !labelOK || !valueOK {
		b.logger.Warn("Weight summary on %s needs mapped label and value columns (%q, %q); skipped", b.sheet, cfg.LabelColumnID, cfg.ValueColumnID)
		return row
	}

	lines := []struct {
		label string
		value float64
	}{
		{"NW(KGS)", weights.Net},
		{"GW(KGS):", weights.Gross},
	}
	for i, line := range lines {
		r := row + i
		b.setText(labelCol, r, line.label)
		if ref, err := excelize.CoordinatesToCellName(valueCol, r); err == nil {
			if err := b.file.SetCellValue(b.sheet, ref, line.value); err != nil {
				b.logger.Warn("Failed to write weight value at %s!%s: %v", b.sheet, ref, err)
			}
		}
		for _, bc := range leafColumns(header) {
			overrides := []style.Override{style.WithoutBorders()}
			if bc.col == valueCol {
				overrides = append(overrides, style.WithFormat(weightFormat))
			}
			for c := bc.col; c < bc.col+bc.span; c++ {
				b.styler.Apply(b.sheet, c, r, bc.id, "footer", overrides...)
			}
		}
		b.styler.RowHeight(b.sheet, r, "footer")
	}
	return row + 2
}

// buildLeatherSummary writes one border-free row per leather type with
// anything to report, each carrying the total label, the type text, the
// pallet count and the per-column sums.
func (b *FooterBuilder) buildLeatherSummary(cfg layout.FooterConfig, header layout.HeaderInfo, footer table.FooterData, row int) int {
	labelCol, ok := resolveFooterColumn(header, cfg.TotalTextColumnID)
	if !ok {
		if col, descOK := header.Column(table.ColDescription); descOK {
			labelCol = col
		} else {
			labelCol = 2
		}
	}

	for _, leatherType := range leatherOrder {
		totals, present := footer.LeatherSummary[leatherType]
		if !present || totals.IsZero() {
			continue
		}

		b.setText(labelCol, row, totalText(cfg, layout.FooterGrandTotal))
		b.setText(labelCol+1, row, leatherType.DisplayText())
		if totals.PalletCount > 0 && cfg.PalletColumnID != "" {
			if col, palletOK := resolveFooterColumn(header, cfg.PalletColumnID); palletOK {
				b.setText(col, row, palletText(totals.PalletCount))
			}
		}
		for _, id := range cfg.SumColumnIDs {
			col, mapped := header.Column(id)
			if !mapped {
				continue
			}
			if ref, err := excelize.CoordinatesToCellName(col, row); err == nil {
				if err := b.file.SetCellValue(b.sheet, ref, totals.ColumnSums[id]); err != nil {
					b.logger.Warn("Failed to write leather sum at %s!%s: %v", b.sheet, ref, err)
				}
			}
		}

		for _, bc := range leafColumns(header) {
			for c := bc.col; c < bc.col+bc.span; c++ {
				b.styler.Apply(b.sheet, c, row, bc.id, "footer", style.WithoutBorders())
			}
		}
		b.styler.RowHeight(b.sheet, row, "footer")
		row++
	}
	return row
}

// styleFooterRow styles every mapped column across the row. Grand totals
// strip all borders; the static column keeps only its side rails.
func (b *FooterBuilder) styleFooterRow(header layout.HeaderInfo, row int, kind layout.FooterKind) {
	for _, bc := range leafColumns(header) {
		var overrides []style.Override
		if kind == layout.FooterGrandTotal {
			overrides = append(overrides, style.WithoutBorders())
		} else if bc.id == mapping.ColStatic {
			overrides = append(overrides, style.WithBorder(style.BorderSidesOnly))
		}
		for c := bc.col; c < bc.col+bc.span; c++ {
			b.styler.Apply(b.sheet, c, row, bc.id, "footer", overrides...)
		}
	}
}

// applyColspanMergesAt repeats the header's leaf spans on one footer row.
func (b *FooterBuilder) applyColspanMergesAt(header layout.HeaderInfo, row int) {
	for _, bc := range leafColumns(header) {
		if bc.span < 2 {
			continue
		}
		b.mergeAt(bc.col, row, bc.col+bc.span-1, row)
	}
}

func (b *FooterBuilder) mergeAt(startCol, startRow, endCol, endRow int) {
	topLeft, err1 := excelize.CoordinatesToCellName(startCol, startRow)
	bottomRight, err2 := excelize.CoordinatesToCellName(endCol, endRow)
	if err1 != nil || err2 != nil {
		return
	}
	if err := b.file.MergeCell(b.sheet, topLeft, bottomRight); err != nil {
		b.logger.Warn("Failed to merge %s:%s on %s: %v", topLeft, bottomRight, b.sheet, err)
	}
}

func (b *FooterBuilder) setText(col, row int, text string) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	if err := b.file.SetCellValue(b.sheet, ref, text); err != nil {
		b.logger.Warn("Failed to write %q at %s!%s: %v", text, b.sheet, ref, err)
	}
}

// totalText picks the configured label or the kind's default.
func totalText(cfg layout.FooterConfig, kind layout.FooterKind) string {
	if cfg.TotalText != "" {
		return cfg.TotalText
	}
	if kind == layout.FooterGrandTotal {
		return "TOTAL OF:"
	}
	return "TOTAL:"
}

// palletText renders the pallet count with its plural.
func palletText(count int) string {
	suffix := ""
	if count != 1 {
		suffix = "S"
	}
	return fmt.Sprintf("%d PALLET%s", count, suffix)
}

// resolveFooterColumn accepts either a column id or a raw zero-based
// index carried as a number, the two forms footer configs use.
func resolveFooterColumn(header layout.HeaderInfo, id core.ColumnID) (int, bool) {
	if id == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(string(id)); err == nil {
		return n + 1, true
	}
	return header.Column(id)
}

// sumFormulaParts filters the sum ranges down to the non-empty ones.
func sumFormulaParts(ranges []layout.RowRange) []layout.RowRange {
	parts := make([]layout.RowRange, 0, len(ranges))
	for _, r := range ranges {
		if r.IsEmpty() {
			continue
		}
		parts = append(parts, r)
	}
	return parts
}
