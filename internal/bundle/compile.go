package bundle

import (
	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/mapping"
	"invoicegen/domain/style"
	"invoicegen/models"
)

// defaultVerticalMerge names the columns whose contiguous equal data cells
// merge vertically. Descriptions repeat across rows of one lot; the merged
// block reads as one entry.
var defaultVerticalMerge = []core.ColumnID{"col_desc"}

// SheetBundle is one sheet's fully compiled configuration: structure,
// styling and static content resolved to domain types, with the raw
// mapping block kept for per-mode compilation.
type SheetBundle struct {
	Name       string
	DataSource string
	Layout     layout.SheetLayout
	Styles     style.Registry
	Mappings   map[string]any
	Static     map[core.ColumnID][]any
}

// Rules compiles the sheet's mapping block against the columns that
// survive the given mode. The result is mode-specific: rules targeting a
// removed column vanish with it.
func (sb *SheetBundle) Rules(mode layout.Mode) mapping.RuleSet {
	_, surviving := layout.BuildColumnPlan(sb.Layout.Columns, mode)

	var ids []core.ColumnID
	for _, def := range surviving {
		for _, leaf := range def.Leaves() {
			if leaf.ID != "" {
				ids = append(ids, leaf.ID)
			}
		}
	}
	return mapping.Compile(sb.Mappings, ids)
}

// MultiTable reports whether the sheet renders one table per data bundle
// key instead of a single table.
func (sb *SheetBundle) MultiTable() bool {
	return sb.DataSource == "processed_tables_multi"
}

func compileLayout(doc models.SheetLayoutDoc) (layout.SheetLayout, error) {
	compiled := layout.SheetLayout{
		HeaderRow:            doc.Structure.HeaderRow,
		Columns:              compileColumns(doc.Structure.Columns),
		Footer:               compileFooter(doc.Footer),
		VerticalMergeColumns: defaultVerticalMerge,
	}
	if err := compiled.Validate(); err != nil {
		return layout.SheetLayout{}, err
	}
	return compiled, nil
}

func compileColumns(docs []models.ColumnDoc) []layout.ColumnDef {
	defs := make([]layout.ColumnDef, 0, len(docs))
	for _, doc := range docs {
		defs = append(defs, layout.ColumnDef{
			ID:           core.ColumnID(doc.ID),
			Header:       doc.Header,
			Rowspan:      doc.Rowspan,
			Colspan:      doc.Colspan,
			Children:     compileColumns(doc.Children),
			SkipInDAF:    doc.SkipInDAF,
			SkipInCustom: doc.SkipInCustom,
		})
	}
	return defs
}

func compileFooter(doc models.FooterDoc) layout.FooterConfig {
	kind := layout.FooterKind(doc.Type)
	if kind != layout.FooterGrandTotal {
		kind = layout.FooterRegular
	}

	cfg := layout.FooterConfig{
		Kind:              kind,
		TotalText:         doc.TotalText,
		TotalTextColumnID: core.ColumnID(doc.TotalTextColumnID),
		PalletColumnID:    core.ColumnID(doc.PalletCountColumnID),
		BlankRowBefore:    doc.AddBlankBefore,
	}
	for _, id := range doc.SumColumnIDs {
		cfg.SumColumnIDs = append(cfg.SumColumnIDs, core.ColumnID(id))
	}
	for _, rule := range doc.MergeRules {
		cfg.MergeRules = append(cfg.MergeRules, layout.MergeRule{
			StartColumnID: core.ColumnID(rule.StartColumnID),
			Colspan:       rule.Colspan,
		})
	}

	if addOns := doc.AddOns; addOns != nil {
		if banner := addOns.BeforeFooter; banner != nil {
			cfg.Banner = layout.BannerConfig{
				Enabled:  banner.Enabled,
				ColumnID: core.ColumnID(banner.ColumnID),
				Text:     banner.Text,
				Merge:    banner.Merge,
			}
		}
		if ws := addOns.WeightSummary; ws != nil {
			cfg.WeightSummary = layout.WeightSummaryConfig{
				Enabled:       ws.Enabled,
				LabelColumnID: core.ColumnID(ws.LabelColID),
				ValueColumnID: core.ColumnID(ws.ValueColID),
			}
		}
		if ls := addOns.LeatherSummary; ls != nil {
			cfg.LeatherSummary = layout.LeatherSummaryConfig{Enabled: ls.Enabled}
		}
	}
	return cfg
}

func compileStyles(doc models.SheetStylingDoc) style.Registry {
	columns := make(map[core.ColumnID]style.ColumnStyle, len(doc.Columns))
	for id, col := range doc.Columns {
		columns[core.ColumnID(id)] = style.ColumnStyle{
			Format:            col.Format,
			Alignment:         col.Alignment,
			VerticalAlignment: col.VerticalAlignment,
			Width:             col.Width,
			WrapText:          col.WrapText,
		}
	}

	contexts := make(map[string]style.RowContextStyle, len(doc.RowContexts))
	for name, ctx := range doc.RowContexts {
		contexts[name] = style.RowContextStyle{
			Bold:      ctx.Bold,
			Italic:    ctx.Italic,
			FontSize:  ctx.FontSize,
			FontName:  ctx.FontName,
			FillColor: ctx.FillColor,
			Border:    style.BorderKind(ctx.BorderStyle),
			RowHeight: ctx.RowHeight,
		}
	}
	return style.NewRegistry(columns, contexts)
}

func compileStatic(doc models.ContentDoc) map[core.ColumnID][]any {
	if len(doc.Static) == 0 {
		return nil
	}
	static := make(map[core.ColumnID][]any, len(doc.Static))
	for id, values := range doc.Static {
		static[core.ColumnID(id)] = values
	}
	return static
}
