package style

import (
	"invoicegen/domain/core"
)

// Registry is the two-level style model of one sheet: per-column-id styles
// and named row contexts. It is an explicitly constructed value owned by
// the rendering session; nothing global, nothing registered ambiently.
type Registry struct {
	Columns     map[core.ColumnID]ColumnStyle
	RowContexts map[string]RowContextStyle
}

// NewRegistry builds a registry from already-decoded config maps. Nil maps
// are normalized to empty so lookups stay total.
func NewRegistry(columns map[core.ColumnID]ColumnStyle, contexts map[string]RowContextStyle) Registry {
	if columns == nil {
		columns = make(map[core.ColumnID]ColumnStyle)
	}
	if contexts == nil {
		contexts = make(map[string]RowContextStyle)
	}
	return Registry{Columns: columns, RowContexts: contexts}
}

// IsEmpty reports whether the registry carries no styling at all. An empty
// registry for a configured sheet is a fatal configuration error upstream.
func (r Registry) IsEmpty() bool {
	return len(r.Columns) == 0 && len(r.RowContexts) == 0
}

// Resolve merges the column layer, the row-context layer and any overrides
// into one concrete CellStyle. The column-owned set (format, alignment,
// vertical alignment, width, wrap text) comes only from the column layer;
// a row context can never change those. Overrides apply last and may touch
// any key. Missing pieces produce diagnostics, never failures.
func (r Registry) Resolve(colID core.ColumnID, context string, overrides ...Override) (CellStyle, []Diagnostic) {
	var diags []Diagnostic

	col, colOK := r.Columns[colID]
	if !colOK {
		diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "column"})
	}

	resolved := CellStyle{
		Format:            col.Format,
		Alignment:         col.Alignment,
		VerticalAlignment: col.VerticalAlignment,
		Width:             col.Width,
		WrapText:          col.WrapText,
	}

	ctx, ctxOK := r.RowContexts[context]
	if !ctxOK && context != "" {
		diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "row_context"})
	}
	if ctxOK {
		resolved.Bold = ctx.Bold
		resolved.Italic = ctx.Italic
		resolved.FontSize = ctx.FontSize
		resolved.FontName = ctx.FontName
		resolved.FillColor = ctx.FillColor
		resolved.Border = ctx.Border
		resolved.RowHeight = ctx.RowHeight
	}

	for _, o := range overrides {
		o(&resolved)
	}

	if colOK {
		if resolved.Format == "" {
			diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "format"})
		}
		if resolved.Alignment == "" {
			diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "alignment"})
		}
	}
	if ctxOK {
		if resolved.FontName == "" {
			diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "font_name"})
		}
		if resolved.FontSize == 0 {
			diags = append(diags, Diagnostic{ColumnID: colID, Context: context, Property: "font_size"})
		}
	}

	return resolved, diags
}

// Context returns a named row context, second value false when undefined.
func (r Registry) Context(name string) (RowContextStyle, bool) {
	ctx, ok := r.RowContexts[name]
	return ctx, ok
}

// ColumnWidth returns the configured width of a column id, 0 when unset.
func (r Registry) ColumnWidth(colID core.ColumnID) float64 {
	return r.Columns[colID].Width
}
