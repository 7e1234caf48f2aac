package layout

// ColumnPlan maps 1-based template column indexes to 1-based output column
// indexes after mode-dependent column removal. A template column absent
// from the mapping was removed; whoever replays template content through
// the plan must re-home anything that lived there.
type ColumnPlan struct {
	mapping      map[int]int
	templateCols int
	outputCols   int
}

// BuildColumnPlan walks the defs in order with independent template and
// output cursors. A skipped def maps every physical column it occupies to
// removed; a surviving def takes the next output columns 1:1. The surviving
// top-level defs are returned for the header builder.
func BuildColumnPlan(cols []ColumnDef, mode Mode) (ColumnPlan, []ColumnDef) {
	plan := ColumnPlan{mapping: make(map[int]int)}
	templateCol, outputCol := 1, 1
	var kept []ColumnDef

	for _, def := range cols {
		width := def.PhysicalWidth()
		if def.SkippedIn(mode) {
			templateCol += width
			continue
		}
		for i := 0; i < width; i++ {
			plan.mapping[templateCol+i] = outputCol + i
		}
		templateCol += width
		outputCol += width
		kept = append(kept, def)
	}

	plan.templateCols = templateCol - 1
	plan.outputCols = outputCol - 1
	return plan, kept
}

// Map returns the output column for a template column. ok is false when the
// column was removed by the active mode.
func (p ColumnPlan) Map(templateCol int) (int, bool) {
	out, ok := p.mapping[templateCol]
	return out, ok
}

// TemplateColumns returns how many template grid columns the plan covers.
func (p ColumnPlan) TemplateColumns() int { return p.templateCols }

// OutputColumns returns how many columns survive into the output.
func (p ColumnPlan) OutputColumns() int { return p.outputCols }

// IsIdentity reports whether no column was removed, in which case template
// content replays onto the same coordinates it came from.
func (p ColumnPlan) IsIdentity() bool {
	return p.templateCols == p.outputCols
}
