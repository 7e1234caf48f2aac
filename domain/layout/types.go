package layout

import (
	"invoicegen/domain/core"
)

// Mode selects the generation variant. DAF and Custom are independent
// flags; a column opts out of either through its skip markers.
type Mode struct {
	DAF    bool
	Custom bool
}

// ColumnDef describes one column of a table layout. ID is the stable join
// key: styling, data mapping, footer sums and merges all address the column
// through it, never through a raw index. A def with Children renders as a
// parent cell spanning its children on the first header row.
type ColumnDef struct {
	ID           core.ColumnID
	Header       string
	Format       string
	Alignment    string
	Rowspan      int
	Colspan      int
	Children     []ColumnDef
	SkipInDAF    bool
	SkipInCustom bool
}

// PhysicalWidth returns how many grid columns the def occupies in the
// template: the child count when children are present, else the colspan,
// minimum one.
func (c ColumnDef) PhysicalWidth() int {
	if len(c.Children) > 0 {
		return len(c.Children)
	}
	if c.Colspan > 1 {
		return c.Colspan
	}
	return 1
}

// SkippedIn reports whether the def is removed under the given mode flags.
func (c ColumnDef) SkippedIn(m Mode) bool {
	return (m.DAF && c.SkipInDAF) || (m.Custom && c.SkipInCustom)
}

// Leaves returns the defs that own actual cells: children where present,
// otherwise the def itself.
func (c ColumnDef) Leaves() []ColumnDef {
	if len(c.Children) == 0 {
		return []ColumnDef{c}
	}
	return c.Children
}

// FooterKind distinguishes the bordered per-table footer from the
// border-stripped grand total closing a multi-table sheet.
type FooterKind string

const (
	FooterRegular    FooterKind = "regular"
	FooterGrandTotal FooterKind = "grand_total"
)

// MergeRule merges a fixed span on the footer row, anchored by column id.
type MergeRule struct {
	StartColumnID core.ColumnID
	Colspan       int
}

// BannerConfig is the optional free-text row emitted immediately before a
// regular footer. Grand-total footers never render it.
type BannerConfig struct {
	Enabled  bool
	ColumnID core.ColumnID
	Text     string
	Merge    int
}

// WeightSummaryConfig positions the net/gross weight add-on rows.
type WeightSummaryConfig struct {
	Enabled       bool
	LabelColumnID core.ColumnID
	ValueColumnID core.ColumnID
}

// LeatherSummaryConfig enables the per-type totals block that follows a
// grand-total footer.
type LeatherSummaryConfig struct {
	Enabled bool
}

// FooterConfig drives the footer builder for one table.
type FooterConfig struct {
	Kind              FooterKind
	TotalText         string
	TotalTextColumnID core.ColumnID
	PalletColumnID    core.ColumnID
	SumColumnIDs      []core.ColumnID
	MergeRules        []MergeRule
	BlankRowBefore    bool
	Banner            BannerConfig
	WeightSummary     WeightSummaryConfig
	LeatherSummary    LeatherSummaryConfig
}

// SheetLayout is the compiled structural description of one sheet's table.
type SheetLayout struct {
	HeaderRow            int
	Columns              []ColumnDef
	Footer               FooterConfig
	VerticalMergeColumns []core.ColumnID
}

// Validate checks the layout invariants the builders rely on: at least one
// column, a positive header row, and unique leaf ids.
func (s SheetLayout) Validate() error {
	if len(s.Columns) == 0 {
		return core.ErrEmptyLayout
	}
	if s.HeaderRow < 1 {
		return core.NewColumnError("", "header_row must be 1-based")
	}
	seen := make(map[core.ColumnID]bool)
	for _, def := range s.Columns {
		for _, leaf := range def.Leaves() {
			if leaf.ID == "" {
				continue
			}
			if seen[leaf.ID] {
				return core.NewColumnError(leaf.ID.String(), core.ErrDuplicateColumn.Error())
			}
			seen[leaf.ID] = true
		}
	}
	return nil
}

// LeafColumns flattens the def tree into the ordered leaf list.
func (s SheetLayout) LeafColumns() []ColumnDef {
	var leaves []ColumnDef
	for _, def := range s.Columns {
		leaves = append(leaves, def.Leaves()...)
	}
	return leaves
}
