package table

import (
	"invoicegen/domain/core"
	"invoicegen/domain/layout"
)

// Well-known column ids the calculator keys on. Layouts may carry either
// the long or the short weight id; the first one present in the header wins.
const (
	ColDescription core.ColumnID = "col_desc"
	ColNetWeight   core.ColumnID = "col_net_weight"
	ColNet         core.ColumnID = "col_net"
	ColGrossWeight core.ColumnID = "col_gross_weight"
	ColGross       core.ColumnID = "col_gross"
)

// Row is one resolved data row keyed by column id. Values are whatever the
// aggregation pipeline produced: strings, numbers, or formula specs; the
// consumers coerce as needed.
type Row map[core.ColumnID]any

// ResolvedTable is the opaque output of the aggregation pipeline for one
// logical table. Precomputed summaries, when present, are authoritative and
// suppress the corresponding fold over the rows.
type ResolvedTable struct {
	Rows            []Row
	PalletCounts    []any
	StaticInfo      map[core.ColumnID]any
	DynamicDescUsed bool

	// Optional precomputed summaries from the parser.
	LeatherSummary LeatherSummary
	WeightSummary  *WeightSummary
	PalletTotal    *int
}

// LeatherType classifies a data row by its description text. Anything whose
// description does not mention buffalo counts as cow.
type LeatherType string

const (
	LeatherBuffalo LeatherType = "BUFFALO"
	LeatherCow     LeatherType = "COW"
)

// DisplayText is the label printed on a leather summary row.
func (t LeatherType) DisplayText() string {
	if t == LeatherBuffalo {
		return "BUFFALO LEATHER"
	}
	return "LEATHER"
}

// LeatherTotals accumulates the pallet count and per-column numeric sums of
// one leather type.
type LeatherTotals struct {
	PalletCount int
	ColumnSums  map[core.ColumnID]float64
}

// IsZero reports whether the totals carry nothing worth printing.
func (t LeatherTotals) IsZero() bool {
	if t.PalletCount != 0 {
		return false
	}
	for _, sum := range t.ColumnSums {
		if sum != 0 {
			return false
		}
	}
	return true
}

// LeatherSummary maps each leather type to its accumulated totals.
type LeatherSummary map[LeatherType]LeatherTotals

// WeightSummary carries the net and gross weight totals of one table.
type WeightSummary struct {
	Net   float64
	Gross float64
}

// IsZero reports whether both totals are zero; the director injects global
// weights into zero summaries on aggregation sheets.
func (w WeightSummary) IsZero() bool {
	return w.Net == 0 && w.Gross == 0
}

// FooterData is everything the footer builder needs, produced once per
// table and consumed read-only. Row positions are derived arithmetically,
// never by scanning the sheet.
type FooterData struct {
	FooterRowStart int
	DataStartRow   int
	DataEndRow     int
	TotalPallets   int
	LeatherSummary LeatherSummary
	WeightSummary  WeightSummary
}

// DataRange returns the inclusive data region of the table.
func (f FooterData) DataRange() layout.RowRange {
	return layout.NewRowRange(f.DataStartRow, f.DataEndRow)
}

// HasData reports whether the table wrote at least one data row.
func (f FooterData) HasData() bool {
	return f.DataEndRow >= f.DataStartRow
}
