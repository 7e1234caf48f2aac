package style

import (
	"invoicegen/domain/core"
)

// BorderKind names the border treatment of a cell. FullGrid draws all four
// sides, SidesOnly only left and right (the static mark column running down
// the sheet), NoBottom drops the bottom edge on rows that butt against a
// table, None draws nothing.
type BorderKind string

const (
	BorderNone      BorderKind = ""
	BorderFullGrid  BorderKind = "thin"
	BorderSidesOnly BorderKind = "sides_only"
	BorderNoBottom  BorderKind = "no_bottom"
)

// ColumnStyle holds the column-owned properties of one column id. These
// five keys travel with the column through every region and are never
// overridden by a row context.
type ColumnStyle struct {
	Format            string
	Alignment         string
	VerticalAlignment string
	Width             float64
	WrapText          bool
}

// RowContextStyle holds the row-level decoration of a named context
// ("header", "data", "footer", ...). It may only touch properties outside
// the column-owned set.
type RowContextStyle struct {
	Bold      bool
	Italic    bool
	FontSize  float64
	FontName  string
	FillColor string
	Border    BorderKind
	RowHeight float64
}

// CellStyle is one fully resolved style: the column layer, the context
// layer and any overrides flattened into a single value the styler can
// apply without further lookups.
type CellStyle struct {
	Format            string
	Alignment         string
	VerticalAlignment string
	Width             float64
	WrapText          bool
	Bold              bool
	Italic            bool
	FontSize          float64
	FontName          string
	FillColor         string
	Border            BorderKind
	RowHeight         float64
}

// Diagnostic names a style property resolution could not fill. Resolution
// never aborts on missing properties; callers log these and continue with
// degraded formatting.
type Diagnostic struct {
	ColumnID core.ColumnID
	Context  string
	Property string
}

// Override mutates a resolved style after both layers merged. Overrides may
// touch any key, including the column-owned set.
type Override func(*CellStyle)

// WithBorder forces a border kind, e.g. sides-only for the static column.
func WithBorder(kind BorderKind) Override {
	return func(s *CellStyle) { s.Border = kind }
}

// WithoutBorders strips all borders; grand-total rows use this.
func WithoutBorders() Override {
	return WithBorder(BorderNone)
}

// WithFormat forces a number format, e.g. '#,##0.00' on weight add-on rows.
func WithFormat(format string) Override {
	return func(s *CellStyle) { s.Format = format }
}

// WithBold forces the bold flag.
func WithBold(bold bool) Override {
	return func(s *CellStyle) { s.Bold = bold }
}
