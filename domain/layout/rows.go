package layout

// RowCursor is a 1-based sheet row position. Builders receive the cursor
// for their first row and return the cursor of the next free row; the
// director threads it explicitly so ordering mistakes surface as wrong
// numbers, not aliased state.
type RowCursor int

// Row returns the 1-based row number.
func (c RowCursor) Row() int { return int(c) }

// Next returns the cursor one row down.
func (c RowCursor) Next() RowCursor { return c + 1 }

// Advance returns the cursor n rows down.
func (c RowCursor) Advance(n int) RowCursor { return c + RowCursor(n) }

// Before reports whether c sits above other.
func (c RowCursor) Before(other RowCursor) bool { return c < other }

// RowRange is an inclusive run of rows, e.g. the data region of a table.
type RowRange struct {
	Start int
	End   int
}

// NewRowRange builds the inclusive range [start, end].
func NewRowRange(start, end int) RowRange {
	return RowRange{Start: start, End: end}
}

// Count returns the number of rows in the range, zero when empty.
func (r RowRange) Count() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// IsEmpty reports whether the range holds no rows.
func (r RowRange) IsEmpty() bool { return r.Count() == 0 }

// Contains reports whether row falls inside the range.
func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row <= r.End
}
