package view

import "github.com/leapstack-labs/pqview/internal/rowstore"

// CellAt returns the display text of the cell at (col, row) of a derived
// view. Out-of-range coordinates yield "".
func CellAt(rows []rowstore.Row, columns []rowstore.Column, col, row int) string {
	if row < 0 || row >= len(rows) || col < 0 || col >= len(columns) {
		return ""
	}
	return rowstore.Display(rows[row][columns[col].Name])
}

// WindowRow is one rendered row of a Window.
type WindowRow struct {
	// Number is the 1-based position in the derived view.
	Number int
	Cells  []string
}

// Window is a contiguous slice of a derived view, rendered to text.
type Window struct {
	Offset  int
	Limit   int
	Total   int
	Columns []rowstore.Column
	Rows    []WindowRow
}

// HasPrev reports whether rows exist before the window.
func (w Window) HasPrev() bool {
	return w.Offset > 0
}

// HasNext reports whether rows exist after the window.
func (w Window) HasNext() bool {
	return w.Offset+len(w.Rows) < w.Total
}

// PrevOffset is the offset of the preceding window.
func (w Window) PrevOffset() int {
	return max(0, w.Offset-w.Limit)
}

// NextOffset is the offset of the following window.
func (w Window) NextOffset() int {
	return w.Offset + w.Limit
}

// NewWindow renders up to limit rows of a derived view starting at offset.
// The offset is clamped so that a shrinking view never yields an empty
// window while rows remain.
func NewWindow(rows []rowstore.Row, columns []rowstore.Column, offset, limit int) Window {
	if limit <= 0 {
		limit = 1
	}
	total := len(rows)
	if offset >= total {
		offset = ((total - 1) / limit) * limit
	}
	if offset < 0 {
		offset = 0
	}
	end := min(offset+limit, total)

	w := Window{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Columns: columns,
		Rows:    make([]WindowRow, 0, end-offset),
	}
	for r := offset; r < end; r++ {
		cells := make([]string, len(columns))
		for c := range columns {
			cells[c] = CellAt(rows, columns, c, r)
		}
		w.Rows = append(w.Rows, WindowRow{Number: r + 1, Cells: cells})
	}
	return w
}
