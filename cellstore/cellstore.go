// Package cellstore implements the sparse per-sheet cell store: rows kept
// sorted by row number, cells within a row kept sorted by a cached column
// number, with O(log n) lookup, insert, and delete via binary search.
//
// The store knows nothing about XML or the package container; the document
// engine loads it from a worksheet part and serializes it back.  All higher
// features (styles, formulas, tables) read and mutate cells exclusively
// through this store.
package cellstore

import (
	"sort"

	"github.com/TsubasaBE/go-xlsx/internal/ref"
)

// CellType tags the interpretation of a cell's value payload.
type CellType uint8

// Cell value types, mirroring the t attribute of a worksheet cell element.
const (
	// TypeNone is a plain numeric cell (no t attribute).
	TypeNone CellType = iota
	// TypeSharedString is an index into the workbook shared-string table.
	TypeSharedString
	// TypeNumber is an explicit numeric cell (t="n").
	TypeNumber
	// TypeBool is a boolean cell (t="b"), value "0" or "1".
	TypeBool
	// TypeError is an error cell (t="e"), e.g. "#DIV/0!".
	TypeError
	// TypeInlineString is an inline string cell (t="inlineStr").
	TypeInlineString
	// TypeFormulaString is a cached string formula result (t="str").
	TypeFormulaString
	// TypeDate is a date cell (t="d", ISO 8601 value) or a serial-number
	// date; the style's number format decides rendering.
	TypeDate
)

// Cell is a single cell within a row.
type Cell struct {
	// Ref is the textual A1-style reference ("B3").
	Ref string
	// Col is the 1-based column number cached from Ref.  It is computed once
	// when the cell is created or loaded and treated as immutable; any code
	// path that rewrites Ref must recompute it or the sortedness invariant
	// breaks silently.
	Col int
	// Style is the cell-format (XF) index, 0 when unset.
	Style int
	// Type tags the interpretation of Value.
	Type CellType
	// Value is the raw value payload as stored in the part (the v element
	// text): a number literal, a shared-string index, "0"/"1" for booleans,
	// or the literal text for inline strings.
	Value string
	// Formula is the formula expression without the leading "=", empty for
	// non-formula cells.
	Formula string
}

// Row is one row of a sheet: a 1-based row number, row-level formatting, and
// the cells sorted ascending by Col.
type Row struct {
	// Num is the 1-based row number.
	Num int
	// Height is the row height in points; 0 means unset.
	Height float64
	// CustomHeight is true when Height was set explicitly.
	CustomHeight bool
	// Hidden reports whether the row is hidden.
	Hidden bool
	// Style is the row-level format index; 0 when unset.
	Style int
	// Cells are the row's cells, sorted ascending and unique by Col.
	Cells []Cell
}

// Store holds all rows of one sheet, sorted ascending and unique by Num.
type Store struct {
	Rows []Row
}

// searchRow returns the index at which a row with number num is stored or
// would be inserted, and whether it is present.
func (s *Store) searchRow(num int) (int, bool) {
	i := sort.Search(len(s.Rows), func(i int) bool { return s.Rows[i].Num >= num })
	return i, i < len(s.Rows) && s.Rows[i].Num == num
}

// searchCell returns the index at which a cell with column col is stored in
// r or would be inserted, and whether it is present.
func searchCell(r *Row, col int) (int, bool) {
	i := sort.Search(len(r.Cells), func(i int) bool { return r.Cells[i].Col >= col })
	return i, i < len(r.Cells) && r.Cells[i].Col == col
}

// Row returns the row with the given number, or nil when absent.
func (s *Store) Row(num int) *Row {
	if i, ok := s.searchRow(num); ok {
		return &s.Rows[i]
	}
	return nil
}

// GetOrInsertRow returns the row with the given number, inserting an empty
// row at the binary-search insertion point when absent.
func (s *Store) GetOrInsertRow(num int) *Row {
	i, ok := s.searchRow(num)
	if !ok {
		s.Rows = append(s.Rows, Row{})
		copy(s.Rows[i+1:], s.Rows[i:])
		s.Rows[i] = Row{Num: num}
	}
	return &s.Rows[i]
}

// Get returns the cell at (row, col), or nil when either the row or the cell
// is absent.  A nil result is the expected representation of an empty cell,
// not an error.
func (s *Store) Get(row, col int) *Cell {
	r := s.Row(row)
	if r == nil {
		return nil
	}
	if i, ok := searchCell(r, col); ok {
		return &r.Cells[i]
	}
	return nil
}

// GetOrInsert returns the cell at (row, col), inserting a default cell at
// the binary-search insertion point when absent.  The inserted cell carries
// its A1 reference and cached column number.
func (s *Store) GetOrInsert(row, col int) *Cell {
	r := s.GetOrInsertRow(row)
	i, ok := searchCell(r, col)
	if !ok {
		name, _ := ref.CoordinatesToCellName(col, row)
		r.Cells = append(r.Cells, Cell{})
		copy(r.Cells[i+1:], r.Cells[i:])
		r.Cells[i] = Cell{Ref: name, Col: col}
	}
	return &r.Cells[i]
}

// Remove deletes the cell at (row, col) and reports whether it existed.
// Removing the last cell of a row keeps the row: row-level formatting may
// still be meaningful.
func (s *Store) Remove(row, col int) bool {
	r := s.Row(row)
	if r == nil {
		return false
	}
	i, ok := searchCell(r, col)
	if !ok {
		return false
	}
	r.Cells = append(r.Cells[:i], r.Cells[i+1:]...)
	return true
}

// RemoveRow deletes the row with the given number, including its cells, and
// reports whether it existed.
func (s *Store) RemoveRow(num int) bool {
	i, ok := s.searchRow(num)
	if !ok {
		return false
	}
	s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
	return true
}

// ShiftRows renumbers every row with Num >= from by offset, rewriting each
// cell's textual reference and keeping the cached column numbers intact.
// A negative offset shifts rows up.  Callers must ensure the shift does not
// collide with surviving rows.
func (s *Store) ShiftRows(from, offset int) {
	for i := range s.Rows {
		r := &s.Rows[i]
		if r.Num < from {
			continue
		}
		r.Num += offset
		for j := range r.Cells {
			c := &r.Cells[j]
			name, err := ref.CoordinatesToCellName(c.Col, r.Num)
			if err == nil {
				c.Ref = name
			}
		}
	}
}

// Normalize sorts rows by number and cells by column, recomputing each
// cell's cached column number from its reference first.  Parsers may emit
// unsorted or unnormalized data; the read path must not trust input
// ordering.  Duplicate row numbers are merged (first occurrence wins on
// row attributes); duplicate columns within a row keep the first cell.
func (s *Store) Normalize() {
	for i := range s.Rows {
		r := &s.Rows[i]
		for j := range r.Cells {
			c := &r.Cells[j]
			if c.Ref != "" {
				c.Col = ref.ColumnOf(c.Ref)
			}
		}
	}
	sort.SliceStable(s.Rows, func(i, j int) bool { return s.Rows[i].Num < s.Rows[j].Num })

	// Merge duplicate rows.
	out := s.Rows[:0]
	for i := range s.Rows {
		if len(out) > 0 && out[len(out)-1].Num == s.Rows[i].Num {
			last := &out[len(out)-1]
			last.Cells = append(last.Cells, s.Rows[i].Cells...)
			continue
		}
		out = append(out, s.Rows[i])
	}
	s.Rows = out

	for i := range s.Rows {
		r := &s.Rows[i]
		sort.SliceStable(r.Cells, func(a, b int) bool { return r.Cells[a].Col < r.Cells[b].Col })
		cells := r.Cells[:0]
		for j := range r.Cells {
			if len(cells) > 0 && cells[len(cells)-1].Col == r.Cells[j].Col {
				continue
			}
			cells = append(cells, r.Cells[j])
		}
		r.Cells = cells
	}
}

// Truncate drops every row beyond the first n, in row order.  It is the
// row-limit fidelity hook used by the read engine.
func (s *Store) Truncate(n int) {
	if n >= 0 && len(s.Rows) > n {
		s.Rows = s.Rows[:n]
	}
}

// Dimension returns the 1-based bounding box (minCol, minRow, maxCol,
// maxRow) of all cells, or ok=false for an empty store.
func (s *Store) Dimension() (minCol, minRow, maxCol, maxRow int, ok bool) {
	for i := range s.Rows {
		r := &s.Rows[i]
		if len(r.Cells) == 0 {
			continue
		}
		first, last := r.Cells[0].Col, r.Cells[len(r.Cells)-1].Col
		if !ok {
			minCol, maxCol, minRow, maxRow, ok = first, last, r.Num, r.Num, true
			continue
		}
		if first < minCol {
			minCol = first
		}
		if last > maxCol {
			maxCol = last
		}
		if r.Num < minRow {
			minRow = r.Num
		}
		if r.Num > maxRow {
			maxRow = r.Num
		}
	}
	return minCol, minRow, maxCol, maxRow, ok
}
