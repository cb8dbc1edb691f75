package xlsx

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/TsubasaBE/go-xlsx/cellstore"
	"github.com/TsubasaBE/go-xlsx/internal/ref"
)

// InsertRows inserts n empty rows before the given 1-based row.  Rows at or
// below shift down; relative row references in formulas across the whole
// sheet are adjusted to keep pointing at the same cells.
func (d *Document) InsertRows(sheet string, row, n int) error {
	s, err := d.parsedSheet(sheet)
	if err != nil {
		return err
	}
	if row < 1 || row > ref.MaxRows {
		return fmt.Errorf("xlsx: row %d out of range [1,%d]", row, ref.MaxRows)
	}
	if n < 1 {
		return fmt.Errorf("xlsx: insert count %d must be positive", n)
	}
	s.store.ShiftRows(row, n)
	adjustFormulaRows(s, row, n)
	return nil
}

// RemoveRow deletes the given 1-based row and shifts the rows below it up
// by one, adjusting relative row references in formulas.
func (d *Document) RemoveRow(sheet string, row int) error {
	s, err := d.parsedSheet(sheet)
	if err != nil {
		return err
	}
	if row < 1 || row > ref.MaxRows {
		return fmt.Errorf("xlsx: row %d out of range [1,%d]", row, ref.MaxRows)
	}
	s.store.RemoveRow(row)
	s.store.ShiftRows(row+1, -1)
	adjustFormulaRows(s, row+1, -1)
	return nil
}

// DuplicateRow inserts a full copy of the given row directly below it.
// Row attributes, cell values, styles and formulas are deep-copied; the
// copy's cell references point at the new row number.
func (d *Document) DuplicateRow(sheet string, row int) error {
	s, err := d.parsedSheet(sheet)
	if err != nil {
		return err
	}
	if row < 1 || row > ref.MaxRows {
		return fmt.Errorf("xlsx: row %d out of range [1,%d]", row, ref.MaxRows)
	}
	src := s.store.Row(row)
	if err := d.InsertRows(sheet, row+1, 1); err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	var dup cellstore.Row
	if err := deepcopy.Copy(&dup, src); err != nil {
		return fmt.Errorf("xlsx: duplicate row %d: %w", row, err)
	}
	dup.Num = row + 1
	for i := range dup.Cells {
		c := &dup.Cells[i]
		if name, nerr := ref.CoordinatesToCellName(c.Col, dup.Num); nerr == nil {
			c.Ref = name
		}
	}
	dst := s.store.GetOrInsertRow(row + 1)
	*dst = dup
	return nil
}

// CopySheet appends a new sheet named to, carrying a deep copy of the
// source sheet's cell store and preserved worksheet state.  The source must
// have been parsed (it cannot be raw-preserved or streamed).
func (d *Document) CopySheet(from, to string) error {
	src, err := d.parsedSheet(from)
	if err != nil {
		return err
	}
	dst, err := d.NewSheet(to)
	if err != nil {
		return err
	}
	store := &cellstore.Store{}
	if err := deepcopy.Copy(store, src.store); err != nil {
		return fmt.Errorf("xlsx: copy sheet %q: %w", from, err)
	}
	dst.store = store
	if src.ws != nil {
		ws := &xmlWorksheet{}
		if err := deepcopy.Copy(ws, src.ws); err != nil {
			return fmt.Errorf("xlsx: copy sheet %q: %w", from, err)
		}
		dst.ws = ws
	}
	dst.Visibility = src.Visibility
	return nil
}

// parsedSheet returns the named sheet and rejects representations without a
// cell store.
func (d *Document) parsedSheet(name string) (*Sheet, error) {
	s, err := d.Sheet(name)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("xlsx: sheet %q was not parsed", name)
	}
	return s, nil
}
