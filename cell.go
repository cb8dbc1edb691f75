package xlsx

import (
	"fmt"
	"strconv"
	"time"

	"github.com/TsubasaBE/go-xlsx/cellstore"
	"github.com/TsubasaBE/go-xlsx/internal/ref"
	"github.com/TsubasaBE/go-xlsx/numfmt"
)

// SetCellValue sets the value of a cell.  Strings are interned in the
// workbook shared-string table; time.Time values are stored as serial
// numbers and, for unstyled cells, given a date/time format so the value
// renders as a date.  A nil value removes the cell.  The reference must be
// a valid A1-style reference within the sheet grid; a validation error
// rejects the call without mutating any state.
func (d *Document) SetCellValue(sheet, cell string, value any) error {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return err
	}
	if value == nil {
		s.store.Remove(row, col)
		return nil
	}

	var (
		typ cellstore.CellType
		val string
	)
	switch v := value.(type) {
	case string:
		if len([]rune(v)) > ref.MaxCellChars {
			return fmt.Errorf("xlsx: cell %s: text exceeds %d characters", cell, ref.MaxCellChars)
		}
		typ = cellstore.TypeSharedString
		val = strconv.Itoa(d.sst.Add(v))
	case bool:
		typ = cellstore.TypeBool
		if v {
			val = "1"
		} else {
			val = "0"
		}
	case time.Time:
		serial, err := TimeToSerial(v, d.date1904)
		if err != nil {
			return fmt.Errorf("xlsx: cell %s: %w", cell, err)
		}
		val = strconv.FormatFloat(serial, 'f', -1, 64)
	case float64:
		val = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		val = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		val = strconv.Itoa(v)
	case int8:
		val = strconv.FormatInt(int64(v), 10)
	case int16:
		val = strconv.FormatInt(int64(v), 10)
	case int32:
		val = strconv.FormatInt(int64(v), 10)
	case int64:
		val = strconv.FormatInt(v, 10)
	case uint:
		val = strconv.FormatUint(uint64(v), 10)
	case uint8:
		val = strconv.FormatUint(uint64(v), 10)
	case uint16:
		val = strconv.FormatUint(uint64(v), 10)
	case uint32:
		val = strconv.FormatUint(uint64(v), 10)
	case uint64:
		val = strconv.FormatUint(v, 10)
	default:
		return fmt.Errorf("xlsx: cell %s: unsupported value type %T", cell, value)
	}

	c := s.store.GetOrInsert(row, col)
	c.Type = typ
	c.Value = val
	c.Formula = ""
	if _, ok := value.(time.Time); ok && c.Style == 0 {
		c.Style = d.Styles.AddStyle(22, "") // builtin m/d/yy h:mm
	}
	return nil
}

// GetCellValue returns the raw displayable value of a cell: shared and
// inline strings resolve to their text, booleans to TRUE/FALSE, anything
// else to the stored value string.  An empty or absent cell returns "".
func (d *Document) GetCellValue(sheet, cell string) (string, error) {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return "", err
	}
	c := s.store.Get(row, col)
	if c == nil {
		return "", nil
	}
	switch c.Type {
	case cellstore.TypeSharedString:
		idx, err := strconv.Atoi(c.Value)
		if err != nil {
			return "", fmt.Errorf("xlsx: cell %s: bad shared-string index %q", cell, c.Value)
		}
		text, ok := d.sst.Get(idx)
		if !ok {
			return "", fmt.Errorf("xlsx: cell %s: shared-string index %d out of range", cell, idx)
		}
		return text, nil
	case cellstore.TypeBool:
		if c.Value == "0" {
			return "FALSE", nil
		}
		return "TRUE", nil
	default:
		return c.Value, nil
	}
}

// FormatCell returns the cell value rendered through its style's number
// format, honoring the workbook's date system.  Cells without a numeric
// payload render the same as GetCellValue.
func (d *Document) FormatCell(sheet, cell string) (string, error) {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return "", err
	}
	c := s.store.Get(row, col)
	if c == nil {
		return "", nil
	}
	switch c.Type {
	case cellstore.TypeNone, cellstore.TypeNumber, cellstore.TypeDate:
		val, perr := strconv.ParseFloat(c.Value, 64)
		if perr != nil {
			return c.Value, nil
		}
		id, format, ok := d.Styles.NumFmt(c.Style)
		if !ok {
			id, format = 0, ""
		}
		return numfmt.FormatValue(val, id, format, d.date1904), nil
	default:
		return d.GetCellValue(sheet, cell)
	}
}

// SetCellStyle assigns a cell-format (XF) index to a cell.  The index must
// come from the style table (styles.Table.AddStyle or a parsed style); an
// out-of-range index is rejected.
func (d *Document) SetCellStyle(sheet, cell string, styleID int) error {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return err
	}
	if styleID < 0 || styleID >= d.Styles.Count() {
		return fmt.Errorf("xlsx: style id %d out of range [0,%d)", styleID, d.Styles.Count())
	}
	s.store.GetOrInsert(row, col).Style = styleID
	return nil
}

// GetCellStyle returns the cell-format index of a cell, 0 for an empty or
// unstyled cell.
func (d *Document) GetCellStyle(sheet, cell string) (int, error) {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return 0, err
	}
	c := s.store.Get(row, col)
	if c == nil {
		return 0, nil
	}
	return c.Style, nil
}

// GetRows returns a dense snapshot of the sheet's values in row order:
// one string slice per row from row 1 through the last populated row, each
// padded to that row's last populated column.  The snapshot is independent
// of the store; later mutations do not affect it.
func (d *Document) GetRows(sheet string) ([][]string, error) {
	s, err := d.Sheet(sheet)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("xlsx: sheet %q was not parsed", sheet)
	}
	if len(s.store.Rows) == 0 {
		return nil, nil
	}
	maxRow := s.store.Rows[len(s.store.Rows)-1].Num
	out := make([][]string, maxRow)
	for i := range s.store.Rows {
		r := &s.store.Rows[i]
		if len(r.Cells) == 0 {
			continue
		}
		vals := make([]string, r.Cells[len(r.Cells)-1].Col)
		for j := range r.Cells {
			c := &r.Cells[j]
			vals[c.Col-1] = d.cellText(c)
		}
		out[r.Num-1] = vals
	}
	return out, nil
}

// cellText resolves a store cell to its displayable text, mirroring
// GetCellValue without the lookup overhead.
func (d *Document) cellText(c *cellstore.Cell) string {
	switch c.Type {
	case cellstore.TypeSharedString:
		if idx, err := strconv.Atoi(c.Value); err == nil {
			if text, ok := d.sst.Get(idx); ok {
				return text
			}
		}
		return ""
	case cellstore.TypeBool:
		if c.Value == "0" {
			return "FALSE"
		}
		return "TRUE"
	default:
		return c.Value
	}
}

// cellTarget resolves a (sheet, cell) pair to the sheet and grid
// coordinates, validating both.
func (d *Document) cellTarget(sheet, cell string) (*Sheet, int, int, error) {
	s, err := d.Sheet(sheet)
	if err != nil {
		return nil, 0, 0, err
	}
	if s.store == nil {
		return nil, 0, 0, fmt.Errorf("xlsx: sheet %q was not parsed", sheet)
	}
	col, row, err := ref.CellNameToCoordinates(cell)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("xlsx: %w", err)
	}
	return s, col, row, nil
}
