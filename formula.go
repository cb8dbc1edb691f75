package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"

	"github.com/TsubasaBE/go-xlsx/internal/ref"
)

// SetCellFormula sets the formula of a cell.  A leading "=" is stripped;
// the expression must tokenize as a formula.  An empty formula clears the
// cell's formula and keeps its cached value.
func (d *Document) SetCellFormula(sheet, cell, formula string) error {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return err
	}
	formula = strings.TrimPrefix(formula, "=")
	if formula == "" {
		if c := s.store.Get(row, col); c != nil {
			c.Formula = ""
		}
		return nil
	}
	ps := efp.ExcelParser()
	if tokens := ps.Parse(formula); len(tokens) == 0 {
		return fmt.Errorf("xlsx: cell %s: invalid formula %q", cell, formula)
	}
	s.store.GetOrInsert(row, col).Formula = formula
	return nil
}

// GetCellFormula returns the formula of a cell without the leading "=",
// or "" when the cell has none.
func (d *Document) GetCellFormula(sheet, cell string) (string, error) {
	s, col, row, err := d.cellTarget(sheet, cell)
	if err != nil {
		return "", err
	}
	c := s.store.Get(row, col)
	if c == nil {
		return "", nil
	}
	return c.Formula, nil
}

// adjustFormulaRows rewrites the row components of A1 references in every
// formula of the store after rows at or beyond from moved by offset.
// References qualified with a sheet name are left alone; cross-sheet
// adjustment would need workbook-wide dependency tracking.
func adjustFormulaRows(s *Sheet, from, offset int) {
	for i := range s.store.Rows {
		r := &s.store.Rows[i]
		for j := range r.Cells {
			c := &r.Cells[j]
			if c.Formula == "" {
				continue
			}
			c.Formula = shiftFormulaRows(c.Formula, from, offset)
		}
	}
}

// shiftFormulaRows tokenizes a formula and renders it back with range
// operands adjusted.  Non-range tokens are reproduced as parsed, so the
// output is a normalized spelling of the same expression.
func shiftFormulaRows(formula string, from, offset int) string {
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)
	if len(tokens) == 0 {
		return formula
	}
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.TType {
		case efp.TokenTypeOperand:
			if tok.TSubType == efp.TokenSubTypeRange {
				b.WriteString(shiftRangeRows(tok.TValue, from, offset))
			} else if tok.TSubType == efp.TokenSubTypeText {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(tok.TValue, `"`, `""`))
				b.WriteByte('"')
			} else {
				b.WriteString(tok.TValue)
			}
		case efp.TokenTypeFunction:
			if tok.TSubType == efp.TokenSubTypeStart {
				b.WriteString(tok.TValue)
				b.WriteByte('(')
			} else {
				b.WriteByte(')')
			}
		case efp.TokenTypeSubexpression:
			if tok.TSubType == efp.TokenSubTypeStart {
				b.WriteByte('(')
			} else {
				b.WriteByte(')')
			}
		case efp.TokenTypeArgument:
			b.WriteByte(',')
		default:
			b.WriteString(tok.TValue)
		}
	}
	return b.String()
}

// shiftRangeRows adjusts the row numbers inside one range operand ("B3",
// "A1:C10", "C:C", "$B$2").  Sheet-qualified references pass through
// unchanged, as do absolute rows and whole-column spans.
func shiftRangeRows(operand string, from, offset int) string {
	if strings.Contains(operand, "!") {
		return operand
	}
	parts := strings.Split(operand, ":")
	for i, p := range parts {
		parts[i] = shiftCellRefRow(p, from, offset)
	}
	return strings.Join(parts, ":")
}

func shiftCellRefRow(cellRef string, from, offset int) string {
	letters, digits, absCol, absRow := splitRef(cellRef)
	if digits == "" || absRow {
		return cellRef
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < from {
		return cellRef
	}
	row += offset
	if row < 1 || row > ref.MaxRows {
		return cellRef
	}
	var b strings.Builder
	if absCol {
		b.WriteByte('$')
	}
	b.WriteString(letters)
	b.WriteString(strconv.Itoa(row))
	return b.String()
}

// splitRef splits a single cell reference into column letters and row
// digits, noting $ anchors on each component.
func splitRef(cellRef string) (letters, digits string, absCol, absRow bool) {
	i := 0
	if i < len(cellRef) && cellRef[i] == '$' {
		absCol = true
		i++
	}
	j := i
	for j < len(cellRef) && ((cellRef[j] >= 'A' && cellRef[j] <= 'Z') || (cellRef[j] >= 'a' && cellRef[j] <= 'z')) {
		j++
	}
	letters = cellRef[i:j]
	if j < len(cellRef) && cellRef[j] == '$' {
		absRow = true
		j++
	}
	digits = cellRef[j:]
	return letters, digits, absCol, absRow
}
