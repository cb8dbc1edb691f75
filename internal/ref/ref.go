// Package ref converts between A1-style cell references and numeric
// (column, row) coordinates.
//
// It is a deliberately small, import-cycle-free package so that both the
// cell store and the document engine can depend on it without introducing
// circular imports.
package ref

import (
	"fmt"
	"strings"
)

// Excel sheet maxima (1-based).
const (
	// MaxColumns is the highest addressable column number (column "XFD").
	MaxColumns = 16384
	// MaxRows is the highest addressable row number.
	MaxRows = 1048576
	// MaxCellChars is the maximum number of characters a single cell can hold.
	MaxCellChars = 32767
)

// ColumnNameToNumber converts a column name ("A", "Z", "AA") to its 1-based
// column number.  The scan is a plain ASCII-letter accumulation; it does not
// validate the full reference grammar.
func ColumnNameToNumber(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("ref: empty column name")
	}
	col := 0
	for _, c := range name {
		switch {
		case c >= 'A' && c <= 'Z':
			col = col*26 + int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			col = col*26 + int(c-'a') + 1
		default:
			return 0, fmt.Errorf("ref: invalid column name %q", name)
		}
		if col > MaxColumns {
			return 0, fmt.Errorf("ref: column %q exceeds maximum %d", name, MaxColumns)
		}
	}
	return col, nil
}

// ColumnNumberToName converts a 1-based column number to its name
// ("A" for 1, "XFD" for 16384).
func ColumnNumberToName(num int) (string, error) {
	if num < 1 || num > MaxColumns {
		return "", fmt.Errorf("ref: column number %d out of range [1, %d]", num, MaxColumns)
	}
	var sb strings.Builder
	for num > 0 {
		num--
		sb.WriteByte(byte('A' + num%26))
		num /= 26
	}
	// Accumulated least-significant first; reverse.
	b := []byte(sb.String())
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

// CellNameToCoordinates converts an A1-style reference to 1-based
// (column, row) coordinates.  Absolute markers ("$A$1") are accepted and
// ignored.
func CellNameToCoordinates(cell string) (col, row int, err error) {
	letters, digits, ok := splitCellName(cell)
	if !ok {
		return 0, 0, fmt.Errorf("ref: invalid cell reference %q", cell)
	}
	col, err = ColumnNameToNumber(letters)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range digits {
		row = row*10 + int(c-'0')
		if row > MaxRows {
			return 0, 0, fmt.Errorf("ref: row in %q exceeds maximum %d", cell, MaxRows)
		}
	}
	if row == 0 {
		return 0, 0, fmt.Errorf("ref: invalid cell reference %q", cell)
	}
	return col, row, nil
}

// CoordinatesToCellName converts 1-based (column, row) coordinates to an
// A1-style reference.
func CoordinatesToCellName(col, row int) (string, error) {
	if row < 1 || row > MaxRows {
		return "", fmt.Errorf("ref: row number %d out of range [1, %d]", row, MaxRows)
	}
	name, err := ColumnNumberToName(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", name, row), nil
}

// ColumnOf returns the cached 1-based column number for an A1-style
// reference using cheap ASCII-letter accumulation, with no validation of the
// row part.  This is the fast path used when loading cells; callers that
// need full validation use CellNameToCoordinates.
func ColumnOf(cell string) int {
	col := 0
	for i := 0; i < len(cell); i++ {
		c := cell[i]
		switch {
		case c == '$':
			continue
		case c >= 'A' && c <= 'Z':
			col = col*26 + int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			col = col*26 + int(c-'a') + 1
		default:
			return col
		}
	}
	return col
}

// splitCellName splits "AB12" (optionally with "$" markers) into its letter
// and digit parts.  ok is false when either part is empty or an unexpected
// character appears.
func splitCellName(cell string) (letters, digits string, ok bool) {
	i := 0
	var l, d strings.Builder
	for ; i < len(cell); i++ {
		c := cell[i]
		if c == '$' && d.Len() == 0 {
			continue
		}
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			if d.Len() > 0 {
				return "", "", false
			}
			l.WriteByte(c)
			continue
		}
		if c >= '0' && c <= '9' {
			d.WriteByte(c)
			continue
		}
		return "", "", false
	}
	if l.Len() == 0 || d.Len() == 0 {
		return "", "", false
	}
	return l.String(), d.String(), true
}
