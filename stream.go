package xlsx

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/TsubasaBE/go-xlsx/internal/ref"
)

// streamBody is the streamed representation of a sheet: pre-rendered
// header and footer fragments around a temp file of serialized rows.  The
// write engine splices the three pieces straight into the archive entry.
type streamBody struct {
	header []byte
	footer []byte
	tmp    string
}

// StreamWriter writes worksheet rows directly to disk, in ascending row
// order, without materializing a cell store.  It is the write-side
// counterpart of the row-limit read option: both exist so a million-row
// sheet never has to fit in memory at once.
//
// Rows must be appended in strictly increasing row order.  After Flush the
// sheet is sealed: cell-level calls on it fail until the document is saved
// and reopened.
type StreamWriter struct {
	doc     *Document
	sheet   *Sheet
	file    *os.File
	buf     *bufio.Writer
	lastRow int
	flushed bool
}

// NewStreamWriter opens a stream writer for the named sheet.  Any cell
// data already in the sheet is discarded when the stream is flushed.
func (d *Document) NewStreamWriter(sheet string) (*StreamWriter, error) {
	s, err := d.Sheet(sheet)
	if err != nil {
		return nil, err
	}
	if s.stream != nil {
		return nil, fmt.Errorf("xlsx: sheet %q is already streamed", sheet)
	}
	f, err := os.CreateTemp("", "xlsx-stream-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("xlsx: stream writer: %w", err)
	}
	d.tempFiles = append(d.tempFiles, f.Name())
	return &StreamWriter{
		doc:   d,
		sheet: s,
		file:  f,
		buf:   bufio.NewWriterSize(f, 1<<16),
	}, nil
}

// SetRow serializes one row of values starting at the given cell.  Strings
// become inline strings, so streamed rows never touch the shared-string
// table.  The row number must be greater than any previously written row.
func (sw *StreamWriter) SetRow(cell string, values []any) error {
	if sw.flushed {
		return fmt.Errorf("xlsx: stream writer already flushed")
	}
	col, row, err := ref.CellNameToCoordinates(cell)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if row <= sw.lastRow {
		return fmt.Errorf("xlsx: stream row %d not after row %d", row, sw.lastRow)
	}
	if col+len(values)-1 > ref.MaxColumns {
		return fmt.Errorf("xlsx: stream row %d exceeds column %d", row, ref.MaxColumns)
	}
	sw.lastRow = row

	sw.buf.WriteString(`<row r="`)
	sw.buf.WriteString(strconv.Itoa(row))
	sw.buf.WriteString(`">`)
	for i, v := range values {
		name, nerr := ref.CoordinatesToCellName(col+i, row)
		if nerr != nil {
			return fmt.Errorf("xlsx: %w", nerr)
		}
		if err := sw.writeCell(name, v); err != nil {
			return err
		}
	}
	if _, err := sw.buf.WriteString(`</row>`); err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	return nil
}

func (sw *StreamWriter) writeCell(name string, v any) error {
	if v == nil {
		return nil
	}
	w := sw.buf
	switch val := v.(type) {
	case string:
		if len([]rune(val)) > ref.MaxCellChars {
			return fmt.Errorf("xlsx: cell %s: text exceeds %d characters", name, ref.MaxCellChars)
		}
		w.WriteString(`<c r="`)
		w.WriteString(name)
		w.WriteString(`" t="inlineStr"><is><t>`)
		w.WriteString(escapeXMLText(val))
		w.WriteString(`</t></is></c>`)
	case bool:
		w.WriteString(`<c r="`)
		w.WriteString(name)
		w.WriteString(`" t="b"><v>`)
		if val {
			w.WriteString("1")
		} else {
			w.WriteString("0")
		}
		w.WriteString(`</v></c>`)
	case time.Time:
		serial, err := TimeToSerial(val, sw.doc.date1904)
		if err != nil {
			return fmt.Errorf("xlsx: cell %s: %w", name, err)
		}
		sw.writeNumeric(name, strconv.FormatFloat(serial, 'f', -1, 64))
	case float64:
		sw.writeNumeric(name, strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		sw.writeNumeric(name, strconv.FormatFloat(float64(val), 'f', -1, 32))
	case int:
		sw.writeNumeric(name, strconv.Itoa(val))
	case int8:
		sw.writeNumeric(name, strconv.FormatInt(int64(val), 10))
	case int16:
		sw.writeNumeric(name, strconv.FormatInt(int64(val), 10))
	case int32:
		sw.writeNumeric(name, strconv.FormatInt(int64(val), 10))
	case int64:
		sw.writeNumeric(name, strconv.FormatInt(val, 10))
	case uint:
		sw.writeNumeric(name, strconv.FormatUint(uint64(val), 10))
	case uint8:
		sw.writeNumeric(name, strconv.FormatUint(uint64(val), 10))
	case uint16:
		sw.writeNumeric(name, strconv.FormatUint(uint64(val), 10))
	case uint32:
		sw.writeNumeric(name, strconv.FormatUint(uint64(val), 10))
	case uint64:
		sw.writeNumeric(name, strconv.FormatUint(val, 10))
	default:
		return fmt.Errorf("xlsx: cell %s: unsupported value type %T", name, v)
	}
	return nil
}

func (sw *StreamWriter) writeNumeric(name, lit string) {
	w := sw.buf
	w.WriteString(`<c r="`)
	w.WriteString(name)
	w.WriteString(`"><v>`)
	w.WriteString(lit)
	w.WriteString(`</v></c>`)
}

// Flush seals the stream: the buffered rows land in the temp file and the
// sheet switches to the streamed representation, replacing whatever cell
// store or raw bytes it held.
func (sw *StreamWriter) Flush() error {
	if sw.flushed {
		return nil
	}
	sw.flushed = true
	if err := sw.buf.Flush(); err != nil {
		sw.file.Close()
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	if err := sw.file.Close(); err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	header := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<worksheet xmlns="` + nsMain + `" xmlns:r="` + nsDocRels + `"><sheetData>`)
	footer := []byte(`</sheetData></worksheet>`)
	sw.sheet.stream = &streamBody{header: header, footer: footer, tmp: sw.file.Name()}
	sw.sheet.store = nil
	sw.sheet.ws = nil
	sw.sheet.raw = nil
	return nil
}
