// Package styles models the workbook styles part (xl/styles.xml): the
// number-format table, the cell-format (XF) table, and a deduplicating
// style-id allocator.
//
// Only the sections the engine mutates (numFmts, cellXfs) are modeled
// structurally; fonts, fills, borders and the other sections round-trip as
// opaque XML so nothing a producer wrote is lost.
package styles

import (
	"encoding/xml"
	"fmt"

	"github.com/xuri/nfp"

	"github.com/TsubasaBE/go-xlsx/internal/xmlcodec"
)

// customNumFmtBase is the first numFmtId available to custom formats; lower
// ids are reserved for the built-in table.
const customNumFmtBase = 164

type xmlStyleSheet struct {
	XMLName      xml.Name       `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main styleSheet"`
	NumFmts      *xmlNumFmts    `xml:"numFmts"`
	Fonts        *xmlRawCounted `xml:"fonts"`
	Fills        *xmlRawCounted `xml:"fills"`
	Borders      *xmlRawCounted `xml:"borders"`
	CellStyleXfs *xmlXfs        `xml:"cellStyleXfs"`
	CellXfs      *xmlXfs        `xml:"cellXfs"`
	CellStyles   *xmlRawCounted `xml:"cellStyles"`
	Dxfs         *xmlRawCounted `xml:"dxfs"`
	TableStyles  *xmlRawElem    `xml:"tableStyles"`
	Colors       *xmlRawElem    `xml:"colors"`
	ExtLst       *xmlRawElem    `xml:"extLst"`
}

type xmlNumFmts struct {
	Count   int         `xml:"count,attr"`
	NumFmts []xmlNumFmt `xml:"numFmt"`
}

type xmlNumFmt struct {
	NumFmtID   int    `xml:"numFmtId,attr"`
	FormatCode string `xml:"formatCode,attr"`
}

type xmlXfs struct {
	Count int     `xml:"count,attr"`
	Xfs   []xmlXf `xml:"xf"`
}

type xmlXf struct {
	NumFmtID          int         `xml:"numFmtId,attr"`
	FontID            int         `xml:"fontId,attr"`
	FillID            int         `xml:"fillId,attr"`
	BorderID          int         `xml:"borderId,attr"`
	XfID              *int        `xml:"xfId,attr,omitempty"`
	ApplyNumberFormat bool        `xml:"applyNumberFormat,attr,omitempty"`
	ApplyFont         bool        `xml:"applyFont,attr,omitempty"`
	ApplyFill         bool        `xml:"applyFill,attr,omitempty"`
	ApplyBorder       bool        `xml:"applyBorder,attr,omitempty"`
	ApplyAlignment    bool        `xml:"applyAlignment,attr,omitempty"`
	ApplyProtection   bool        `xml:"applyProtection,attr,omitempty"`
	Alignment         *xmlRawElem `xml:"alignment"`
	Protection        *xmlRawElem `xml:"protection"`
}

// xmlRawCounted is an opaque section with a count attribute and unparsed
// children.  Attributes beyond count (x14ac:knownFonts and the like) are
// carried through untouched.
type xmlRawCounted struct {
	Count int        `xml:"count,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

// xmlRawElem is an opaque element preserved verbatim, attributes included.
type xmlRawElem struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

// Table is the in-memory style table of one workbook.
type Table struct {
	sheet xmlStyleSheet
}

// New returns the minimal style table a fresh document carries: one default
// font, the two mandatory fills, one border, and the General cell format at
// XF index 0.
func New() *Table {
	zero := 0
	return &Table{sheet: xmlStyleSheet{
		Fonts:        &xmlRawCounted{Count: 1, Inner: `<font><sz val="11"/><name val="Calibri"/><family val="2"/></font>`},
		Fills:        &xmlRawCounted{Count: 2, Inner: `<fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill>`},
		Borders:      &xmlRawCounted{Count: 1, Inner: `<border><left/><right/><top/><bottom/><diagonal/></border>`},
		CellStyleXfs: &xmlXfs{Count: 1, Xfs: []xmlXf{{}}},
		CellXfs:      &xmlXfs{Count: 1, Xfs: []xmlXf{{XfID: &zero}}},
		CellStyles:   &xmlRawCounted{Count: 1, Inner: `<cellStyle name="Normal" xfId="0" builtinId="0"/>`},
	}}
}

// Parse decodes the raw bytes of a styles part.
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	if err := xmlcodec.Unmarshal(data, &t.sheet); err != nil {
		return nil, fmt.Errorf("styles: parse: %w", err)
	}
	if t.sheet.CellXfs == nil {
		t.sheet.CellXfs = &xmlXfs{Count: 1, Xfs: []xmlXf{{}}}
	}
	return t, nil
}

// Marshal encodes the table, including the XML header.
func (t *Table) Marshal() ([]byte, error) {
	if t.sheet.NumFmts != nil {
		t.sheet.NumFmts.Count = len(t.sheet.NumFmts.NumFmts)
	}
	t.sheet.CellXfs.Count = len(t.sheet.CellXfs.Xfs)
	body, err := xml.Marshal(&t.sheet)
	if err != nil {
		return nil, fmt.Errorf("styles: marshal: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Count returns the number of cell-format (XF) entries.  Valid style ids
// are in [0, Count).
func (t *Table) Count() int {
	return len(t.sheet.CellXfs.Xfs)
}

// NumFmt returns the number-format id of the XF at styleID, plus the custom
// format string when the id refers to a numFmt record in this table.
// ok is false for an out-of-range styleID.
func (t *Table) NumFmt(styleID int) (id int, format string, ok bool) {
	if styleID < 0 || styleID >= len(t.sheet.CellXfs.Xfs) {
		return 0, "", false
	}
	id = t.sheet.CellXfs.Xfs[styleID].NumFmtID
	return id, t.formatCode(id), true
}

// IsDate reports whether the XF at styleID renders as a date or time.
// It returns false for out-of-range ids.
func (t *Table) IsDate(styleID int) bool {
	id, format, ok := t.NumFmt(styleID)
	if !ok {
		return false
	}
	return IsDateFormatID(id, format)
}

// AddStyle returns the XF index for the given number format, reusing an
// existing XF when one already carries it.  format may be a custom format
// code (numFmtID is then ignored and allocated from the numFmt table, also
// with dedup) or empty to reference a built-in numFmtID.
func (t *Table) AddStyle(numFmtID int, format string) int {
	if format != "" {
		numFmtID = t.addNumFmt(format)
	}
	for i, xf := range t.sheet.CellXfs.Xfs {
		if xf.NumFmtID == numFmtID {
			return i
		}
	}
	zero := 0
	t.sheet.CellXfs.Xfs = append(t.sheet.CellXfs.Xfs, xmlXf{
		NumFmtID:          numFmtID,
		XfID:              &zero,
		ApplyNumberFormat: numFmtID != 0,
	})
	return len(t.sheet.CellXfs.Xfs) - 1
}

// addNumFmt returns the numFmtId for a custom format code, allocating
// max-plus-one above the custom base when the code is new.
func (t *Table) addNumFmt(format string) int {
	if t.sheet.NumFmts == nil {
		t.sheet.NumFmts = &xmlNumFmts{}
	}
	next := customNumFmtBase
	for _, nf := range t.sheet.NumFmts.NumFmts {
		if nf.FormatCode == format {
			return nf.NumFmtID
		}
		if nf.NumFmtID >= next {
			next = nf.NumFmtID + 1
		}
	}
	t.sheet.NumFmts.NumFmts = append(t.sheet.NumFmts.NumFmts, xmlNumFmt{NumFmtID: next, FormatCode: format})
	return next
}

// formatCode returns the custom format string for a numFmtId, or "" when the
// id is built-in or unknown.
func (t *Table) formatCode(numFmtID int) string {
	if t.sheet.NumFmts == nil {
		return ""
	}
	for _, nf := range t.sheet.NumFmts.NumFmts {
		if nf.NumFmtID == numFmtID {
			return nf.FormatCode
		}
	}
	return ""
}

// IsDateFormatID reports whether a number-format id (and optional custom
// format code) represents a date or time format.
//
// Built-in date/time ids follow ECMA-376 §18.8.30: 14–22, 27–36, 45–47,
// 50–58.  Custom codes are tokenized with the nfp parser and scanned for
// date-time or elapsed-time tokens, so quoted literals and bracketed
// sections never trigger a false positive.
func IsDateFormatID(id int, format string) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	if id < customNumFmtBase || format == "" {
		return false
	}
	ps := nfp.NumberFormatParser()
	for _, section := range ps.Parse(format) {
		for _, tok := range section.Items {
			if tok.TType == nfp.TokenTypeDateTimes || tok.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}

// BuiltInNumFmt maps built-in numFmtId values to their canonical format
// strings as defined by ECMA-376 §18.8.30.  IDs 27–36 and 50–58 are
// locale-specific (CJK/Thai) in ECMA-376; the entries here are neutral
// Western fallbacks used when no numFmt record overrides the id in the
// file.
var BuiltInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "hh:mm",
	21: "hh:mm:ss",
	22: "m/d/yy hh:mm",
	27: "MM-DD-YYYY",
	28: "D-MMM-YY",
	29: "D-MMM-YY",
	30: "M/D/YY",
	31: "YYYY-M-D",
	32: "H:MM",
	33: "H:MM:SS",
	34: "H:MM AM/PM",
	35: "H:MM:SS AM/PM",
	36: "MM-DD-YYYY",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
	50: "MM-DD-YYYY",
	51: "D-MMM-YY",
	52: "H:MM AM/PM",
	53: "H:MM:SS AM/PM",
	54: "D-MMM-YY",
	55: "H:MM AM/PM",
	56: "H:MM:SS AM/PM",
	57: "MM-DD-YYYY",
	58: "D-MMM-YY",
}
