package xlsx

import "encoding/xml"

// xmlWorksheet maps the worksheet element.  Only sheetData is interpreted;
// every other child the engine has no feature state for is preserved
// opaquely in schema order, so a parsed sheet still round-trips its
// conditional formatting, data validations, page setup and extension lists.
type xmlWorksheet struct {
	XMLName               xml.Name       `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main worksheet"`
	SheetPr               *xmlRawElem    `xml:"sheetPr"`
	Dimension             *xmlDimension  `xml:"dimension"`
	SheetViews            *xmlRawElem    `xml:"sheetViews"`
	SheetFormatPr         *xmlRawElem    `xml:"sheetFormatPr"`
	Cols                  *xmlRawElem    `xml:"cols"`
	SheetData             xmlSheetData   `xml:"sheetData"`
	SheetProtection       *xmlRawElem    `xml:"sheetProtection"`
	AutoFilter            *xmlRawElem    `xml:"autoFilter"`
	MergeCells            *xmlRawElem    `xml:"mergeCells"`
	PhoneticPr            *xmlRawElem    `xml:"phoneticPr"`
	ConditionalFormatting []*xmlRawElem  `xml:"conditionalFormatting"`
	DataValidations       *xmlRawElem    `xml:"dataValidations"`
	Hyperlinks            *xmlRawElem    `xml:"hyperlinks"`
	PrintOptions          *xmlRawElem    `xml:"printOptions"`
	PageMargins           *xmlRawElem    `xml:"pageMargins"`
	PageSetUp             *xmlRawElem    `xml:"pageSetup"`
	HeaderFooter          *xmlRawElem    `xml:"headerFooter"`
	RowBreaks             *xmlRawElem    `xml:"rowBreaks"`
	ColBreaks             *xmlRawElem    `xml:"colBreaks"`
	Drawing               *xmlRelIDElem  `xml:"drawing"`
	LegacyDrawing         *xmlRelIDElem  `xml:"legacyDrawing"`
	Picture               *xmlRelIDElem  `xml:"picture"`
	TableParts            *xmlTableParts `xml:"tableParts"`
	ExtLst                *xmlRawElem    `xml:"extLst"`
}

type xmlDimension struct {
	Ref string `xml:"ref,attr,omitempty"`
}

type xmlSheetData struct {
	Rows []xmlRow `xml:"row"`
}

// xmlRow is one row element.  Cells beyond the modeled attributes are not
// preserved individually; the cell store is authoritative for sheetData.
type xmlRow struct {
	R            int      `xml:"r,attr"`
	Spans        string   `xml:"spans,attr,omitempty"`
	S            int      `xml:"s,attr,omitempty"`
	CustomFormat bool     `xml:"customFormat,attr,omitempty"`
	Ht           float64  `xml:"ht,attr,omitempty"`
	Hidden       bool     `xml:"hidden,attr,omitempty"`
	CustomHeight bool     `xml:"customHeight,attr,omitempty"`
	C            []xmlC   `xml:"c"`
}

// xmlC is one cell element.
type xmlC struct {
	R  string      `xml:"r,attr,omitempty"`
	S  int         `xml:"s,attr,omitempty"`
	T  string      `xml:"t,attr,omitempty"`
	F  *xmlF       `xml:"f,omitempty"`
	V  string      `xml:"v,omitempty"`
	IS *xmlRawElem `xml:"is,omitempty"`
}

// xmlF is a cell formula element.
type xmlF struct {
	Content string `xml:",chardata"`
	T       string `xml:"t,attr,omitempty"`
	Ref     string `xml:"ref,attr,omitempty"`
	Si      string `xml:"si,attr,omitempty"`
}

// xmlRelIDElem is an element whose only payload is a relationship id
// (drawing, legacyDrawing, picture).
type xmlRelIDElem struct {
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type xmlTableParts struct {
	Count int            `xml:"count,attr"`
	Parts []xmlTablePart `xml:"tablePart"`
}

type xmlTablePart struct {
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// xmlInlineStr is the minimal inline-string shape used to extract the text
// of an is element when reading; the full element is preserved via
// xmlRawElem for the round trip.
type xmlInlineStr struct {
	T string `xml:"t"`
}
