package xlsx

import "encoding/xml"

// Namespaces and relationship types used throughout the package graph.
const (
	nsMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsDocRels       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	relOfficeDoc    = nsDocRels + "/officeDocument"
	relWorksheet    = nsDocRels + "/worksheet"
	relSharedString = nsDocRels + "/sharedStrings"
	relStyles       = nsDocRels + "/styles"
	relTheme        = nsDocRels + "/theme"
)

// Content types owned by the write engine's synchronization step.
const (
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
)

// workbookContentType maps a recognized output extension to the content type
// declared for the workbook part.  An extension absent here is a hard error
// at save time.
var workbookContentType = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.main+xml",
	".xltx": "application/vnd.openxmlformats-officedocument.spreadsheetml.template.main+xml",
	".xltm": "application/vnd.ms-excel.template.macroEnabled.main+xml",
}

// xmlRawElem preserves an element the engine does not interpret: its
// attributes and inner XML survive the round trip.
type xmlRawElem struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

// xmlWorkbook maps the workbook element (xl/workbook.xml).  Only the sheets
// list and the workbookPr flags are interpreted; the remaining children
// round-trip opaquely in schema order.
type xmlWorkbook struct {
	XMLName            xml.Name       `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main workbook"`
	FileVersion        *xmlRawElem    `xml:"fileVersion"`
	WorkbookPr         *xmlWorkbookPr `xml:"workbookPr"`
	WorkbookProtection *xmlRawElem    `xml:"workbookProtection"`
	BookViews          *xmlRawElem    `xml:"bookViews"`
	Sheets             xmlSheets      `xml:"sheets"`
	DefinedNames       *xmlRawElem    `xml:"definedNames"`
	CalcPr             *xmlRawElem    `xml:"calcPr"`
	PivotCaches        *xmlRawElem    `xml:"pivotCaches"`
	ExtLst             *xmlRawElem    `xml:"extLst"`
}

type xmlWorkbookPr struct {
	Date1904      bool   `xml:"date1904,attr,omitempty"`
	CodeName      string `xml:"codeName,attr,omitempty"`
	DefaultTheme  *int   `xml:"defaultThemeVersion,attr,omitempty"`
	FilterPrivacy bool   `xml:"filterPrivacy,attr,omitempty"`
}

type xmlSheets struct {
	Sheets []xmlSheetEntry `xml:"sheet"`
}

// xmlSheetEntry is one declared sheet: display name, stable sheet id,
// visibility state, and the relationship id resolving to the sheet part.
type xmlSheetEntry struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	State   string `xml:"state,attr,omitempty"`
	RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}
