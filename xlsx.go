// Package xlsx reads, edits, and writes Office Open XML spreadsheet
// (.xlsx) packages in pure Go.  No cgo is required.
//
// # Quick start
//
//	d := xlsx.New()
//	d.SetCellValue("Sheet1", "A1", "hello")
//	d.SetCellValue("Sheet1", "B1", 42)
//	if err := d.SaveAs("Book1.xlsx"); err != nil { ... }
//
//	d, err := xlsx.Open("Book1.xlsx")
//	if err != nil { ... }
//	defer d.Close()
//
//	fmt.Println(d.SheetNames()) // ["Sheet1"]
//	v, _ := d.GetCellValue("Sheet1", "A1")
//
// # Fidelity
//
// Open parses the whole package by default: every part reachable from the
// relationship graph is materialized, and a saved document round-trips
// parts the engine does not interpret byte-for-byte.  Large inputs can be
// opened with reduced fidelity through [Options]: FastParse defers
// auxiliary parts to raw bytes, Sheets restricts cell parsing to a named
// subset, and RowLimit caps the rows loaded per sheet.  MaxZipEntries and
// MaxDecompressedSize bound the archive before any XML is decoded.
//
// # Cell formatting
//
// [Document.GetCellValue] returns the raw stored value.  To obtain the
// display string Excel would show, respecting the cell's number format and
// the workbook date system, call [Document.FormatCell]:
//
//	raw, _ := d.GetCellValue("Sheet1", "C2")
//	shown, _ := d.FormatCell("Sheet1", "C2")
//
// # Dates
//
// Dates are stored as floating-point serial numbers.  [SerialToTime] and
// [TimeToSerial] convert between serials and [time.Time] in either the
// 1900 or the 1904 date system, reproducing the historical leap-day quirk
// of the 1900 system.
//
// # Large sheets
//
// [Document.NewStreamWriter] writes rows straight to a temp file in
// ascending order and splices them into the saved package, so writing a
// very large sheet never materializes its cells in memory.
package xlsx

// Version is the current version of the go-xlsx library.
const Version = "1.0.0"
