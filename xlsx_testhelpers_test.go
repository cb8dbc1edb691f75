package xlsx_test

// xlsx_testhelpers_test.go — in-memory package fixture builders shared by the
// package-level tests.  No external .xlsx file is required.

import (
	"archive/zip"
	"bytes"
	"testing"
)

const testNSMain = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const testNSRels = "http://schemas.openxmlformats.org/package/2006/relationships"
const testNSDocRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// zipAddFile writes data as a new entry named name into zw.
// It calls t.Fatalf on any error.
func zipAddFile(t *testing.T, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("zip write %s: %v", name, err)
	}
}

// fixtureOpts tweaks the minimal workbook fixture.
type fixtureOpts struct {
	// sheetData replaces the default sheetData XML of sheet1 when non-empty.
	sheetData string
	// sheetXML replaces the entire sheet1 part when non-empty; sheetData is
	// then ignored.
	sheetXML string
	// secondSheetAux adds a second sheet carrying a drawing that in turn
	// references an image, exercising nested auxiliary parts.
	secondSheetAux bool
	// extraEntries are appended verbatim after the structural parts.
	extraEntries map[string][]byte
	// corePropsEdge adds docProps/core.xml with a package-root relationship,
	// exercising auxiliary-part discovery.
	corePropsEdge bool
	// date1904 marks the workbook as using the 1904 date system.
	date1904 bool
}

// buildWorkbookFixture assembles a minimal but structurally complete .xlsx
// package: content types, root rels, a one-sheet workbook, shared strings
// ("hello" at index 0), and a default style part.
func buildWorkbookFixture(t *testing.T, opts fixtureOpts) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>` +
		`<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
		`<Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>` +
		`<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>`
	if opts.corePropsEdge {
		contentTypes += `<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`
	}
	if opts.secondSheetAux {
		contentTypes += `<Default Extension="png" ContentType="image/png"/>` +
			`<Override PartName="/xl/worksheets/sheet2.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
			`<Override PartName="/xl/drawings/drawing1.xml" ContentType="application/vnd.openxmlformats-officedocument.drawing+xml"/>`
	}
	contentTypes += `</Types>`
	zipAddFile(t, zw, "[Content_Types].xml", []byte(contentTypes))

	rootRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="` + testNSRels + `">` +
		`<Relationship Id="rId1" Type="` + testNSDocRels + `/officeDocument" Target="xl/workbook.xml"/>`
	if opts.corePropsEdge {
		rootRels += `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>`
	}
	rootRels += `</Relationships>`
	zipAddFile(t, zw, "_rels/.rels", []byte(rootRels))

	workbookPr := ""
	if opts.date1904 {
		workbookPr = `<workbookPr date1904="true"/>`
	}
	sheetEntries := `<sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/>`
	if opts.secondSheetAux {
		sheetEntries += `<sheet name="Sheet2" sheetId="2" r:id="rId4"/>`
	}
	sheetEntries += `</sheets>`
	zipAddFile(t, zw, "xl/workbook.xml", []byte(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<workbook xmlns="`+testNSMain+`" xmlns:r="`+testNSDocRels+`">`+
			workbookPr+sheetEntries+
			`</workbook>`))

	wbRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="` + testNSRels + `">` +
		`<Relationship Id="rId1" Type="` + testNSDocRels + `/worksheet" Target="worksheets/sheet1.xml"/>` +
		`<Relationship Id="rId2" Type="` + testNSDocRels + `/sharedStrings" Target="sharedStrings.xml"/>` +
		`<Relationship Id="rId3" Type="` + testNSDocRels + `/styles" Target="styles.xml"/>`
	if opts.secondSheetAux {
		wbRels += `<Relationship Id="rId4" Type="` + testNSDocRels + `/worksheet" Target="worksheets/sheet2.xml"/>`
	}
	wbRels += `</Relationships>`
	zipAddFile(t, zw, "xl/_rels/workbook.xml.rels", []byte(wbRels))

	sheetXML := opts.sheetXML
	if sheetXML == "" {
		sheetData := opts.sheetData
		if sheetData == "" {
			sheetData = `<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1"><v>42</v></c></row>`
		}
		sheetXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<worksheet xmlns="` + testNSMain + `" xmlns:r="` + testNSDocRels + `">` +
			`<dimension ref="A1:B1"/><sheetData>` + sheetData + `</sheetData>` +
			`</worksheet>`
	}
	zipAddFile(t, zw, "xl/worksheets/sheet1.xml", []byte(sheetXML))

	if opts.secondSheetAux {
		zipAddFile(t, zw, "xl/worksheets/sheet2.xml", []byte(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<worksheet xmlns="`+testNSMain+`" xmlns:r="`+testNSDocRels+`">`+
				`<dimension ref="A1"/><sheetData/>`+
				`<drawing r:id="rId1"/>`+
				`</worksheet>`))
		zipAddFile(t, zw, "xl/worksheets/_rels/sheet2.xml.rels", []byte(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<Relationships xmlns="`+testNSRels+`">`+
				`<Relationship Id="rId1" Type="`+testNSDocRels+`/drawing" Target="../drawings/drawing1.xml"/>`+
				`</Relationships>`))
		zipAddFile(t, zw, "xl/drawings/drawing1.xml", []byte(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"/>`))
		zipAddFile(t, zw, "xl/drawings/_rels/drawing1.xml.rels", []byte(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<Relationships xmlns="`+testNSRels+`">`+
				`<Relationship Id="rId1" Type="`+testNSDocRels+`/image" Target="../media/image1.png"/>`+
				`</Relationships>`))
		zipAddFile(t, zw, "xl/media/image1.png", []byte("\x89PNG\r\n\x1a\nfixture"))
	}

	zipAddFile(t, zw, "xl/sharedStrings.xml", []byte(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<sst xmlns="`+testNSMain+`" count="1" uniqueCount="1"><si><t>hello</t></si></sst>`))

	zipAddFile(t, zw, "xl/styles.xml", []byte(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<styleSheet xmlns="`+testNSMain+`">`+
			`<fonts count="1"><font><sz val="11"/></font></fonts>`+
			`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>`+
			`<borders count="1"><border/></borders>`+
			`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>`+
			`<cellXfs count="2"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>`+
			`<xf numFmtId="14" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/></cellXfs>`+
			`</styleSheet>`))

	if opts.corePropsEdge {
		zipAddFile(t, zw, "docProps/core.xml", []byte(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
				`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:creator>fixture</dc:creator></cp:coreProperties>`))
	}
	for name, data := range opts.extraEntries {
		zipAddFile(t, zw, name, data)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// zipEntry extracts one entry from a serialized archive, failing the test
// when it is absent.
func zipEntry(t *testing.T, pkg []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		t.Fatalf("zip open: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("zip entry %s: %v", name, err)
			}
			defer rc.Close()
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(rc); err != nil {
				t.Fatalf("zip entry %s: %v", name, err)
			}
			return buf.Bytes()
		}
	}
	t.Fatalf("zip entry %s not found", name)
	return nil
}

// hasZipEntry reports whether a serialized archive contains the named
// entry.
func hasZipEntry(t *testing.T, pkg []byte, name string) bool {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		t.Fatalf("zip open: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
