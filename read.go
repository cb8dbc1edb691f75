package xlsx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/TsubasaBE/go-xlsx/cellstore"
	"github.com/TsubasaBE/go-xlsx/contenttypes"
	"github.com/TsubasaBE/go-xlsx/internal/ref"
	"github.com/TsubasaBE/go-xlsx/internal/xmlcodec"
	"github.com/TsubasaBE/go-xlsx/rels"
	"github.com/TsubasaBE/go-xlsx/stringtable"
	"github.com/TsubasaBE/go-xlsx/styles"
)

// Options configures the fidelity of an open operation.  The zero value is
// full fidelity with no resource limits.
type Options struct {
	// FastParse leaves all auxiliary feature parts (comments, tables,
	// drawings, pivot caches, VBA, document properties, ...) unparsed.
	// Their bytes, relationships and content-type entries are replayed
	// verbatim on save.  Shared strings, styles and the theme are
	// load-bearing and parsed regardless.
	FastParse bool
	// Sheets, when non-nil, selects the sheets to parse by name.  Sheets
	// not listed are kept as raw bytes and round-trip unchanged.
	Sheets []string
	// RowLimit, when positive, truncates each parsed sheet to its first
	// RowLimit row elements in document order.
	RowLimit int
	// MaxZipEntries, when positive, bounds the number of archive entries.
	MaxZipEntries int
	// MaxDecompressedSize, when positive, bounds the sum of the declared
	// uncompressed entry sizes.
	MaxDecompressedSize int64
}

// oleIdentifier is the magic number of a CFB compound file, checked before
// ZIP parsing so an encrypted container fails fast with a distinct error
// instead of a confusing ZIP error.
var oleIdentifier = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Open opens the named spreadsheet file.  The output extension is bound to
// the file's own extension when recognized.
func Open(name string, opts ...Options) (*Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", name, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("xlsx: stat %q: %w", name, err)
	}
	d, err := OpenReader(f, st.Size(), opts...)
	if err != nil {
		return nil, err
	}
	if ct := strings.ToLower(path.Ext(name)); workbookContentType[ct] != "" {
		d.ext = ct
	}
	return d, nil
}

// OpenReader reads a spreadsheet package from an arbitrary [io.ReaderAt].
// size must equal the total byte length of the data.  All parts are
// materialized during the call; the reader is not retained.
func OpenReader(r io.ReaderAt, size int64, opts ...Options) (*Document, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	if err := sniffCFB(r, size); err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("xlsx: not a valid package archive: %w", err)
	}
	if err := safetyGate(zr, &opt); err != nil {
		return nil, err
	}
	rd := &reader{
		opt:     opt,
		entries: make(map[string]*zip.File, len(zr.File)),
		touched: make(map[string]bool),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rd.entries[normalizePath(f.Name)] = f
	}
	return rd.run()
}

// sniffCFB rejects CFB compound files before ZIP parsing: a container with
// an EncryptedPackage stream is an encrypted workbook, anything else is a
// legacy binary workbook.
func sniffCFB(r io.ReaderAt, size int64) error {
	var sig [8]byte
	if _, err := r.ReadAt(sig[:], 0); err != nil {
		return nil // shorter than a signature; let the ZIP reader complain
	}
	if !bytes.Equal(sig[:], oleIdentifier) {
		return nil
	}
	doc, err := mscfb.New(io.NewSectionReader(r, 0, size))
	if err != nil {
		return ErrLegacyFormat
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "EncryptedPackage" {
			return ErrEncrypted
		}
	}
	return ErrLegacyFormat
}

// safetyGate bounds worst-case resource consumption on adversarial archives
// before any XML parsing begins.  It runs unconditionally, independent of
// fidelity.
func safetyGate(zr *zip.Reader, opt *Options) error {
	if opt.MaxZipEntries > 0 && len(zr.File) > opt.MaxZipEntries {
		return &LimitError{Kind: "entry count", Actual: int64(len(zr.File)), Limit: int64(opt.MaxZipEntries)}
	}
	if opt.MaxDecompressedSize > 0 {
		var total int64
		for _, f := range zr.File {
			total += int64(f.UncompressedSize64)
			if total > opt.MaxDecompressedSize {
				return &LimitError{Kind: "decompressed size", Actual: total, Limit: opt.MaxDecompressedSize}
			}
		}
	}
	return nil
}

// reader is the state of one read-engine run over an archive.
type reader struct {
	opt     Options
	entries map[string]*zip.File
	touched map[string]bool
	doc     *Document
}

// run walks the relationship graph from the package root, materializing
// every reachable part according to the fidelity configuration, then sweeps
// every unreached entry into the unknown set.
func (rd *reader) run() (*Document, error) {
	rd.doc = &Document{
		relationships: make(map[string]*rels.Relationships),
		blobs:         make(map[string]partBlob),
		fast:          rd.opt.FastParse,
		ext:           ".xlsx",
	}
	if err := rd.rootDiscovery(); err != nil {
		return nil, err
	}
	if err := rd.sheetDiscovery(); err != nil {
		return nil, err
	}
	if err := rd.auxDiscovery(); err != nil {
		return nil, err
	}
	rd.residualSweep()
	return rd.doc, nil
}

// readEntry returns the full contents of a package entry and marks it
// touched.
func (rd *reader) readEntry(p string) ([]byte, error) {
	f, ok := rd.entries[p]
	if !ok {
		return nil, fmt.Errorf("%q not found in archive", p)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	data, readErr := io.ReadAll(rc)
	closeErr := rc.Close()
	if readErr != nil {
		return nil, readErr
	}
	// Propagate decompressor checksum errors even when the read appeared to
	// succeed (e.g. a truncated deflate stream).
	if closeErr != nil {
		return nil, closeErr
	}
	rd.touched[p] = true
	return data, nil
}

// readRels parses the .rels part of a source part, returning an empty edge
// list when the part has none.
func (rd *reader) readRels(source string) (*rels.Relationships, error) {
	data, err := rd.readEntry(rels.RelsPathFor(source))
	if err != nil {
		return &rels.Relationships{}, nil
	}
	return rels.Parse(data)
}

// rootDiscovery parses the content-type table and the package-root
// relationship part, then locates and parses the workbook part.  All three
// are load-bearing; failures are fatal.
func (rd *reader) rootDiscovery() error {
	d := rd.doc

	ctData, err := rd.readEntry(contenttypes.Path)
	if err != nil {
		return fmt.Errorf("xlsx: missing content-type table: %w", err)
	}
	if d.ContentTypes, err = contenttypes.Parse(ctData); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	rootRelsData, err := rd.readEntry("_rels/.rels")
	if err != nil {
		return fmt.Errorf("xlsx: missing package-root relationships: %w", err)
	}
	rootRels, err := rels.Parse(rootRelsData)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	d.relationships[""] = rootRels

	docRels := rootRels.ByType(relOfficeDoc)
	if len(docRels) == 0 {
		return fmt.Errorf("xlsx: package declares no office document part")
	}
	d.workbookPath = rels.ResolveTarget("", docRels[0].Target)

	wbData, err := rd.readEntry(d.workbookPath)
	if err != nil {
		return fmt.Errorf("xlsx: missing workbook part: %w", err)
	}
	if err := xmlcodec.Unmarshal(wbData, &d.workbook); err != nil {
		return fmt.Errorf("xlsx: parse workbook: %w", err)
	}
	if d.workbook.WorkbookPr != nil {
		d.date1904 = d.workbook.WorkbookPr.Date1904
	}

	wbRelsData, err := rd.readEntry(rels.RelsPathFor(d.workbookPath))
	if err != nil {
		return fmt.Errorf("xlsx: missing workbook relationships: %w", err)
	}
	wbRels, err := rels.Parse(wbRelsData)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	d.relationships[d.workbookPath] = wbRels
	return nil
}

// sheetDiscovery enumerates declared sheets in document order, resolves
// each relationship id to a part path, and materializes the sheet according
// to fidelity: parsed into the cell store, or raw-preserved when a
// selective set excludes its name.
func (rd *reader) sheetDiscovery() error {
	d := rd.doc
	wbRels := d.relationships[d.workbookPath]

	var selected map[string]bool
	if rd.opt.Sheets != nil {
		selected = make(map[string]bool, len(rd.opt.Sheets))
		for _, name := range rd.opt.Sheets {
			selected[name] = true
		}
	}

	for _, entry := range d.workbook.Sheets.Sheets {
		rel, ok := wbRels.ByID(entry.RID)
		if !ok {
			return fmt.Errorf("xlsx: sheet %q: no relationship %q", entry.Name, entry.RID)
		}
		sheetPath := rels.ResolveTarget(d.workbookPath, rel.Target)
		data, err := rd.readEntry(sheetPath)
		if err != nil {
			return fmt.Errorf("xlsx: sheet %q: %w", entry.Name, err)
		}
		s := &Sheet{
			Name:       entry.Name,
			SheetID:    entry.SheetID,
			Visibility: visibilityFromState(entry.State),
			path:       sheetPath,
		}
		if selected != nil && !selected[entry.Name] {
			s.raw = data
		} else if err := parseWorksheet(s, data, rd.opt.RowLimit); err != nil {
			return fmt.Errorf("xlsx: sheet %q: %w", entry.Name, err)
		}
		d.sheets = append(d.sheets, s)

		// Sheet relationships are structural (they anchor the sheet's
		// auxiliary parts) and are parsed even for raw-preserved sheets.
		if relsData, err := rd.readEntry(rels.RelsPathFor(sheetPath)); err == nil {
			sr, err := rels.Parse(relsData)
			if err != nil {
				return fmt.Errorf("xlsx: sheet %q: %w", entry.Name, err)
			}
			d.relationships[sheetPath] = sr
		}
	}
	return nil
}

// parseWorksheet decodes a worksheet part into the sheet's cell store.  The
// row limit truncates the parsed sequence in document order; rows and cells
// are then re-sorted and each cell's column cache recomputed, because the
// engine must not trust input ordering.
func parseWorksheet(s *Sheet, data []byte, rowLimit int) error {
	ws := &xmlWorksheet{}
	if err := xmlcodec.Unmarshal(data, ws); err != nil {
		return fmt.Errorf("parse worksheet: %w", err)
	}
	rows := ws.SheetData.Rows
	if rowLimit > 0 && len(rows) > rowLimit {
		rows = rows[:rowLimit]
	}
	store := &cellstore.Store{Rows: make([]cellstore.Row, 0, len(rows))}
	for _, xr := range rows {
		row := cellstore.Row{
			Num:          xr.R,
			Height:       xr.Ht,
			CustomHeight: xr.CustomHeight,
			Hidden:       xr.Hidden,
			Style:        xr.S,
			Cells:        make([]cellstore.Cell, 0, len(xr.C)),
		}
		nextCol := 1
		for _, xc := range xr.C {
			cell, col := parseCell(xc, xr.R, nextCol)
			nextCol = col + 1
			row.Cells = append(row.Cells, cell)
		}
		store.Rows = append(store.Rows, row)
	}
	store.Normalize()
	ws.SheetData = xmlSheetData{} // the store is authoritative from here on
	s.store = store
	s.ws = ws
	return nil
}

// parseCell converts one cell element.  Cells without an r attribute take
// the column after the previous cell in the row, per the implicit-position
// rule of the sheetData schema.
func parseCell(xc xmlC, rowNum, nextCol int) (cellstore.Cell, int) {
	col := nextCol
	cellRef := xc.R
	if cellRef != "" {
		if c := ref.ColumnOf(cellRef); c > 0 {
			col = c
		}
	} else {
		cellRef, _ = ref.CoordinatesToCellName(col, rowNum)
	}
	cell := cellstore.Cell{Ref: cellRef, Col: col, Style: xc.S, Value: xc.V}
	switch xc.T {
	case "s":
		cell.Type = cellstore.TypeSharedString
	case "n":
		cell.Type = cellstore.TypeNumber
	case "b":
		cell.Type = cellstore.TypeBool
	case "e":
		cell.Type = cellstore.TypeError
	case "str":
		cell.Type = cellstore.TypeFormulaString
	case "d":
		cell.Type = cellstore.TypeDate
	case "inlineStr":
		cell.Type = cellstore.TypeInlineString
		if xc.IS != nil {
			var is xmlInlineStr
			if err := xmlcodec.Unmarshal([]byte("<is>"+xc.IS.Inner+"</is>"), &is); err == nil {
				cell.Value = is.T
			}
		}
	}
	if xc.F != nil {
		cell.Formula = xc.F.Content
	}
	return cell, col
}

// auxDiscovery materializes the always-parsed auxiliary parts (shared
// strings, styles, theme) and classifies everything else reachable from the
// package root, the workbook, or a sheet: parsed opaquely into AuxPart
// instances under full fidelity, or captured as deferred bytes under fast
// fidelity.
func (rd *reader) auxDiscovery() error {
	d := rd.doc
	wbRels := d.relationships[d.workbookPath]

	// Shared strings: optional, recovered with an empty table.
	d.sstPath = "xl/sharedStrings.xml"
	if sstRels := wbRels.ByType(relSharedString); len(sstRels) > 0 {
		p := rels.ResolveTarget(d.workbookPath, sstRels[0].Target)
		if data, err := rd.readEntry(p); err == nil {
			st, err := stringtable.Parse(data)
			if err != nil {
				return fmt.Errorf("xlsx: %w", err)
			}
			d.sst = st
			d.sstPath = p
		}
	}
	if d.sst == nil {
		d.sst = stringtable.New()
	}

	// Styles: optional, recovered with the minimal default table.
	d.stylesPath = "xl/styles.xml"
	if styleRels := wbRels.ByType(relStyles); len(styleRels) > 0 {
		p := rels.ResolveTarget(d.workbookPath, styleRels[0].Target)
		if data, err := rd.readEntry(p); err == nil {
			t, err := styles.Parse(data)
			if err != nil {
				return fmt.Errorf("xlsx: %w", err)
			}
			d.Styles = t
			d.stylesPath = p
		}
	}
	if d.Styles == nil {
		d.Styles = styles.New()
	}

	// Theme: kept as raw bytes; it is load-bearing for style rendering in
	// consumers but the engine never edits it.
	if themeRels := wbRels.ByType(relTheme); len(themeRels) > 0 {
		p := rels.ResolveTarget(d.workbookPath, themeRels[0].Target)
		if data, err := rd.readEntry(p); err == nil {
			d.theme = data
			d.themePath = p
		}
	}

	// Everything else reachable from the root, the workbook, or a sheet.
	if err := rd.classifyEdges("", d.relationships[""]); err != nil {
		return err
	}
	if err := rd.classifyEdges(d.workbookPath, wbRels); err != nil {
		return err
	}
	for _, s := range d.sheets {
		if sr, ok := d.relationships[s.path]; ok {
			if err := rd.classifyEdges(s.path, sr); err != nil {
				return err
			}
		}
	}
	return nil
}

// classifyEdges walks one source part's edges and captures each target not
// already materialized: as an AuxPart under full fidelity, or as a deferred
// blob under fast fidelity.
func (rd *reader) classifyEdges(source string, r *rels.Relationships) error {
	d := rd.doc
	for _, edge := range r.All() {
		if edge.TargetMode == rels.TargetModeExternal {
			continue
		}
		target := rels.ResolveTarget(source, edge.Target)
		if rd.touched[target] || d.pathInUse(target) {
			continue
		}
		data, err := rd.readEntry(target)
		if err != nil {
			// A dangling auxiliary edge is tolerated on read (the producer's
			// bug, not ours); the write engine will not recreate it.
			continue
		}
		if rd.opt.FastParse {
			d.blobs[target] = partBlob{data: data, origin: originDeferred}
			continue
		}
		// Only overrides are recorded on the aux part; extension defaults
		// need no synchronization.
		ct, _ := d.ContentTypes.OverrideFor(target)
		d.aux = append(d.aux, &AuxPart{
			Path:        target,
			Owner:       source,
			RelType:     edge.Type,
			ContentType: ct,
			RelID:       edge.ID,
			Data:        data,
		})
		// Second-level parts (a drawing's images, a pivot table's cache)
		// hang off the aux part's own rels.
		if relsData, err := rd.readEntry(rels.RelsPathFor(target)); err == nil {
			ar, err := rels.Parse(relsData)
			if err != nil {
				return fmt.Errorf("xlsx: %w", err)
			}
			d.relationships[target] = ar
			if err := rd.classifyEdges(target, ar); err != nil {
				return err
			}
		}
	}
	return nil
}

// residualSweep captures every archive entry not touched by discovery as an
// unknown part, regardless of fidelity mode.
func (rd *reader) residualSweep() {
	for p := range rd.entries {
		if rd.touched[p] {
			continue
		}
		data, err := rd.readEntry(p)
		if err != nil {
			continue
		}
		rd.doc.blobs[p] = partBlob{data: data, origin: originUnknown}
	}
}

// normalizePath normalizes an archive entry name to the package path form
// used throughout the engine: forward slashes, no leading slash.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean(p), "/")
}
