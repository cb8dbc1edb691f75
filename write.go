package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/TsubasaBE/go-xlsx/cellstore"
	"github.com/TsubasaBE/go-xlsx/contenttypes"
	"github.com/TsubasaBE/go-xlsx/internal/ref"
	"github.com/TsubasaBE/go-xlsx/rels"
)

// SaveAs writes the document to the named file.  The workbook content type
// is derived from the file extension; an unrecognized extension is rejected
// before any bytes are written.  The file is written in one shot from a
// fully assembled buffer, so a failed save never leaves a truncated
// valid-looking package behind.
func (d *Document) SaveAs(name string) error {
	ext := strings.ToLower(path.Ext(name))
	if workbookContentType[ext] == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedExt, ext)
	}
	d.ext = ext
	buf, err := d.WriteToBuffer()
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", name, err)
	}
	return nil
}

// Write writes the document to w using the format bound to the document
// (the extension it was opened or last saved with; .xlsx for new
// documents).
func (d *Document) Write(w io.Writer) error {
	_, err := d.WriteTo(w)
	return err
}

// WriteTo implements [io.WriterTo].  The package is fully assembled in
// memory first; nothing is written to w on error.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	buf, err := d.WriteToBuffer()
	if err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// WriteToBuffer assembles the package into a fresh buffer.
func (d *Document) WriteToBuffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	if err := d.emit(zw); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("xlsx: finalize archive: %w", err)
	}
	return buf, nil
}

// ── synchronization ──────────────────────────────────────────────────────────

// coreRelTypes are the relationship types the engine itself owns at the
// workbook level; they are dropped and rebuilt on every save.
var coreRelTypes = map[string]bool{
	relWorksheet:    true,
	relTheme:        true,
	relStyles:       true,
	relSharedString: true,
}

// sync recomputes the relationship graph and content-type table from live
// in-memory state.  The policy is drop-and-rebuild: for every category the
// document actually parsed, previously-owned edges and overrides are
// removed and recreated, so deleted features leave no orphans.  Categories
// captured as deferred bytes under fast fidelity are left untouched; the
// engine has no authoritative state to rebuild them from.
func (d *Document) sync() error {
	root := d.relsFor("")
	if len(root.ByType(relOfficeDoc)) == 0 {
		root.Add(relOfficeDoc, d.workbookPath, "")
	}

	// Drop owned auxiliary edges (full fidelity only).
	if !d.fast {
		for source, r := range d.relationships {
			r.RemoveIf(func(rel rels.Relationship) bool {
				if rel.TargetMode == rels.TargetModeExternal {
					return false
				}
				if source == "" && rel.Type == relOfficeDoc {
					return false
				}
				return !coreRelTypes[rel.Type]
			})
		}
	}

	// Drop and rebuild the core workbook edges.  Sheets come first, in
	// workbook order, so their ids are stable across saves of an unchanged
	// document.
	wb := d.relsFor(d.workbookPath)
	wb.RemoveIf(func(rel rels.Relationship) bool {
		return rel.TargetMode != rels.TargetModeExternal && coreRelTypes[rel.Type]
	})

	// Recreate auxiliary edges from the live instances, preserving each
	// part's recorded id so r:id references inside part XML stay valid.
	if !d.fast {
		for _, a := range d.aux {
			r := d.relsFor(a.Owner)
			target := a.Path
			mode := a.TargetMode
			if mode != rels.TargetModeExternal {
				target = relativeTarget(a.Owner, a.Path)
			}
			if a.RelID != "" {
				if _, ok := r.ByID(a.RelID); ok {
					// External-mode edges survive the drop pass; nothing to redo.
					continue
				}
				if err := r.AddWithID(a.RelID, a.RelType, target, mode); err != nil {
					return fmt.Errorf("xlsx: aux part %q: %w", a.Path, err)
				}
			} else {
				a.RelID = r.Add(a.RelType, target, mode)
			}
		}
	}

	entries := make([]xmlSheetEntry, len(d.sheets))
	for i, s := range d.sheets {
		id := wb.Add(relWorksheet, relativeTarget(d.workbookPath, s.path), "")
		entries[i] = xmlSheetEntry{
			Name:    s.Name,
			SheetID: s.SheetID,
			State:   s.Visibility.stateAttr(),
			RID:     id,
		}
	}
	d.workbook.Sheets.Sheets = entries
	if d.theme != nil {
		wb.Add(relTheme, relativeTarget(d.workbookPath, d.themePath), "")
	}
	wb.Add(relStyles, relativeTarget(d.workbookPath, d.stylesPath), "")
	if d.sst.Len() > 0 {
		wb.Add(relSharedString, relativeTarget(d.workbookPath, d.sstPath), "")
	}

	d.syncContentTypes()
	return nil
}

// syncContentTypes rebuilds the overrides for every part category the
// engine owns and sweeps overrides whose part no longer exists.
func (d *Document) syncContentTypes() {
	ct := d.ContentTypes
	ct.RegisterDefault("rels", contenttypes.TypeRelationships)
	ct.RegisterDefault("xml", contenttypes.TypeXML)

	ct.RegisterOverride(d.workbookPath, workbookContentType[d.ext])
	for _, s := range d.sheets {
		ct.RegisterOverride(s.path, ctWorksheet)
	}
	ct.RegisterOverride(d.stylesPath, ctStyles)
	if d.sst.Len() > 0 {
		ct.RegisterOverride(d.sstPath, ctSharedStrings)
	} else {
		ct.RemoveOverride(d.sstPath)
	}
	if d.theme != nil {
		ct.RegisterOverride(d.themePath, ctTheme)
	}
	if !d.fast {
		for _, a := range d.aux {
			if a.ContentType != "" {
				ct.RegisterOverride(a.Path, a.ContentType)
			}
		}
	}

	// Orphan sweep: an override whose part is gone must not survive, or the
	// output declares a type for a part that does not exist.
	ct.RemoveOverrideIf(func(partName string) bool {
		return !d.pathInUse(partName)
	})
}

// ── emission ─────────────────────────────────────────────────────────────────

// emit writes every part in a stable order: the content-type table, the
// root relationships, the workbook and its relationships, the sheets, the
// always-parsed auxiliary parts, the feature parts, and finally every
// opaque blob verbatim.
func (d *Document) emit(zw *zip.Writer) error {
	if err := d.sync(); err != nil {
		return err
	}
	written := make(map[string]bool)
	add := func(p string, data []byte) error {
		if p == "" || written[p] {
			return nil
		}
		w, err := zw.Create(p)
		if err != nil {
			return fmt.Errorf("xlsx: create entry %q: %w", p, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("xlsx: write entry %q: %w", p, err)
		}
		written[p] = true
		return nil
	}
	addRels := func(source string) error {
		r, ok := d.relationships[source]
		if !ok || r.Len() == 0 {
			return nil
		}
		data, err := r.Marshal()
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		return add(rels.RelsPathFor(source), data)
	}

	ctData, err := d.ContentTypes.Marshal()
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := add(contenttypes.Path, ctData); err != nil {
		return err
	}
	if err := addRels(""); err != nil {
		return err
	}

	wbData, err := d.marshalWorkbook()
	if err != nil {
		return err
	}
	if err := add(d.workbookPath, wbData); err != nil {
		return err
	}
	if err := addRels(d.workbookPath); err != nil {
		return err
	}

	for _, s := range d.sheets {
		data, err := d.marshalSheet(s, zw, written)
		if err != nil {
			return err
		}
		if data != nil {
			if err := add(s.path, data); err != nil {
				return err
			}
		}
		if err := addRels(s.path); err != nil {
			return err
		}
	}

	if d.sst.Len() > 0 {
		data, err := d.sst.Marshal()
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := add(d.sstPath, data); err != nil {
			return err
		}
	}
	stylesData, err := d.Styles.Marshal()
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := add(d.stylesPath, stylesData); err != nil {
		return err
	}
	if d.theme != nil {
		if err := add(d.themePath, d.theme); err != nil {
			return err
		}
	}

	for _, a := range d.aux {
		if a.Data == nil {
			continue
		}
		if err := add(a.Path, a.Data); err != nil {
			return err
		}
		if err := addRels(a.Path); err != nil {
			return err
		}
	}

	// Deferred and unknown blobs, in sorted order for deterministic output.
	paths := make([]string, 0, len(d.blobs))
	for p := range d.blobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := add(p, d.blobs[p].data); err != nil {
			return err
		}
	}
	return nil
}

// marshalWorkbook encodes the workbook part with the relationship
// namespace rewritten to the conventional r: prefix.
func (d *Document) marshalWorkbook() ([]byte, error) {
	body, err := xml.Marshal(&d.workbook)
	if err != nil {
		return nil, fmt.Errorf("xlsx: marshal workbook: %w", err)
	}
	return fixupRelNamespace(body, "workbook"), nil
}

// marshalSheet renders a sheet in whichever representation it carries:
// verbatim raw bytes, a streamed temp-file body (spliced straight into the
// archive, returning nil data), or the structured cell store.
func (d *Document) marshalSheet(s *Sheet, zw *zip.Writer, written map[string]bool) ([]byte, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	if s.stream != nil {
		if err := d.spliceStream(s, zw); err != nil {
			return nil, err
		}
		written[s.path] = true
		return nil, nil
	}

	ws := s.ws
	if ws == nil {
		ws = &xmlWorksheet{}
	}
	ws.SheetData = xmlSheetData{Rows: make([]xmlRow, 0, len(s.store.Rows))}
	for i := range s.store.Rows {
		row := &s.store.Rows[i]
		xr := xmlRow{
			R:            row.Num,
			S:            row.Style,
			CustomFormat: row.Style != 0,
			Ht:           row.Height,
			Hidden:       row.Hidden,
			CustomHeight: row.CustomHeight,
			C:            make([]xmlC, 0, len(row.Cells)),
		}
		for j := range row.Cells {
			xr.C = append(xr.C, encodeCell(&row.Cells[j]))
		}
		ws.SheetData.Rows = append(ws.SheetData.Rows, xr)
	}
	if minCol, minRow, maxCol, maxRow, ok := s.store.Dimension(); ok {
		first, _ := ref.CoordinatesToCellName(minCol, minRow)
		last, _ := ref.CoordinatesToCellName(maxCol, maxRow)
		dim := first
		if last != first {
			dim = first + ":" + last
		}
		ws.Dimension = &xmlDimension{Ref: dim}
	}

	body, err := xml.Marshal(ws)
	ws.SheetData = xmlSheetData{}
	if err != nil {
		return nil, fmt.Errorf("xlsx: marshal sheet %q: %w", s.Name, err)
	}
	return fixupRelNamespace(body, "worksheet"), nil
}

// spliceStream copies a streamed sheet into its archive entry: header
// bytes, the temp file's pre-serialized rows, footer bytes.  The cell store
// is never materialized for a streamed sheet.
func (d *Document) spliceStream(s *Sheet, zw *zip.Writer) error {
	w, err := zw.Create(s.path)
	if err != nil {
		return fmt.Errorf("xlsx: create entry %q: %w", s.path, err)
	}
	if _, err := w.Write(s.stream.header); err != nil {
		return fmt.Errorf("xlsx: stream sheet %q: %w", s.Name, err)
	}
	f, err := os.Open(s.stream.tmp)
	if err != nil {
		return fmt.Errorf("xlsx: stream sheet %q: %w", s.Name, err)
	}
	_, copyErr := io.Copy(w, f)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("xlsx: stream sheet %q: %w", s.Name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("xlsx: stream sheet %q: %w", s.Name, closeErr)
	}
	if _, err := w.Write(s.stream.footer); err != nil {
		return fmt.Errorf("xlsx: stream sheet %q: %w", s.Name, err)
	}
	return nil
}

// encodeCell converts a store cell back to its XML element.  Inline
// strings are re-wrapped in an is element from the extracted text.
func encodeCell(c *cellstore.Cell) xmlC {
	xc := xmlC{R: c.Ref, S: c.Style}
	switch c.Type {
	case cellstore.TypeSharedString:
		xc.T = "s"
	case cellstore.TypeNumber:
		xc.T = "n"
	case cellstore.TypeBool:
		xc.T = "b"
	case cellstore.TypeError:
		xc.T = "e"
	case cellstore.TypeFormulaString:
		xc.T = "str"
	case cellstore.TypeDate:
		xc.T = "d"
	case cellstore.TypeInlineString:
		xc.T = "inlineStr"
	}
	if c.Type == cellstore.TypeInlineString {
		xc.IS = &xmlRawElem{Inner: "<t>" + escapeXMLText(c.Value) + "</t>"}
	} else {
		xc.V = c.Value
	}
	if c.Formula != "" {
		xc.F = &xmlF{Content: c.Formula}
	}
	return xc
}

// escapeXMLText escapes a string for use as XML character data.
func escapeXMLText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// relativeTarget renders a part path as a relationship target relative to
// the source part's directory, falling back to a package-absolute target
// when the part lives elsewhere.
func relativeTarget(source, target string) string {
	dir := path.Dir(source)
	if dir == "." || dir == "" {
		return target
	}
	if strings.HasPrefix(target, dir+"/") {
		return target[len(dir)+1:]
	}
	return "/" + target
}

// fixupRelNamespace rewrites Go's generated relationship-namespace
// attributes to the conventional compact form.  The encoder declares its
// derived prefix only on the first element that uses it, so the
// declaration and the prefixed attributes are rewritten independently:
// every `relationships:id` becomes `r:id`, backed by a single xmlns:r
// declaration on the root element.
func fixupRelNamespace(body []byte, rootElem string) []byte {
	body = bytes.ReplaceAll(body,
		[]byte(` xmlns:relationships="`+nsDocRels+`"`), nil)
	body = bytes.ReplaceAll(body,
		[]byte(` relationships:id=`),
		[]byte(` r:id=`))
	oldRoot := []byte(`<` + rootElem + ` xmlns="` + nsMain + `">`)
	newRoot := []byte(`<` + rootElem + ` xmlns="` + nsMain + `" xmlns:r="` + nsDocRels + `">`)
	body = bytes.Replace(body, oldRoot, newRoot, 1)
	return append([]byte(xml.Header), body...)
}
