package xlsx

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/TsubasaBE/go-xlsx/cellstore"
	"github.com/TsubasaBE/go-xlsx/contenttypes"
	"github.com/TsubasaBE/go-xlsx/rels"
	"github.com/TsubasaBE/go-xlsx/stringtable"
	"github.com/TsubasaBE/go-xlsx/styles"
)

// SheetVisibility is the visibility state of a sheet tab.
type SheetVisibility int

// Sheet visibility levels, as stored in the state attribute of a workbook
// sheet entry.
const (
	// SheetVisible indicates the sheet tab is visible.
	SheetVisible SheetVisibility = iota
	// SheetHidden indicates the sheet is hidden but can be unhidden by the
	// user via the application's "Unhide" dialog.
	SheetHidden
	// SheetVeryHidden indicates the sheet is hidden and cannot be unhidden
	// through the UI, only programmatically.
	SheetVeryHidden
)

func (v SheetVisibility) stateAttr() string {
	switch v {
	case SheetHidden:
		return "hidden"
	case SheetVeryHidden:
		return "veryHidden"
	default:
		return ""
	}
}

func visibilityFromState(state string) SheetVisibility {
	switch state {
	case "hidden":
		return SheetHidden
	case "veryHidden":
		return SheetVeryHidden
	default:
		return SheetVisible
	}
}

// blobOrigin records why a part is held as raw bytes.
type blobOrigin uint8

const (
	// originDeferred marks a reachable part intentionally left unparsed
	// under fast fidelity; it is replayed byte-for-byte on save.
	originDeferred blobOrigin = iota
	// originUnknown marks a package entry never reached by relationship
	// traversal.
	originUnknown
)

// partBlob is an opaque part: bytes the engine chose not to interpret.
// Deferred and unknown parts share this representation and differ only in
// origin.
type partBlob struct {
	data   []byte
	origin blobOrigin
}

// AuxPart is one auxiliary feature part (comments, table, drawing, pivot
// cache, VBA blob, document properties, ...) discovered under full fidelity.
// Its XML schema is out of this engine's scope; the bytes stay opaque, but
// the part participates in relationship and content-type synchronization on
// save, keyed by its owner part.
type AuxPart struct {
	// Path is the normalized package path of the part.
	Path string
	// Owner is the path of the part whose relationship list references this
	// part ("" for a package-root relationship).
	Owner string
	// RelType is the relationship type of the referencing edge.
	RelType string
	// ContentType is the override entry for the part, empty when the
	// extension default covers it.
	ContentType string
	// TargetMode is the edge's target mode, empty for internal parts.
	TargetMode string
	// RelID is the relationship id of the referencing edge.  It is kept
	// across the write engine's drop-and-rebuild pass so that r:id values
	// embedded in part XML stay valid; leave it empty for new parts and the
	// next save assigns one.
	RelID string
	// Data holds the raw part bytes; nil for external targets.
	Data []byte
}

// Sheet is one worksheet: a unique, case-sensitive name, a stable index in
// the workbook order, and exactly one of a structured cell store, a raw
// byte fallback, or a streamed body.
type Sheet struct {
	// Name is the display name on the sheet tab.
	Name string
	// SheetID is the stable sheetId attribute from the workbook part.
	SheetID int
	// Visibility is the tab visibility state.
	Visibility SheetVisibility

	path   string
	store  *cellstore.Store
	ws     *xmlWorksheet // preserved worksheet children; nil for raw sheets
	raw    []byte        // raw-preserved bytes, mutually exclusive with store
	stream *streamBody   // streamed representation, set by StreamWriter.Flush
}

// Store returns the sheet's sparse cell store, or nil when the sheet was
// raw-preserved under selective fidelity.
func (s *Sheet) Store() *cellstore.Store {
	return s.store
}

// Document is an open spreadsheet package: the part arena, the content-type
// table, the per-source relationship lists, the sheets, and the workbook
// auxiliary state.  A Document is not safe for concurrent mutation; callers
// needing parallelism shard by Document instance.
type Document struct {
	// ContentTypes is the package content-type table.  The write engine
	// maintains the overrides for every part category it owns; callers only
	// touch it for parts the engine does not manage.
	ContentTypes *contenttypes.Table
	// Styles is the workbook style table and style-id allocator.
	Styles *styles.Table

	relationships map[string]*rels.Relationships // source part path → edges ("" = package root)
	sheets        []*Sheet
	sst           *stringtable.StringTable
	workbook      xmlWorkbook
	workbookPath  string
	stylesPath    string
	sstPath       string
	theme         []byte // raw theme part, nil when the package has none
	themePath     string
	aux           []*AuxPart
	blobs         map[string]partBlob
	date1904      bool
	fast          bool   // opened under fast fidelity; aux sync is suppressed
	ext           string // bound output extension, e.g. ".xlsx"
	tempFiles     []string
}

// New creates an empty document with a single sheet named "Sheet1" and the
// default output format (.xlsx).
func New() *Document {
	d := &Document{
		ContentTypes:  contenttypes.New(),
		Styles:        styles.New(),
		relationships: make(map[string]*rels.Relationships),
		sst:           stringtable.New(),
		workbookPath:  "xl/workbook.xml",
		stylesPath:    "xl/styles.xml",
		sstPath:       "xl/sharedStrings.xml",
		blobs:         make(map[string]partBlob),
		ext:           ".xlsx",
	}
	d.relationships[""] = &rels.Relationships{}
	d.relationships[d.workbookPath] = &rels.Relationships{}
	if _, err := d.NewSheet("Sheet1"); err != nil {
		// Cannot fail on an empty document; keep the signature honest anyway.
		panic(err)
	}
	return d
}

// SheetNames returns the display names of all sheets in workbook order.
func (d *Document) SheetNames() []string {
	names := make([]string, len(d.sheets))
	for i, s := range d.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the sheet with the given name.  Names are case-sensitive.
func (d *Document) Sheet(name string) (*Sheet, error) {
	for _, s := range d.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// NewSheet appends a new empty sheet and returns it.  The name must be
// non-empty, at most 31 characters, free of the characters []:*?/\ and not
// already in use (case-sensitive).
func (d *Document) NewSheet(name string) (*Sheet, error) {
	if err := validateSheetName(name); err != nil {
		return nil, err
	}
	for _, s := range d.sheets {
		if s.Name == name {
			return nil, fmt.Errorf("%w: %q", ErrSheetExists, name)
		}
	}
	s := &Sheet{
		Name:    name,
		SheetID: d.nextSheetID(),
		path:    d.nextSheetPath(),
		store:   &cellstore.Store{},
		ws:      &xmlWorksheet{Dimension: &xmlDimension{Ref: "A1"}},
	}
	d.sheets = append(d.sheets, s)
	return s, nil
}

// DeleteSheet removes the named sheet and cascades to everything scoped to
// it: its part, its relationship list, every auxiliary part it owns, and the
// matching content-type overrides.  Deleting the last sheet is rejected
// because a workbook must declare at least one.
func (d *Document) DeleteSheet(name string) error {
	idx := -1
	for i, s := range d.sheets {
		if s.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	if len(d.sheets) == 1 {
		return fmt.Errorf("xlsx: cannot delete the only sheet %q", name)
	}
	s := d.sheets[idx]
	d.sheets = append(d.sheets[:idx], d.sheets[idx+1:]...)

	// Cascade: auxiliary parts scoped to the sheet, transitively through
	// their owner chains (a drawing's images, a pivot table's caches), plus
	// the relationship lists and content-type overrides of everything
	// removed.  The loop runs to fixpoint because d.aux carries no ordering
	// guarantee between a part and its owner.
	removed := map[string]bool{s.path: true}
	for {
		kept := d.aux[:0]
		changed := false
		for _, a := range d.aux {
			if removed[a.Owner] {
				if a.Path != "" {
					removed[a.Path] = true
					d.ContentTypes.RemoveOverride(a.Path)
					delete(d.relationships, a.Path)
					delete(d.blobs, rels.RelsPathFor(a.Path))
				}
				changed = true
				continue
			}
			kept = append(kept, a)
		}
		d.aux = kept
		if !changed {
			break
		}
	}
	// Under fast fidelity the sheet's feature parts live as deferred blobs
	// instead of aux entries; chase them through their deferred rels blobs.
	d.cascadeBlobs(s.path)
	delete(d.relationships, s.path)
	delete(d.blobs, rels.RelsPathFor(s.path))
	d.ContentTypes.RemoveOverride(s.path)
	return nil
}

// cascadeBlobs removes every blob reachable from root, transitively.  The
// root's edges come from its parsed relationship list when one exists;
// deeper parts carry their rels as blobs, which are parsed on the way down.
// Only paths held as blobs are removed, so parts claimed by a live
// representation are left alone; an unparseable rels blob ends that branch.
func (d *Document) cascadeBlobs(root string) {
	queue := []string{root}
	for len(queue) > 0 {
		src := queue[0]
		queue = queue[1:]
		r := d.relationships[src]
		if r == nil {
			relsPath := rels.RelsPathFor(src)
			blob, ok := d.blobs[relsPath]
			if !ok {
				continue
			}
			delete(d.blobs, relsPath)
			var err error
			if r, err = rels.Parse(blob.data); err != nil {
				continue
			}
		}
		for _, edge := range r.All() {
			if edge.TargetMode == rels.TargetModeExternal {
				continue
			}
			target := rels.ResolveTarget(src, edge.Target)
			if _, ok := d.blobs[target]; !ok {
				continue
			}
			delete(d.blobs, target)
			d.ContentTypes.RemoveOverride(target)
			queue = append(queue, target)
		}
	}
}

// SetSheetName renames a sheet, subject to the same validation as NewSheet.
func (d *Document) SetSheetName(oldName, newName string) error {
	if err := validateSheetName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	for _, s := range d.sheets {
		if s.Name == newName {
			return fmt.Errorf("%w: %q", ErrSheetExists, newName)
		}
	}
	s, err := d.Sheet(oldName)
	if err != nil {
		return err
	}
	s.Name = newName
	return nil
}

// SetSheetVisibility sets the tab visibility of the named sheet.  The last
// visible sheet cannot be hidden.
func (d *Document) SetSheetVisibility(name string, v SheetVisibility) error {
	s, err := d.Sheet(name)
	if err != nil {
		return err
	}
	if v != SheetVisible {
		visible := 0
		for _, other := range d.sheets {
			if other.Visibility == SheetVisible {
				visible++
			}
		}
		if visible == 1 && s.Visibility == SheetVisible {
			return fmt.Errorf("xlsx: cannot hide the last visible sheet %q", name)
		}
	}
	s.Visibility = v
	return nil
}

// SheetVisibilityOf returns the visibility of the named sheet.
func (d *Document) SheetVisibilityOf(name string) (SheetVisibility, error) {
	s, err := d.Sheet(name)
	if err != nil {
		return SheetVisible, err
	}
	return s.Visibility, nil
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (d *Document) Date1904() bool {
	return d.date1904
}

// AuxParts returns the auxiliary parts discovered under full fidelity, in
// document order.  The slice is shared, not copied; feature modules mutate
// it through RegisterAuxPart and DeregisterAuxPart.
func (d *Document) AuxParts() []*AuxPart {
	return d.aux
}

// RegisterAuxPart attaches a new auxiliary part to the document.  The write
// engine will create its relationship edge and content-type override during
// the next save's synchronization pass.  The owner must be an existing sheet
// path, the workbook path, or "" for the package root.
func (d *Document) RegisterAuxPart(a *AuxPart) error {
	if a.Path == "" && a.TargetMode != rels.TargetModeExternal {
		return fmt.Errorf("xlsx: auxiliary part needs a path")
	}
	if d.pathInUse(a.Path) {
		return fmt.Errorf("xlsx: part path %q already in use", a.Path)
	}
	d.aux = append(d.aux, a)
	return nil
}

// DeregisterAuxPart removes the auxiliary part at the given path.  Its
// relationship edge and content-type override disappear on the next save.
func (d *Document) DeregisterAuxPart(path string) bool {
	for i, a := range d.aux {
		if a.Path == path {
			d.aux = append(d.aux[:i], d.aux[i+1:]...)
			d.ContentTypes.RemoveOverride(path)
			delete(d.relationships, path)
			return true
		}
	}
	return false
}

// Close releases resources held by the document: stream-writer temp files.
// It is safe to call multiple times.
func (d *Document) Close() error {
	var firstErr error
	for _, name := range d.tempFiles {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	d.tempFiles = nil
	return firstErr
}

// ── internal ─────────────────────────────────────────────────────────────────

// pathInUse reports whether a package path is already claimed by any part
// representation.  A given path lives in exactly one of structured parts,
// raw parts, deferred parts, or unknown parts at any time.
func (d *Document) pathInUse(p string) bool {
	if p == "" {
		return false
	}
	if p == d.workbookPath || p == d.themePath || p == contenttypes.Path {
		return true
	}
	if p == d.stylesPath || (p == d.sstPath && d.sst != nil && d.sst.Len() > 0) {
		return true
	}
	for _, s := range d.sheets {
		if s.path == p {
			return true
		}
	}
	for _, a := range d.aux {
		if a.Path == p {
			return true
		}
	}
	_, ok := d.blobs[p]
	return ok
}

// nextSheetID returns the next free sheetId, max-plus-one over the current
// sheets.
func (d *Document) nextSheetID() int {
	max := 0
	for _, s := range d.sheets {
		if s.SheetID > max {
			max = s.SheetID
		}
	}
	return max + 1
}

// nextSheetPath returns the next free worksheet part path, scanning current
// sheet paths for the highest numeric suffix.  The counter is never stored;
// it is derived from the live contents so it cannot drift.
func (d *Document) nextSheetPath() string {
	max := 0
	for _, s := range d.sheets {
		n := sheetPathSuffix(s.path)
		if n > max {
			max = n
		}
	}
	for p := range d.blobs {
		if n := sheetPathSuffix(p); n > max {
			max = n
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", max+1)
}

func sheetPathSuffix(p string) int {
	const prefix, suffix = "xl/worksheets/sheet", ".xml"
	if !strings.HasPrefix(p, prefix) || !strings.HasSuffix(p, suffix) {
		return 0
	}
	n, err := strconv.Atoi(p[len(prefix) : len(p)-len(suffix)])
	if err != nil {
		return 0
	}
	return n
}

// relsFor returns the relationship list of a source part, creating an empty
// one on first use.
func (d *Document) relsFor(source string) *rels.Relationships {
	r, ok := d.relationships[source]
	if !ok {
		r = &rels.Relationships{}
		d.relationships[source] = r
	}
	return r
}

func validateSheetName(name string) error {
	if name == "" {
		return fmt.Errorf("xlsx: sheet name must not be empty")
	}
	if len([]rune(name)) > 31 {
		return fmt.Errorf("xlsx: sheet name %q exceeds 31 characters", name)
	}
	if strings.ContainsAny(name, `[]:*?/\`) {
		return fmt.Errorf("xlsx: sheet name %q contains an invalid character", name)
	}
	return nil
}
