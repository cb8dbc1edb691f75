// Package contenttypes models the package content-type table
// ([Content_Types].xml): extension-wide defaults plus path-specific
// overrides, with override-first lookup.
package contenttypes

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// Namespace is the XML namespace of the content-type part.
const Namespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// Path is the fixed package path of the content-type part.
const Path = "[Content_Types].xml"

// Common content types referenced throughout the package engine.
const (
	TypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	TypeXML           = "application/xml"
)

type xmlTypes struct {
	XMLName   xml.Name      `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []xmlDefault  `xml:"Default"`
	Overrides []xmlOverride `xml:"Override"`
}

type xmlDefault struct {
	Extension   string `xml:",attr"`
	ContentType string `xml:",attr"`
}

type xmlOverride struct {
	PartName    string `xml:",attr"`
	ContentType string `xml:",attr"`
}

// Table is the in-memory content-type table.  Entry order is preserved so
// re-emitted tables stay stable across round trips.
type Table struct {
	defaults  []xmlDefault
	overrides []xmlOverride
}

// New returns a table seeded with the two defaults every package carries:
// .rels and .xml.
func New() *Table {
	t := &Table{}
	t.RegisterDefault("rels", TypeRelationships)
	t.RegisterDefault("xml", TypeXML)
	return t
}

// Parse decodes the raw bytes of a [Content_Types].xml part.
func Parse(data []byte) (*Table, error) {
	var x xmlTypes
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("contenttypes: parse: %w", err)
	}
	return &Table{defaults: x.Defaults, overrides: x.Overrides}, nil
}

// Marshal encodes the table, including the XML header.
func (t *Table) Marshal() ([]byte, error) {
	x := xmlTypes{Defaults: t.defaults, Overrides: t.overrides}
	body, err := xml.Marshal(&x)
	if err != nil {
		return nil, fmt.Errorf("contenttypes: marshal: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// RegisterDefault upserts the extension-wide default for ext (no leading
// dot).  Registering an existing extension replaces its content type.
func (t *Table) RegisterDefault(ext, contentType string) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for i := range t.defaults {
		if strings.EqualFold(t.defaults[i].Extension, ext) {
			t.defaults[i].ContentType = contentType
			return
		}
	}
	t.defaults = append(t.defaults, xmlDefault{Extension: ext, ContentType: contentType})
}

// RegisterOverride upserts the path-specific override for partName.  The
// part name is normalized to carry a leading "/" as required by the part.
func (t *Table) RegisterOverride(partName, contentType string) {
	partName = normalizePartName(partName)
	for i := range t.overrides {
		if t.overrides[i].PartName == partName {
			t.overrides[i].ContentType = contentType
			return
		}
	}
	t.overrides = append(t.overrides, xmlOverride{PartName: partName, ContentType: contentType})
}

// RemoveOverride deletes the override for partName and reports whether it
// existed.
func (t *Table) RemoveOverride(partName string) bool {
	partName = normalizePartName(partName)
	for i := range t.overrides {
		if t.overrides[i].PartName == partName {
			t.overrides = append(t.overrides[:i], t.overrides[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveOverrideIf deletes every override whose part name satisfies pred and
// returns the number removed.
func (t *Table) RemoveOverrideIf(pred func(partName string) bool) int {
	kept := t.overrides[:0]
	removed := 0
	for _, o := range t.overrides {
		if pred(strings.TrimPrefix(o.PartName, "/")) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	t.overrides = kept
	return removed
}

// OverrideFor returns the path-specific override for partName, bypassing
// extension defaults.
func (t *Table) OverrideFor(partName string) (string, bool) {
	partName = normalizePartName(partName)
	for _, o := range t.overrides {
		if o.PartName == partName {
			return o.ContentType, true
		}
	}
	return "", false
}

// ContentTypeFor returns the declared content type for a part path:
// path-specific override first, then the extension-wide default.
func (t *Table) ContentTypeFor(partPath string) (string, bool) {
	name := normalizePartName(partPath)
	for _, o := range t.overrides {
		if o.PartName == name {
			return o.ContentType, true
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(partPath)), ".")
	for _, d := range t.defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

func normalizePartName(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
