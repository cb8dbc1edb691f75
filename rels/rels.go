// Package rels models OOXML relationship parts (.rels): per-source-part,
// ordered lists of (id, type, target, target-mode) edges.
//
// Relationship ids are scoped to their source part and follow the "rIdN"
// convention.  The next free id is always computed from the current contents
// (max numeric suffix plus one), never kept as a separate counter that could
// drift from reality.
package rels

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Namespace is the XML namespace of relationship parts.
const Namespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// TargetModeExternal marks a relationship whose target lives outside the
// package (e.g. a hyperlink URL).  Internal relationships leave the mode
// empty.
const TargetModeExternal = "External"

// Relationship is one directed, typed edge from the source part to a target.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships is the ordered edge list of one source part.
type Relationships struct {
	rels []Relationship
}

type xmlRelationships struct {
	XMLName       xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// Parse decodes the raw bytes of a .rels part.
func Parse(data []byte) (*Relationships, error) {
	var x xmlRelationships
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("rels: parse: %w", err)
	}
	return &Relationships{rels: x.Relationships}, nil
}

// Marshal encodes the edge list as a .rels part, including the XML header.
func (r *Relationships) Marshal() ([]byte, error) {
	x := xmlRelationships{Relationships: r.rels}
	body, err := xml.Marshal(&x)
	if err != nil {
		return nil, fmt.Errorf("rels: marshal: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// NextID returns the next unused relationship id, scanning the existing ids
// for the highest "rIdN" suffix and returning one above it.
func (r *Relationships) NextID() string {
	max := 0
	for _, rel := range r.rels {
		n, ok := numericSuffix(rel.ID)
		if ok && n > max {
			max = n
		}
	}
	return "rId" + strconv.Itoa(max+1)
}

// Add appends a new edge with a freshly allocated id and returns that id.
// mode is empty for internal targets or TargetModeExternal.
func (r *Relationships) Add(relType, target, mode string) string {
	id := r.NextID()
	r.rels = append(r.rels, Relationship{ID: id, Type: relType, Target: target, TargetMode: mode})
	return id
}

// AddWithID appends an edge with a caller-chosen id.  It fails when the id
// is already taken by another edge of the same source.
func (r *Relationships) AddWithID(id, relType, target, mode string) error {
	if _, exists := r.ByID(id); exists {
		return fmt.Errorf("rels: id %q already in use", id)
	}
	r.rels = append(r.rels, Relationship{ID: id, Type: relType, Target: target, TargetMode: mode})
	return nil
}

// RemoveIf deletes every edge for which pred returns true and returns the
// number removed.  Removing an edge never removes the target part; part
// lifecycle is the caller's decision.
func (r *Relationships) RemoveIf(pred func(Relationship) bool) int {
	kept := r.rels[:0]
	removed := 0
	for _, rel := range r.rels {
		if pred(rel) {
			removed++
			continue
		}
		kept = append(kept, rel)
	}
	r.rels = kept
	return removed
}

// ByID returns the edge with the given id.
func (r *Relationships) ByID(id string) (Relationship, bool) {
	for _, rel := range r.rels {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ByType returns all edges of the given type, in document order.
func (r *Relationships) ByType(relType string) []Relationship {
	var out []Relationship
	for _, rel := range r.rels {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out
}

// All returns a copy of the edge list in document order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.rels))
	copy(out, r.rels)
	return out
}

// Len returns the number of edges.
func (r *Relationships) Len() int {
	return len(r.rels)
}

// ResolveTarget resolves a relationship target against the path of its
// source part.  Targets are relative to the source part's directory, with
// ".." segments collapsed; targets with a leading "/" resolve against the
// package root.  The package root itself is the empty source path.
func ResolveTarget(sourcePath, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	dir := path.Dir(sourcePath)
	if dir == "." {
		dir = ""
	}
	return path.Clean(path.Join(dir, target))
}

// RelsPathFor returns the package path of the .rels part describing the
// given source part ("" for the package root → "_rels/.rels").
func RelsPathFor(sourcePath string) string {
	if sourcePath == "" {
		return "_rels/.rels"
	}
	dir, name := path.Split(sourcePath)
	return dir + "_rels/" + name + ".rels"
}

// numericSuffix extracts N from an id of the form "rIdN".
func numericSuffix(id string) (int, bool) {
	if !strings.HasPrefix(id, "rId") {
		return 0, false
	}
	n, err := strconv.Atoi(id[len("rId"):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
