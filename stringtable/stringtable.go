// Package stringtable models the workbook shared-string part
// (xl/sharedStrings.xml) and provides indexed, deduplicating access to the
// shared string values.
//
// Rich-text entries (si elements with formatting runs) are preserved as-is
// on round trip; Add only creates and deduplicates plain-text entries.
package stringtable

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/TsubasaBE/go-xlsx/internal/xmlcodec"
)

type xmlSST struct {
	XMLName     xml.Name `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main sst"`
	Count       int      `xml:"count,attr"`
	UniqueCount int      `xml:"uniqueCount,attr"`
	SI          []xmlSI  `xml:"si"`
}

type xmlSI struct {
	T *xmlT    `xml:"t"`
	R []xmlRun `xml:"r"`
}

type xmlRun struct {
	RPr *xmlRawRPr `xml:"rPr"`
	T   xmlT       `xml:"t"`
}

// xmlRawRPr keeps run properties opaque; the engine never interprets them.
type xmlRawRPr struct {
	Inner string `xml:",innerxml"`
}

type xmlT struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// StringTable holds the shared strings of one workbook.
type StringTable struct {
	entries []xmlSI
	index   map[string]int // plain-text value → entry index
	refs    int            // total cell references, the count attribute
}

// New returns an empty string table.
func New() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Parse decodes the raw bytes of a sharedStrings part.
func Parse(data []byte) (*StringTable, error) {
	var x xmlSST
	if err := xmlcodec.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("stringtable: parse: %w", err)
	}
	st := &StringTable{entries: x.SI, index: make(map[string]int, len(x.SI)), refs: x.Count}
	for i, si := range st.entries {
		if len(si.R) == 0 {
			if _, dup := st.index[siText(si)]; !dup {
				st.index[siText(si)] = i
			}
		}
	}
	if st.refs < len(st.entries) {
		st.refs = len(st.entries)
	}
	return st, nil
}

// Marshal encodes the table, including the XML header.  An empty table
// still produces a valid sst element.
func (st *StringTable) Marshal() ([]byte, error) {
	x := xmlSST{Count: st.refs, UniqueCount: len(st.entries), SI: st.entries}
	body, err := xml.Marshal(&x)
	if err != nil {
		return nil, fmt.Errorf("stringtable: marshal: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Add returns the index of s, appending a new entry when the value is not
// already present.  Each call counts one cell reference.
func (st *StringTable) Add(s string) int {
	st.refs++
	if i, ok := st.index[s]; ok {
		return i
	}
	t := &xmlT{Text: s}
	if needsSpacePreserve(s) {
		t.Space = "preserve"
	}
	st.entries = append(st.entries, xmlSI{T: t})
	i := len(st.entries) - 1
	st.index[s] = i
	return i
}

// Get returns the string at index idx.  Rich-text entries return their runs
// concatenated.
func (st *StringTable) Get(idx int) (string, bool) {
	if idx < 0 || idx >= len(st.entries) {
		return "", false
	}
	return siText(st.entries[idx]), true
}

// Len returns the number of unique entries.
func (st *StringTable) Len() int {
	return len(st.entries)
}

// siText flattens one si entry to plain text.
func siText(si xmlSI) string {
	if len(si.R) == 0 {
		if si.T == nil {
			return ""
		}
		return si.T.Text
	}
	var sb strings.Builder
	for _, r := range si.R {
		sb.WriteString(r.T.Text)
	}
	return sb.String()
}

// needsSpacePreserve reports whether s would lose whitespace without an
// xml:space="preserve" marker.
func needsSpacePreserve(s string) bool {
	if s == "" {
		return false
	}
	return s != strings.TrimSpace(s)
}
