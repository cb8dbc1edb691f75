package stringtable_test

import (
	"strings"
	"testing"

	"github.com/TsubasaBE/go-xlsx/stringtable"
)

func TestAddDeduplicates(t *testing.T) {
	st := stringtable.New()
	a := st.Add("alpha")
	b := st.Add("beta")
	a2 := st.Add("alpha")

	if a != a2 {
		t.Errorf("duplicate add returned %d, want %d", a2, a)
	}
	if a == b {
		t.Error("distinct strings share an index")
	}
	if st.Len() != 2 {
		t.Errorf("Len = %d, want 2 unique entries", st.Len())
	}
}

func TestGet(t *testing.T) {
	st := stringtable.New()
	idx := st.Add("value")
	if got, ok := st.Get(idx); !ok || got != "value" {
		t.Errorf("Get(%d) = %q, %v", idx, got, ok)
	}
	if _, ok := st.Get(99); ok {
		t.Error("Get out of range reported ok")
	}
	if _, ok := st.Get(-1); ok {
		t.Error("Get(-1) reported ok")
	}
}

func TestParseRichTextRuns(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="2" uniqueCount="2">` +
		`<si><t>plain</t></si>` +
		`<si><r><rPr><b/></rPr><t>bold</t></r><r><t> tail</t></r></si>` +
		`</sst>`
	st, err := stringtable.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, _ := st.Get(0); got != "plain" {
		t.Errorf("entry 0 = %q", got)
	}
	// Rich runs concatenate to the full text.
	if got, _ := st.Get(1); got != "bold tail" {
		t.Errorf("entry 1 = %q, want concatenated runs", got)
	}
}

func TestMarshalPreservesSpace(t *testing.T) {
	st := stringtable.New()
	st.Add("  padded  ")
	out, err := st.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `xml:space="preserve"`) {
		t.Error("leading/trailing whitespace not marked xml:space=preserve")
	}

	back, err := stringtable.Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got, _ := back.Get(0); got != "  padded  " {
		t.Errorf("entry after round trip = %q", got)
	}
}

func TestMarshalCounts(t *testing.T) {
	st := stringtable.New()
	st.Add("x")
	st.Add("x")
	st.Add("y")
	out, err := st.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `count="3"`) || !strings.Contains(s, `uniqueCount="2"`) {
		t.Errorf("counts wrong in %s", s)
	}
}
