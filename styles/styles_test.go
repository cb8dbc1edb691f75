package styles_test

import (
	"strings"
	"testing"

	"github.com/TsubasaBE/go-xlsx/styles"
)

func TestNewHasGeneralStyleZero(t *testing.T) {
	tbl := styles.New()
	if tbl.Count() != 1 {
		t.Fatalf("Count = %d, want 1", tbl.Count())
	}
	id, format, ok := tbl.NumFmt(0)
	if !ok || id != 0 || format != "" {
		t.Errorf("NumFmt(0) = (%d, %q, %v), want General", id, format, ok)
	}
	if tbl.IsDate(0) {
		t.Error("style 0 reported as a date format")
	}
}

func TestAddStyleDeduplicates(t *testing.T) {
	tbl := styles.New()
	a := tbl.AddStyle(14, "")
	b := tbl.AddStyle(14, "")
	if a != b {
		t.Errorf("same built-in format allocated two XFs: %d and %d", a, b)
	}
	if tbl.Count() != 2 {
		t.Errorf("Count = %d, want 2", tbl.Count())
	}
	if !tbl.IsDate(a) {
		t.Error("built-in 14 not recognized as a date style")
	}
}

func TestAddStyleCustomFormat(t *testing.T) {
	tbl := styles.New()
	a := tbl.AddStyle(0, "0.000")
	b := tbl.AddStyle(0, "0.000")
	c := tbl.AddStyle(0, "yyyy/mm/dd")
	if a != b {
		t.Errorf("same custom format allocated two XFs: %d and %d", a, b)
	}
	if a == c {
		t.Error("distinct custom formats share an XF")
	}

	idA, fmtA, _ := tbl.NumFmt(a)
	idC, fmtC, _ := tbl.NumFmt(c)
	if idA < 164 || idC < 164 {
		t.Errorf("custom ids %d, %d below the custom base", idA, idC)
	}
	if idA == idC {
		t.Error("distinct custom formats share a numFmtId")
	}
	if fmtA != "0.000" || fmtC != "yyyy/mm/dd" {
		t.Errorf("format codes = %q, %q", fmtA, fmtC)
	}
	if tbl.IsDate(a) || !tbl.IsDate(c) {
		t.Errorf("date detection: IsDate(%d)=%v IsDate(%d)=%v", a, tbl.IsDate(a), c, tbl.IsDate(c))
	}
}

func TestIsDateFormatID(t *testing.T) {
	tests := []struct {
		name   string
		id     int
		format string
		want   bool
	}{
		{"general", 0, "", false},
		{"builtin date 14", 14, "", true},
		{"builtin time 21", 21, "", true},
		{"builtin currency 44", 44, "", false},
		{"builtin elapsed 46", 46, "", true},
		{"custom date", 165, "yyyy-mm-dd", true},
		{"custom elapsed", 166, "[hh]:mm:ss", true},
		{"custom number", 167, "#,##0.00", false},
		{"quoted literal does not trigger", 168, `0.00" dm"`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := styles.IsDateFormatID(tc.id, tc.format); got != tc.want {
				t.Errorf("IsDateFormatID(%d, %q) = %v, want %v", tc.id, tc.format, got, tc.want)
			}
		})
	}
}

func TestParsePreservesOpaqueSections(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<numFmts count="1"><numFmt numFmtId="164" formatCode="0.0000"/></numFmts>` +
		`<fonts count="1"><font><sz val="10"/><name val="Arial"/></font></fonts>` +
		`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` +
		`<borders count="1"><border/></borders>` +
		`<cellXfs count="2"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/>` +
		`<xf numFmtId="164" fontId="0" fillId="0" borderId="0" applyNumberFormat="1"/></cellXfs>` +
		`</styleSheet>`
	tbl, err := styles.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Count() != 2 {
		t.Fatalf("Count = %d, want 2", tbl.Count())
	}
	if id, format, _ := tbl.NumFmt(1); id != 164 || format != "0.0000" {
		t.Errorf("NumFmt(1) = (%d, %q)", id, format)
	}

	out, err := tbl.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	// The font section the engine never interprets must survive verbatim.
	if !strings.Contains(s, `<name val="Arial"/>`) {
		t.Error("opaque fonts section lost on round trip")
	}
	if !strings.Contains(s, `formatCode="0.0000"`) {
		t.Error("custom numFmt lost on round trip")
	}
}

func TestParsePreservesSectionAttributes(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<fonts count="1" knownFonts="1"><font><sz val="11"/></font></fonts>` +
		`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` +
		`<borders count="1"><border/></borders>` +
		`<cellXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" applyAlignment="1">` +
		`<alignment horizontal="center" wrapText="1"/></xf></cellXfs>` +
		`</styleSheet>`
	tbl, err := styles.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := tbl.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `knownFonts="1"`) {
		t.Error("fonts section attribute lost on round trip")
	}
	if !strings.Contains(s, `horizontal="center"`) || !strings.Contains(s, `wrapText="1"`) {
		t.Error("alignment attributes lost on round trip")
	}
}

func TestAddNumFmtAllocatesAboveExisting(t *testing.T) {
	tbl := styles.New()
	first := tbl.AddStyle(0, "0.0")
	second := tbl.AddStyle(0, "0.00000")
	idFirst, _, _ := tbl.NumFmt(first)
	idSecond, _, _ := tbl.NumFmt(second)
	if idSecond != idFirst+1 {
		t.Errorf("ids %d, %d; want consecutive max-plus-one allocation", idFirst, idSecond)
	}
}
