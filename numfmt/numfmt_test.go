package numfmt_test

import (
	"testing"

	"github.com/TsubasaBE/go-xlsx/numfmt"
)

func TestFormatValueGeneral(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"integral float drops the point", 42.0, "42"},
		{"fractional float", 3.25, "3.25"},
		{"negative", -17.0, "-17"},
		{"string passthrough", "text", "text"},
		{"bool true", true, "TRUE"},
		{"bool false", false, "FALSE"},
		{"nil is empty", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := numfmt.FormatValue(tc.value, 0, "", false); got != tc.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestFormatValueNumeric(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		numFmtID int
		format   string
		want     string
	}{
		{"two decimals", 3.14159, 2, "", "3.14"},
		{"integer format rounds", 2.7, 1, "", "3"},
		{"thousands separator", 1234567.0, 3, "", "1,234,567"},
		{"thousands with decimals", 1234.5, 4, "", "1,234.50"},
		{"percent", 0.25, 9, "", "25%"},
		{"percent with decimals", 0.1234, 10, "", "12.34%"},
		{"custom decimals", 1.5, 164, "0.000", "1.500"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := numfmt.FormatValue(tc.value, tc.numFmtID, tc.format, false); got != tc.want {
				t.Errorf("FormatValue(%v, %d, %q) = %q, want %q",
					tc.value, tc.numFmtID, tc.format, got, tc.want)
			}
		})
	}
}

func TestFormatValueDates(t *testing.T) {
	tests := []struct {
		name     string
		serial   float64
		numFmtID int
		format   string
		date1904 bool
		want     string
	}{
		// Serial 45000 is 2023-03-15.
		{"builtin 14", 45000, 14, "", false, "03-15-23"},
		{"custom iso", 45000, 164, "yyyy-mm-dd", false, "2023-03-15"},
		{"time of day", 0.75, 20, "", false, "18:00"},
		{"am pm", 0.75, 18, "", false, "6:00 PM"},
		{"datetime", 45000.5, 22, "", false, "3/15/23 12:00"},
		// The same serial lands 1462 days later in the 1904 system.
		{"1904 shift", 43538, 164, "yyyy-mm-dd", true, "2023-03-15"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := numfmt.FormatValue(tc.serial, tc.numFmtID, tc.format, tc.date1904); got != tc.want {
				t.Errorf("FormatValue(%v, %d, %q, %v) = %q, want %q",
					tc.serial, tc.numFmtID, tc.format, tc.date1904, got, tc.want)
			}
		})
	}
}

func TestFormatValueMinuteDisambiguation(t *testing.T) {
	// Serial 0.5104166667 is 12:15:00; "m" directly after an hour token must
	// render minutes, not the month.
	got := numfmt.FormatValue(0.5104166667, 164, "h:mm", false)
	if got != "12:15" {
		t.Errorf("h:mm = %q, want 12:15", got)
	}
	got = numfmt.FormatValue(45000.0, 164, "m", false)
	if got != "3" {
		t.Errorf("lone m = %q, want the month 3", got)
	}
}

func TestFormatValueElapsed(t *testing.T) {
	// 1.5 days is 36 hours.
	got := numfmt.FormatValue(1.5, 46, "", false)
	if got != "36:00:00" {
		t.Errorf("[h]:mm:ss of 1.5 = %q, want 36:00:00", got)
	}
}

func TestFormatValueNegativeSection(t *testing.T) {
	// Two-section format: the negative section renders the magnitude with
	// its own decoration.
	got := numfmt.FormatValue(-5.0, 164, "0.00;(0.00)", false)
	if got != "(5.00)" {
		t.Errorf("negative section = %q, want (5.00)", got)
	}
}
