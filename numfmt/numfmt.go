// Package numfmt renders cell values to their display string using a number
// format string.  It is the rendering engine behind
// [github.com/TsubasaBE/go-xlsx.Document.FormatCell].
//
// All format-string parsing is delegated to [github.com/xuri/nfp]; this
// package only implements the rendering logic on top of the resulting token
// stream.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"

	"github.com/TsubasaBE/go-xlsx/styles"
)

// FormatValue renders a raw cell value v using the given number format.
//
//   - numFmtID is the numFmtId from the XF record (0 = General).
//   - format is the custom format code; pass "" for built-in ids.
//   - date1904 selects the workbook date system for serial rendering.
//
// The dynamic type of v must be one of: nil, string, bool, float64.  Any
// other type falls back to [fmt.Sprint].
func FormatValue(v any, numFmtID int, format string, date1904 bool) string {
	effective := resolveFormat(numFmtID, format)
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return formatFloat(val, numFmtID, effective, date1904)
	default:
		return fmt.Sprint(v)
	}
}

// resolveFormat returns the effective format string: the custom code when
// non-empty, the built-in string for numFmtID when known, or "General".
func resolveFormat(numFmtID int, format string) string {
	if format != "" {
		return format
	}
	if s, ok := styles.BuiltInNumFmt[numFmtID]; ok {
		return s
	}
	return "General"
}

func formatFloat(val float64, numFmtID int, effective string, date1904 bool) string {
	if effective == "General" {
		return renderGeneral(val)
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(effective)
	if len(sections) == 0 {
		return renderGeneral(val)
	}
	sec := selectSection(sections, val)
	if styles.IsDateFormatID(numFmtID, effective) {
		return renderDateTime(val, sec, date1904)
	}
	return renderNumber(val, sec, len(sections) > 1)
}

// selectSection picks the format section matching the value's sign:
//
//	1 section  → all values
//	2 sections → [0]=positive+zero  [1]=negative
//	3+         → [0]=positive  [1]=negative  [2]=zero
func selectSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

// renderGeneral formats a float64 in Excel's "General" style: integral
// values without a decimal point, fractional values with Go's shortest
// representation.
func renderGeneral(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// ── number renderer ──────────────────────────────────────────────────────────

// renderNumber renders val using the numeric tokens of sec.  Only the
// workhorse features are implemented: decimal-place counts from the digit
// pattern, a thousands separator, percent scaling, and literal text.
// Anything more exotic falls back to General rendering of the scaled value.
func renderNumber(val float64, sec nfp.Section, multiSection bool) string {
	var pattern string
	percent := false
	prefix, suffix := "", ""
	seenDigits := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			pattern += tok.TValue
			seenDigits = true
		case nfp.TokenTypeThousandsSeparator:
			pattern += ","
		case nfp.TokenTypeDecimalPoint:
			pattern += "."
		case nfp.TokenTypePercent:
			percent = true
		case nfp.TokenTypeLiteral, nfp.TokenTypeCurrencyLanguage:
			if seenDigits {
				suffix += tok.TValue
			} else {
				prefix += tok.TValue
			}
		}
	}
	if percent {
		val *= 100
	}
	// Negative sections render the magnitude; the pattern supplies any sign
	// decoration.  A lone section keeps Go's own minus sign.
	if multiSection && val < 0 {
		val = -val
	}
	body := renderPattern(val, pattern)
	out := prefix + body + suffix
	if percent {
		out += "%"
	}
	return out
}

// renderPattern applies a plain digit pattern ("0", "0.00", "#,##0.0") to
// val.
func renderPattern(val float64, pattern string) string {
	if pattern == "" {
		return renderGeneral(val)
	}
	decimals := 0
	if i := strings.IndexByte(pattern, '.'); i >= 0 {
		decimals = len(pattern) - i - 1
	}
	thousands := strings.Contains(pattern, ",")
	s := strconv.FormatFloat(val, 'f', decimals, 64)
	if thousands {
		s = insertThousands(s)
	}
	return s
}

// insertThousands inserts "," separators into the integer part of a
// formatted decimal string.
func insertThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	out := sb.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// ── date/time renderer ───────────────────────────────────────────────────────

// renderDateTime renders a date/time serial using the tokens in sec.
func renderDateTime(serial float64, sec nfp.Section, date1904 bool) string {
	t, err := convertSerial(serial, date1904)
	if err != nil {
		return renderGeneral(serial)
	}

	// AM/PM anywhere in the section switches hour tokens to 12-hour form.
	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			upper := strings.ToUpper(tok.TValue)
			if upper == "AM/PM" || upper == "A/P" {
				hasAmPm = true
				break
			}
		}
	}

	var sb strings.Builder
	lastWasHour := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderDateToken(upper, t, hasAmPm, lastWasHour))
			lastWasHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderElapsed(upper, serial))
			lastWasHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeLiteral:
			// A literal separator (e.g. ":") between an hour token and a
			// following M/MM must not break minute-vs-month disambiguation.
			sb.WriteString(tok.TValue)
		default:
			lastWasHour = false
		}
	}
	if sb.Len() == 0 {
		return renderGeneral(serial)
	}
	return sb.String()
}

// renderDateToken renders one date/time token value (already upper-cased).
// M/MM means minutes directly after an hour token, months otherwise.
func renderDateToken(upper string, t time.Time, hasAmPm, lastWasHour bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if lastWasHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if lastWasHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", hour12(t.Hour(), hasAmPm))
	case "H":
		return strconv.Itoa(hour12(t.Hour(), hasAmPm))
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func hour12(h int, hasAmPm bool) int {
	if !hasAmPm {
		return h
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return h
}

// renderElapsed renders an elapsed-time token ([h], [mm], [ss] — brackets
// already stripped by the parser) from the raw serial in fractional days.
func renderElapsed(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*24*3600)%60)
	case "S":
		return strconv.Itoa(int(serial*24*3600) % 60)
	}
	return ""
}

// convertSerial converts an Excel serial to time.Time, handling both date
// systems.  It mirrors the root package's SerialToTime without importing it,
// to keep the import graph acyclic.
func convertSerial(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: invalid serial %v", serial)
	}
	fracSec := int64(math.Round((serial - math.Trunc(serial)) * 86400))
	if fracSec > 86399 {
		fracSec = 86399
	}
	if date1904 {
		base := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
		return base.Add(time.Duration(int(serial))*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	intPart := int(serial)
	switch {
	case intPart == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(fracSec) * time.Second), nil
	case intPart >= 61:
		// Lotus leap-year bug: serial 60 is the phantom 1900-02-29.
		return base.Add(time.Duration(intPart-1)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	default:
		return base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
}
