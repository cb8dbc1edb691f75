package xlsx

import (
	"fmt"
	"math"
	"time"
)

// SerialToTime converts an Excel date serial number to a [time.Time] value.
//
// Excel represents dates as the number of days since 1900-01-00, with the
// fractional part representing the time of day.  Lotus 1-2-3 incorrectly
// treated 1900 as a leap year, so Excel perpetuates the bug: serial 60 is
// treated as 1900-02-29 (which never existed).  The three resulting branches:
//
//   - serial == 0  → midnight on 1900-01-01
//   - serial >= 61 → subtract one day to compensate for the phantom leap day
//   - 1 ≤ serial ≤ 60 → no compensation (serial 60 yields 1900-03-01)
//
// When date1904 is true the workbook uses the 1904 date system: serial 0 is
// 1904-01-01 and no phantom leap-day correction applies.
func SerialToTime(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, fmt.Errorf("xlsx: SerialToTime: invalid value %v", serial)
	}
	if serial < 0 {
		return time.Time{}, fmt.Errorf("xlsx: SerialToTime: negative serial %v not supported", serial)
	}
	// Excel dates reach serial 2,958,465 (9999-12-31) in the 1900 system;
	// the 1904 system is offset by 1462 days.
	maxSerial := float64(2_958_466)
	if date1904 {
		maxSerial -= 1462
	}
	if serial > maxSerial {
		return time.Time{}, fmt.Errorf("xlsx: SerialToTime: serial %v exceeds maximum supported value %v", serial, maxSerial)
	}

	fracSec, dayRollover := serialFracSec(serial)
	intPart := int(serial) + dayRollover

	if date1904 {
		base := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
		return base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}

	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	switch {
	case intPart == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(fracSec) * time.Second), nil
	case intPart >= 61:
		return base.Add(time.Duration(intPart-1)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	default:
		return base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
}

// TimeToSerial converts a [time.Time] value to an Excel date serial number
// in the requested date system.  Times before the system's base date are
// rejected.
func TimeToSerial(t time.Time, date1904 bool) (float64, error) {
	t = t.UTC()
	var base time.Time
	if date1904 {
		base = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		base = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if t.Before(base) {
		return 0, fmt.Errorf("xlsx: TimeToSerial: %v precedes the %s epoch", t, map[bool]string{true: "1904", false: "1900"}[date1904])
	}
	days := t.Sub(base).Hours() / 24
	if !date1904 {
		// Re-apply the phantom 1900-02-29 so round trips through
		// SerialToTime are identity for dates from 1900-03-01 on.
		if !t.Before(time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)) {
			days++
		}
	}
	return days, nil
}

// serialFracSec converts the fractional-day part of a serial to a whole
// second count within the day (0–86399) plus a day-rollover flag.  A small
// epsilon absorbs floating-point drift and the half-second rule rounds to
// the nearest second; rounding that lands exactly on midnight rolls over to
// the next day rather than clamping.
func serialFracSec(serial float64) (fracSec int64, dayRollover int) {
	const roundEpsilon = 1e-9
	fracDay := (serial - math.Trunc(serial)) + roundEpsilon
	const nanosInADay = float64(24 * 60 * 60 * 1e9)
	durNanos := time.Duration(fracDay * nanosInADay)
	ns := int(durNanos % time.Second)
	secs := int64(durNanos / time.Second)
	if ns > 500_000_000 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	rollover := int(secs / 86400)
	return secs % 86400, rollover
}
