// Package timeutil converts between time.Duration and the textual
// timestamps used by MKVToolNix, mpv and ffmpeg.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts a duration to HH:MM:SS.mmm format.
//
// Negative durations are formatted with a leading minus sign.
//
// Example:
//
//	FormatDuration(0)                       // "00:00:00.000"
//	FormatDuration(90 * time.Second)        // "00:01:30.000"
//	FormatDuration(3661*time.Second + 5e8)  // "01:01:01.500"
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	secs := (ms % 60_000) / 1000
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hours, minutes, secs, ms%1000)
}

// Seconds formats d as a decimal number of seconds with nanosecond
// precision and no trailing zeros, e.g. "10", "10.02", "0.000000001".
//
// This is the form expected by mpv EDL files and ffconcat inpoint/outpoint
// directives. No floating point conversion is involved.
func Seconds(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	whole := int64(d / time.Second)
	frac := int64(d % time.Second)
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	f := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, f)
}

// ParseTimestamp parses the HH:MM:SS[.fraction] form written by mkvextract
// ("00:01:02.500000000"). Up to nine fractional digits are honored; extra
// digits are truncated.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: expected HH:MM:SS", s)
	}

	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in timestamp %q", s)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in timestamp %q", s)
	}

	secPart, fracPart, hasFrac := strings.Cut(parts[2], ".")
	secs, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || secs < 0 || secs > 59 {
		return 0, fmt.Errorf("invalid seconds in timestamp %q", s)
	}

	var nanos int64
	if hasFrac {
		if fracPart == "" {
			return 0, fmt.Errorf("invalid fraction in timestamp %q", s)
		}
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nanos, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil || nanos < 0 {
			return 0, fmt.Errorf("invalid fraction in timestamp %q", s)
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(nanos), nil
}
