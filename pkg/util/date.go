package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical NAV date format.
const DateLayout = "2006-01-02"

// navLayouts are the date formats seen in NAV feeds: ISO, mfapi (dd-mm-yyyy)
// and the AMFI NAV file (dd-Mon-yyyy).
var navLayouts = []string{DateLayout, "02-01-2006", "02-Jan-2006", time.RFC3339}

// ParseNavDate parses a NAV date in any known feed layout, or unix seconds.
// The result is truncated to a UTC calendar day.
func ParseNavDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range navLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateDay(t), nil
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return TruncateDay(time.Unix(ts, 0)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// TruncateDay drops the time of day, in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowStart returns the first day of a lookback window of days ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return TruncateDay(now).AddDate(0, 0, -days)
}
