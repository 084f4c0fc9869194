package workorder

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts covers what the CSV exports and SQL drivers produce.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

var clockLayouts = []string{
	"15:04:05.999999999",
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// ParseTimestamp parses a timestamp cell. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseClock extracts hour, minute, second and nanosecond from a cell that
// holds either a bare clock value or a full timestamp.
func ParseClock(s string) (h, m, sec, nsec int, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), nil
		}
	}
	if t, perr := ParseTimestamp(s); perr == nil {
		return t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), nil
	}
	return 0, 0, 0, 0, fmt.Errorf("unrecognized time of day %q", s)
}
