package model

import (
	"regexp"
	"strings"
	"time"
)

// MarkerTimeFormat is the ISO-8601 layout written into the sync marker.
const MarkerTimeFormat = "2006-01-02T15:04:05.000Z07:00"

var markerPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// FormatMarker renders t as marker content.
func FormatMarker(t time.Time) string {
	return t.UTC().Format(MarkerTimeFormat)
}

// ParseMarker returns the trimmed marker content and whether it starts
// with a YYYY-MM-DD date.
func ParseMarker(content string) (string, bool) {
	ts := strings.TrimSpace(content)
	return ts, markerPattern.MatchString(ts)
}
