package collect

import (
	"strings"
	"time"
)

const bareDateLayout = "2006-01-02"

// dateLayouts are tried in order against a fixed-width prefix of the
// raw publish string. This is a pragmatic heuristic for the handful of
// formats feeds actually emit, not a general date parser.
var dateLayouts = []string{
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05-0700",
	// Atom feeds end timestamps with "Z" or a colon offset ("+08:00"),
	// which the numeric-offset layout above cannot match; this layout
	// salvages the time of day and drops the offset.
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	bareDateLayout,
}

// parseDate parses a feed publish string. The second return value is
// false when no layout matches; callers must not freshness-filter such
// entries.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// Feeds commonly end RFC-1123 dates with "GMT" instead of an offset.
	if strings.HasSuffix(raw, "GMT") {
		raw = strings.TrimSuffix(raw, "GMT") + "+0000"
	}

	for _, layout := range dateLayouts {
		if len(raw) < len(layout) {
			continue
		}
		// The bare-date layout may only match a bare date: claiming the
		// date prefix of a longer timestamp would reset the time of day
		// to midnight.
		if layout == bareDateLayout && len(raw) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, raw[:len(layout)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
