package parsefields

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate parses an MM/DD/YYYY-shaped capture. Unparsable input yields nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
