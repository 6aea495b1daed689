package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical snapshot date format.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{DateLayout, "02.01.2006", time.RFC3339}

// ParseDate parses a snapshot date (YYYY-MM-DD, DD.MM.YYYY or RFC 3339) and
// returns it as a civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD)", s)
}

// CivilDate drops the clock and zone, keeping the calendar day as seen in t's
// own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b. It is
// negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return CivilDate(t).Format(DateLayout)
}
