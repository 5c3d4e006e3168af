package routinepdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-routinepdf/internal/dateutil"
)

// Calendar selects how the renewal date is written.
type Calendar string

// Calendars.
const (
	CalendarPersian   Calendar = "persian"
	CalendarGregorian Calendar = "gregorian"
)

// DefaultRenewalDays is the usual length of one program.
const DefaultRenewalDays = 40

// ParseCalendar parses s; empty means persian.
func ParseCalendar(s string) (Calendar, error) {
	switch Calendar(strings.ToLower(strings.TrimSpace(s))) {
	case "", CalendarPersian:
		return CalendarPersian, nil
	case CalendarGregorian:
		return CalendarGregorian, nil
	}
	return "", fmt.Errorf("%w: %q (must be persian or gregorian)", ErrInvalidCalendar, s)
}

// RenewalDate returns now+days written in cal. The Persian calendar ignores
// format and prints "۲۶ مهر ۱۴۰۵". The Gregorian calendar uses a dateutil
// token format or preset; empty means YYYY-MM-DD.
func RenewalDate(now time.Time, days int, cal Calendar, format string) (string, error) {
	due := now.AddDate(0, 0, days)
	switch cal {
	case "", CalendarPersian:
		return dateutil.FormatPersian(due), nil
	case CalendarGregorian:
		return dateutil.FormatGregorian(due, format)
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCalendar, cal)
}
