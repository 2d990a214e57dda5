// Package datetimeutil parses and formats the dates and times used in
// registration data and on the static site.
package datetimeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ymdPattern  = regexp.MustCompile(`^([0-9]{1,})-([0-9]{2})-([0-9]{2})$`)
	hhmmPattern = regexp.MustCompile(`^([0-9]{2}):([0-9]{2})$`)
	twoDigits   = regexp.MustCompile(`^[0-9]{2}$`)
	digits      = regexp.MustCompile(`^[0-9]+$`)
)

var englishMonths = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// TimeOfDay is an hour and minute without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Hour < u.Hour || (t.Hour == u.Hour && t.Minute < u.Minute)
}

// Date returns the UTC midnight time for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateFromYMDStrings builds a date from separate year, month and day strings.
// Month and day must be exactly two digits.
func DateFromYMDStrings(desc, year, month, day string) (time.Time, error) {
	if !digits.MatchString(year) {
		return time.Time{}, fmt.Errorf("%s: invalid year", desc)
	}
	if !twoDigits.MatchString(month) {
		return time.Time{}, fmt.Errorf("%s: invalid month", desc)
	}
	if !twoDigits.MatchString(day) {
		return time.Time{}, fmt.Errorf("%s: invalid day", desc)
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return time.Time{}, fmt.Errorf("%s: invalid year", desc)
	}
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("%s: invalid month", desc)
	}
	t := Date(y, time.Month(m), d)
	if d < 1 || t.Day() != d {
		return time.Time{}, fmt.Errorf("%s: invalid day", desc)
	}
	return t, nil
}

// DateFromYMDISO parses a yyyy-mm-dd date.
func DateFromYMDISO(desc, s string) (time.Time, error) {
	m := ymdPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%s: bad date", desc)
	}
	return DateFromYMDStrings(desc, m[1], m[2], m[3])
}

// DateToYMDISO formats a date as yyyy-mm-dd; a nil date gives "".
func DateToYMDISO(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// MonthName returns the English name of month (1-12).
func MonthName(month time.Month) string {
	return englishMonths[month-1]
}

// DateToName formats a date as "D Month YYYY".
func DateToName(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), MonthName(t.Month()), t.Year())
}

// DateRangeHTML renders a date range within year as HTML.
func DateRangeHTML(start, end time.Time, year int) (string, error) {
	if start.Year() != year || end.Year() != year {
		return "", fmt.Errorf("dates not in expected year")
	}
	if start.After(end) {
		return "", fmt.Errorf("start date after end date")
	}
	if start.Month() == end.Month() {
		return fmt.Sprintf("%02d&ndash;%02d&nbsp;%s", start.Day(), end.Day(), MonthName(end.Month())), nil
	}
	return fmt.Sprintf("%02d&nbsp;%s&ndash;%02d&nbsp;%s",
		start.Day(), MonthName(start.Month()), end.Day(), MonthName(end.Month())), nil
}

// AgeOnDate returns the age in whole years on date of someone born on dob.
func AgeOnDate(dob, date time.Time) int {
	diff := date.Year() - dob.Year()
	if date.Month() < dob.Month() || (date.Month() == dob.Month() && date.Day() < dob.Day()) {
		diff--
	}
	return diff
}

// TimeFromHHMMStrings builds a time of day from two-digit hour and minute strings.
func TimeFromHHMMStrings(desc, hour, minute string) (TimeOfDay, error) {
	if !twoDigits.MatchString(hour) {
		return TimeOfDay{}, fmt.Errorf("%s: invalid hour", desc)
	}
	if !twoDigits.MatchString(minute) {
		return TimeOfDay{}, fmt.Errorf("%s: invalid minute", desc)
	}
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	if h > 23 {
		return TimeOfDay{}, fmt.Errorf("%s: hour must be in 0..23", desc)
	}
	if m > 59 {
		return TimeOfDay{}, fmt.Errorf("%s: minute must be in 0..59", desc)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// TimeFromHHMMISO parses an hh:mm time.
func TimeFromHHMMISO(desc, s string) (TimeOfDay, error) {
	m := hhmmPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%s: bad time", desc)
	}
	return TimeFromHHMMStrings(desc, m[1], m[2])
}

// TimeToHHMM formats a time of day; nil gives "".
func TimeToHHMM(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
