package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used across the ledger.
const DateLayout = "2006-01-02"

var calendarDateRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// zonedLayouts carry their own offset and are parsed as-is.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.UnixDate,
}

// localLayouts have no offset and are interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
	time.ANSIC,
}

// ParseCalendarDate parses a date-only value into local midnight.
func ParseCalendarDate(text string) (time.Time, bool) {
	return ParseCalendarDateIn(text, time.Local)
}

// ParseCalendarDateIn parses a date-only value into the start of its day in loc.
//
// Exact YYYY-MM-DD input is built from its integer components so the day never
// shifts with the zone offset. Anything else goes through the generic layouts.
// Offset-less layouts are read as a plain calendar date; layouts with an offset
// take the date the instant falls on in loc.
func ParseCalendarDateIn(text string, loc *time.Location) (time.Time, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return time.Time{}, false
	}

	if m := calendarDateRegex.FindStringSubmatch(clean); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		// reject 2024-02-30 style input instead of rolling into the next month.
		// Checked in UTC, which has no gaps, so a skipped local midnight is not
		// mistaken for a bad date.
		civil := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if civil.Year() != year || civil.Month() != time.Month(month) || civil.Day() != day {
			return time.Time{}, false
		}
		return Day(year, time.Month(month), day, loc), true
	}

	year, month, day, ok := parseCivilDate(clean, loc)
	if !ok {
		return time.Time{}, false
	}
	return Day(year, month, day, loc), true
}

func parseCivilDate(s string, loc *time.Location) (int, time.Month, int, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.In(loc).Date()
			return y, m, d, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			y, m, d := t.Date()
			return y, m, d, true
		}
	}
	return 0, 0, 0, false
}

// ParseTimestamp parses a check-in or check-out value.
func ParseTimestamp(text string) (time.Time, bool) {
	return ParseTimestampIn(text, time.Local)
}

// ParseTimestampIn parses a check-in or check-out value, reading offset-less
// layouts in loc.
func ParseTimestampIn(text string, loc *time.Location) (time.Time, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return time.Time{}, false
	}
	return parseGeneric(clean, loc)
}

func parseGeneric(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day returns the first instant of the calendar day y-m-d in loc. That is
// midnight, except where a DST change skips midnight; then it is the moment the
// clocks jump to. d may overflow the month, as with time.Date.
func Day(year int, month time.Month, day int, loc *time.Location) time.Time {
	civil := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y, m, d := civil.Date()

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if ty, tm, td := t.Date(); ty != y || tm != m || td != d {
		// midnight does not exist: time.Date fell back onto the previous day
		_, end := t.ZoneBounds()
		t = end
	}
	return t
}

// StartOfDay returns the first instant of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d, t.Location())
}

// EndOfDay returns the last millisecond of t's calendar day in t's location,
// 23:59:59.999 on ordinary days.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d+1, t.Location()).Add(-time.Millisecond)
}

// AddDays moves t by n calendar days and returns the start of that day.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d+n, t.Location())
}

// DateString formats t as YYYY-MM-DD.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// DayKey formats t as YYYYMMDD.
func DayKey(t time.Time) string {
	return t.Format("20060102")
}

// EachDay returns the start of every calendar day between start and end,
// inclusive, in start's location. It returns nil when end falls on an earlier
// day than start.
func EachDay(start, end time.Time) []time.Time {
	loc := start.Location()
	y, m, d := start.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ly, lm, ld := end.In(loc).Date()
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	if last.Before(first) {
		return nil
	}

	var days []time.Time
	for i := 0; !first.AddDate(0, 0, i).After(last); i++ {
		days = append(days, Day(y, m, d+i, loc))
	}
	return days
}

// WeekStart returns the start of the Monday that opens t's week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Mon=0, Sun=6
	return AddDays(t, -offset)
}
