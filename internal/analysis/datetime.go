package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a timezone-free civil date. Month is 1-based.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
}

// Valid reports whether the date exists in the proleptic Gregorian calendar.
func (d CalendarDate) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	t := d.civil()
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// Weekday is computed on the UTC civil calendar so that no local zone is involved.
func (d CalendarDate) Weekday() time.Weekday { return d.civil().Weekday() }

// IsWeekend reports Saturday or Sunday.
func (d CalendarDate) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Key returns the ISO form YYYY-MM-DD; keys sort lexicographically in date order.
func (d CalendarDate) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d CalendarDate) String() string { return d.Key() }

// MarshalText encodes the ISO key so profiles serialize dates as "2024-01-02".
func (d CalendarDate) MarshalText() ([]byte, error) { return []byte(d.Key()), nil }

func (d *CalendarDate) UnmarshalText(b []byte) error {
	v, err := ParseCalendarDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Compare returns -1, 0 or 1.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

// AddDays returns the date n days later (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return dateOf(d.civil().AddDate(0, 0, n))
}

// daysSinceEpoch counts days from 1970-01-01.
func (d CalendarDate) daysSinceEpoch() int64 {
	return d.civil().Unix() / 86400
}

func (d CalendarDate) civil() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseCalendarDate parses an ISO YYYY-MM-DD key.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return dateOf(t), nil
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

// Timestamp is a civil date plus wall-clock hour and minute.
type Timestamp struct {
	Date   CalendarDate
	Hour   int
	Minute int
}

// minutes returns an absolute minute count usable for ordering and deltas.
func (ts Timestamp) minutes() int64 {
	return ts.Date.daysSinceEpoch()*1440 + int64(ts.Hour*60+ts.Minute)
}

// DateOrder is the day/month/year component ordering hint for numeric dates.
type DateOrder string

const (
	DMY DateOrder = "DMY"
	MDY DateOrder = "MDY"
	YMD DateOrder = "YMD"
)

// ParseDateOrder accepts the bare orderings and the usual mask spellings
// (DD/MM/YYYY, MM-DD-YY, YYYY-MM-DD, ...). Empty input yields DMY.
func ParseDateOrder(s string) (DateOrder, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if u == "" {
		return DMY, nil
	}
	var b strings.Builder
	var last rune
	for _, r := range u {
		if (r == 'D' || r == 'M' || r == 'Y') && r != last {
			b.WriteRune(r)
			last = r
		}
	}
	switch DateOrder(b.String()) {
	case DMY:
		return DMY, nil
	case MDY:
		return MDY, nil
	case YMD:
		return YMD, nil
	}
	return "", fmt.Errorf("unsupported date order: %s (use DMY|MDY|YMD)", s)
}

// UnmarshalText accepts every spelling ParseDateOrder does. Empty stays empty.
func (o *DateOrder) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = ""
		return nil
	}
	v, err := ParseDateOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

var (
	reCombined  = regexp.MustCompile(`^\s*(\d{1,4})[-/.](\d{1,2})[-/.](\d{1,4})[T\s]*(\d{1,2}):(\d{2})(?::(\d{2}))?`)
	reDateOnly  = regexp.MustCompile(`^\s*(\d{1,4})[-/.](\d{1,2})[-/.](\d{1,4})`)
	reClock     = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})`)
	reMonthName = regexp.MustCompile(`^\s*(\d{1,2})[-/.\s]+([A-Za-z]{3,})\.?[-/.\s,]+(\d{2,4})(?:[T\s,]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	reISOLead   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

var monthAbbrev = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02Z07:00",
	"2006-01-02",
}

// ParseDateTime converts a date cell plus an optional separate time cell into a
// Timestamp. Strategies are tried in order and the first one producing a valid
// calendar date wins. A parseable separate time cell always supplies the clock.
func ParseDateTime(dateCell, timeCell string, order DateOrder) (Timestamp, bool) {
	dateCell = strings.TrimSpace(dateCell)
	timeCell = strings.TrimSpace(timeCell)
	if dateCell == "" {
		return Timestamp{}, false
	}
	sepH, sepM, sepOK := parseClock(timeCell)

	if m := reCombined.FindStringSubmatch(dateCell); m != nil {
		if d, ok := resolveNumericDate(m[1], m[2], m[3], order); ok {
			h, mi := atoi(m[4]), atoi(m[5])
			if sepOK {
				h, mi = sepH, sepM
			}
			if ts, ok := makeTimestamp(d, h, mi); ok {
				return ts, true
			}
		}
	}
	if m := reDateOnly.FindStringSubmatch(dateCell); m != nil {
		if d, ok := resolveNumericDate(m[1], m[2], m[3], order); ok {
			h, mi := 0, 0
			if sepOK {
				h, mi = sepH, sepM
			}
			if ts, ok := makeTimestamp(d, h, mi); ok {
				return ts, true
			}
		}
	}
	if m := reMonthName.FindStringSubmatch(dateCell); m != nil {
		if mon := monthIndex(m[2]); mon > 0 {
			d := CalendarDate{Year: expandYear(m[3]), Month: mon, Day: atoi(m[1])}
			h, mi := 0, 0
			if m[4] != "" {
				h, mi = atoi(m[4]), atoi(m[5])
			}
			if sepOK {
				h, mi = sepH, sepM
			}
			if d.Valid() {
				if ts, ok := makeTimestamp(d, h, mi); ok {
					return ts, true
				}
			}
		}
	}
	combined := strings.TrimSpace(dateCell + " " + timeCell)
	if len(combined) >= 10 && reISOLead.MatchString(combined) {
		for _, cand := range []string{combined, dateCell} {
			for _, layout := range isoLayouts {
				if t, err := time.Parse(layout, cand); err == nil {
					h, mi := t.Hour(), t.Minute()
					if sepOK {
						h, mi = sepH, sepM
					}
					return Timestamp{Date: dateOf(t), Hour: h, Minute: mi}, true
				}
			}
		}
	}
	return Timestamp{}, false
}

// resolveNumericDate orders three numeric parts. A part above 31 (or written with
// four digits) is the year whatever the hint says, even in the middle; the hint
// only breaks ties.
func resolveNumericDate(p1, p2, p3 string, order DateOrder) (CalendarDate, bool) {
	a, b, c := atoi(p1), atoi(p2), atoi(p3)
	var d CalendarDate
	switch {
	case a > 31 || len(p1) == 4:
		d = CalendarDate{Year: expandYear(p1), Month: b, Day: c}
	case b > 31:
		y := expandYear(p2)
		switch {
		case a > 12:
			d = CalendarDate{Year: y, Month: c, Day: a}
		case c > 12:
			d = CalendarDate{Year: y, Month: a, Day: c}
		case order == MDY:
			d = CalendarDate{Year: y, Month: a, Day: c}
		default:
			d = CalendarDate{Year: y, Month: c, Day: a}
		}
	case c > 31 || len(p3) == 4:
		switch {
		case a > 12:
			d = CalendarDate{Year: expandYear(p3), Month: b, Day: a}
		case b > 12:
			d = CalendarDate{Year: expandYear(p3), Month: a, Day: b}
		case order == MDY:
			d = CalendarDate{Year: expandYear(p3), Month: a, Day: b}
		default:
			d = CalendarDate{Year: expandYear(p3), Month: b, Day: a}
		}
	default:
		switch order {
		case MDY:
			d = CalendarDate{Year: expandYear(p3), Month: a, Day: b}
		case YMD:
			d = CalendarDate{Year: expandYear(p1), Month: b, Day: c}
		default:
			d = CalendarDate{Year: expandYear(p3), Month: b, Day: a}
		}
	}
	return d, d.Valid()
}

// expandYear maps two-digit years: above 50 is 19xx, otherwise 20xx.
func expandYear(s string) int {
	y := atoi(s)
	if len(s) <= 2 {
		if y > 50 {
			return 1900 + y
		}
		return 2000 + y
	}
	return y
}

func monthIndex(name string) int {
	if len(name) < 3 {
		return 0
	}
	prefix := strings.ToLower(name[:3])
	for i, m := range monthAbbrev {
		if m == prefix {
			return i + 1
		}
	}
	return 0
}

func parseClock(s string) (int, int, bool) {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	h, mi := atoi(m[1]), atoi(m[2])
	if h > 24 || mi > 59 || (h == 24 && mi != 0) {
		return 0, 0, false
	}
	return h, mi, true
}

// makeTimestamp validates the clock; 24:00 rolls over to midnight of the next day.
func makeTimestamp(d CalendarDate, h, mi int) (Timestamp, bool) {
	if !d.Valid() || mi < 0 || mi > 59 || h < 0 {
		return Timestamp{}, false
	}
	if h == 24 && mi == 0 {
		return Timestamp{Date: d.AddDays(1)}, true
	}
	if h > 23 {
		return Timestamp{}, false
	}
	return Timestamp{Date: d, Hour: h, Minute: mi}, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
