package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DisplayLayout renders dates as a short human-readable calendar string.
const DisplayLayout = "Mon Jan 02 2006"

// InvalidDateDisplay is shown in place of a date that could not be parsed.
const InvalidDateDisplay = "Invalid Date"

// Int is the result of a lenient integer parse. Valid is false for the
// not-a-number sentinel.
type Int struct {
	Value int
	Valid bool
}

// IntOf wraps a known integer.
func IntOf(v int) Int {
	return Int{Value: v, Valid: true}
}

// Ptr returns nil for the sentinel.
func (i Int) Ptr() *int {
	if !i.Valid {
		return nil
	}
	v := i.Value
	return &v
}

// IntFromPtr is the inverse of Ptr.
func IntFromPtr(p *int) Int {
	if p == nil {
		return Int{}
	}
	return IntOf(*p)
}

// MarshalJSON encodes the sentinel as null.
func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(i.Value)), nil
}

// UnmarshalJSON accepts an integer or null.
func (i *Int) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = Int{}
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*i = IntOf(v)
	return nil
}

// ParseInt reads the leading integer of raw the way a browser's parseInt
// does: surrounding whitespace is ignored, an optional sign is honoured and
// parsing stops at the first non-digit ("30.5" and "30min" both give 30).
// A 0x prefix switches to hex. Input without a leading digit, including a
// bare "0x", yields the sentinel. Values that overflow int also yield the
// sentinel rather than an approximated float.
func ParseInt(raw string) Int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return Int{}
	}

	v, err := strconv.ParseInt(s[:end], base, strconv.IntSize)
	if err != nil {
		return Int{}
	}
	if neg {
		v = -v
	}
	return IntOf(int(v))
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// Date is the result of a lenient date parse. Valid is false for the
// invalid-date sentinel.
type Date struct {
	Time  time.Time
	Valid bool
}

// DateOf wraps a known instant.
func DateOf(t time.Time) Date {
	return Date{Time: t.UTC(), Valid: true}
}

// Ptr returns nil for the sentinel.
func (d Date) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// DateFromPtr is the inverse of Ptr.
func DateFromPtr(p *time.Time) Date {
	if p == nil {
		return Date{}
	}
	return DateOf(*p)
}

// Display formats the date as a calendar string in UTC, or "Invalid Date".
func (d Date) Display() string {
	if !d.Valid {
		return InvalidDateDisplay
	}
	return d.Time.UTC().Format(DisplayLayout)
}

// Layouts without a zone are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006",
	"2006/01/02",
	"01/02/2006",
	DisplayLayout,
	"Mon Jan 2 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.ANSIC,
}

// ParseDate parses raw as a calendar date. Unrecognised input yields the
// sentinel rather than an error.
func ParseDate(raw string) Date {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return DateOf(t)
		}
	}
	return Date{}
}
