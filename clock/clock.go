package clock

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays returns the date n days after d, normalizing across month and
// year boundaries.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) Next() Date {
	return d.AddDays(1)
}

// At returns the instant at the given local time-of-day on d in loc.
func (d Date) At(hour, min, sec int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, 0, loc)
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// LoadLocation resolves an IANA timezone identifier. Unknown zones fail
// with ErrInvalidTimezone; there is no silent UTC fallback.
func LoadLocation(timezoneID string) (*time.Location, error) {
	if timezoneID == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(timezoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezoneID)
	}
	return loc, nil
}

// LocalNow returns the current wall-clock date and time in the given
// timezone. DST transitions are handled by the platform zone database.
func LocalNow(timezoneID string) (Date, time.Time, error) {
	return localAt(timezoneID, time.Now())
}

func localAt(timezoneID string, instant time.Time) (Date, time.Time, error) {
	loc, err := LoadLocation(timezoneID)
	if err != nil {
		return Date{}, time.Time{}, err
	}
	local := instant.In(loc)
	return DateOf(local), local, nil
}
