package domain

import (
	"fmt"
	"time"
)

// APIDateLayout is the booking service's MM/DD/YYYY date format. Single-digit
// month and day are accepted on input.
const APIDateLayout = "1/2/2006"

// Date is a calendar date with no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseAPIDate parses a MM/DD/YYYY string. field names the document key for
// the returned *DateFormatError.
func ParseAPIDate(field, s string) (Date, error) {
	t, err := time.Parse(APIDateLayout, s)
	if err != nil {
		return Date{}, &DateFormatError{Field: field, Value: s, Err: err}
	}
	return DateOf(t), nil
}

// DateOf drops the time of day from t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool { return d == Date{} }

// At returns the floating timestamp of the date at the given clock time,
// expressed in UTC.
func (d Date) At(hour, min, sec int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.At(0, 0, 0).AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return d.At(0, 0, 0).Before(o.At(0, 0, 0)) }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01-02", string(b))
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}
