package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/hebcal/hdate"
)

var (
	// ErrOutOfRange is returned for dates outside the supported range.
	ErrOutOfRange = errors.New("date out of supported range")

	// ErrInvalidDate is returned for a Hebrew date that does not exist, such
	// as 30 Iyar or Adar II in a common year.
	ErrInvalidDate = errors.New("invalid date")
)

// Sabbath is the weekday index of the seventh day.
const Sabbath = 7

// Date is a day in the Hebrew calendar.
type Date struct {
	Year  int       `json:"year"`
	Month MonthName `json:"month"`
	Day   int       `json:"day"`

	// Weekday runs from 1 (Sunday) to 7 (Sabbath).
	Weekday int `json:"weekday"`
}

// String renders the date as "17 Nisan 5784".
func (d Date) String() string {
	return fmt.Sprintf("%d %s %d", d.Day, d.Month, d.Year)
}

// IsSabbath reports whether the date falls on the seventh day.
func (d Date) IsSabbath() bool {
	return d.Weekday == Sabbath
}

// Hebrew implements conversions for the Hebrew calendar. The zero value is
// ready to use and safe for concurrent use.
type Hebrew struct{}

// New builds a validated Date from its parts.
func (Hebrew) New(year int, month MonthName, day int) (Date, error) {
	rd, err := toRD(year, month, day)
	if err != nil {
		return Date{}, err
	}
	return fromRD(rd), nil
}

// FromCivil converts the calendar day of t (in t's own location) to a
// Hebrew date.
func (Hebrew) FromCivil(t time.Time) (Date, error) {
	rd, err := civilToRD(t)
	if err != nil {
		return Date{}, err
	}
	return fromRD(rd), nil
}

// ToCivil returns midnight UTC of the civil day matching d.
func (Hebrew) ToCivil(d Date) (time.Time, error) {
	rd, err := toRD(d.Year, d.Month, d.Day)
	if err != nil {
		return time.Time{}, err
	}
	return rdToCivil(rd), nil
}

// AddDays moves d by n days, crossing month and year boundaries.
func (Hebrew) AddDays(d Date, n int) (Date, error) {
	rd, err := toRD(d.Year, d.Month, d.Day)
	if err != nil {
		return Date{}, err
	}
	rd += int64(n)
	if !inRange(rd) {
		return Date{}, fmt.Errorf("%w: %s %+d days", ErrOutOfRange, d, n)
	}
	return fromRD(rd), nil
}

// HasDay reports whether the named month of the given year has the given
// day. It gives the month length: HasDay(y, m, 30) is false for 29-day
// months.
func (Hebrew) HasDay(year int, month MonthName, day int) bool {
	return day >= 1 && day <= DaysInMonth(month, year)
}

func toRD(year int, name MonthName, day int) (int64, error) {
	m, ok := month(name, year)
	if !ok {
		return 0, fmt.Errorf("%w: no month %q in year %d", ErrInvalidDate, name, year)
	}
	if day < 1 || day > hdate.DaysInMonth(m, year) {
		return 0, fmt.Errorf("%w: %d %s %d", ErrInvalidDate, day, name, year)
	}
	hd := hdate.New(year, m, day)
	rd := hd.Abs()
	if !inRange(rd) {
		return 0, fmt.Errorf("%w: %d %s %d", ErrOutOfRange, day, name, year)
	}
	return rd, nil
}

func fromRD(rd int64) Date {
	hd := hdate.FromRD(rd)
	return Date{
		Year:    hd.Year(),
		Month:   nameOf(hd.Month(), hd.Year()),
		Day:     hd.Day(),
		Weekday: int(rdToCivil(rd).Weekday()) + 1,
	}
}
