package engine

import (
	"time"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/ir"
)

// ComputeConditions derives the snapshot for a civil date and service.
//
// Only the calendar day of civil matters; its time of day and location are
// ignored. The evening service reads the lunisolar date of the next civil
// day. Errors are ir.ErrUnknownServiceType or a *Error with code
// CONVERSION_FAILED.
func ComputeConditions(cal Calendar, civil time.Time, svc ir.ServiceType) (ir.DateConditions, error) {
	if err := svc.Check(); err != nil {
		return ir.DateConditions{}, err
	}

	civil = civilDate(civil)
	evening := svc == ir.Evening

	date, err := liturgicalDate(cal, civil, evening)
	if err != nil {
		return ir.DateConditions{}, err
	}
	return conditionsOn(cal, civil, date, evening)
}

// conditionsOn derives the snapshot once the lunisolar date is known.
// civil is still needed for the rain window.
func conditionsOn(cal Calendar, civil time.Time, date calendar.Date, evening bool) (ir.DateConditions, error) {
	holiday := holidayOf(cal, date)

	rain, err := rainInsertion(cal, civil, evening)
	if err != nil {
		return ir.DateConditions{}, err
	}

	omer := omerDay(date)
	newMonth := isNewMonth(cal, date)
	intermediate := inAny(intermediateDays, date)

	weekday := ir.Ordinary
	if date.Weekday == calendar.Sabbath {
		weekday = ir.Sabbath
	}

	return ir.DateConditions{
		Weekday:             weekday,
		Holiday:             holiday,
		NewMonth:            newMonth,
		IntermediateDays:    intermediate,
		FastDay:             inAny(fastDays, date),
		TenDaysOfRepentance: tenDaysOfRepentance.contains(date),
		OmerDay:             omer,
		WindInsertion:       windInsertion(date, evening),
		RainInsertion:       rain,
		PraiseLevel:         praiseLevel(holiday, newMonth, omer),
		FullStandingPrayer:  fullStandingPrayer(weekday, holiday, intermediate),
	}, nil
}

// liturgicalDate applies the nightfall correction.
func liturgicalDate(cal Calendar, civil time.Time, evening bool) (calendar.Date, error) {
	date, err := cal.FromCivil(civil)
	if err != nil {
		return calendar.Date{}, conversionError(civil, err)
	}
	if !evening {
		return date, nil
	}
	next, err := cal.AddDays(date, 1)
	if err != nil {
		return calendar.Date{}, conversionError(civil, err)
	}
	return next, nil
}

func inAny(ranges []dayRange, d calendar.Date) bool {
	for _, r := range ranges {
		if r.contains(d) {
			return true
		}
	}
	return false
}

func holidayOf(cal Calendar, d calendar.Date) ir.Holiday {
	for _, entry := range holidayDays {
		if entry.days.contains(d) {
			return entry.holiday
		}
	}

	for _, span := range holidaySpans {
		switch d.Month {
		case span.month:
			if d.Day >= span.day && d.Day-span.day < span.length {
				return span.holiday
			}
		case span.next:
			inFirst := monthLength(cal, d.Year, span.month) - span.day + 1
			if inFirst+d.Day <= span.length {
				return span.holiday
			}
		}
	}

	return ir.NoHoliday
}

// monthLength checks for a 30th day.
func monthLength(cal Calendar, year int, month calendar.MonthName) int {
	if cal.HasDay(year, month, 30) {
		return 30
	}
	return 29
}

// isNewMonth is true on day 1, and on day 30 of a month that has one.
func isNewMonth(cal Calendar, d calendar.Date) bool {
	if d.Day == 1 {
		return true
	}
	return d.Day == 30 && cal.HasDay(d.Year, d.Month, 30)
}

func omerDay(d calendar.Date) int {
	for _, seg := range omerCount {
		if seg.days.contains(d) {
			return d.Day + seg.offset
		}
	}
	return 0
}

func windInsertion(d calendar.Date, evening bool) bool {
	if windMonths[d.Month] {
		return true
	}
	for _, w := range windDays {
		if w.days.contains(d) {
			return !w.evening || evening
		}
	}
	return false
}

// rainInsertion works on the civil date, which the nightfall correction
// does not move. The window closes on the civil date of the first day of
// Passover in the lunisolar year of the civil date, and opens on
// December 4 (December 5 when the Passover year is a Gregorian leap year)
// of the preceding civil year. The opening date counts only at evening.
func rainInsertion(cal Calendar, civil time.Time, evening bool) (bool, error) {
	sameDay, err := cal.FromCivil(civil)
	if err != nil {
		return false, conversionError(civil, err)
	}

	passoverYear := sameDay.Year - passoverCivilYearOffset
	if civil.Year() == passoverYear {
		passover, err := cal.ToCivil(calendar.Date{Year: sameDay.Year, Month: passoverStart.month, Day: passoverStart.day})
		if err != nil {
			return false, conversionError(civil, err)
		}
		if !civil.Before(passover) {
			return false, nil
		}
	}

	startDay := rainStartDay
	if isGregorianLeap(passoverYear) {
		startDay = rainStartDayLeap
	}
	start := time.Date(passoverYear-1, time.December, startDay, 0, 0, 0, 0, time.UTC)

	switch {
	case civil.After(start):
		return true, nil
	case civil.Equal(start):
		return evening, nil
	default:
		return false, nil
	}
}

func isGregorianLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// praiseLevel depends on holiday, new month and omer count only.
func praiseLevel(h ir.Holiday, newMonth bool, omer int) ir.PraiseLevel {
	switch {
	case fullPraiseHolidays[h]:
		return ir.PraiseFull
	case h == ir.Passover:
		if omer <= passoverFullPraiseOmer {
			return ir.PraiseFull
		}
		return ir.PraisePartial
	case newMonth:
		return ir.PraisePartial
	case omer >= fullPraiseFromOmer:
		return ir.PraiseFull
	default:
		return ir.PraiseNone
	}
}

func fullStandingPrayer(w ir.WeekdayCategory, h ir.Holiday, intermediate bool) bool {
	if w != ir.Ordinary {
		return false
	}
	return !festivalFormHolidays[h] || intermediate
}
