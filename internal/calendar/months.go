package calendar

import "github.com/hebcal/hdate"

// MonthName names a Hebrew month.
type MonthName string

const (
	Nisan    MonthName = "Nisan"
	Iyar     MonthName = "Iyar"
	Sivan    MonthName = "Sivan"
	Tammuz   MonthName = "Tammuz"
	Av       MonthName = "Av"
	Elul     MonthName = "Elul"
	Tishrei  MonthName = "Tishrei"
	Cheshvan MonthName = "Cheshvan"
	Kislev   MonthName = "Kislev"
	Tevet    MonthName = "Tevet"
	Shevat   MonthName = "Shevat"
	Adar     MonthName = "Adar"    // common years only
	AdarI    MonthName = "Adar I"  // leap years only
	AdarII   MonthName = "Adar II" // leap years only
)

// fixedMonths are the months whose name does not depend on the year.
var fixedMonths = map[MonthName]hdate.HMonth{
	Nisan:    hdate.Nisan,
	Iyar:     hdate.Iyyar,
	Sivan:    hdate.Sivan,
	Tammuz:   hdate.Tamuz,
	Av:       hdate.Av,
	Elul:     hdate.Elul,
	Tishrei:  hdate.Tishrei,
	Cheshvan: hdate.Cheshvan,
	Kislev:   hdate.Kislev,
	Tevet:    hdate.Tevet,
	Shevat:   hdate.Shvat,
}

var monthNames = func() map[hdate.HMonth]MonthName {
	names := make(map[hdate.HMonth]MonthName, len(fixedMonths))
	for name, m := range fixedMonths {
		names[m] = name
	}
	return names
}()

// month resolves a name to its month within the given year.
// Adar is only valid in common years; Adar I and Adar II only in leap years.
func month(name MonthName, year int) (hdate.HMonth, bool) {
	if m, ok := fixedMonths[name]; ok {
		return m, true
	}
	leap := IsLeapYear(year)
	switch name {
	case Adar:
		return hdate.Adar1, !leap
	case AdarI:
		return hdate.Adar1, leap
	case AdarII:
		return hdate.Adar2, leap
	}
	return 0, false
}

// nameOf is the inverse of month.
func nameOf(m hdate.HMonth, year int) MonthName {
	switch m {
	case hdate.Adar1:
		if IsLeapYear(year) {
			return AdarI
		}
		return Adar
	case hdate.Adar2:
		return AdarII
	}
	return monthNames[m]
}

// IsLeapYear reports whether the Hebrew year has thirteen months.
func IsLeapYear(year int) bool {
	return hdate.IsLeapYear(year)
}

// MonthsInYear returns 12 or 13.
func MonthsInYear(year int) int {
	if IsLeapYear(year) {
		return 13
	}
	return 12
}

// DaysInMonth returns the length of the named month in the given year, or 0
// when the month does not occur in that year.
func DaysInMonth(name MonthName, year int) int {
	m, ok := month(name, year)
	if !ok {
		return 0
	}
	return hdate.DaysInMonth(m, year)
}
