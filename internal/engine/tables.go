package engine

import (
	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/ir"
)

// Rule tables. Everything keys off month names, not ordinals, because a
// leap year inserts a thirteenth month and shifts the numbering.

// dayRange is an inclusive day range inside one month.
type dayRange struct {
	month calendar.MonthName
	first int
	last  int
}

func (r dayRange) contains(d calendar.Date) bool {
	return d.Month == r.month && d.Day >= r.first && d.Day <= r.last
}

// holidayDays lists festivals by fixed day range. Passover ends on 21
// Nisan.
var holidayDays = []struct {
	days    dayRange
	holiday ir.Holiday
}{
	{dayRange{calendar.Tishrei, 1, 2}, ir.NewYear},
	{dayRange{calendar.Tishrei, 10, 10}, ir.DayOfAtonement},
	{dayRange{calendar.Tishrei, 15, 21}, ir.Tabernacles},
	{dayRange{calendar.Tishrei, 22, 23}, ir.EighthDayAssembly},
	{dayRange{calendar.Nisan, 15, 21}, ir.Passover},
	{dayRange{calendar.Sivan, 6, 7}, ir.Pentecost},
	{dayRange{calendar.Adar, 14, 14}, ir.Lots},
	{dayRange{calendar.AdarII, 14, 14}, ir.Lots},
}

// holidaySpans lists festivals that start on a fixed day and run a fixed
// number of days into the next month. Where they end depends on the
// length of the starting month.
var holidaySpans = []struct {
	month   calendar.MonthName
	day     int
	length  int
	next    calendar.MonthName
	holiday ir.Holiday
}{
	{calendar.Kislev, 25, 8, calendar.Tevet, ir.Dedication},
}

// intermediateDays are the non-holy middle days of the two long festivals.
var intermediateDays = []dayRange{
	{calendar.Tishrei, 16, 20},
	{calendar.Nisan, 16, 20},
}

// fastDays are the four fixed public fasts.
var fastDays = []dayRange{
	{calendar.Tevet, 10, 10},
	{calendar.Av, 9, 9},
	{calendar.Tammuz, 17, 17},
	{calendar.Tishrei, 3, 3},
}

var tenDaysOfRepentance = dayRange{calendar.Tishrei, 1, 10}

// omerCount maps a day range to the count: count = day + offset.
var omerCount = []struct {
	days   dayRange
	offset int
}{
	{dayRange{calendar.Nisan, 16, 30}, -15},
	{dayRange{calendar.Iyar, 1, 29}, 15},
	{dayRange{calendar.Sivan, 1, 5}, 44},
}

// windMonths say the wind insertion for the whole month.
var windMonths = map[calendar.MonthName]bool{
	calendar.Cheshvan: true,
	calendar.Kislev:   true,
	calendar.Tevet:    true,
	calendar.Shevat:   true,
	calendar.Adar:     true,
	calendar.AdarI:    true,
	calendar.AdarII:   true,
}

// windDays extend the wind insertion into the edge months. evening marks a
// day that says it at the evening service only.
var windDays = []struct {
	days    dayRange
	evening bool
}{
	{dayRange{calendar.Tishrei, 22, 22}, true},
	{dayRange{calendar.Tishrei, 23, 30}, false},
	{dayRange{calendar.Nisan, 1, 14}, false},
	{dayRange{calendar.Nisan, 15, 15}, true},
}

// Rain insertion is windowed by civil date: it starts on December 4, or
// December 5 before a Gregorian leap year, and runs until the civil date of
// the first day of Passover.
const (
	rainStartDay     = 4
	rainStartDayLeap = 5

	// The first day of Passover of lunisolar year Y falls in civil year
	// Y-3760.
	passoverCivilYearOffset = 3760
)

var (
	passoverStart = struct {
		month calendar.MonthName
		day   int
	}{calendar.Nisan, 15}

	// fullPraiseHolidays recite the full praise on every day. The eighth
	// day assembly is not among them.
	fullPraiseHolidays = map[ir.Holiday]bool{
		ir.NewYear:     true,
		ir.Tabernacles: true,
		ir.Pentecost:   true,
		ir.Dedication:  true,
	}

	// passoverFullPraiseOmer is the last omer count on which Passover
	// recites the full praise; later days recite the partial praise.
	passoverFullPraiseOmer = 1

	// fullPraiseFromOmer starts the full praise from this omer count
	// onward, outside festivals and new-month days.
	fullPraiseFromOmer = 33

	// festivalFormHolidays replace the everyday standing prayer with the
	// festival form, except on intermediate days.
	festivalFormHolidays = map[ir.Holiday]bool{
		ir.NewYear:           true,
		ir.DayOfAtonement:    true,
		ir.Tabernacles:       true,
		ir.EighthDayAssembly: true,
		ir.Passover:          true,
		ir.Pentecost:         true,
	}
)
