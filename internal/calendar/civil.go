package calendar

import (
	"fmt"
	"time"

	"github.com/hebcal/greg"
)

var (
	minCivil = time.Date(1600, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxCivil = time.Date(2999, time.December, 31, 0, 0, 0, 0, time.UTC)

	minRD = rataDie(minCivil)
	maxRD = rataDie(maxCivil)
)

// civilDay truncates t to midnight UTC of its own calendar day, ignoring
// the location's offset so that a local date stays the same date.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rataDie counts days with 1 January AD 1 as day 1.
func rataDie(t time.Time) int64 {
	return greg.ToRD(t.Year(), t.Month(), t.Day())
}

// civilToRD converts the calendar day of t to a rata die.
func civilToRD(t time.Time) (int64, error) {
	day := civilDay(t)
	if day.Before(minCivil) || day.After(maxCivil) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, day.Format(time.DateOnly))
	}
	return rataDie(day), nil
}

// rdToCivil converts a rata die to midnight UTC of the civil date.
func rdToCivil(rd int64) time.Time {
	year, month, day := greg.FromRD(rd)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func inRange(rd int64) bool {
	return rd >= minRD && rd <= maxRD
}
