package engine

import (
	"time"

	"github.com/roach88/siddur/internal/calendar"
)

// Calendar converts between civil dates and lunisolar dates.
// calendar.Hebrew implements it.
type Calendar interface {
	FromCivil(civil time.Time) (calendar.Date, error)
	ToCivil(d calendar.Date) (time.Time, error)
	AddDays(d calendar.Date, n int) (calendar.Date, error)

	// HasDay reports month length: HasDay(y, m, 30) is false for a 29-day
	// month.
	HasDay(year int, month calendar.MonthName, day int) bool
}

var _ Calendar = calendar.Hebrew{}
