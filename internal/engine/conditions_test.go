package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/ir"
)

func civil(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func conditions(t *testing.T, date string, svc ir.ServiceType) ir.DateConditions {
	t.Helper()
	snap, err := ComputeConditions(calendar.Hebrew{}, civil(t, date), svc)
	require.NoError(t, err)
	return snap
}

func TestComputeConditions_OrdinaryWinterWeekday(t *testing.T) {
	// 5 Shevat 5784, a Monday.
	got := conditions(t, "2024-01-15", ir.Morning)

	assert.Equal(t, ir.DateConditions{
		Weekday:            ir.Ordinary,
		Holiday:            ir.NoHoliday,
		WindInsertion:      true,
		RainInsertion:      true,
		PraiseLevel:        ir.PraiseNone,
		FullStandingPrayer: true,
	}, got)
}

func TestComputeConditions_NewYear(t *testing.T) {
	// 1 Tishrei 5785.
	got := conditions(t, "2024-10-03", ir.Morning)

	assert.Equal(t, ir.DateConditions{
		Weekday:             ir.Ordinary,
		Holiday:             ir.NewYear,
		NewMonth:            true,
		TenDaysOfRepentance: true,
		PraiseLevel:         ir.PraiseFull,
	}, got)
}

func TestComputeConditions_PassoverIntermediateDay(t *testing.T) {
	// 17 Nisan 5784.
	got := conditions(t, "2024-04-25", ir.Morning)

	assert.Equal(t, ir.Passover, got.Holiday)
	assert.True(t, got.IntermediateDays)
	assert.Equal(t, 2, got.OmerDay)
	assert.Equal(t, ir.PraisePartial, got.PraiseLevel)
	assert.True(t, got.FullStandingPrayer)
	assert.False(t, got.WindInsertion)
	assert.False(t, got.RainInsertion)
	assert.False(t, got.NewMonth)
}

func TestComputeConditions_PassoverEve(t *testing.T) {
	// Evening of 2024-04-22 reads 15 Nisan 5784.
	got := conditions(t, "2024-04-22", ir.Evening)

	assert.Equal(t, ir.Passover, got.Holiday)
	assert.Equal(t, 0, got.OmerDay)
	assert.False(t, got.IntermediateDays)
	assert.True(t, got.WindInsertion)
	assert.True(t, got.RainInsertion)
	assert.Equal(t, ir.PraiseFull, got.PraiseLevel)
	assert.False(t, got.FullStandingPrayer)
}

func TestComputeConditions_FirstDayOfPassover(t *testing.T) {
	morning := conditions(t, "2024-04-23", ir.Morning)
	assert.Equal(t, ir.Passover, morning.Holiday)
	assert.False(t, morning.WindInsertion)
	assert.False(t, morning.RainInsertion)
	assert.Equal(t, 0, morning.OmerDay)

	evening := conditions(t, "2024-04-23", ir.Evening)
	assert.Equal(t, 1, evening.OmerDay)
	assert.True(t, evening.IntermediateDays)
	assert.True(t, evening.FullStandingPrayer)
	assert.Equal(t, ir.PraiseFull, evening.PraiseLevel)
	assert.False(t, evening.WindInsertion)
}

func TestComputeConditions_Holidays(t *testing.T) {
	tests := []struct {
		date    string
		holiday ir.Holiday
	}{
		{"2024-10-03", ir.NewYear},
		{"2024-10-04", ir.NewYear},
		{"2024-10-05", ir.NoHoliday},
		{"2024-10-12", ir.DayOfAtonement},
		{"2024-10-17", ir.Tabernacles},
		{"2024-10-23", ir.Tabernacles},
		{"2024-10-24", ir.EighthDayAssembly},
		{"2024-10-25", ir.EighthDayAssembly},
		{"2024-10-26", ir.NoHoliday},
		{"2024-04-29", ir.Passover},
		{"2024-04-30", ir.NoHoliday},
		{"2024-06-12", ir.Pentecost},
		{"2024-06-13", ir.Pentecost},
		{"2024-06-14", ir.NoHoliday},
		{"2024-03-24", ir.Lots},
		{"2025-03-14", ir.Lots},
		{"2024-01-15", ir.NoHoliday},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.holiday, conditions(t, tt.date, ir.Morning).Holiday)
		})
	}
}

func TestComputeConditions_DayAfterPassover(t *testing.T) {
	// 22 Nisan 5784, a Tuesday.
	got := conditions(t, "2024-04-30", ir.Morning)

	assert.Equal(t, ir.NoHoliday, got.Holiday)
	assert.Equal(t, 7, got.OmerDay)
	assert.False(t, got.IntermediateDays)
	assert.Equal(t, ir.PraiseNone, got.PraiseLevel)
	assert.True(t, got.FullStandingPrayer)

	// The evening before already reads 22 Nisan.
	eve := conditions(t, "2024-04-29", ir.Evening)
	assert.Equal(t, ir.NoHoliday, eve.Holiday)
}

func TestComputeConditions_EighthDayAssemblyPraise(t *testing.T) {
	for _, date := range []string{"2025-10-14", "2025-10-15"} {
		t.Run(date, func(t *testing.T) {
			got := conditions(t, date, ir.Morning)
			assert.Equal(t, ir.EighthDayAssembly, got.Holiday)
			assert.Equal(t, ir.PraiseNone, got.PraiseLevel)
			assert.False(t, got.FullStandingPrayer)
		})
	}

	// The last day of tabernacles still recites the full praise.
	assert.Equal(t, ir.PraiseFull, conditions(t, "2025-10-13", ir.Morning).PraiseLevel)
}

func TestComputeConditions_DedicationSpan(t *testing.T) {
	// Kislev 5786 has 30 days, Kislev 5788 has 29: the span ends on
	// 2 Tevet and 3 Tevet respectively.
	tests := []struct {
		date string
		want bool
	}{
		{"2025-12-14", false},
		{"2025-12-15", true},
		{"2025-12-20", true},
		{"2025-12-22", true},
		{"2025-12-23", false},
		{"2027-12-24", false},
		{"2027-12-25", true},
		{"2028-01-01", true},
		{"2028-01-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := conditions(t, tt.date, ir.Morning)
			assert.Equal(t, tt.want, got.Holiday == ir.Dedication)
			if tt.want {
				assert.Equal(t, ir.PraiseFull, got.PraiseLevel)
			}
		})
	}
}

func TestComputeConditions_NewMonth(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2025-10-22", true},  // 30 Tishrei
		{"2025-10-23", true},  // 1 Cheshvan
		{"2025-10-24", false}, // 2 Cheshvan
		{"2025-11-21", true},  // 1 Kislev, Cheshvan has 29 days
		{"2025-12-20", true},  // 30 Kislev
		{"2025-12-21", true},  // 1 Tevet
		{"2025-12-22", false},
		{"2027-02-07", true}, // 30 Shevat
		{"2027-02-08", true}, // 1 Adar I
		{"2027-03-09", true}, // 30 Adar I
		{"2027-03-10", true}, // 1 Adar II
		{"2027-12-30", true},
		{"2027-12-31", true},
		{"2028-01-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, conditions(t, tt.date, ir.Morning).NewMonth)
		})
	}
}

func TestComputeConditions_FastDays(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2023-12-22", true}, // 10 Tevet
		{"2024-07-23", true}, // 17 Tammuz
		{"2024-08-13", true}, // 9 Av
		{"2024-10-05", true}, // 3 Tishrei
		{"2024-10-12", false},
		{"2024-01-15", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, conditions(t, tt.date, ir.Morning).FastDay)
		})
	}
}

func TestComputeConditions_TenDaysOfRepentance(t *testing.T) {
	assert.True(t, conditions(t, "2024-10-03", ir.Morning).TenDaysOfRepentance)
	assert.True(t, conditions(t, "2024-10-12", ir.Morning).TenDaysOfRepentance)
	assert.False(t, conditions(t, "2024-10-13", ir.Morning).TenDaysOfRepentance)
	assert.False(t, conditions(t, "2024-10-02", ir.Morning).TenDaysOfRepentance)
	assert.True(t, conditions(t, "2024-10-02", ir.Evening).TenDaysOfRepentance)
}

func TestComputeConditions_Sabbath(t *testing.T) {
	sat := conditions(t, "2024-01-13", ir.Morning)
	assert.Equal(t, ir.Sabbath, sat.Weekday)
	assert.False(t, sat.FullStandingPrayer)

	// Friday evening already reads the sabbath.
	fri := conditions(t, "2024-01-12", ir.Evening)
	assert.Equal(t, ir.Sabbath, fri.Weekday)
	assert.Equal(t, ir.Ordinary, conditions(t, "2024-01-12", ir.Morning).Weekday)

	// Atonement on a sabbath.
	atonement := conditions(t, "2024-10-12", ir.Morning)
	assert.Equal(t, ir.Sabbath, atonement.Weekday)
	assert.Equal(t, ir.DayOfAtonement, atonement.Holiday)
}

func TestComputeConditions_Omer(t *testing.T) {
	tests := []struct {
		date   string
		omer   int
		praise ir.PraiseLevel
	}{
		{"2024-04-23", 0, ir.PraiseFull},
		{"2024-04-24", 1, ir.PraiseFull},
		{"2024-04-25", 2, ir.PraisePartial},
		{"2024-05-08", 15, ir.PraisePartial}, // 30 Nisan, new month
		{"2024-05-10", 17, ir.PraiseNone},
		{"2024-05-25", 32, ir.PraiseNone},
		{"2024-05-26", 33, ir.PraiseFull},
		{"2024-06-11", 49, ir.PraiseFull},
		{"2024-06-12", 0, ir.PraiseFull},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := conditions(t, tt.date, ir.Morning)
			assert.Equal(t, tt.omer, got.OmerDay)
			assert.Equal(t, tt.praise, got.PraiseLevel)
		})
	}
}

func TestComputeConditions_WindInsertion(t *testing.T) {
	tests := []struct {
		date string
		want [3]bool // morning, afternoon, evening
	}{
		{"2025-10-13", [3]bool{false, false, true}},
		{"2025-10-14", [3]bool{false, false, true}},
		{"2025-10-15", [3]bool{true, true, true}},
		{"2026-04-01", [3]bool{true, true, true}},
		{"2026-04-02", [3]bool{false, false, false}},
		{"2024-01-15", [3]bool{true, true, true}},
		{"2024-07-23", [3]bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			for i, svc := range allServices {
				assert.Equal(t, tt.want[i], conditions(t, tt.date, svc).WindInsertion, "service %s", svc)
			}
		})
	}
}

func TestComputeConditions_RainInsertion(t *testing.T) {
	tests := []struct {
		date string
		want [3]bool // morning, afternoon, evening
	}{
		{"2025-12-04", [3]bool{false, false, true}},
		{"2025-12-05", [3]bool{true, true, true}},
		{"2026-04-01", [3]bool{true, true, true}},
		{"2026-04-02", [3]bool{false, false, false}},
		{"2026-12-04", [3]bool{false, false, true}},
		{"2027-12-04", [3]bool{false, false, false}},
		{"2027-12-05", [3]bool{false, false, true}},
		{"2027-12-06", [3]bool{true, true, true}},
		{"2028-04-10", [3]bool{true, true, true}},
		{"2028-04-11", [3]bool{false, false, false}},
		{"2024-07-23", [3]bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			for i, svc := range allServices {
				assert.Equal(t, tt.want[i], conditions(t, tt.date, svc).RainInsertion, "service %s", svc)
			}
		})
	}
}

func TestComputeConditions_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	late := time.Date(2024, time.October, 3, 23, 30, 0, 0, loc)

	got, err := ComputeConditions(calendar.Hebrew{}, late, ir.Morning)
	require.NoError(t, err)
	assert.Equal(t, conditions(t, "2024-10-03", ir.Morning), got)
}

func TestComputeConditions_UnknownService(t *testing.T) {
	_, err := ComputeConditions(calendar.Hebrew{}, civil(t, "2024-01-15"), ir.ServiceType("noon"))
	assert.ErrorIs(t, err, ir.ErrUnknownServiceType)
}

func TestComputeConditions_ConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		date string
		svc  ir.ServiceType
	}{
		{"before range", "1599-12-31", ir.Morning},
		{"after range", "3000-01-01", ir.Morning},
		{"evening on last day", "2999-12-31", ir.Evening},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeConditions(calendar.Hebrew{}, civil(t, tt.date), tt.svc)
			require.Error(t, err)
			assert.True(t, IsConversionError(err))
			assert.ErrorIs(t, err, calendar.ErrOutOfRange)
		})
	}

	// The last day itself is still usable in the morning.
	_, err := ComputeConditions(calendar.Hebrew{}, civil(t, "2999-12-31"), ir.Morning)
	assert.NoError(t, err)
}

// failingCalendar wraps the real calendar and fails one operation.
type failingCalendar struct {
	calendar.Hebrew
	failToCivil bool
}

var errCalendarDown = errors.New("calendar unavailable")

func (c failingCalendar) ToCivil(d calendar.Date) (time.Time, error) {
	if c.failToCivil {
		return time.Time{}, errCalendarDown
	}
	return c.Hebrew.ToCivil(d)
}

func TestComputeConditions_CalendarFailureIsNotDefaulted(t *testing.T) {
	cal := failingCalendar{failToCivil: true}

	// Rain insertion needs the civil date of Passover in spring.
	_, err := ComputeConditions(cal, civil(t, "2024-03-01"), ir.Morning)
	require.Error(t, err)
	assert.True(t, IsConversionError(err))
	assert.ErrorIs(t, err, errCalendarDown)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "2024-03-01", engErr.Date)
}

func TestComputeConditions_AfternoonMatchesMorning(t *testing.T) {
	start := civil(t, "2024-09-01")
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i)
		morning, err := ComputeConditions(calendar.Hebrew{}, d, ir.Morning)
		require.NoError(t, err)
		afternoon, err := ComputeConditions(calendar.Hebrew{}, d, ir.Afternoon)
		require.NoError(t, err)
		assert.Equal(t, morning, afternoon, d.Format(time.DateOnly))
	}
}

func TestComputeConditions_NightfallCorrection(t *testing.T) {
	// Everything derived from the lunisolar date of an evening equals
	// the next civil day's morning. Wind on the two festival eves and
	// rain (civil) may differ.
	start := civil(t, "2024-09-01")
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i)
		evening, err := ComputeConditions(calendar.Hebrew{}, d, ir.Evening)
		require.NoError(t, err)
		next, err := ComputeConditions(calendar.Hebrew{}, d.AddDate(0, 0, 1), ir.Morning)
		require.NoError(t, err)

		evening.WindInsertion, next.WindInsertion = false, false
		evening.RainInsertion, next.RainInsertion = false, false
		assert.Equal(t, next, evening, d.Format(time.DateOnly))
	}
}

func TestComputeConditions_OmerIncrementsDaily(t *testing.T) {
	// 16 Nisan 5784 is 2024-04-24.
	start := civil(t, "2024-04-24")
	for day := 1; day <= ir.MaxOmerDay; day++ {
		d := start.AddDate(0, 0, day-1)
		assert.Equal(t, day, conditions(t, d.Format(time.DateOnly), ir.Morning).OmerDay)
		assert.Equal(t, day, conditions(t, d.AddDate(0, 0, -1).Format(time.DateOnly), ir.Evening).OmerDay)
	}
	assert.Equal(t, 0, conditions(t, start.AddDate(0, 0, ir.MaxOmerDay).Format(time.DateOnly), ir.Morning).OmerDay)
}

func TestComputeConditions_PraiseIsAFunctionOfHolidayNewMonthOmer(t *testing.T) {
	type key struct {
		holiday  ir.Holiday
		newMonth bool
		omer     int
	}
	seen := make(map[key]ir.PraiseLevel)

	start := civil(t, "2023-09-01")
	for i := 0; i < 800; i++ {
		d := start.AddDate(0, 0, i)
		for _, svc := range allServices {
			snap, err := ComputeConditions(calendar.Hebrew{}, d, svc)
			require.NoError(t, err)

			k := key{snap.Holiday, snap.NewMonth, snap.OmerDay}
			if prev, ok := seen[k]; ok {
				assert.Equal(t, prev, snap.PraiseLevel, "%s %s", d.Format(time.DateOnly), svc)
			}
			seen[k] = snap.PraiseLevel
		}
	}
}

func TestComputeConditions_Idempotent(t *testing.T) {
	d := civil(t, "2024-04-25")
	for _, svc := range allServices {
		a, err := ComputeConditions(calendar.Hebrew{}, d, svc)
		require.NoError(t, err)
		b, err := ComputeConditions(calendar.Hebrew{}, d, svc)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}
