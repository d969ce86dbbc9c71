// Package calendar converts between civil (Gregorian) dates and the Hebrew
// lunisolar calendar.
//
// Dates are exchanged as Date values carrying the month by NAME, never by
// ordinal: the ordinal of every month after Shevat shifts when a leap year
// inserts Adar I, so anything keyed by month must use the name.
//
// The conversion itself is github.com/hebcal/hdate; civil days are bridged
// through rata die numbers from github.com/hebcal/greg. This package only
// maps month names and enforces the supported range.
//
// The supported range is 1600-01-01 through 2999-12-31. Conversions outside
// it fail with ErrOutOfRange.
package calendar
