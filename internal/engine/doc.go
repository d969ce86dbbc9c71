// Package engine computes liturgical conditions for a date and selects the
// content segments that apply.
//
// Two pure functions make up the engine:
//
//   - ComputeConditions maps (civil date, service type) to an
//     ir.DateConditions snapshot using the lunisolar calendar and the
//     static tables in tables.go.
//   - SelectSegments walks a registry in declaration order and keeps every
//     annotation whose services include the requested one and whose
//     conditions all hold for the snapshot.
//
// Engine bundles a calendar and a registry behind those two functions.
// It holds no mutable state, so one Engine may serve any number of
// goroutines without locking.
//
// CRITICAL PATTERNS:
//
// Nightfall: the lunisolar day begins at dusk, so the evening service uses
// the calendar date of the following civil day for every calendar-driven
// field. Rain insertion is windowed by civil date and keeps the civil date.
//
// Fail-closed matching: a condition the matcher does not understand never
// matches. The compiler rejects such conditions at load time, so this only
// guards registries built by hand.
//
// Declaration order: selected keys come out in registry order, never
// sorted.
package engine
