// Package harness runs date scenarios against a segment registry.
//
// A scenario names one civil date and one service and states what the
// engine must produce for it:
//
//	name: ordinary_winter_weekday
//	description: "Monday in Shevat, morning"
//	registry: ../../../../registry
//	date: "2024-01-15"
//	service: morning
//	expect:
//	  hebrew_date: "5 Shevat 5784"
//	  conditions:
//	    holiday: null
//	    rain_insertion: true
//	  segments: [morning_blessings, verses_of_praise]
//	  contains: [amidah_rain]
//	  excludes: [amidah_blessing]
//
// # Expectations
//
//   - hebrew_date: exact match on the date after the nightfall correction
//   - conditions: subset match on snapshot fields; null means no holiday
//   - segments: exact, ordered match on the selected keys
//   - content: exact, ordered match on the keys after group expansion
//   - contains / excludes: membership checks on the selected keys
//   - error: the build must fail with this code (CONVERSION_FAILED,
//     UNKNOWN_SERVICE)
//
// # Golden Snapshots
//
// A successful build is rendered as RFC 8785 canonical JSON and compared
// with golden/<file>.golden next to the scenario file. The snapshot
// carries the conditions checksum and the build key, so any change to the
// derivation rules or to the registry shows up as a diff.
//
//	go test ./internal/harness -update
//	siddur test ./scenarios --update
package harness
