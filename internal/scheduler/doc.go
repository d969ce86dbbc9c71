// Package scheduler runs builds at service times and keeps the registry
// current.
//
// A cron schedule fires Tick; Tick picks the service from the local hour,
// applies the optional festive gate and asks the builder for a build.
// Reloader watches the registry directory and swaps in a new engine after
// each successful reload. A reload that fails to compile keeps the
// previous engine.
package scheduler
