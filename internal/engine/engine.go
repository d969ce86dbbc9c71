package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/ir"
)

// Engine answers (date, service) queries against one registry.
//
// INVARIANTS:
//   - annotations order NEVER changes after construction
//   - no field is written after New returns, so every method is safe for
//     concurrent use
type Engine struct {
	cal         Calendar
	registry    *ir.Registry
	annotations []ir.Annotation
}

// New creates an Engine over reg. The registry is read through its
// accessors once; later changes to the caller's slices cannot reach it.
func New(reg *ir.Registry, cal Calendar) *Engine {
	return &Engine{
		cal:         cal,
		registry:    reg,
		annotations: reg.Annotations(),
	}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *ir.Registry {
	return e.registry
}

// Conditions computes the snapshot for a civil date and service.
func (e *Engine) Conditions(civil time.Time, svc ir.ServiceType) (ir.DateConditions, error) {
	return ComputeConditions(e.cal, civil, svc)
}

// Select returns the matching segment keys in declaration order.
func (e *Engine) Select(svc ir.ServiceType, snap ir.DateConditions) ([]string, error) {
	if err := svc.Check(); err != nil {
		return nil, err
	}

	keys := selectFrom(e.annotations, svc, snap)

	slog.Debug("segments selected",
		"service", svc,
		"count", len(keys),
		"annotations", len(e.annotations),
	)

	return keys, nil
}

// Expand replaces group names with their members, depth first, and keeps
// every other key as is.
func (e *Engine) Expand(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	expanding := make(map[string]bool)

	var walk func(key string) error
	walk = func(key string) error {
		members, ok := e.registry.Group(key)
		if !ok {
			out = append(out, key)
			return nil
		}
		if expanding[key] {
			return &Error{Code: ErrCodeGroupCycle, Message: fmt.Sprintf("group %q contains itself", key)}
		}
		expanding[key] = true
		for _, m := range members {
			if err := walk(m); err != nil {
				return err
			}
		}
		expanding[key] = false
		return nil
	}

	for _, k := range keys {
		if err := walk(k); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Query is the date half of a build: everything that depends on the
// civil date and service but not on the registry.
type Query struct {
	Service    ir.ServiceType
	Civil      time.Time // midnight UTC of the civil day
	HebrewDate calendar.Date
	Conditions ir.DateConditions
	Checksum   string
}

// Prepare computes the lunisolar date, the snapshot and its checksum.
func (e *Engine) Prepare(civil time.Time, svc ir.ServiceType) (Query, error) {
	if err := svc.Check(); err != nil {
		return Query{}, err
	}

	civil = civilDate(civil)
	evening := svc == ir.Evening

	date, err := liturgicalDate(e.cal, civil, evening)
	if err != nil {
		return Query{}, err
	}
	snap, err := conditionsOn(e.cal, civil, date, evening)
	if err != nil {
		return Query{}, err
	}
	checksum, err := snap.Checksum()
	if err != nil {
		return Query{}, err
	}

	return Query{
		Service:    svc,
		Civil:      civil,
		HebrewDate: date,
		Conditions: snap,
		Checksum:   checksum,
	}, nil
}

// Result assembles a build from q and an already selected segment list.
func (q Query) Result(segments, content []string, key string) ir.Build {
	return ir.Build{
		Service:    q.Service,
		Date:       q.Civil.Format(time.DateOnly),
		HebrewDate: q.HebrewDate.String(),
		Conditions: q.Conditions,
		Segments:   segments,
		Content:    content,
		Checksum:   q.Checksum,
		Key:        key,
	}
}

// Complete selects and expands segments for a prepared query.
func (e *Engine) Complete(q Query) (ir.Build, error) {
	segments, err := e.Select(q.Service, q.Conditions)
	if err != nil {
		return ir.Build{}, err
	}

	content, err := e.Expand(segments)
	if err != nil {
		return ir.Build{}, err
	}

	key, err := ir.BuildKey(q.Service, q.Conditions, segments)
	if err != nil {
		return ir.Build{}, err
	}

	return q.Result(segments, content, key), nil
}

// Build runs the whole pipeline for one query: snapshot, selection,
// expansion and identifiers.
func (e *Engine) Build(civil time.Time, svc ir.ServiceType) (ir.Build, error) {
	q, err := e.Prepare(civil, svc)
	if err != nil {
		return ir.Build{}, err
	}
	return e.Complete(q)
}

// HebrewDate returns the lunisolar date a service on civil reads, after
// the nightfall correction.
func (e *Engine) HebrewDate(civil time.Time, svc ir.ServiceType) (calendar.Date, error) {
	return HebrewDate(e.cal, civil, svc)
}

// HebrewDate is the registry-free form of (*Engine).HebrewDate.
func HebrewDate(cal Calendar, civil time.Time, svc ir.ServiceType) (calendar.Date, error) {
	if err := svc.Check(); err != nil {
		return calendar.Date{}, err
	}
	return liturgicalDate(cal, civilDate(civil), svc == ir.Evening)
}

// civilDate keeps the calendar day of t and drops time and location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
