package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/roach88/siddur/internal/builder"
	"github.com/roach88/siddur/internal/config"
	"github.com/roach88/siddur/internal/ir"
)

// Service hours in local time: morning from 04:00, afternoon from 12:00,
// evening from 18:00 until 04:00 the next day.
const (
	morningFromHour   = 4
	afternoonFromHour = 12
	eveningFromHour   = 18
)

// majorFestivals open the festive gate alongside the sabbath.
var majorFestivals = map[ir.Holiday]bool{
	ir.NewYear:           true,
	ir.DayOfAtonement:    true,
	ir.Tabernacles:       true,
	ir.EighthDayAssembly: true,
	ir.Passover:          true,
	ir.Pentecost:         true,
}

// Clock supplies the current time. testutil.FixedClock implements it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Outcome describes one tick.
type Outcome struct {
	Time    time.Time      `json:"time"`
	Date    string         `json:"date"`
	Service ir.ServiceType `json:"service"`

	// Skipped is true when the gate rejected the day.
	Skipped bool            `json:"skipped"`
	Result  *builder.Result `json:"result,omitempty"`
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	builder *builder.Builder
	clock   Clock
	loc     *time.Location
	gate    string

	mu   sync.Mutex
	cron *cron.Cron

	// stop is closed by Stop; watchDone is closed once the goroutine
	// watching ctx has returned.
	stop      chan struct{}
	watchDone chan struct{}
}

// New creates a Scheduler. A nil clock uses the system clock; a nil loc
// uses UTC. gate is config.GateNone or config.GateFestive.
func New(b *builder.Builder, clock Clock, loc *time.Location, gate string) (*Scheduler, error) {
	if clock == nil {
		clock = systemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	switch gate {
	case config.GateNone, config.GateFestive:
	default:
		return nil, fmt.Errorf("unknown gate %q", gate)
	}
	return &Scheduler{builder: b, clock: clock, loc: loc, gate: gate}, nil
}

// ServiceAt returns the service recited at t's local hour.
func ServiceAt(t time.Time) ir.ServiceType {
	switch h := t.Hour(); {
	case h >= morningFromHour && h < afternoonFromHour:
		return ir.Morning
	case h >= afternoonFromHour && h < eveningFromHour:
		return ir.Afternoon
	default:
		return ir.Evening
	}
}

// Festive reports whether a snapshot is a sabbath or a major festival.
func Festive(snap ir.DateConditions) bool {
	return snap.Weekday == ir.Sabbath || majorFestivals[snap.Holiday]
}

// Tick builds the service due now. Between midnight and 04:00 the evening
// service still belongs to the previous civil day.
func (s *Scheduler) Tick(ctx context.Context) (Outcome, error) {
	now := s.clock.Now().In(s.loc)
	svc := ServiceAt(now)

	civil := now
	if svc == ir.Evening && now.Hour() < morningFromHour {
		civil = now.AddDate(0, 0, -1)
	}
	civil = time.Date(civil.Year(), civil.Month(), civil.Day(), 0, 0, 0, 0, time.UTC)

	out := Outcome{Time: now, Date: civil.Format(time.DateOnly), Service: svc}

	if s.gate == config.GateFestive {
		open, err := s.gateOpen(civil, svc)
		if err != nil {
			return Outcome{}, err
		}
		if !open {
			slog.Info("scheduled build skipped", "date", out.Date, "service", svc, "gate", s.gate)
			out.Skipped = true
			return out, nil
		}
	}

	res, err := s.builder.Build(ctx, civil, svc)
	if err != nil {
		return Outcome{}, err
	}
	out.Result = &res
	return out, nil
}

// gateOpen checks the festive gate against the service's own snapshot, so
// a Friday evening opens it and a Saturday evening does not.
func (s *Scheduler) gateOpen(civil time.Time, svc ir.ServiceType) (bool, error) {
	snap, err := s.builder.Engine().Conditions(civil, svc)
	if err != nil {
		return false, err
	}
	return Festive(snap), nil
}

// Start runs Tick on the cron spec until ctx is done or Stop is called.
// Each outcome, or error, is passed to report when it is non-nil.
func (s *Scheduler) Start(ctx context.Context, spec string, report func(Outcome, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		out, err := s.Tick(ctx)
		if err != nil {
			slog.Error("scheduled build failed", "error", err)
		}
		if report != nil {
			report(out, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.stop = make(chan struct{})
	s.watchDone = make(chan struct{})
	slog.Info("scheduler started", "schedule", spec, "timezone", s.loc.String(), "gate", s.gate)

	go s.watch(ctx, s.stop, s.watchDone)
	return nil
}

// watch stops the schedule when ctx ends. It returns early when Stop is
// called first.
func (s *Scheduler) watch(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	select {
	case <-ctx.Done():
		s.Stop()
	case <-stop:
	}
}

// Stop halts the schedule and waits for a running tick to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	slog.Info("scheduler stopped")
}

// Next returns the next time the schedule fires after the clock's now.
func Next(spec string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched.Next(now), nil
}
