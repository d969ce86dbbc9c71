// Package builder runs (date, service) builds through the engine with an
// optional manifest cache and metrics.
//
// The engine behind a Builder can be replaced at any time with Swap; a
// build in flight keeps the engine it started with.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/siddur/internal/engine"
	"github.com/roach88/siddur/internal/ir"
	"github.com/roach88/siddur/internal/metrics"
	"github.com/roach88/siddur/internal/store"
)

// Result is a build plus where it came from.
type Result struct {
	Build ir.Build `json:"build"`

	// ManifestID is the cache row the build was read from or written to.
	// Empty when the builder has no store.
	ManifestID string `json:"manifest_id,omitempty"`

	// Cached is true when the segment list came from the cache.
	Cached bool `json:"cached"`
}

// Builder is safe for concurrent use.
type Builder struct {
	engine  atomic.Pointer[engine.Engine]
	store   *store.Store
	metrics *metrics.Metrics
}

// New creates a Builder. s and m may be nil to run without a cache or
// without metrics.
func New(eng *engine.Engine, s *store.Store, m *metrics.Metrics) *Builder {
	b := &Builder{store: s, metrics: m}
	b.Swap(eng)
	return b
}

// Engine returns the active engine.
func (b *Builder) Engine() *engine.Engine {
	return b.engine.Load()
}

// Swap replaces the active engine and returns the previous one.
func (b *Builder) Swap(eng *engine.Engine) *engine.Engine {
	prev := b.engine.Swap(eng)
	if b.metrics != nil {
		b.metrics.RegistrySegments.Set(float64(eng.Registry().Len()))
	}
	return prev
}

// Build computes the build for civil and svc. With a store, a build whose
// (registry, service, conditions checksum) was seen before is served from
// the cache and only the date fields are recomputed.
func (b *Builder) Build(ctx context.Context, civil time.Time, svc ir.ServiceType) (Result, error) {
	start := time.Now()
	eng := b.engine.Load()

	res, err := b.build(ctx, eng, civil, svc)
	if err != nil {
		b.countError(svc, err)
		return Result{}, err
	}

	if b.metrics != nil {
		result := metrics.ResultMiss
		if res.Cached {
			result = metrics.ResultHit
		}
		b.metrics.Builds.WithLabelValues(string(svc), result).Inc()
		b.metrics.BuildSeconds.WithLabelValues(string(svc)).Observe(time.Since(start).Seconds())
		b.metrics.Segments.WithLabelValues(string(svc)).Observe(float64(len(res.Build.Segments)))
	}

	slog.Info("build complete",
		"date", res.Build.Date,
		"hebrew_date", res.Build.HebrewDate,
		"service", svc,
		"segments", len(res.Build.Segments),
		"cached", res.Cached,
	)

	return res, nil
}

func (b *Builder) build(ctx context.Context, eng *engine.Engine, civil time.Time, svc ir.ServiceType) (Result, error) {
	q, err := eng.Prepare(civil, svc)
	if err != nil {
		return Result{}, err
	}

	if b.store == nil {
		built, err := eng.Complete(q)
		if err != nil {
			return Result{}, err
		}
		return Result{Build: built}, nil
	}

	digest := eng.Registry().Digest()

	m, ok, err := b.store.Get(ctx, store.Key{Registry: digest, Service: svc, Checksum: q.Checksum})
	if err != nil {
		return Result{}, err
	}
	if ok {
		cached := q.Result(m.Segments, m.Content, m.BuildKey)
		run, err := b.store.RecordRun(ctx, m.ID, cached, true)
		if err != nil {
			return Result{}, err
		}
		slog.Debug("manifest cache hit", "manifest", m.ID, "run", run.ID)
		return Result{Build: cached, ManifestID: m.ID, Cached: true}, nil
	}

	built, err := eng.Complete(q)
	if err != nil {
		return Result{}, err
	}

	m, inserted, err := b.store.Put(ctx, digest, built)
	if err != nil {
		return Result{}, err
	}
	if _, err := b.store.RecordRun(ctx, m.ID, built, false); err != nil {
		return Result{}, err
	}
	slog.Debug("manifest cache miss", "manifest", m.ID, "inserted", inserted)

	return Result{Build: built, ManifestID: m.ID}, nil
}

// BuildDay builds every service for one civil day, in daily order.
func (b *Builder) BuildDay(ctx context.Context, civil time.Time) ([]Result, error) {
	results := make([]Result, 0, len(ir.ServiceTypes()))
	for _, svc := range ir.ServiceTypes() {
		res, err := b.Build(ctx, civil, svc)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", civil.Format(time.DateOnly), svc, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (b *Builder) countError(svc ir.ServiceType, err error) {
	kind := "internal"
	switch {
	case errors.Is(err, ir.ErrUnknownServiceType):
		kind = "service"
	case engine.IsConversionError(err):
		kind = "conversion"
	}

	slog.Warn("build failed", "service", svc, "kind", kind, "error", err)

	if b.metrics != nil {
		b.metrics.BuildErrors.WithLabelValues(string(svc), kind).Inc()
	}
}
