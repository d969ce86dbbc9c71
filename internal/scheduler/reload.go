package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/siddur/internal/builder"
	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/compiler"
	"github.com/roach88/siddur/internal/engine"
	"github.com/roach88/siddur/internal/metrics"
)

const defaultDebounce = 200 * time.Millisecond

// Reloader rebuilds the engine when registry files change.
type Reloader struct {
	dir      string
	builder  *builder.Builder
	metrics  *metrics.Metrics
	debounce time.Duration

	mu      sync.Mutex
	reloads int
}

// NewReloader watches dir on behalf of b. m may be nil.
func NewReloader(dir string, b *builder.Builder, m *metrics.Metrics) *Reloader {
	return &Reloader{dir: dir, builder: b, metrics: m, debounce: defaultDebounce}
}

// Reload compiles the registry and swaps the engine. On error the active
// engine is kept.
func (r *Reloader) Reload() error {
	reg, err := compiler.LoadRegistry(r.dir)
	if err != nil {
		r.count("error")
		slog.Warn("registry reload failed, keeping active registry", "dir", r.dir, "error", err)
		return fmt.Errorf("reload registry: %w", err)
	}

	prev := r.builder.Swap(engine.New(reg, calendar.Hebrew{}))

	r.mu.Lock()
	r.reloads++
	r.mu.Unlock()
	r.count("ok")

	slog.Info("registry reloaded",
		"dir", r.dir,
		"segments", reg.Len(),
		"digest", reg.Digest(),
		"changed", prev == nil || prev.Registry().Digest() != reg.Digest(),
	)
	return nil
}

// Reloads returns how many reloads succeeded.
func (r *Reloader) Reloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads
}

func (r *Reloader) count(outcome string) {
	if r.metrics != nil {
		r.metrics.RegistryReloads.WithLabelValues(outcome).Inc()
	}
}

// Watch reloads after .cue files in the directory change, coalescing
// bursts of events. It blocks until ctx is done.
func (r *Reloader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	slog.Debug("watching registry", "dir", r.dir)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("registry change detected", "path", event.Name, "op", event.Op.String())
			pending = time.After(r.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("registry watcher error", "error", err)

		case <-pending:
			pending = nil
			_ = r.Reload() // logged and counted in Reload
		}
	}
}

// relevant keeps writes, creates, removes and renames of .cue files.
func relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".cue" {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
