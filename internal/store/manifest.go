package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/siddur/internal/ir"
)

// Key identifies a manifest. Two builds share a manifest when they ran
// against the same registry, for the same service, on snapshots with the
// same checksum.
type Key struct {
	Registry string
	Service  ir.ServiceType
	Checksum string
}

// KeyFor returns the manifest key of a build.
func KeyFor(registryDigest string, b ir.Build) Key {
	return Key{Registry: registryDigest, Service: b.Service, Checksum: b.Checksum}
}

// Manifest is a stored build result, independent of the civil date that
// first produced it.
type Manifest struct {
	ID            string
	Seq           int64
	Key           Key
	BuildKey      string
	Conditions    ir.DateConditions
	Segments      []string
	Content       []string
	FirstDate     string
	EngineVersion string
	Hits          int64
}

// Run records one build request.
type Run struct {
	ID         string         `json:"id"`
	Seq        int64          `json:"seq"`
	ManifestID string         `json:"manifest_id"`
	Date       string         `json:"date"`
	HebrewDate string         `json:"hebrew_date"`
	Service    ir.ServiceType `json:"service"`
	Cached     bool           `json:"cached"`
}

// Stats summarizes the cache.
type Stats struct {
	Manifests  int64 `json:"manifests"`
	Registries int64 `json:"registries"`
	Runs       int64 `json:"runs"`
	Hits       int64 `json:"hits"`
}

// Get returns the manifest stored under key.
// The bool is false, with a nil error, when there is none.
func (s *Store) Get(ctx context.Context, key Key) (Manifest, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, registry_digest, service, checksum, build_key,
		       conditions, segments, content, first_date, engine_version, hits
		FROM manifests
		WHERE registry_digest = ? AND service = ? AND checksum = ?
	`, key.Registry, string(key.Service), key.Checksum)

	m, err := scanManifest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, fmt.Errorf("get manifest: %w", err)
	}
	return m, true, nil
}

// Put stores the manifest of a build under KeyFor(registryDigest, b).
// Uses ON CONFLICT DO NOTHING for idempotency: if a manifest already
// exists under the key it is returned unchanged and inserted is false.
func (s *Store) Put(ctx context.Context, registryDigest string, b ir.Build) (m Manifest, inserted bool, err error) {
	conditions, err := marshalConditions(b.Conditions)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: %w", err)
	}
	segments, err := marshalKeys(b.Segments)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: %w", err)
	}
	content, err := marshalKeys(b.Content)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: %w", err)
	}

	key := KeyFor(registryDigest, b)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO manifests
		(id, registry_digest, service, checksum, build_key, conditions, segments, content, first_date, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(registry_digest, service, checksum) DO NOTHING
	`,
		s.newID(),
		key.Registry,
		string(key.Service),
		key.Checksum,
		b.Key,
		conditions,
		segments,
		content,
		b.Date,
		ir.EngineVersion,
	)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: rows affected: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT seq, id, registry_digest, service, checksum, build_key,
		       conditions, segments, content, first_date, engine_version, hits
		FROM manifests
		WHERE registry_digest = ? AND service = ? AND checksum = ?
	`, key.Registry, string(key.Service), key.Checksum)

	m, err = scanManifest(row)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Manifest{}, false, fmt.Errorf("put manifest: commit: %w", err)
	}

	return m, affected > 0, nil
}

// RecordRun logs a build request against a manifest. A cached run also
// increments the manifest's hit count.
func (s *Store) RecordRun(ctx context.Context, manifestID string, b ir.Build, cached bool) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run := Run{
		ID:         s.newID(),
		ManifestID: manifestID,
		Date:       b.Date,
		HebrewDate: b.HebrewDate,
		Service:    b.Service,
		Cached:     cached,
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, manifest_id, civil_date, hebrew_date, service, cached)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.ManifestID, run.Date, run.HebrewDate, string(run.Service), cached)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if run.Seq, err = result.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("record run: last insert id: %w", err)
	}

	if cached {
		if _, err := tx.ExecContext(ctx, `UPDATE manifests SET hits = hits + 1 WHERE id = ?`, manifestID); err != nil {
			return Run{}, fmt.Errorf("record run: count hit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// Manifests returns every manifest ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) Manifests(ctx context.Context) ([]Manifest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, registry_digest, service, checksum, build_key,
		       conditions, segments, content, first_date, engine_version, hits
		FROM manifests
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query manifests: %w", err)
	}
	defer rows.Close()

	manifests := []Manifest{}
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifests: %w", err)
	}
	return manifests, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, manifest_id, civil_date, hebrew_date, service, cached
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var service string
		if err := rows.Scan(&r.Seq, &r.ID, &r.ManifestID, &r.Date, &r.HebrewDate, &service, &r.Cached); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Service = ir.ServiceType(service)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Stats counts manifests, distinct registries, runs and cache hits.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM manifests),
			(SELECT COUNT(DISTINCT registry_digest) FROM manifests),
			(SELECT COUNT(*) FROM runs),
			(SELECT COALESCE(SUM(hits), 0) FROM manifests)
	`).Scan(&st.Manifests, &st.Registries, &st.Runs, &st.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Clear deletes every manifest and, by cascade, every run.
// Returns the number of manifests removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM manifests`)
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear: rows affected: %w", err)
	}
	return n, nil
}

// Prune deletes manifests built against any registry other than keep.
// Returns the number of manifests removed.
func (s *Store) Prune(ctx context.Context, keep string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM manifests WHERE registry_digest <> ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanManifest(row scanner) (Manifest, error) {
	var (
		m                             Manifest
		service                       string
		conditions, segments, content string
	)
	err := row.Scan(
		&m.Seq, &m.ID, &m.Key.Registry, &service, &m.Key.Checksum, &m.BuildKey,
		&conditions, &segments, &content, &m.FirstDate, &m.EngineVersion, &m.Hits,
	)
	if err != nil {
		return Manifest{}, err
	}
	m.Key.Service = ir.ServiceType(service)

	if m.Conditions, err = unmarshalConditions(conditions); err != nil {
		return Manifest{}, err
	}
	if m.Segments, err = unmarshalKeys(segments); err != nil {
		return Manifest{}, err
	}
	if m.Content, err = unmarshalKeys(content); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
