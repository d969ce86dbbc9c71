// Package store provides SQLite-backed storage for build manifests.
//
// A manifest is the output of one (registry, service, conditions) triple:
// the selected segment keys and their expansion. Any civil date whose
// snapshot has the same checksum reuses the manifest, so a year of builds
// collapses to a few dozen rows.
//
// The store holds two tables:
//   - manifests: one row per (registry digest, service, checksum)
//   - runs: one row per build request, hit or miss
//
// # Invariants
//
//   - A manifest is written once and never updated except for its hit count
//   - All ordering uses seq INTEGER, NEVER timestamps
//   - Conditions and segment lists are stored as RFC 8785 canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: runs cascade with their manifest
package store
