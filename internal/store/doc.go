// Package store provides SQLite-backed durable storage for decomposition
// runs.
//
// A run is content addressed: its ID is the domain-separated SHA-256 of the
// canonical request and aligned rate vectors (see internal/ir). Writing the
// same run twice is a no-op.
//
// Tables:
//   - runs: one row per decomposition, with e0 of both sides and the total gap
//   - contributions: one row per age group of a run
//
// Queries order by seq (insertion order) so listings are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
