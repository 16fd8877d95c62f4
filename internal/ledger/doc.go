// Package ledger provides an optional SQLite record of pipeline runs.
//
// Each run gets one row in runs, keyed by a UUIDv7 run id, carrying the
// config fingerprint, the canonical config JSON and a status. Every pair the
// pipeline processes adds steps: one align step when its codon alignment is
// written, one estimate step when the estimator output is appended.
//
// # Ordering
//
// Steps are stamped with a logical sequence number from a per-run Clock,
// never wall time. Reads order by seq, so two runs over the same inputs
// produce identical step listings.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package ledger
