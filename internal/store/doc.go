// Package store provides SQLite-backed run history.
//
// Each finished run is appended as one row holding its outcome: status,
// step count, captured output and error. Tape contents are never stored and
// a record cannot be resumed.
//
// # Ordering
//
// Rows are ordered by seq, an autoincrement logical clock assigned on insert.
// Wall time is not recorded.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
