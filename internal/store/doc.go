// Package store provides SQLite-backed durable storage for compiled
// programs and materialized results.
//
// Two tables:
//   - Programs: the compiled-program cache, keyed by the expression's
//     content-addressed hash. Recompiling the same tree under the same
//     policy is a no-op insert.
//   - Results: materialized evaluation results in each type's stored form,
//     NULL folded into the type's sentinel encoding by the sqltype codecs.
//
// Listings order by the time-ordered unit token so creation order survives
// a round trip without a separate sequence column.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
