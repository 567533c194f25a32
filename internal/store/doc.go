// Package store keeps a SQLite journal of randomiser runs.
//
// Each run records its options, every stage transition and every object
// load or unload the host performed, then its outcome and the final
// research queue. The journal is append-only:
//   - runs: one row per run, keyed by the run ID
//   - stage_events: stage entries, ordered by seq
//   - object_events: host loads and unloads, ordered by seq
//   - run_results: loaded identifiers and research lists at completion
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while a run writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must belong to a run
package store
