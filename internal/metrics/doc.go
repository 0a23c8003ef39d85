// Package metrics provides lock-free counters for goAccount observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The write path does not allocate.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export to
// Prometheus lives in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goAccount or any sibling package.
//   - Expose global metric registries.
package metrics
