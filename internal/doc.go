// Package internal contains helper utilities that are intentionally private to goAccount,
// mainly secure random generation for verification codes and recovery tokens.
//
// # Sub-packages
//
//   - audit async event dispatch (Dispatcher + Sink implementations)
//   - flows pure-function flow orchestrators for every Engine operation
//   - logging slog setup with trace correlation
//   - metrics lock-free counters
//   - model account record and store contract
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal
