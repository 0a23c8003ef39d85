// Package model holds the account record and the persistence contract shared by
// the engine, the flow orchestrators, and the store adapters.
//
// # What this package must NOT do
//
//   - Import goAccount or any sibling package.
//   - Perform I/O.
package model
