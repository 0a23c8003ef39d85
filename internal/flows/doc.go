// Package flows contains the orchestration for every Engine account operation.
//
// Each flow function (RunRegister, RunVerifyOTP, RunLogin, etc.) accepts the
// shared Deps struct and returns results without side effects beyond those
// dependencies. The Engine builds Deps once and stays thin.
//
// # Architecture boundaries
//
// Flows coordinate the account store, the email lock, the password hasher,
// the session signer, the notification sender, audit, and metrics. They do
// NOT own any of these resources. Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccount (to avoid import cycles).
//   - Touch an account row for an email without holding that email's lock,
//     except for read-only lookups.
package flows
