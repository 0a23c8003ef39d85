// Package password implements credential hashing for goAccount.
//
// Two hashers are provided. [Argon2] is the default and encodes hashes in PHC
// string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] wraps golang.org/x/crypto/bcrypt for deployments that already hold
// bcrypt digests. [Multi] verifies against whichever algorithm produced a stored
// digest while hashing new passwords with a single preferred algorithm.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length
// bounds, confirmation) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goAccount package.
//   - Log plaintext passwords.
package password
