// Package middleware exposes HTTP middleware adapters for session
// authentication and role authorization built on top of goAccount.Engine.
//
// # Guards
//
//   - [Guard] reads the session token from the "token" cookie or a Bearer
//     Authorization header, calls Engine.Authenticate, and injects the
//     account into the request context.
//   - [RequireRoles] rejects accounts whose role is not allowed. It must run
//     after Guard.
//
// Rejections are written as JSON with the status code mapped from the
// error kind by [StatusFor].
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
