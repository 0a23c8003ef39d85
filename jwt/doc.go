// Package jwt issues and verifies the signed session tokens handed to clients
// after verification, login, or password reset. HS256 with a shared secret is
// the default; Ed25519 key pairs with optional kid rotation are supported.
package jwt
