// Package httpapi serves the account operations over JSON/HTTP with
// gorilla/mux.
//
// Sessions travel in an HTTP-only "token" cookie whose expiry matches the
// token; API clients may send the same token as a Bearer header instead.
// Errors are mapped to status codes by middleware.StatusFor.
package httpapi
