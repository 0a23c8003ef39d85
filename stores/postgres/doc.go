// Package postgres stores accounts and loans in PostgreSQL through pgx.
//
// The schema ships embedded; apply it with Migrator before serving. One
// verified account per email is enforced by a partial unique index, so a
// racing promotion fails with model.ErrDuplicate instead of creating a
// second identity.
package postgres
