// Package identity holds the user record and the storage boundary behind it.
//
// Two Store implementations exist: an in-memory store for dev/tests and a
// Postgres store (pgx) with embedded goose migrations. Handlers depend on the
// Store interface only.
package identity
