// Package pg bootstraps the PostgreSQL layer for taskq binaries: a pgx/v5
// connection pool configured from environment variables, goose schema
// migrations from an embedded filesystem, and a readiness probe.
//
// The API surface is deliberately small; callers keep direct access to the
// returned *pgxpool.Pool and can extend behaviour freely.
package pg
