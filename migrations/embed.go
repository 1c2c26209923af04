// Package migrations ships the goose SQL migrations for the task_results
// schema, embedded so binaries can migrate without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
