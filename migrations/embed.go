// Package migrations embeds goose SQL migrations for the postgres driver.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
