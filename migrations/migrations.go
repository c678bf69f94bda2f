// Package migrations embeds the SQL schema migrations for the report archive.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS

// Dir is the directory inside PostgresMigrations passed to goose.
const Dir = "postgres"
