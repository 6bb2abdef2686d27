// Package sql embeds the schema migrations.
package sql

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
