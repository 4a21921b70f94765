// Package migrations embeds the SQL schema migrations into the binary.
package migrations

import "embed"

// FS holds the migration files at its root, named
// YYYYMMDD_HHMMSS_name.up.sql and YYYYMMDD_HHMMSS_name.down.sql.
//
//go:embed *.sql
var FS embed.FS
