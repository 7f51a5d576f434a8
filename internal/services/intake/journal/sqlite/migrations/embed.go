package migrations

import "embed"

// FS contains embedded SQLite migrations for the save journal.
//
//go:embed *.sql
var FS embed.FS
