package migrations

import "embed"

// FS contains embedded SQLite migrations for subscription storage.
//
//go:embed *.sql
var FS embed.FS
