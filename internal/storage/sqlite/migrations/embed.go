package migrations

import "embed"

// FS contains embedded SQLite migrations for coupon storage.
//
//go:embed *.sql
var FS embed.FS
