// Package migrations holds the SQLite schema and the runner that applies it.
package migrations

import "embed"

// FS contains every migration file, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
