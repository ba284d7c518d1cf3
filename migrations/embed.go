// Package migrations embeds the SQL schema so binaries and tests can migrate
// without locating the directory on disk.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
