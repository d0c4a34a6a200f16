// Package migrations embeds the catalog schema for each supported driver.
package migrations

import "embed"

// FS holds one directory of goose migrations per database driver.
//
//go:embed sqlserver/*.sql postgres/*.sql
var FS embed.FS
