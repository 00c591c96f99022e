// Package migrations embeds the schema migrations for every supported store.
package migrations

import "embed"

// FS holds the migrations under "postgres" and "sqlite".
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
