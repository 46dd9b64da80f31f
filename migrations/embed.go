package migrations

import "embed"

// Files holds forward-only migrations, one directory per SQL dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
