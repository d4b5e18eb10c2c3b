package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the compiled-in migration files. MigrationsPath is
// the directory to pass alongside it.
func MigrationsFS() fs.FS {
	return migrationsFS
}

// MigrationsPath is the root of the embedded migration files.
const MigrationsPath = "migrations"
