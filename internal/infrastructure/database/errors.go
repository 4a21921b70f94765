package database

import "errors"

// Domain errors for the database package.
var (
	// ErrNoPath is returned by Open when no file path is configured.
	ErrNoPath = errors.New("database: no path configured")

	// ErrMigrationNotFound is returned by MigrateDown when the latest
	// applied version has no file in the migration set.
	ErrMigrationNotFound = errors.New("database: migration not found")

	// ErrNoDownMigration is returned by MigrateDown when the latest
	// migration cannot be rolled back.
	ErrNoDownMigration = errors.New("database: migration has no down script")
)
