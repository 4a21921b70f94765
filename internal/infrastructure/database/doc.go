// Package database provides the SQLite connection used for the hotplug
// event journal.
//
// It manages:
//   - The connection, with WAL mode and a busy timeout
//   - Versioned schema migrations read from an fs.FS
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT,
// and every .up.sql file has a matching .down.sql.
package database
