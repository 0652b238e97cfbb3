// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL, PostgreSQL or SQLite connections from the
// application's configuration. SQLite is mainly used for local runs and tests.
//
// # Schema Inspection
//
// GetTableColumns lists the live columns of a table for each supported dialect.
// The integrity feature compares them with the columns implied by the classroom models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "submissions")
package database
