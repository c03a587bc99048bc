package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open accepts "sqlite3://<path>" and "mysql://<dsn>" and applies the given
// schemas. MySQL DSNs should carry parseTime=true.
func Open(dsn string, schemas ...string) (*sql.DB, error) {
	driver, source, ok := strings.Cut(dsn, "://")
	if !ok || source == "" {
		return nil, fmt.Errorf("invalid DSN %q: want sqlite3://... or mysql://...", dsn)
	}
	switch driver {
	case "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to %s: %w", driver, err)
	}
	if err := exec(db, schemas); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func exec(db *sql.DB, schemas []string) error {
	for i, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema %d: %w", i, err)
		}
	}
	return nil
}
