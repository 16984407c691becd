package storage

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Open returns the KV for driver along with a func releasing its resources.
// Database drivers are migrated on open.
func Open(driver, path, dsn string) (KV, func() error, error) {
	noop := func() error { return nil }
	switch driver {
	case "memory":
		return NewMemoryKV(), noop, nil
	case "file":
		return NewFileKV(path), noop, nil
	case "postgres", "sqlite3":
		db, err := OpenDB(driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewGormKV(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}

// OpenDB opens a gorm connection for a database driver
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect %s: %w", driver, err)
	}
	return db, nil
}
