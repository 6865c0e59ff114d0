package providers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"ringsync/internal/structures"

	_ "modernc.org/sqlite"
)

// NewDatabaseProvider opens the SQLite database with foreign keys enforced
// on every pooled connection.
func NewDatabaseProvider(conf *structures.Config, logger Logger) (*sql.DB, error) {
	if dir := filepath.Dir(conf.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", SqliteDSN(conf.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Debugf(TypeDatabase, "Connected to %s", conf.Database.Path)
	return db, nil
}

func SqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
