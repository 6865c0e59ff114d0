package testutil

import (
	"database/sql"
	"path/filepath"
	"ringsync/internal/providers"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// OpenTestDB opens a throwaway SQLite database with foreign keys enabled.
// A file in t.TempDir is used so every pooled connection sees the same data.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", providers.SqliteDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
