package schema

import (
	"context"
	"database/sql"
	"fmt"
	"ringsync/internal/providers"
)

type SchemaManagerInterface interface {
	EnsureTable(ctx context.Context, table Table) error
	DropTable(ctx context.Context, name string) error
	Migrate(ctx context.Context, tables []Table) []string
	DropAll(ctx context.Context, tables []Table) []string
}

type SchemaManager struct {
	db     *sql.DB
	logger providers.Logger
}

func NewSchemaManager(db *sql.DB, logger providers.Logger) SchemaManagerInterface {
	return &SchemaManager{db: db, logger: logger}
}

// EnsureTable creates the table and one index per foreign key column in a
// single transaction. It is a no-op for a table that already exists.
func (sm *SchemaManager) EnsureTable(ctx context.Context, table Table) error {
	if err := table.Validate(); err != nil {
		sm.logger.Errorf(providers.TypeDatabase, "Invalid table definition: %s", err)
		return err
	}

	stmts := append([]string{table.CreateSQL()}, table.IndexSQL()...)
	if err := sm.inTx(ctx, stmts...); err != nil {
		sm.logger.Errorf(providers.TypeDatabase, "An error has occurred while creating table %s: %s", table.Name, err)
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}

	sm.logger.Debugf(providers.TypeDatabase, "Table %s is ready", table.Name)
	return nil
}

// DropTable drops the table. With foreign keys enforced the implicit row
// delete cascades into dependent tables.
func (sm *SchemaManager) DropTable(ctx context.Context, name string) error {
	if err := validIdentifier(name); err != nil {
		sm.logger.Errorf(providers.TypeDatabase, "Refusing to drop table: %s", err)
		return err
	}

	if err := sm.inTx(ctx, "DROP TABLE IF EXISTS "+name+";"); err != nil {
		sm.logger.Errorf(providers.TypeDatabase, "An error has occurred while dropping table %s: %s", name, err)
		return fmt.Errorf("drop table %s: %w", name, err)
	}

	sm.logger.Infof(providers.TypeDatabase, "Table %s dropped", name)
	return nil
}

// Migrate ensures every table in order and returns the names that failed.
func (sm *SchemaManager) Migrate(ctx context.Context, tables []Table) []string {
	var failed []string
	for _, t := range tables {
		if err := sm.EnsureTable(ctx, t); err != nil {
			failed = append(failed, t.Name)
		}
	}
	return failed
}

// DropAll drops the tables children first and returns the names that failed.
func (sm *SchemaManager) DropAll(ctx context.Context, tables []Table) []string {
	var failed []string
	for i := len(tables) - 1; i >= 0; i-- {
		if err := sm.DropTable(ctx, tables[i].Name); err != nil {
			failed = append(failed, tables[i].Name)
		}
	}
	return failed
}

func (sm *SchemaManager) inTx(ctx context.Context, stmts ...string) error {
	tx, err := sm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				sm.logger.Errorf(providers.TypeDatabase, "Rollback failed: %s", rbErr)
			}
			return err
		}
	}

	return tx.Commit()
}
