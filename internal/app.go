package internal

import (
	"context"
	"database/sql"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/schema"
	"ringsync/internal/services"
	"ringsync/internal/snapshot/interfaces"
	"ringsync/internal/structures"
	"time"
)

// App wires the batch operations exposed by the command line. Each command
// runs one operation and then calls Close.
type App struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	db      *sql.DB
	files   interfaces.FileManagerInterface
	tracker interfaces.RangeTrackerInterface
	fetcher services.FetchServiceInterface
	loader  services.LoadServiceInterface
	schema  schema.SchemaManagerInterface
}

// NewApp takes the fetch service ahead of the database so that a missing
// token fails setup before the database file is created.
func NewApp(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, fetcher services.FetchServiceInterface, files interfaces.FileManagerInterface, tracker interfaces.RangeTrackerInterface, db *sql.DB, loader services.LoadServiceInterface, schemaManager schema.SchemaManagerInterface) *App {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	return &App{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		db:      db,
		files:   files,
		tracker: tracker,
		fetcher: fetcher,
		loader:  loader,
		schema:  schemaManager,
	}
}

// Fetch pulls every category for the next window and writes one snapshot.
// Category failures are reported in the result, not as an error.
func (a *App) Fetch(ctx context.Context, now time.Time) (*services.FetchResult, error) {
	res, err := a.fetcher.Run(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(res.Failed) > 0 {
		a.logger.Warnf(providers.TypeFetch, "%d of %d categories failed: %v", len(res.Failed), len(models.Categories()), res.Failed)
	}
	return res, nil
}

func (a *App) NextRange(now time.Time) (models.DateRange, error) {
	return a.tracker.NextRange(now)
}

// Migrate creates any missing table and returns the names that failed.
func (a *App) Migrate(ctx context.Context) []string {
	failed := a.schema.Migrate(ctx, schema.Tables())
	if len(failed) > 0 {
		a.logger.Errorf(providers.TypeDatabase, "Schema migration failed for %v", failed)
	} else {
		a.logger.Infof(providers.TypeDatabase, "Schema is up to date")
	}
	return failed
}

func (a *App) Drop(ctx context.Context) []string {
	failed := a.schema.DropAll(ctx, schema.Tables())
	if len(failed) > 0 {
		a.logger.Errorf(providers.TypeDatabase, "Failed to drop %v", failed)
	}
	return failed
}

// Load ensures the schema and then loads the named snapshots, or every
// snapshot in the directory when names is empty.
func (a *App) Load(ctx context.Context, names []string) (*services.LoadResult, error) {
	if failed := a.Migrate(ctx); len(failed) > 0 {
		a.logger.Warnf(providers.TypeDatabase, "Loading with incomplete schema, rows for %v will fail", failed)
	}
	if len(names) == 0 {
		return a.loader.LoadAll(ctx)
	}
	return a.loader.LoadFiles(ctx, names)
}

// Close writes the metrics textfile and releases the compressor, the
// database and the log file.
func (a *App) Close() {
	if err := a.metrics.Flush(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to write metrics: %s", err)
	}
	a.files.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Errorf(providers.TypeDatabase, "Failed to close database: %s", err)
	}
	a.logger.Infof(providers.TypeApp, "%s stopped", a.conf.AppName)
	a.logger.Close()
}
