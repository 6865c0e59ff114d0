package services

import (
	"context"
	"database/sql"
	"fmt"
	"ringsync/internal/providers"
	"ringsync/internal/snapshot/interfaces"
	"sort"
)

type LoadServiceInterface interface {
	LoadFile(ctx context.Context, name string) (*LoadResult, error)
	LoadFiles(ctx context.Context, names []string) (*LoadResult, error)
	LoadAll(ctx context.Context) (*LoadResult, error)
}

// LoadResult counts rows written per table. Failed lists snapshot files
// whose transaction was rolled back.
type LoadResult struct {
	Files   int
	Rows    map[string]int
	Skipped int
	Failed  []string
}

func newLoadResult() *LoadResult {
	return &LoadResult{Rows: make(map[string]int)}
}

func (r *LoadResult) TotalRows() int {
	total := 0
	for _, n := range r.Rows {
		total += n
	}
	return total
}

func (r *LoadResult) Tables() []string {
	tables := make([]string, 0, len(r.Rows))
	for table := range r.Rows {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

func (r *LoadResult) merge(other *LoadResult) {
	r.Files += other.Files
	r.Skipped += other.Skipped
	r.Failed = append(r.Failed, other.Failed...)
	for table, n := range other.Rows {
		r.Rows[table] += n
	}
}

type LoadService struct {
	db      *sql.DB
	files   interfaces.FileManagerInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func NewLoadService(db *sql.DB, files interfaces.FileManagerInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) LoadServiceInterface {
	return &LoadService{
		db:      db,
		files:   files,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// LoadAll loads every snapshot in watermark order.
func (ls *LoadService) LoadAll(ctx context.Context) (*LoadResult, error) {
	names, err := ls.files.List()
	if err != nil {
		ls.logger.Errorf(providers.TypeSnapshot, "Failed to list snapshots: %s", err)
		return nil, err
	}
	return ls.LoadFiles(ctx, names)
}

// LoadFiles loads the named snapshots in order. A file that fails is
// recorded in Failed and does not stop the remaining files; only a
// cancelled context ends the run early.
func (ls *LoadService) LoadFiles(ctx context.Context, names []string) (*LoadResult, error) {
	total := newLoadResult()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := ls.LoadFile(ctx, name)
		if err != nil {
			total.Failed = append(total.Failed, name)
			continue
		}
		total.merge(res)
	}
	return total, nil
}

// LoadFile upserts one snapshot inside a single transaction.
func (ls *LoadService) LoadFile(ctx context.Context, name string) (*LoadResult, error) {
	snap, err := ls.files.Load(name)
	if err != nil {
		ls.logger.Errorf(providers.TypeSnapshot, "Failed to read snapshot %s: %s", name, err)
		return nil, err
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		ls.logger.Errorf(providers.TypeDatabase, "Failed to begin transaction for %s: %s", name, err)
		return nil, err
	}

	batch := newLoadBatch(ctx, tx, ls.cache, ls.logger)
	if err := batch.load(snap); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			ls.logger.Errorf(providers.TypeDatabase, "Rollback failed: %s", rbErr)
		}
		batch.forget()
		ls.logger.Errorf(providers.TypeDatabase, "Failed to load %s, transaction rolled back: %s", name, err)
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		batch.forget()
		ls.logger.Errorf(providers.TypeDatabase, "Failed to commit %s: %s", name, err)
		return nil, fmt.Errorf("commit %s: %w", name, err)
	}

	res := batch.result
	res.Files = 1
	for table, n := range res.Rows {
		ls.metrics.AddRowsLoaded(table, n)
	}
	ls.logger.Infof(providers.TypeDatabase, "Loaded %s: %d rows, %d records skipped", name, res.TotalRows(), res.Skipped)
	return res, nil
}
