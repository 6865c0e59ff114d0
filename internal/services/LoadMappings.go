package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/schema"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const contributorsKey = "contributors"

// field maps one column to a value inside a record. An empty path means
// the record key equals the column name.
type field struct {
	column   string
	kind     schema.ColumnType
	path     []string
	required bool
}

func col(column string, kind schema.ColumnType, path ...string) field {
	if len(path) == 0 {
		path = []string{column}
	}
	return field{column: column, kind: kind, path: path}
}

func req(column string, kind schema.ColumnType, path ...string) field {
	f := col(column, kind, path...)
	f.required = true
	return f
}

func intCols(names ...string) []field {
	fields := make([]field, len(names))
	for i, n := range names {
		fields[i] = col(n, schema.Int)
	}
	return fields
}

// dailyMapping loads a day-keyed score category and its contributors.
type dailyMapping struct {
	category     models.Category
	table        string
	fields       []field
	childTable   string
	parentColumn string
	contributors []string
}

var dailyMappings = []dailyMapping{
	{
		category:     models.DailySleep,
		table:        schema.DailySleepTable,
		fields:       []field{req("day", schema.Date), col("score", schema.Int), req("timestamp", schema.Timestamp)},
		childTable:   schema.SleepContributorsTable,
		parentColumn: "sleep_id",
		contributors: []string{"deep_sleep", "efficiency", "latency", "rem_sleep", "restfulness", "timing", "total_sleep"},
	},
	{
		category: models.DailyActivity,
		table:    schema.DailyActivityTable,
		fields: append([]field{req("day", schema.Date)}, intCols("score", "active_calories", "steps",
			"equivalent_walking_distance", "high_activity_time", "medium_activity_time",
			"low_activity_time", "sedentary_time")...),
		childTable:   schema.ActivityContributorsTable,
		parentColumn: "activity_id",
		contributors: []string{"meet_daily_targets", "move_every_hour", "recovery_time", "stay_active",
			"training_frequency", "training_volume"},
	},
	{
		category: models.DailyReadiness,
		table:    schema.DailyReadinessTable,
		fields: []field{
			req("day", schema.Date),
			col("score", schema.Int),
			col("temperature_deviation", schema.Float),
			col("temperature_trend_deviation", schema.Float),
		},
		childTable:   schema.ReadinessContributorsTable,
		parentColumn: "readiness_id",
		contributors: []string{"activity_balance", "body_temperature", "hrv_balance", "previous_day_activity",
			"previous_night", "recovery_index", "resting_heart_rate", "sleep_balance"},
	},
}

var sleepSessionFields = []field{
	req("day", schema.Date),
	req("bedtime_start", schema.Timestamp),
	req("bedtime_end", schema.Timestamp),
	col("total_sleep", schema.Int, "total_sleep_duration"),
	col("deep_sleep", schema.Int, "deep_sleep_duration"),
	col("rem_sleep", schema.Int, "rem_sleep_duration"),
	col("light_sleep", schema.Int, "light_sleep_duration"),
	col("awake_time", schema.Int),
	col("lowest_heart_rate", schema.Int),
}

var sleepTimeFields = []field{
	req("day", schema.Date),
	req("recommendation", schema.Text),
}

var heartRateFields = []field{
	req("bpm", schema.Int),
	req("source", schema.Text),
	req("timestamp", schema.Timestamp),
}

func lookup(r models.Record, path []string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		var obj map[string]any
		switch v := cur.(type) {
		case map[string]any:
			obj = v
		case models.Record:
			obj = v
		default:
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// value converts the record value to the column's driver type; a missing
// or mistyped value becomes NULL.
func (f field) value(r models.Record) any {
	raw, ok := lookup(r, f.path)
	if !ok {
		return nil
	}
	switch f.kind {
	case schema.Int:
		if n, ok := number(raw); ok {
			return int64(math.Round(n))
		}
	case schema.Float:
		if n, ok := number(raw); ok {
			return n
		}
	default:
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return nil
}

func columns(fields []field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.column
	}
	return names
}

// upsertSQL inserts a row or updates the one matching conflict. A confirmed
// row is never replaced by a pending one.
func upsertSQL(table string, conflict, cols []string, returning bool) string {
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" || slices.Contains(conflict, c) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s WHERE %s.pending OR NOT excluded.pending",
		table,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(conflict, ", "),
		strings.Join(sets, ", "),
		table,
	)
	if returning {
		q += " RETURNING id"
	}
	return q
}

func insertSQL(table string, cols []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
}

// optimalBedtime resolves the recommended bedtime window start: midnight
// of day in the day_tz offset plus start_offset seconds.
func optimalBedtime(r models.Record) any {
	day, _ := r[models.FieldDay].(string)
	tz, okTz := lookup(r, []string{"optimal_bedtime", "day_tz"})
	start, okStart := lookup(r, []string{"optimal_bedtime", "start_offset"})
	if !okTz || !okStart {
		return nil
	}
	tzSec, okTz := number(tz)
	startSec, okStart := number(start)
	if !okTz || !okStart {
		return nil
	}
	midnight, err := time.ParseInLocation(models.DateLayout, day, time.FixedZone("", int(tzSec)))
	if err != nil {
		return nil
	}
	return midnight.Add(time.Duration(startSec) * time.Second).Format(datetimeLayout)
}

// loadBatch writes one snapshot through an open transaction. Cache keys it
// sets are tracked so a rollback can evict ids that never got committed.
type loadBatch struct {
	ctx    context.Context
	tx     *sql.Tx
	cache  providers.CacheProviderInterface
	logger providers.Logger
	result *LoadResult
	cached []string
}

func newLoadBatch(ctx context.Context, tx *sql.Tx, cache providers.CacheProviderInterface, logger providers.Logger) *loadBatch {
	return &loadBatch{ctx: ctx, tx: tx, cache: cache, logger: logger, result: newLoadResult()}
}

func (b *loadBatch) load(snap models.Snapshot) error {
	for _, m := range dailyMappings {
		if err := b.loadDaily(m, snap[m.category]); err != nil {
			return fmt.Errorf("%s: %w", m.category, err)
		}
	}
	if err := b.loadSleepSessions(snap[models.SleepSession]); err != nil {
		return fmt.Errorf("%s: %w", models.SleepSession, err)
	}
	if err := b.loadSleepTime(snap[models.SleepTime]); err != nil {
		return fmt.Errorf("%s: %w", models.SleepTime, err)
	}
	if err := b.loadHeartRate(snap[models.HeartRate]); err != nil {
		return fmt.Errorf("%s: %w", models.HeartRate, err)
	}
	return nil
}

func (b *loadBatch) forget() {
	for _, key := range b.cached {
		b.cache.Del(key)
	}
	b.cached = nil
}

func cacheKey(table, day string) string {
	return table + ":" + day
}

func (b *loadBatch) remember(table, day, id string) {
	key := cacheKey(table, day)
	b.cache.Set(key, []byte(id))
	b.cached = append(b.cached, key)
}

// parentID returns the id of table's row for day, or nil when none exists.
func (b *loadBatch) parentID(table, day string) (any, error) {
	if id, ok := b.cache.Get(cacheKey(table, day)); ok {
		return string(id), nil
	}
	var id string
	err := b.tx.QueryRowContext(b.ctx, "SELECT id FROM "+table+" WHERE day = ?", day).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.remember(table, day, id)
	return id, nil
}

// values extracts fields from r. A missing required field marks the record
// malformed; it is counted and logged.
func (b *loadBatch) values(category models.Category, fields []field, r models.Record) ([]any, bool) {
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = f.value(r)
		if f.required && vals[i] == nil {
			b.result.Skipped++
			b.logger.Warnf(providers.TypeDatabase, "Skipping %s record without %s", category, strings.Join(f.path, "."))
			return nil, false
		}
	}
	return vals, true
}

func (b *loadBatch) exec(query string, args ...any) (bool, error) {
	res, err := b.tx.ExecContext(b.ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *loadBatch) loadDaily(m dailyMapping, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols := append(append([]string{"id"}, columns(m.fields)...), "pending")
	upsert := upsertSQL(m.table, []string{"day"}, cols, true)

	for _, r := range records {
		vals, ok := b.values(m.category, m.fields, r)
		if !ok {
			continue
		}
		day := vals[0].(string)
		args := append(append([]any{uuid.NewString()}, vals...), r.Pending())

		var id string
		err := b.tx.QueryRowContext(b.ctx, upsert, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			b.logger.Debugf(providers.TypeDatabase, "Keeping confirmed %s row for %s", m.table, day)
			continue
		}
		if err != nil {
			return err
		}
		b.remember(m.table, day, id)
		b.result.Rows[m.table]++

		if err := b.replaceContributors(m, id, r); err != nil {
			return err
		}
	}
	return nil
}

func (b *loadBatch) replaceContributors(m dailyMapping, parentID string, r models.Record) error {
	if _, err := b.tx.ExecContext(b.ctx, "DELETE FROM "+m.childTable+" WHERE "+m.parentColumn+" = ?", parentID); err != nil {
		return err
	}
	if _, ok := lookup(r, []string{contributorsKey}); !ok {
		return nil
	}

	cols := append([]string{"id", m.parentColumn}, m.contributors...)
	cols = append(cols, "pending")
	args := []any{uuid.NewString(), parentID}
	for _, name := range m.contributors {
		args = append(args, col(name, schema.Int, contributorsKey, name).value(r))
	}
	args = append(args, r.Pending())

	if _, err := b.tx.ExecContext(b.ctx, insertSQL(m.childTable, cols), args...); err != nil {
		return err
	}
	b.result.Rows[m.childTable]++
	return nil
}

func (b *loadBatch) loadSleepSessions(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols := append(append([]string{"id", "daily_sleep_id"}, columns(sleepSessionFields)...), "pending")
	upsert := upsertSQL(schema.SleepSessionsTable, []string{"bedtime_start"}, cols, false)

	for _, r := range records {
		vals, ok := b.values(models.SleepSession, sleepSessionFields, r)
		if !ok {
			continue
		}
		parent, err := b.parentID(schema.DailySleepTable, vals[0].(string))
		if err != nil {
			return err
		}
		args := append(append([]any{uuid.NewString(), parent}, vals...), r.Pending())
		written, err := b.exec(upsert, args...)
		if err != nil {
			return err
		}
		if written {
			b.result.Rows[schema.SleepSessionsTable]++
		}
	}
	return nil
}

func (b *loadBatch) loadSleepTime(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols := append(append([]string{"id"}, columns(sleepTimeFields)...), "optimal_bedtime", "pending")
	upsert := upsertSQL(schema.SleepTimeTable, []string{"day"}, cols, false)

	for _, r := range records {
		vals, ok := b.values(models.SleepTime, sleepTimeFields, r)
		if !ok {
			continue
		}
		args := append(append([]any{uuid.NewString()}, vals...), optimalBedtime(r), r.Pending())
		written, err := b.exec(upsert, args...)
		if err != nil {
			return err
		}
		if written {
			b.result.Rows[schema.SleepTimeTable]++
		}
	}
	return nil
}

func (b *loadBatch) loadHeartRate(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols := append(columns(heartRateFields), "daily_sleep_id", "daily_activity_id", "pending")
	upsert := upsertSQL(schema.HeartRateTable, []string{"timestamp", "source"}, cols, false)

	for _, r := range records {
		vals, ok := b.values(models.HeartRate, heartRateFields, r)
		if !ok {
			continue
		}
		day, ok := r.Day()
		if !ok {
			b.result.Skipped++
			b.logger.Warnf(providers.TypeDatabase, "Skipping %s record with unreadable timestamp", models.HeartRate)
			continue
		}
		sleepID, err := b.parentID(schema.DailySleepTable, day)
		if err != nil {
			return err
		}
		activityID, err := b.parentID(schema.DailyActivityTable, day)
		if err != nil {
			return err
		}
		args := append(vals, sleepID, activityID, r.Pending())
		written, err := b.exec(upsert, args...)
		if err != nil {
			return err
		}
		if written {
			b.result.Rows[schema.HeartRateTable]++
		}
	}
	return nil
}
