package services

import (
	"context"
	"database/sql"
	"errors"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/schema"
	"ringsync/internal/structures"
	"ringsync/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	firstFile  = "2025-02-03_to_2025-02-10.json"
	secondFile = "2025-02-10_to_2025-02-11.json"
	brokenFile = "2025-02-11_to_2025-02-12.json"
)

type loadFixture struct {
	db      *sql.DB
	files   *testutil.MockFileManager
	cache   *testutil.MockCache
	logger  *testutil.MockLogger
	service LoadServiceInterface
}

func newLoadFixture(t *testing.T) *loadFixture {
	db := testutil.OpenTestDB(t)
	logger := &testutil.MockLogger{}
	require.Empty(t, schema.NewSchemaManager(db, logger).Migrate(context.Background(), schema.Tables()))

	files := testutil.NewMockFileManager()
	cache := testutil.NewMockCache()
	metrics := providers.NewMetricsProvider(&structures.Config{})
	return &loadFixture{
		db:      db,
		files:   files,
		cache:   cache,
		logger:  logger,
		service: NewLoadService(db, files, cache, metrics, logger),
	}
}

func (f *loadFixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (f *loadFixture) sleepRow(t *testing.T, day string) (id string, score int, pending bool) {
	t.Helper()
	require.NoError(t, f.db.QueryRow(
		"SELECT id, score, pending FROM daily_sleep WHERE day = ?", day,
	).Scan(&id, &score, &pending))
	return id, score, pending
}

func dailySleep(day string, score float64, pending bool) models.Record {
	return models.Record{
		"id":        "ds-" + day,
		"day":       day,
		"score":     score,
		"timestamp": day + "T00:00:00+00:00",
		"contributors": map[string]any{
			"deep_sleep": 90.0, "efficiency": 85.0, "latency": 70.0, "rem_sleep": 88.0,
			"restfulness": 60.0, "timing": 95.0, "total_sleep": score,
		},
		"pending": pending,
	}
}

func sampleSnapshot(pending bool) models.Snapshot {
	snap := models.NewSnapshot(models.Categories())
	snap[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 80, pending)}
	snap[models.DailyActivity] = []models.Record{{
		"day":   "2025-02-10",
		"score": 70.0,
		"steps": 8123.0,
		"contributors": map[string]any{
			"meet_daily_targets": 60.0, "move_every_hour": 100.0, "recovery_time": 100.0,
			"stay_active": 80.0, "training_frequency": 71.0, "training_volume": 98.0,
		},
		"pending": pending,
	}}
	snap[models.DailyReadiness] = []models.Record{{
		"day":                         "2025-02-10",
		"score":                       75.0,
		"temperature_deviation":       -0.12,
		"temperature_trend_deviation": 0.05,
		"contributors":                map[string]any{"hrv_balance": 77.0, "resting_heart_rate": 90.0},
		"pending":                     pending,
	}}
	snap[models.SleepSession] = []models.Record{{
		"day":                  "2025-02-10",
		"bedtime_start":        "2025-02-09T23:10:00-08:00",
		"bedtime_end":          "2025-02-10T06:40:00-08:00",
		"total_sleep_duration": 25200.0,
		"deep_sleep_duration":  5400.0,
		"lowest_heart_rate":    49.0,
		"pending":              pending,
	}}
	snap[models.SleepTime] = []models.Record{{
		"day": "2025-02-10",
		"optimal_bedtime": map[string]any{
			"day_tz": -28800.0, "start_offset": -3600.0, "end_offset": 0.0,
		},
		"recommendation": "follow_optimal_bedtime",
		"pending":        pending,
	}}
	snap[models.HeartRate] = []models.Record{
		{"bpm": 61.0, "source": "awake", "timestamp": "2025-02-10T08:00:00+00:00", "pending": pending},
		{"bpm": 55.0, "source": "rest", "timestamp": "2025-02-11T03:00:00+00:00", "pending": pending},
	}
	return snap
}

func TestLoadService_LoadFilePopulatesTables(t *testing.T) {
	f := newLoadFixture(t)
	f.files.Snapshots[firstFile] = sampleSnapshot(false)

	res, err := f.service.LoadFile(context.Background(), firstFile)
	require.NoError(t, err)

	expected := map[string]int{
		schema.DailySleepTable:            1,
		schema.SleepContributorsTable:     1,
		schema.SleepSessionsTable:         1,
		schema.SleepTimeTable:             1,
		schema.DailyActivityTable:         1,
		schema.ActivityContributorsTable:  1,
		schema.DailyReadinessTable:        1,
		schema.ReadinessContributorsTable: 1,
		schema.HeartRateTable:             2,
	}
	assert.Equal(t, expected, res.Rows)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 0, res.Skipped)
	for table, n := range expected {
		assert.Equal(t, n, f.count(t, table), table)
	}
}

func TestLoadService_LinksChildRows(t *testing.T) {
	f := newLoadFixture(t)
	f.files.Snapshots[firstFile] = sampleSnapshot(false)
	_, err := f.service.LoadFile(context.Background(), firstFile)
	require.NoError(t, err)

	sleepID, _, _ := f.sleepRow(t, "2025-02-10")
	var activityID string
	require.NoError(t, f.db.QueryRow("SELECT id FROM daily_activity WHERE day = '2025-02-10'").Scan(&activityID))

	var sessionParent string
	require.NoError(t, f.db.QueryRow("SELECT daily_sleep_id FROM sleep_sessions").Scan(&sessionParent))
	assert.Equal(t, sleepID, sessionParent)

	var hrSleep, hrActivity sql.NullString
	require.NoError(t, f.db.QueryRow(
		"SELECT daily_sleep_id, daily_activity_id FROM heartrate WHERE source = 'awake'",
	).Scan(&hrSleep, &hrActivity))
	assert.Equal(t, sleepID, hrSleep.String)
	assert.Equal(t, activityID, hrActivity.String)

	require.NoError(t, f.db.QueryRow(
		"SELECT daily_sleep_id, daily_activity_id FROM heartrate WHERE source = 'rest'",
	).Scan(&hrSleep, &hrActivity))
	assert.False(t, hrSleep.Valid)
	assert.False(t, hrActivity.Valid)

	var bedtime sql.NullString
	require.NoError(t, f.db.QueryRow("SELECT optimal_bedtime FROM sleep_time_recommendations").Scan(&bedtime))
	assert.Equal(t, "2025-02-09T23:00:00-08:00", bedtime.String)

	cached, ok := f.cache.Get("daily_sleep:2025-02-10")
	require.True(t, ok)
	assert.Equal(t, sleepID, string(cached))
}

func TestLoadService_LoadIsIdempotent(t *testing.T) {
	f := newLoadFixture(t)
	f.files.Snapshots[firstFile] = sampleSnapshot(false)
	ctx := context.Background()

	_, err := f.service.LoadFile(ctx, firstFile)
	require.NoError(t, err)
	firstID, _, _ := f.sleepRow(t, "2025-02-10")

	_, err = f.service.LoadFile(ctx, firstFile)
	require.NoError(t, err)
	secondID, _, _ := f.sleepRow(t, "2025-02-10")

	assert.Equal(t, firstID, secondID)
	for _, table := range schema.Tables() {
		expected := 1
		if table.Name == schema.HeartRateTable {
			expected = 2
		}
		assert.Equal(t, expected, f.count(t, table.Name), table.Name)
	}
}

func TestLoadService_ConfirmedRecordReplacesPending(t *testing.T) {
	f := newLoadFixture(t)
	ctx := context.Background()

	early := models.NewSnapshot(models.Categories())
	early[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 62, true)}
	late := models.NewSnapshot(models.Categories())
	late[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 84, false)}
	f.files.Snapshots[firstFile] = early
	f.files.Snapshots[secondFile] = late

	res, err := f.service.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)

	_, score, pending := f.sleepRow(t, "2025-02-10")
	assert.Equal(t, 84, score)
	assert.False(t, pending)

	var total int
	require.NoError(t, f.db.QueryRow("SELECT total_sleep FROM sleep_contributors").Scan(&total))
	assert.Equal(t, 84, total)
	assert.Equal(t, 1, f.count(t, schema.SleepContributorsTable))
}

func TestLoadService_PendingRecordKeepsConfirmed(t *testing.T) {
	f := newLoadFixture(t)
	ctx := context.Background()

	confirmed := models.NewSnapshot(models.Categories())
	confirmed[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 84, false)}
	stale := models.NewSnapshot(models.Categories())
	stale[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 50, true)}
	f.files.Snapshots[firstFile] = confirmed
	f.files.Snapshots[secondFile] = stale

	_, err := f.service.LoadFile(ctx, firstFile)
	require.NoError(t, err)
	res, err := f.service.LoadFile(ctx, secondFile)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Rows[schema.DailySleepTable])
	_, score, pending := f.sleepRow(t, "2025-02-10")
	assert.Equal(t, 84, score)
	assert.False(t, pending)
	assert.Equal(t, 1, f.logger.Count("debug", "Keeping confirmed daily_sleep"))
}

func TestLoadService_SkipsMalformedRecords(t *testing.T) {
	f := newLoadFixture(t)
	snap := sampleSnapshot(false)
	snap[models.DailySleep] = append(snap[models.DailySleep], models.Record{"score": 50.0})
	snap[models.HeartRate] = append(snap[models.HeartRate], models.Record{"source": "awake", "timestamp": "2025-02-10T09:00:00+00:00"})
	f.files.Snapshots[firstFile] = snap

	res, err := f.service.LoadFile(context.Background(), firstFile)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, f.count(t, schema.DailySleepTable))
	assert.Equal(t, 2, f.count(t, schema.HeartRateTable))
	assert.Equal(t, 1, f.logger.Count("warn", "daily_sleep record without day"))
	assert.Equal(t, 1, f.logger.Count("warn", "heartrate record without bpm"))
}

func TestLoadService_DatabaseErrorRollsBackFile(t *testing.T) {
	f := newLoadFixture(t)
	f.files.Snapshots[firstFile] = sampleSnapshot(false)
	_, err := f.db.Exec("DROP TABLE heartrate")
	require.NoError(t, err)

	_, err = f.service.LoadFile(context.Background(), firstFile)
	require.Error(t, err)

	assert.Equal(t, 0, f.count(t, schema.DailySleepTable))
	assert.Equal(t, 0, f.count(t, schema.SleepSessionsTable))
	assert.Empty(t, f.cache.Data)
	assert.Equal(t, 1, f.logger.Count("error", "transaction rolled back"))
}

func TestLoadService_LoadAllContinuesPastFailures(t *testing.T) {
	f := newLoadFixture(t)
	first := models.NewSnapshot(models.Categories())
	first[models.DailySleep] = []models.Record{dailySleep("2025-02-09", 70, false)}
	second := models.NewSnapshot(models.Categories())
	second[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 80, false)}
	f.files.Snapshots[firstFile] = first
	f.files.Snapshots[secondFile] = second
	f.files.LoadErrs[brokenFile] = errors.New("unexpected end of JSON input")

	res, err := f.service.LoadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []string{brokenFile}, res.Failed)
	assert.Equal(t, 2, res.Rows[schema.DailySleepTable])
	assert.Equal(t, 2, f.count(t, schema.DailySleepTable))
	assert.Equal(t, 1, f.logger.Count("error", "Failed to read snapshot "+brokenFile))
}

func TestLoadService_IgnoresUnmappedCategories(t *testing.T) {
	f := newLoadFixture(t)
	snap := models.NewSnapshot(models.Categories())
	snap[models.Workout] = []models.Record{{"day": "2025-02-10", "activity": "walking"}}
	f.files.Snapshots[firstFile] = snap

	res, err := f.service.LoadFile(context.Background(), firstFile)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalRows())
	assert.Equal(t, 0, res.Skipped)
}

func TestLoadMappings_MatchSchema(t *testing.T) {
	tables := map[string]schema.Table{}
	for _, table := range schema.Tables() {
		tables[table.Name] = table
	}

	check := func(table string, fields []field) {
		for _, fl := range fields {
			c, ok := tables[table].Column(fl.column)
			if assert.True(t, ok, "%s.%s", table, fl.column) {
				assert.Equal(t, c.NotNull, fl.required, "%s.%s", table, fl.column)
			}
		}
	}
	for _, m := range dailyMappings {
		check(m.table, m.fields)
		for _, name := range m.contributors {
			_, ok := tables[m.childTable].Column(name)
			assert.True(t, ok, "%s.%s", m.childTable, name)
		}
		_, ok := tables[m.childTable].Column(m.parentColumn)
		assert.True(t, ok)
	}
	check(schema.SleepSessionsTable, sleepSessionFields)
	check(schema.SleepTimeTable, sleepTimeFields)
	check(schema.HeartRateTable, heartRateFields)
}

func TestOptimalBedtime(t *testing.T) {
	tests := []struct {
		name     string
		record   models.Record
		expected any
	}{
		{"computed", models.Record{"day": "2025-02-10", "optimal_bedtime": map[string]any{"day_tz": -28800.0, "start_offset": -3600.0}}, "2025-02-09T23:00:00-08:00"},
		{"utc", models.Record{"day": "2025-02-10", "optimal_bedtime": map[string]any{"day_tz": 0.0, "start_offset": 1800.0}}, "2025-02-10T00:30:00+00:00"},
		{"null window", models.Record{"day": "2025-02-10", "optimal_bedtime": nil}, nil},
		{"missing offset", models.Record{"day": "2025-02-10", "optimal_bedtime": map[string]any{"day_tz": 0.0}}, nil},
		{"bad day", models.Record{"day": "10/02/2025", "optimal_bedtime": map[string]any{"day_tz": 0.0, "start_offset": 0.0}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, optimalBedtime(tt.record))
		})
	}
}

func TestLoadService_LoadFilesKeepsGivenOrder(t *testing.T) {
	f := newLoadFixture(t)
	confirmed := models.NewSnapshot(models.Categories())
	confirmed[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 84, false)}
	pending := models.NewSnapshot(models.Categories())
	pending[models.DailySleep] = []models.Record{dailySleep("2025-02-10", 40, true)}
	f.files.Snapshots[firstFile] = pending
	f.files.Snapshots[secondFile] = confirmed

	res, err := f.service.LoadFiles(context.Background(), []string{secondFile, firstFile, "missing.json"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []string{"missing.json"}, res.Failed)
	_, score, isPending := f.sleepRow(t, "2025-02-10")
	assert.Equal(t, 84, score)
	assert.False(t, isPending)
}

func TestLoadService_LoadFilesStopsOnCancel(t *testing.T) {
	f := newLoadFixture(t)
	f.files.Snapshots[firstFile] = sampleSnapshot(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.service.LoadFiles(ctx, []string{firstFile})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Files)
	assert.Equal(t, 0, f.count(t, schema.DailySleepTable))
}
