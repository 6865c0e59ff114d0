package schema

const (
	DailySleepTable            = "daily_sleep"
	SleepContributorsTable     = "sleep_contributors"
	SleepSessionsTable         = "sleep_sessions"
	SleepTimeTable             = "sleep_time_recommendations"
	DailyActivityTable         = "daily_activity"
	ActivityContributorsTable  = "activity_contributors"
	DailyReadinessTable        = "daily_readiness"
	ReadinessContributorsTable = "readiness_contributors"
	HeartRateTable             = "heartrate"
	pendingColumn              = "pending"
	idColumn                   = "id"
)

func id() Column {
	return Column{Name: idColumn, Type: UUID, PrimaryKey: true}
}

func pending() Column {
	return Column{Name: pendingColumn, Type: Bool, NotNull: true, Default: "0"}
}

func day() Column {
	return Column{Name: "day", Type: Date, NotNull: true, Unique: true}
}

func ints(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: Int}
	}
	return cols
}

func parentRef(column, table string, onDelete OnDelete) ForeignKey {
	return ForeignKey{Column: column, RefTable: table, RefColumn: idColumn, OnDelete: onDelete}
}

// contributors builds a one-to-one child table holding a daily score's
// contributor breakdown.
func contributors(name, parentColumn, parentTable string, fields ...string) Table {
	cols := []Column{id(), {Name: parentColumn, Type: UUID, NotNull: true, Unique: true}}
	cols = append(cols, ints(fields...)...)
	cols = append(cols, pending())
	return Table{
		Name:        name,
		Columns:     cols,
		ForeignKeys: []ForeignKey{parentRef(parentColumn, parentTable, Cascade)},
	}
}

func join(groups ...[]Column) []Column {
	var out []Column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Tables returns the schema in creation order; parents precede children.
func Tables() []Table {
	return []Table{
		{
			Name: DailySleepTable,
			Columns: join(
				[]Column{id(), day()},
				ints("score"),
				[]Column{{Name: "timestamp", Type: Timestamp, NotNull: true}, pending()},
			),
		},
		contributors(SleepContributorsTable, "sleep_id", DailySleepTable,
			"deep_sleep", "efficiency", "latency", "rem_sleep", "restfulness", "timing", "total_sleep"),
		{
			Name: SleepSessionsTable,
			Columns: join(
				[]Column{
					id(),
					{Name: "daily_sleep_id", Type: UUID},
					{Name: "day", Type: Date, NotNull: true},
					{Name: "bedtime_start", Type: Timestamp, NotNull: true, Unique: true},
					{Name: "bedtime_end", Type: Timestamp, NotNull: true},
				},
				ints("total_sleep", "deep_sleep", "rem_sleep", "light_sleep", "awake_time", "lowest_heart_rate"),
				[]Column{pending()},
			),
			ForeignKeys: []ForeignKey{parentRef("daily_sleep_id", DailySleepTable, Cascade)},
		},
		{
			Name: SleepTimeTable,
			Columns: []Column{
				id(),
				day(),
				{Name: "optimal_bedtime", Type: Timestamp},
				{Name: "recommendation", Type: Text, NotNull: true},
				pending(),
			},
		},
		{
			Name: DailyActivityTable,
			Columns: join(
				[]Column{id(), day()},
				ints("score", "active_calories", "steps", "equivalent_walking_distance",
					"high_activity_time", "medium_activity_time", "low_activity_time", "sedentary_time"),
				[]Column{pending()},
			),
		},
		contributors(ActivityContributorsTable, "activity_id", DailyActivityTable,
			"meet_daily_targets", "move_every_hour", "recovery_time", "stay_active",
			"training_frequency", "training_volume"),
		{
			Name: DailyReadinessTable,
			Columns: join(
				[]Column{id(), day()},
				ints("score"),
				[]Column{
					{Name: "temperature_deviation", Type: Float},
					{Name: "temperature_trend_deviation", Type: Float},
					pending(),
				},
			),
		},
		contributors(ReadinessContributorsTable, "readiness_id", DailyReadinessTable,
			"activity_balance", "body_temperature", "hrv_balance", "previous_day_activity",
			"previous_night", "recovery_index", "resting_heart_rate", "sleep_balance"),
		{
			Name: HeartRateTable,
			Columns: []Column{
				{Name: idColumn, Type: Serial, PrimaryKey: true},
				{Name: "bpm", Type: Int, NotNull: true},
				{Name: "source", Type: Text, NotNull: true},
				{Name: "timestamp", Type: Timestamp, NotNull: true},
				{Name: "daily_sleep_id", Type: UUID},
				{Name: "daily_activity_id", Type: UUID},
				pending(),
			},
			ForeignKeys: []ForeignKey{
				parentRef("daily_sleep_id", DailySleepTable, SetNull),
				parentRef("daily_activity_id", DailyActivityTable, SetNull),
			},
			Unique: [][]string{{"timestamp", "source"}},
		},
	}
}
