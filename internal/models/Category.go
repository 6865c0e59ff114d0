package models

// Category is one upstream data type, fetched from its own endpoint.
type Category string

const (
	DailySleep      Category = "daily_sleep"
	DailyActivity   Category = "daily_activity"
	DailyReadiness  Category = "daily_readiness"
	DailyResilience Category = "daily_resilience"
	DailyStress     Category = "daily_stress"
	DailySpo2       Category = "daily_spo2"
	HeartRate       Category = "heartrate"
	RestModePeriod  Category = "rest_mode_period"
	SleepSession    Category = "sleep"
	SleepTime       Category = "sleep_time"
	VO2Max          Category = "vO2_max"
	Workout         Category = "workout"
)

var categories = []Category{
	DailySleep, DailyActivity, DailyReadiness, DailyResilience,
	DailyStress, DailySpo2, HeartRate, RestModePeriod, SleepSession,
	SleepTime, VO2Max, Workout,
}

// Categories returns the fixed fetch list in request order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// UsesDatetime reports whether the endpoint takes start_datetime/end_datetime
// instead of day-granularity parameters.
func (c Category) UsesDatetime() bool {
	return c == HeartRate
}

func (c Category) String() string {
	return string(c)
}
