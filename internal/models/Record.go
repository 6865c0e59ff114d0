package models

const (
	FieldDay       = "day"
	FieldTimestamp = "timestamp"
	FieldPending   = "pending"
)

// Record is a category-specific object as returned by the API. Only the
// day/timestamp fields are interpreted here.
type Record map[string]any

// Day returns the reporting date of the record: the day field when present,
// otherwise the date part of timestamp.
func (r Record) Day() (string, bool) {
	if day, ok := r[FieldDay].(string); ok {
		return day, true
	}
	if ts, ok := r[FieldTimestamp].(string); ok && len(ts) >= len(DateLayout) {
		return ts[:len(DateLayout)], true
	}
	return "", false
}

func (r Record) Pending() bool {
	pending, _ := r[FieldPending].(bool)
	return pending
}

// MarkPending flags a record whose reporting day is today; upstream may
// still revise it.
func (r Record) MarkPending(today string) {
	day, ok := r.Day()
	r[FieldPending] = ok && day == today
}

// MarkPending annotates every record and returns how many are pending.
func MarkPending(records []Record, today string) int {
	pending := 0
	for _, r := range records {
		r.MarkPending(today)
		if r.Pending() {
			pending++
		}
	}
	return pending
}
