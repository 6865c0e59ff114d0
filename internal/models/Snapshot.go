package models

// Snapshot is the aggregate result of one fetch: category → records.
type Snapshot map[Category][]Record

// NewSnapshot returns a snapshot with an empty, non-nil list per category so
// failed categories still serialize as [].
func NewSnapshot(categories []Category) Snapshot {
	s := make(Snapshot, len(categories))
	for _, c := range categories {
		s[c] = []Record{}
	}
	return s
}

func (s Snapshot) RecordCount() int {
	total := 0
	for _, records := range s {
		total += len(records)
	}
	return total
}
