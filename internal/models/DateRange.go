package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	DateLayout     = time.DateOnly
	rangeSeparator = "_to_"
	SnapshotExt    = ".json"
	CompressedExt  = ".json.zst"
)

var snapshotName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_to_(\d{4}-\d{2}-\d{2})\.json(\.zst)?$`)

// DateRange is an inclusive fetch window at day granularity.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

func (d DateRange) FileName() string {
	return d.Start + rangeSeparator + d.End + SnapshotExt
}

// SameDay reports whether the window starts and ends on the same date.
func (d DateRange) SameDay() bool {
	return d.Start == d.End
}

func (d DateRange) String() string {
	return d.Start + " → " + d.End
}

// ParseSnapshotName extracts the range encoded in a snapshot file name.
func ParseSnapshotName(name string) (DateRange, bool) {
	m := snapshotName.FindStringSubmatch(name)
	if m == nil {
		return DateRange{}, false
	}
	return DateRange{Start: m[1], End: m[2]}, true
}

// ParseUTCOffset turns "+HH:MM" / "-HH:MM" into a fixed zone.
func ParseUTCOffset(offset string) (*time.Location, error) {
	if len(offset) != 6 || (offset[0] != '+' && offset[0] != '-') || offset[3] != ':' {
		return nil, fmt.Errorf("invalid UTC offset %q, want ±HH:MM", offset)
	}
	hours, err := strconv.Atoi(offset[1:3])
	if err != nil || hours > 14 {
		return nil, fmt.Errorf("invalid UTC offset hours in %q", offset)
	}
	minutes, err := strconv.Atoi(offset[4:6])
	if err != nil || minutes > 59 {
		return nil, fmt.Errorf("invalid UTC offset minutes in %q", offset)
	}
	seconds := hours*3600 + minutes*60
	if offset[0] == '-' {
		seconds = -seconds
	}
	return time.FixedZone("UTC"+offset, seconds), nil
}
