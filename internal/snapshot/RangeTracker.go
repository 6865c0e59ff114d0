package snapshot

import (
	"fmt"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/snapshot/interfaces"
	"ringsync/internal/structures"
	"time"
)

// RangeTracker derives the next fetch window from the snapshots on disk:
// the end date of the last snapshot is the watermark.
type RangeTracker struct {
	files         interfaces.FileManagerInterface
	bootstrapDate string
	logger        providers.Logger
}

func NewRangeTracker(conf *structures.Config, files interfaces.FileManagerInterface, logger providers.Logger) interfaces.RangeTrackerInterface {
	return &RangeTracker{
		files:         files,
		bootstrapDate: conf.Snapshot.BootstrapDate,
		logger:        logger,
	}
}

func (rt *RangeTracker) NextRange(now time.Time) (models.DateRange, error) {
	today := now.Format(models.DateLayout)

	names, err := rt.files.List()
	if err != nil {
		return models.DateRange{}, fmt.Errorf("list snapshots: %w", err)
	}
	if len(names) == 0 {
		rt.logger.Infof(providers.TypeSnapshot, "No previous snapshots, starting from %s", rt.bootstrapDate)
		return models.DateRange{Start: rt.bootstrapDate, End: today}, nil
	}

	last := names[len(names)-1]
	prev, ok := models.ParseSnapshotName(last)
	if !ok {
		return models.DateRange{}, fmt.Errorf("unparseable snapshot name %q", last)
	}
	rt.logger.Debugf(providers.TypeSnapshot, "Last snapshot %s, watermark %s", last, prev.End)
	return models.DateRange{Start: prev.End, End: today}, nil
}
