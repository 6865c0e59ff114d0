package services

import (
	"context"
	"net/url"
	"ringsync/internal/client"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/snapshot/interfaces"
	"ringsync/internal/structures"
	"time"
)

const (
	dayStartClock  = "T00:00:00"
	offsetLayout   = "-07:00"
	datetimeLayout = "2006-01-02T15:04:05" + offsetLayout
)

type FetchServiceInterface interface {
	Run(ctx context.Context, now time.Time) (*FetchResult, error)
	Fetch(ctx context.Context, dateRange models.DateRange, now time.Time) (models.Snapshot, []models.Category)
}

// FetchResult summarizes one batch run.
type FetchResult struct {
	Range   models.DateRange
	Path    string
	Records int
	Pending int
	Failed  []models.Category
}

type FetchService struct {
	api        client.ApiClientInterface
	tracker    interfaces.RangeTrackerInterface
	files      interfaces.FileManagerInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
	categories []models.Category
	hrZone     *time.Location
}

func NewFetchService(conf *structures.Config, api client.ApiClientInterface, tracker interfaces.RangeTrackerInterface, files interfaces.FileManagerInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) (FetchServiceInterface, error) {
	zone, err := models.ParseUTCOffset(conf.Api.HeartRateOffset)
	if err != nil {
		return nil, err
	}
	return &FetchService{
		api:        api,
		tracker:    tracker,
		files:      files,
		metrics:    metrics,
		logger:     logger,
		categories: models.Categories(),
		hrZone:     zone,
	}, nil
}

// Run performs one incremental pull: next window, every category, one
// snapshot. Category failures are absorbed; only range or write errors are
// returned. The snapshot is written even when every category failed, so it
// becomes the new watermark. A cancelled context writes nothing and leaves
// the watermark where it was.
func (fs *FetchService) Run(ctx context.Context, now time.Time) (*FetchResult, error) {
	dateRange, err := fs.tracker.NextRange(now)
	if err != nil {
		return nil, err
	}
	fs.logger.Infof(providers.TypeFetch, "Fetching %s", dateRange)

	snapshot, failed := fs.Fetch(ctx, dateRange, now)
	if err := ctx.Err(); err != nil {
		fs.logger.Warnf(providers.TypeFetch, "Fetch of %s interrupted, no snapshot written: %s", dateRange, err)
		return nil, err
	}

	path, err := fs.files.Save(dateRange, snapshot)
	if err != nil {
		fs.logger.Errorf(providers.TypeSnapshot, "Failed to save snapshot %s: %s", dateRange.FileName(), err)
		return nil, err
	}
	fs.logger.Infof(providers.TypeSnapshot, "Data successfully saved to %s", path)

	result := &FetchResult{
		Range:   dateRange,
		Path:    path,
		Records: snapshot.RecordCount(),
		Failed:  failed,
	}
	for _, records := range snapshot {
		for _, r := range records {
			if r.Pending() {
				result.Pending++
			}
		}
	}
	return result, nil
}

// Fetch queries every category for dateRange in order and annotates the
// records with the pending flag relative to now.
func (fs *FetchService) Fetch(ctx context.Context, dateRange models.DateRange, now time.Time) (models.Snapshot, []models.Category) {
	today := now.Format(models.DateLayout)
	snapshot := models.NewSnapshot(fs.categories)
	var failed []models.Category

	for _, category := range fs.categories {
		if ctx.Err() != nil {
			break
		}
		records, err := fs.api.Fetch(ctx, category, fs.params(category, dateRange, now))
		if err != nil {
			fs.logger.Errorf(providers.TypeFetch, "Error fetching %s: %s", category, err)
			failed = append(failed, category)
			fs.metrics.SetRecordsTotal(category.String(), 0)
			continue
		}

		pending := models.MarkPending(records, today)
		snapshot[category] = records
		fs.metrics.SetRecordsTotal(category.String(), len(records))
		fs.logger.Infof(providers.TypeFetch, "%s | Request successful (%d records, %d pending)", category, len(records), pending)
	}
	return snapshot, failed
}

func (fs *FetchService) params(category models.Category, dateRange models.DateRange, now time.Time) url.Values {
	if category.UsesDatetime() {
		local := now.In(fs.hrZone)
		return url.Values{
			"start_datetime": {dateRange.Start + dayStartClock + local.Format(offsetLayout)},
			"end_datetime":   {local.Format(datetimeLayout)},
		}
	}
	return url.Values{
		"start_date": {dateRange.Start},
		"end_date":   {dateRange.End},
	}
}
