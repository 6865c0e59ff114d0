package interfaces

import (
	"ringsync/internal/models"
	"time"
)

type RangeTrackerInterface interface {
	NextRange(now time.Time) (models.DateRange, error)
}
