package interfaces

import "ringsync/internal/models"

type FileManagerInterface interface {
	Save(dateRange models.DateRange, snapshot models.Snapshot) (string, error)
	Load(name string) (models.Snapshot, error)
	List() ([]string, error)
	Close()
}
