package repository

import (
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
)

// MotionEventRepository defines the interface for motion event storage.
type MotionEventRepository interface {
	// Create operations
	Insert(event *models.MotionEvent) error

	// Read operations
	List(filter *models.EventFilter) ([]models.MotionEvent, error)
	CountByDirection(since time.Time) ([]models.DirectionCount, error)

	// Delete operations
	DeleteBefore(cutoff time.Time) (int64, error)
}

// OccupancyRepository defines the interface for occupancy counter storage.
type OccupancyRepository interface {
	Insert(event *models.OccupancyEvent) error
	Latest() (*models.OccupancyEvent, error)
	List(limit int) ([]models.OccupancyEvent, error)
}
