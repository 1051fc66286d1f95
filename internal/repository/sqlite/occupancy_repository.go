package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
)

// OccupancyRepository implements repository.OccupancyRepository for SQLite.
type OccupancyRepository struct {
	db *DB
}

// NewOccupancyRepository creates a new SQLite occupancy repository.
func NewOccupancyRepository(db *DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// Insert stores a counter adjustment, assigning an ID and timestamp when missing.
func (r *OccupancyRepository) Insert(event *models.OccupancyEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.CreatedAt = event.CreatedAt.UTC()

	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO occupancy_events (id, entering, count, created_at)
		VALUES (?, ?, ?, ?)
	`, event.ID, event.Entering, event.Count, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert occupancy event: %w", err)
	}
	return nil
}

// Latest returns the most recent event, or nil when none is stored.
func (r *OccupancyRepository) Latest() (*models.OccupancyEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var e models.OccupancyEvent
	err := r.db.Conn().QueryRow(`
		SELECT id, entering, count, created_at
		FROM occupancy_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&e.ID, &e.Entering, &e.Count, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest occupancy event: %w", err)
	}
	return &e, nil
}

// List returns the most recent events, newest first.
func (r *OccupancyRepository) List(limit int) ([]models.OccupancyEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, entering, count, created_at
		FROM occupancy_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy events: %w", err)
	}
	defer rows.Close()

	events := []models.OccupancyEvent{}
	for rows.Next() {
		var e models.OccupancyEvent
		if err := rows.Scan(&e.ID, &e.Entering, &e.Count, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
