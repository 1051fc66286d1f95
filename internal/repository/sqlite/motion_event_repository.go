package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
)

// MotionEventRepository implements repository.MotionEventRepository for SQLite.
type MotionEventRepository struct {
	db *DB
}

// NewMotionEventRepository creates a new SQLite motion event repository.
func NewMotionEventRepository(db *DB) *MotionEventRepository {
	return &MotionEventRepository{db: db}
}

// Insert stores an event, assigning an ID and timestamp when missing.
func (r *MotionEventRepository) Insert(event *models.MotionEvent) error {
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
		INSERT INTO motion_events (id, camera, moved, approaching, direction, magnitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.Camera, event.Moved, event.Approaching, event.Direction, event.Magnitude, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert motion event: %w", err)
	}
	return nil
}

// List returns events matching filter, newest first.
func (r *MotionEventRepository) List(filter *models.EventFilter) ([]models.MotionEvent, error) {
	if filter == nil {
		filter = &models.EventFilter{}
	}

	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, camera, moved, approaching, direction, magnitude, created_at
		FROM motion_events
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Camera != "" {
		query += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if filter.Direction != "" {
		query += " AND direction = ?"
		args = append(args, filter.Direction)
	}

	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY created_at DESC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query motion events: %w", err)
	}
	defer rows.Close()

	events := []models.MotionEvent{}
	for rows.Next() {
		var e models.MotionEvent
		if err := rows.Scan(&e.ID, &e.Camera, &e.Moved, &e.Approaching, &e.Direction, &e.Magnitude, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan motion event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate motion events: %w", err)
	}

	return events, nil
}

// CountByDirection returns the number of events per direction since the
// given time. A zero time counts everything.
func (r *MotionEventRepository) CountByDirection(since time.Time) ([]models.DirectionCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT direction, COUNT(*) FROM motion_events`
	args := []interface{}{}
	if !since.IsZero() {
		query += " WHERE created_at >= ?"
		args = append(args, since.UTC())
	}
	query += " GROUP BY direction ORDER BY direction"

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count motion events: %w", err)
	}
	defer rows.Close()

	counts := []models.DirectionCount{}
	for rows.Next() {
		var c models.DirectionCount
		if err := rows.Scan(&c.Direction, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan direction count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteBefore removes events older than cutoff and returns how many were removed.
func (r *MotionEventRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM motion_events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete motion events: %w", err)
	}
	return result.RowsAffected()
}
