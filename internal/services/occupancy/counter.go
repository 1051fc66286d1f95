// Package occupancy keeps the room occupancy count fed by entering/leaving
// notifications.
package occupancy

import (
	"fmt"
	"sync"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository"
)

// Logger is the leveled logger used by the counter.
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Counter is an occupancy count that never goes below zero. Every change is
// stored when a repository is configured.
type Counter struct {
	mu     sync.Mutex
	count  int
	repo   repository.OccupancyRepository
	logger Logger
}

// NewCounter restores the count from the latest stored event. repo may be nil.
func NewCounter(repo repository.OccupancyRepository, logger Logger) (*Counter, error) {
	c := &Counter{repo: repo, logger: logger}
	if repo == nil {
		return c, nil
	}

	latest, err := repo.Latest()
	if err != nil {
		return nil, fmt.Errorf("failed to restore occupancy: %w", err)
	}
	if latest != nil {
		c.count = latest.Count
		logger.Info("Occupancy restored: %d", c.count)
	}
	return c, nil
}

// Apply adds one person when entering and removes one otherwise, clamped at
// zero, and returns the new count. A storage failure is logged; the in-memory
// count stays authoritative.
func (c *Counter) Apply(entering bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entering {
		c.count++
	} else if c.count > 0 {
		c.count--
	}

	if c.repo != nil {
		event := &models.OccupancyEvent{Entering: entering, Count: c.count, CreatedAt: time.Now()}
		if err := c.repo.Insert(event); err != nil {
			c.logger.Error("Failed to store occupancy event: %v", err)
		}
	}

	c.logger.Info("Occupancy %d (entering=%t)", c.count, entering)
	return c.count
}

func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
