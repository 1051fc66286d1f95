package sqlite

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "data", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("open %d: %v", i+1, err)
		}
		db.Close()
	}
}

// ========================================
// MotionEventRepository Tests
// ========================================

func TestMotionEventRepository_InsertAssignsIDAndTime(t *testing.T) {
	repo := NewMotionEventRepository(setupTestDB(t))

	event := &models.MotionEvent{Camera: "entrance", Moved: true, Direction: "none", Magnitude: 60}
	if err := repo.Insert(event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if event.ID == "" {
		t.Error("Insert should assign an ID")
	}
	if event.CreatedAt.IsZero() {
		t.Error("Insert should assign a timestamp")
	}

	events, err := repo.List(nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != event.ID || events[0].Magnitude != 60 {
		t.Errorf("List() = %+v, want the inserted event", events)
	}
}

func TestMotionEventRepository_ListFilters(t *testing.T) {
	repo := NewMotionEventRepository(setupTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []models.MotionEvent{
		{Camera: "entrance", Moved: true, Approaching: true, Direction: "approaching", Magnitude: 90, CreatedAt: base},
		{Camera: "entrance", Moved: true, Direction: "receding", Magnitude: 70, CreatedAt: base.Add(time.Minute)},
		{Camera: "garage", Moved: true, Direction: "none", Magnitude: 55, CreatedAt: base.Add(2 * time.Minute)},
		{Camera: "entrance", Moved: true, Direction: "approaching", Approaching: true, Magnitude: 95, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		if err := repo.Insert(&seed[i]); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.EventFilter
		want   []int
	}{
		{"all newest first", models.EventFilter{}, []int{95, 55, 70, 90}},
		{"camera", models.EventFilter{Camera: "garage"}, []int{55}},
		{"direction", models.EventFilter{Direction: "approaching"}, []int{95, 90}},
		{"since", models.EventFilter{Since: base.Add(90 * time.Second)}, []int{95, 55}},
		{"limit", models.EventFilter{Limit: 2}, []int{95, 55}},
		{"offset", models.EventFilter{Offset: 3}, []int{90}},
		{"limit and offset", models.EventFilter{Limit: 1, Offset: 1}, []int{55}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			events, err := repo.List(&filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(events) != len(tt.want) {
				t.Fatalf("List() returned %d events, want %d", len(events), len(tt.want))
			}
			for i, e := range events {
				if e.Magnitude != tt.want[i] {
					t.Errorf("event %d magnitude = %d, want %d", i, e.Magnitude, tt.want[i])
				}
			}
		})
	}
}

func TestMotionEventRepository_CountByDirection(t *testing.T) {
	repo := NewMotionEventRepository(setupTestDB(t))

	for _, direction := range []string{"approaching", "approaching", "receding", "stationary"} {
		if err := repo.Insert(&models.MotionEvent{Camera: "entrance", Moved: true, Direction: direction}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	counts, err := repo.CountByDirection(time.Time{})
	if err != nil {
		t.Fatalf("CountByDirection() error = %v", err)
	}

	got := map[string]int{}
	for _, c := range counts {
		got[c.Direction] = c.Count
	}
	if got["approaching"] != 2 || got["receding"] != 1 || got["stationary"] != 1 {
		t.Errorf("CountByDirection() = %v", got)
	}
}

func TestMotionEventRepository_DeleteBefore(t *testing.T) {
	repo := NewMotionEventRepository(setupTestDB(t))
	now := time.Now().UTC()

	old := &models.MotionEvent{Camera: "entrance", Moved: true, Direction: "none", CreatedAt: now.Add(-48 * time.Hour)}
	recent := &models.MotionEvent{Camera: "entrance", Moved: true, Direction: "none", CreatedAt: now}
	for _, e := range []*models.MotionEvent{old, recent} {
		if err := repo.Insert(e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	deleted, err := repo.DeleteBefore(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, _ := repo.List(nil)
	if len(events) != 1 || events[0].ID != recent.ID {
		t.Errorf("remaining events = %+v, want only the recent one", events)
	}
}

func TestMotionEventRepository_ConcurrentInsert(t *testing.T) {
	repo := NewMotionEventRepository(setupTestDB(t))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Insert(&models.MotionEvent{Camera: "entrance", Moved: true, Direction: "none", Magnitude: i})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Insert() error = %v", err)
		}
	}
	events, _ := repo.List(nil)
	if len(events) != 20 {
		t.Errorf("stored %d events, want 20", len(events))
	}
}

// ========================================
// OccupancyRepository Tests
// ========================================

func TestOccupancyRepository_LatestEmpty(t *testing.T) {
	repo := NewOccupancyRepository(setupTestDB(t))

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Errorf("Latest() = %+v, want nil", latest)
	}
}

func TestOccupancyRepository_LatestAndList(t *testing.T) {
	repo := NewOccupancyRepository(setupTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, entering := range []bool{true, true, false} {
		count := []int{1, 2, 1}[i]
		event := &models.OccupancyEvent{Entering: entering, Count: count, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Insert(event); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil || latest.Entering || latest.Count != 1 {
		t.Errorf("Latest() = %+v, want the leaving event with count 1", latest)
	}

	events, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 2 || events[0].Count != 1 || events[1].Count != 2 {
		t.Errorf("List(2) = %+v", events)
	}
	if !events[1].CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", events[1].CreatedAt, base.Add(time.Second))
	}
}
