package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
	"github.com/Lolo20020803/ProyectoSBC/internal/logger"
	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository/sqlite"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

type fakeViewers struct {
	mu       sync.Mutex
	clients  int
	messages [][]byte
	full     bool
}

func (v *fakeViewers) Broadcast(message []byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.full {
		return false
	}
	v.messages = append(v.messages, message)
	return true
}

func (v *fakeViewers) GetClientCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clients
}

func (v *fakeViewers) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.messages)
}

func setupEvents(t *testing.T) *sqlite.MotionEventRepository {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlite.NewMotionEventRepository(db)
}

func TestManager_StoresOnlyMovedResults(t *testing.T) {
	events := setupEvents(t)
	viewers := &fakeViewers{clients: 1}
	m := NewManager(events, viewers, nil, ManagerConfig{Camera: "entrance"}, logger.Discard())

	m.HandleResult(motion.Result{Moved: false, Direction: "none", Camera: "entrance", Timestamp: time.Now()})
	m.HandleResult(motion.Result{Moved: true, Approaching: true, Direction: "approaching", Magnitude: 90, Camera: "entrance", Timestamp: time.Now()})

	stored, err := events.List(nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stored) != 1 || !stored[0].Approaching || stored[0].Magnitude != 90 {
		t.Errorf("stored = %+v, want the approaching event", stored)
	}
	if m.Stored() != 1 {
		t.Errorf("Stored() = %d, want 1", m.Stored())
	}
	if viewers.count() != 2 {
		t.Errorf("broadcasts = %d, want every result", viewers.count())
	}
}

func TestManager_FrameBroadcastAndRelease(t *testing.T) {
	viewers := &fakeViewers{clients: 1}
	encode := func(f *motion.Frame) ([]byte, error) { return []byte("jpeg"), nil }
	m := NewManager(nil, viewers, encode, ManagerConfig{Camera: "entrance"}, logger.Discard())

	released := 0
	frame := motion.NewFrame(2, 2, make([]byte, 12), func(*motion.Frame) { released++ })
	m.HandleFrame(frame)

	if released != 1 {
		t.Errorf("frame released %d times, want 1", released)
	}
	if viewers.count() != 1 {
		t.Fatalf("broadcasts = %d, want 1", viewers.count())
	}

	var msg dto.FrameMessage
	if err := json.Unmarshal(viewers.messages[0], &msg); err != nil {
		t.Fatalf("invalid frame message: %v", err)
	}
	if msg.Type != "frame" || msg.Camera != "entrance" || msg.Image != base64.StdEncoding.EncodeToString([]byte("jpeg")) {
		t.Errorf("frame message = %+v", msg)
	}
}

func TestManager_FrameWithoutViewersSkipsEncoding(t *testing.T) {
	encoded := 0
	encode := func(f *motion.Frame) ([]byte, error) { encoded++; return nil, nil }
	m := NewManager(nil, &fakeViewers{}, encode, ManagerConfig{}, logger.Discard())

	frame := motion.NewFrame(2, 2, make([]byte, 12), nil)
	m.HandleFrame(frame)

	if encoded != 0 {
		t.Errorf("encoded %d frames with no viewers", encoded)
	}
	if !frame.Released() {
		t.Error("frame should be released")
	}
}

func TestManager_EncodeFailureStillReleases(t *testing.T) {
	encode := func(f *motion.Frame) ([]byte, error) { return nil, errors.New("codec") }
	m := NewManager(nil, &fakeViewers{clients: 1}, encode, ManagerConfig{}, logger.Discard())

	frame := motion.NewFrame(2, 2, make([]byte, 12), nil)
	m.HandleFrame(frame)

	if !frame.Released() {
		t.Error("frame should be released after an encode failure")
	}
}

func TestManager_DroppedBroadcasts(t *testing.T) {
	viewers := &fakeViewers{clients: 1, full: true}
	m := NewManager(nil, viewers, nil, ManagerConfig{}, logger.Discard())

	m.HandleResult(motion.Result{})

	if m.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", m.Dropped())
	}
}

func TestManager_StartConsumesQueues(t *testing.T) {
	events := setupEvents(t)
	viewers := &fakeViewers{clients: 1}
	encode := func(f *motion.Frame) ([]byte, error) { return []byte("x"), nil }
	m := NewManager(events, viewers, encode, ManagerConfig{EncodeWorkers: 2}, logger.Discard())

	results := make(chan motion.Result, 2)
	frames := make(chan *motion.Frame, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx, results, frames)

	results <- motion.Result{Moved: true, Direction: "receding", Timestamp: time.Now()}
	frame := motion.NewFrame(2, 2, make([]byte, 12), nil)
	frames <- frame
	close(results)
	close(frames)

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop after queues closed")
	}

	if !frame.Released() {
		t.Error("forwarded frame should be released")
	}
	if m.Stored() != 1 {
		t.Errorf("Stored() = %d, want 1", m.Stored())
	}
}

func TestManager_Prune(t *testing.T) {
	events := setupEvents(t)
	now := time.Now()

	for _, age := range []time.Duration{72 * time.Hour, time.Hour} {
		e := &models.MotionEvent{Camera: "entrance", Moved: true, Direction: "none", CreatedAt: now.Add(-age)}
		if err := events.Insert(e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	m := NewManager(events, nil, nil, ManagerConfig{Retention: 24 * time.Hour}, logger.Discard())
	deleted, err := m.Prune(now)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	keepAll := NewManager(events, nil, nil, ManagerConfig{}, logger.Discard())
	if deleted, _ := keepAll.Prune(now.Add(1000 * time.Hour)); deleted != 0 {
		t.Errorf("Prune() without retention deleted %d", deleted)
	}
}
