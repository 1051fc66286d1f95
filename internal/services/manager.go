package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

const pruneInterval = time.Hour

// Logger is the leveled logger used by the manager.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Broadcaster sends messages to websocket viewers.
type Broadcaster interface {
	Broadcast(message []byte) bool
	GetClientCount() int
}

// FrameEncoder compresses a frame for viewers.
type FrameEncoder func(frame *motion.Frame) ([]byte, error)

type ManagerConfig struct {
	Camera        string
	Retention     time.Duration // 0 keeps events forever
	EncodeWorkers int
}

// Manager consumes the processor outputs: results are stored and broadcast,
// forwarded frames are encoded for viewers and released.
type Manager struct {
	events  repository.MotionEventRepository
	viewers Broadcaster
	encode  FrameEncoder
	cfg     ManagerConfig
	logger  Logger

	stored  atomic.Uint64
	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// NewManager wires a manager. events and encode may be nil.
func NewManager(events repository.MotionEventRepository, viewers Broadcaster, encode FrameEncoder, cfg ManagerConfig, logger Logger) *Manager {
	if cfg.EncodeWorkers <= 0 {
		cfg.EncodeWorkers = 1
	}
	return &Manager{
		events:  events,
		viewers: viewers,
		encode:  encode,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start launches the result consumer, the frame workers and the retention
// loop. Wait blocks until all of them have returned.
func (m *Manager) Start(ctx context.Context, results <-chan motion.Result, frames <-chan *motion.Frame) {
	if results != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.consumeResults(ctx, results)
		}()
	}

	if frames != nil {
		for i := 0; i < m.cfg.EncodeWorkers; i++ {
			m.wg.Add(1)
			go m.frameWorker(ctx, i, frames)
		}
	}

	if m.events != nil && m.cfg.Retention > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.runRetention(ctx)
		}()
	}

	m.logger.Info("🎬 Manager started (%d frame worker(s))", m.cfg.EncodeWorkers)
}

func (m *Manager) Wait() {
	m.wg.Wait()
	m.logger.Info("🛑 Manager stopped")
}

func (m *Manager) consumeResults(ctx context.Context, results <-chan motion.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-results:
			if !ok {
				return
			}
			m.HandleResult(result)
		}
	}
}

// HandleResult stores results with motion and broadcasts every result.
func (m *Manager) HandleResult(result motion.Result) {
	if result.Moved && m.events != nil {
		event := &models.MotionEvent{
			Camera:      result.Camera,
			Moved:       result.Moved,
			Approaching: result.Approaching,
			Direction:   result.Direction,
			Magnitude:   result.Magnitude,
			CreatedAt:   result.Timestamp,
		}
		if err := m.events.Insert(event); err != nil {
			m.logger.Error("Failed to store motion event: %v", err)
		} else {
			m.stored.Add(1)
		}
	}

	if m.viewers == nil || m.viewers.GetClientCount() == 0 {
		return
	}
	msg, err := json.Marshal(dto.ResultMessage{Type: "result", Result: result})
	if err != nil {
		m.logger.Error("Failed to encode result: %v", err)
		return
	}
	if !m.viewers.Broadcast(msg) {
		m.dropped.Add(1)
	}
}

// frameWorker encodes forwarded frames until the queue closes or ctx is done.
func (m *Manager) frameWorker(ctx context.Context, workerID int, frames <-chan *motion.Frame) {
	defer m.wg.Done()

	m.logger.Info("🔧 Frame worker %d started", workerID)
	defer m.logger.Info("🔧 Frame worker %d stopped", workerID)

	for {
		select {
		case <-ctx.Done():
			drainFrames(frames)
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			m.HandleFrame(frame)
		}
	}
}

// HandleFrame sends a frame to viewers and releases it.
func (m *Manager) HandleFrame(frame *motion.Frame) {
	defer frame.Release()

	if m.encode == nil || m.viewers == nil || m.viewers.GetClientCount() == 0 {
		return
	}

	image, err := m.encode(frame)
	if err != nil {
		m.logger.Warning("Failed to encode frame: %v", err)
		return
	}

	msg, err := json.Marshal(dto.FrameMessage{
		Type:   "frame",
		Camera: m.cfg.Camera,
		Image:  base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		m.logger.Error("Failed to encode frame message: %v", err)
		return
	}
	if !m.viewers.Broadcast(msg) {
		m.dropped.Add(1)
	}
}

func drainFrames(frames <-chan *motion.Frame) {
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			frame.Release()
		default:
			return
		}
	}
}

func (m *Manager) runRetention(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		if _, err := m.Prune(time.Now()); err != nil {
			m.logger.Error("Failed to prune motion events: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Prune deletes events older than the retention window.
func (m *Manager) Prune(now time.Time) (int64, error) {
	if m.events == nil || m.cfg.Retention <= 0 {
		return 0, nil
	}
	deleted, err := m.events.DeleteBefore(now.Add(-m.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.logger.Info("🧹 Pruned %d motion event(s)", deleted)
	}
	return deleted, nil
}

// Stored and Dropped report how many events were stored and how many viewer
// messages were dropped.
func (m *Manager) Stored() uint64  { return m.stored.Load() }
func (m *Manager) Dropped() uint64 { return m.dropped.Load() }
