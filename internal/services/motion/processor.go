package motion

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultAcquireTimeout = 5 * time.Second
	DefaultPublishTimeout = 5 * time.Second
)

var (
	ErrAcquireTimeout = errors.New("timed out waiting for a frame")
	ErrFramesClosed   = errors.New("frame queue closed")
	ErrCycleSkipped   = errors.New("cycle skipped")
)

// DefaultMarker is the annotation drawn on frames that contain motion.
var DefaultMarker = image.Rect(0, 0, 20, 20)

// Magnitude estimates the motion between two frames.
type Magnitude interface {
	Estimate(older, newer *Frame) (int, error)
}

// Annotator draws a marker on a frame in place.
type Annotator interface {
	Mark(frame *Frame, rect image.Rectangle) error
}

// Queues are the channels the processor is wired to. Frames is required;
// a nil Control keeps the gate open, a nil Forward releases both frames and a
// nil Results discards results.
type Queues struct {
	Frames  <-chan *Frame
	Control <-chan bool
	Forward chan<- *Frame
	Results chan<- Result
}

// ProcessorConfig holds the tunables of the processing loop.
type ProcessorConfig struct {
	Camera         string
	Marker         image.Rectangle
	AcquireTimeout time.Duration // 0 waits forever
	PublishTimeout time.Duration // 0 waits forever
}

// Stats is a snapshot of the processor counters.
type Stats struct {
	Cycles     uint64 `json:"cycles"`
	Skipped    uint64 `json:"skipped"`
	Moved      uint64 `json:"moved"`
	Approaches uint64 `json:"approaches"`
	Recedes    uint64 `json:"recedes"`
	Dropped    uint64 `json:"dropped"`
	GateOpen   bool   `json:"gate_open"`
}

// Processor runs acquire-classify-dispatch-publish cycles over frame pairs.
type Processor struct {
	cfg        ProcessorConfig
	queues     Queues
	gate       *Gate
	estimator  Magnitude
	classifier Classifier
	dispatcher *Dispatcher
	annotator  Annotator
	logger     Logger

	state State

	cycles     atomic.Uint64
	skipped    atomic.Uint64
	moved      atomic.Uint64
	approaches atomic.Uint64
	recedes    atomic.Uint64
	dropped    atomic.Uint64
}

// NewProcessor wires a processor. annotator may be nil.
func NewProcessor(
	cfg ProcessorConfig,
	queues Queues,
	estimator Magnitude,
	classifier Classifier,
	dispatcher *Dispatcher,
	annotator Annotator,
	logger Logger,
) *Processor {
	if logger == nil {
		logger = nopLogger{}
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(nil, nil, 0, logger)
	}
	if cfg.Marker.Empty() {
		cfg.Marker = DefaultMarker
	}

	return &Processor{
		cfg:        cfg,
		queues:     queues,
		gate:       NewGate(true),
		estimator:  estimator,
		classifier: classifier,
		dispatcher: dispatcher,
		annotator:  annotator,
		logger:     logger,
	}
}

// Gate exposes the run/pause switch.
func (p *Processor) Gate() *Gate {
	return p.gate
}

// State returns the classifier history. Only meaningful while Run is not executing.
func (p *Processor) State() State {
	return p.state
}

func (p *Processor) Stats() Stats {
	return Stats{
		Cycles:     p.cycles.Load(),
		Skipped:    p.skipped.Load(),
		Moved:      p.moved.Load(),
		Approaches: p.approaches.Load(),
		Recedes:    p.recedes.Load(),
		Dropped:    p.dropped.Load(),
		GateOpen:   p.gate.IsOpen(),
	}
}

// Run processes cycles until ctx is done or the frame queue is closed.
// The gate starts open; with a control queue it then follows every value
// received there.
func (p *Processor) Run(ctx context.Context) error {
	if p.queues.Control != nil {
		go p.gate.Follow(ctx, p.queues.Control)
	}

	p.logger.Info("Motion processor started (threshold=%d)", p.classifier.Threshold)
	defer p.logger.Info("Motion processor stopped")

	for {
		err := p.RunCycle(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrFramesClosed):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrAcquireTimeout):
			p.logger.Warning("No frame within %v, skipping cycle", p.cfg.AcquireTimeout)
		default:
			p.logger.Error("Cycle failed: %v", err)
		}
	}
}

// RunCycle executes one cycle over exactly two frames.
func (p *Processor) RunCycle(ctx context.Context) error {
	older, err := p.acquireOpen(ctx)
	if err != nil {
		return err
	}
	newer, err := p.acquireOpen(ctx)
	if err != nil {
		older.Release()
		return err
	}

	result, err := p.evaluate(ctx, older, newer)
	if err != nil {
		older.Release()
		newer.Release()
		p.skipped.Add(1)
		return errors.Wrapf(ErrCycleSkipped, "%v", err)
	}
	p.cycles.Add(1)

	p.handOff(ctx, older, newer)
	p.publish(ctx, result)
	return nil
}

func (p *Processor) evaluate(ctx context.Context, older, newer *Frame) (result Result, err error) {
	saved := p.state
	defer func() {
		if r := recover(); r != nil {
			p.state = saved
			err = errors.Errorf("recovered panic: %v", r)
		}
	}()

	magnitude, err := p.estimator.Estimate(older, newer)
	if err != nil {
		return Result{}, err
	}

	decision := p.classifier.Classify(&p.state, magnitude)
	if decision.Moved {
		p.moved.Add(1)
		p.logger.Info("Something moved! Moving points: %d (previous %d)", magnitude, decision.Previous)
		if p.annotator != nil {
			if err := p.annotator.Mark(newer, p.cfg.Marker); err != nil {
				p.logger.Warning("Failed to draw motion marker: %v", err)
			}
		}
	}

	switch decision.Direction {
	case DirectionApproaching:
		p.approaches.Add(1)
	case DirectionReceding:
		p.recedes.Add(1)
	case DirectionStationary:
		p.logger.Info("Object is stationary relative to the camera")
	}

	if decision.Dispatches() {
		p.dispatcher.Dispatch(ctx, &p.state, decision)
	}

	return decision.Result(p.cfg.Camera, time.Now()), nil
}

// acquireOpen takes the next frame while the gate is open. A gate closed
// during the wait leaves the queue untouched until it reopens.
func (p *Processor) acquireOpen(ctx context.Context) (*Frame, error) {
	for {
		if err := p.gate.Wait(ctx); err != nil {
			return nil, err
		}
		frame, err := p.acquire(ctx)
		if errors.Is(err, errGateClosed) {
			continue
		}
		return frame, err
	}
}

var errGateClosed = errors.New("gate closed while waiting for a frame")

func (p *Processor) acquire(ctx context.Context) (*Frame, error) {
	var timeout <-chan time.Time
	if p.cfg.AcquireTimeout > 0 {
		timer := time.NewTimer(p.cfg.AcquireTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		open, changed := p.gate.watch()
		if !open {
			return nil, errGateClosed
		}

		select {
		case frame, ok := <-p.queues.Frames:
			if !ok {
				return nil, ErrFramesClosed
			}
			return frame, nil
		case <-changed:
		case <-timeout:
			return nil, ErrAcquireTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// handOff releases the older frame and forwards the newer one, or releases
// both when nothing consumes forwarded frames.
func (p *Processor) handOff(ctx context.Context, older, newer *Frame) {
	older.Release()

	if p.queues.Forward == nil {
		newer.Release()
		return
	}
	if err := send(ctx, p.queues.Forward, newer, p.cfg.PublishTimeout); err != nil {
		p.dropped.Add(1)
		p.logger.Warning("Dropping forwarded frame: %v", err)
		newer.Release()
	}
}

func (p *Processor) publish(ctx context.Context, result Result) {
	if p.queues.Results == nil {
		return
	}
	if err := send(ctx, p.queues.Results, result, p.cfg.PublishTimeout); err != nil {
		p.dropped.Add(1)
		p.logger.Warning("Dropping result (moved=%t, approaching=%t): %v", result.Moved, result.Approaching, err)
	}
}

var errSendTimeout = errors.New("downstream queue full")

func send[T any](ctx context.Context, ch chan<- T, v T, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ch <- v:
		return nil
	case <-expired:
		return errSendTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
