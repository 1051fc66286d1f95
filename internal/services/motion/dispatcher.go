package motion

import (
	"context"
	"time"
)

const DefaultSettleDelay = 750 * time.Millisecond

// Logger is the leveled logger the pipeline writes to.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}

// AudioSampler captures a short, fixed-length audio sample.
type AudioSampler interface {
	Capture(ctx context.Context) ([]int16, error)
}

// Notifier delivers the entering/leaving signal downstream.
type Notifier interface {
	Notify(ctx context.Context, entering bool) error
}

// Dispatcher runs the side effects of an approach or recede decision.
// Side effects never change the classification; failures are only logged.
type Dispatcher struct {
	audio       AudioSampler
	notifier    Notifier
	settleDelay time.Duration
	logger      Logger
}

// NewDispatcher creates a dispatcher. audio and notifier may be nil.
func NewDispatcher(audio AudioSampler, notifier Notifier, settleDelay time.Duration, logger Logger) *Dispatcher {
	if logger == nil {
		logger = nopLogger{}
	}
	if settleDelay < 0 {
		settleDelay = 0
	}
	return &Dispatcher{
		audio:       audio,
		notifier:    notifier,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// Dispatch fires the path matching decision, resets state and waits the
// settle delay. It returns false when the decision has no side-effect path.
func (d *Dispatcher) Dispatch(ctx context.Context, state *State, decision Decision) bool {
	switch decision.Direction {
	case DirectionApproaching:
		d.logger.Info("Object is approaching (%d > %d)", decision.Magnitude, decision.Previous)
		d.captureAudio(ctx)
		d.notify(ctx, true)
	case DirectionReceding:
		d.logger.Info("Object is moving away (%d < %d)", decision.Magnitude, decision.Previous)
		d.notify(ctx, false)
	default:
		return false
	}

	state.Reset()

	if err := sleepContext(ctx, d.settleDelay); err != nil {
		d.logger.Warning("Settle delay interrupted: %v", err)
	}
	return true
}

func (d *Dispatcher) captureAudio(ctx context.Context) {
	if d.audio == nil {
		return
	}
	samples, err := d.audio.Capture(ctx)
	if err != nil {
		d.logger.Error("Audio capture failed: %v", err)
		return
	}
	d.logger.Info("Captured %d audio samples", len(samples))
}

func (d *Dispatcher) notify(ctx context.Context, entering bool) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, entering); err != nil {
		d.logger.Error("Failed to send notification (entering=%t): %v", entering, err)
		return
	}
	d.logger.Info("Notification sent (entering=%t)", entering)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
