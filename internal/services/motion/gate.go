package motion

import (
	"context"
	"sync"
)

// Gate is the run/pause switch of the processing loop. The last value set wins.
type Gate struct {
	mu      sync.Mutex
	open    bool
	changed chan struct{}
}

func NewGate(open bool) *Gate {
	return &Gate{
		open:    open,
		changed: make(chan struct{}),
	}
}

// Set overwrites the gate state and wakes every waiter.
func (g *Gate) Set(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.open = open
	close(g.changed)
	g.changed = make(chan struct{})
}

func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// watch returns the current state and a channel closed by the next Set.
func (g *Gate) watch() (bool, <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open, g.changed
}

// Wait blocks until the gate is open or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		open, changed := g.watch()
		if open {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Follow copies every value received on control into the gate until the
// channel is closed or ctx is done.
func (g *Gate) Follow(ctx context.Context, control <-chan bool) {
	for {
		select {
		case open, ok := <-control:
			if !ok {
				return
			}
			g.Set(open)
		case <-ctx.Done():
			return
		}
	}
}

// OfferLatest puts v into a one-slot control channel, replacing a value the
// gate has not read yet. It never blocks.
func OfferLatest(control chan bool, v bool) {
	if cap(control) == 0 {
		select {
		case control <- v:
		default:
		}
		return
	}
	for {
		select {
		case control <- v:
			return
		default:
		}
		select {
		case <-control:
		default:
		}
	}
}
