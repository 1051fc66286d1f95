package motion

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGate_WaitBlocksUntilOpen(t *testing.T) {
	gate := NewGate(false)
	done := make(chan error, 1)

	go func() {
		done <- gate.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while gate closed")
	case <-time.After(30 * time.Millisecond):
	}

	gate.Set(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after gate opened")
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	gate := NewGate(false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := gate.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestGate_FollowAppliesLastValue(t *testing.T) {
	gate := NewGate(true)
	control := make(chan bool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		gate.Follow(ctx, control)
		close(stopped)
	}()

	control <- false
	control <- true
	control <- false
	close(control)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Follow did not stop after control closed")
	}
	if gate.IsOpen() {
		t.Error("gate should reflect the last received value (false)")
	}
}

func TestOfferLatest_ReplacesPendingValue(t *testing.T) {
	control := make(chan bool, 1)

	OfferLatest(control, true)
	OfferLatest(control, false)

	if len(control) != 1 {
		t.Fatalf("pending values = %d, want 1", len(control))
	}
	if v := <-control; v {
		t.Error("pending value should be the latest offer (false)")
	}
}

func TestOfferLatest_UnbufferedNeverBlocks(t *testing.T) {
	control := make(chan bool)
	done := make(chan struct{})

	go func() {
		OfferLatest(control, true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OfferLatest blocked on an unbuffered channel")
	}
}
