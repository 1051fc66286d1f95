package motion

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

var zeroTime time.Time

// scriptedCounter returns the queued magnitudes in order.
type scriptedCounter struct {
	mu         sync.Mutex
	magnitudes []int
	calls      int
	err        error
	panicWith  interface{}
}

func (c *scriptedCounter) CountMovingPoints(a, b *Frame, blockSize, blockThreshold int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.panicWith != nil {
		panic(c.panicWith)
	}
	if c.err != nil {
		return 0, c.err
	}
	if len(c.magnitudes) == 0 {
		return 0, nil
	}
	next := c.magnitudes[0]
	c.magnitudes = c.magnitudes[1:]
	return next, nil
}

type fakeAudio struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *fakeAudio) Capture(ctx context.Context) ([]int16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return make([]int16, 1024), nil
}

func (a *fakeAudio) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []bool
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, entering bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, entering)
	return n.err
}

func (n *fakeNotifier) Sent() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]bool(nil), n.sent...)
}

type fakeAnnotator struct {
	marked []image.Rectangle
	err    error
}

func (a *fakeAnnotator) Mark(frame *Frame, rect image.Rectangle) error {
	a.marked = append(a.marked, rect)
	return a.err
}

var errBoom = errors.New("boom")

// frameSet builds frames that count their releases.
type frameSet struct {
	mu       sync.Mutex
	released map[*Frame]int
}

func newFrameSet() *frameSet {
	return &frameSet{released: make(map[*Frame]int)}
}

func (s *frameSet) frame(width, height int) *Frame {
	return NewFrame(width, height, make([]byte, width*height*3), func(f *Frame) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.released[f]++
	})
}

func (s *frameSet) releases(f *Frame) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released[f]
}

// queue returns a buffered frame channel preloaded with n frames of the same size.
func (s *frameSet) queue(n int) (chan *Frame, []*Frame) {
	ch := make(chan *Frame, n)
	frames := make([]*Frame, 0, n)
	for i := 0; i < n; i++ {
		f := s.frame(8, 8)
		frames = append(frames, f)
		ch <- f
	}
	return ch, frames
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(ctx context.Context, entering bool) error {
	panic("notifier exploded")
}
