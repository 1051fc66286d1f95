package motion

import (
	"sync/atomic"
	"time"
)

// Frame is a fixed-resolution BGR pixel buffer handed out by a frame source.
// The source keeps ownership of Pix: once Release is called the buffer may be
// reused and must not be touched again.
type Frame struct {
	Width     int
	Height    int
	Pix       []byte
	Timestamp time.Time

	release  func(*Frame)
	released atomic.Bool
}

// NewFrame wraps a pixel buffer. release is called at most once, when the
// consumer gives the frame back; it may be nil for frames nobody recycles.
func NewFrame(width, height int, pix []byte, release func(*Frame)) *Frame {
	return &Frame{
		Width:     width,
		Height:    height,
		Pix:       pix,
		Timestamp: time.Now(),
		release:   release,
	}
}

// Release returns the frame to its source. Calling it more than once is a no-op.
func (f *Frame) Release() {
	if f == nil || !f.released.CompareAndSwap(false, true) {
		return
	}
	if f.release != nil {
		f.release(f)
	}
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f.released.Load()
}

// SameSize reports whether both frames have identical dimensions.
func (f *Frame) SameSize(other *Frame) bool {
	return f.Width == other.Width && f.Height == other.Height
}
