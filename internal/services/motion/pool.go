package motion

import "time"

// FramePool is a fixed set of pixel buffers of one resolution. Frames taken
// from the pool return their buffer on Release.
type FramePool struct {
	width  int
	height int
	free   chan []byte
}

// NewFramePool allocates size BGR buffers of width x height.
func NewFramePool(width, height, size int) *FramePool {
	p := &FramePool{
		width:  width,
		height: height,
		free:   make(chan []byte, size),
	}
	for i := 0; i < size; i++ {
		p.free <- make([]byte, width*height*3)
	}
	return p
}

// Get returns a frame backed by a free buffer, or false when every buffer
// is in flight.
func (p *FramePool) Get(ts time.Time) (*Frame, bool) {
	select {
	case pix := <-p.free:
		f := NewFrame(p.width, p.height, pix, p.put)
		f.Timestamp = ts
		return f, true
	default:
		return nil, false
	}
}

func (p *FramePool) put(f *Frame) {
	select {
	case p.free <- f.Pix[:cap(f.Pix)]:
	default:
	}
}

// Available reports how many buffers are free.
func (p *FramePool) Available() int {
	return len(p.free)
}

func (p *FramePool) Width() int  { return p.width }
func (p *FramePool) Height() int { return p.height }
