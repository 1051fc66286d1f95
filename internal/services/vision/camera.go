package vision

import (
	"context"
	"image"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

const readRetryDelay = 67 * time.Millisecond

// Camera reads frames from a capture device into pooled buffers.
type Camera struct {
	device string
	pool   *motion.FramePool
	logger motion.Logger

	captured atomic.Uint64
	dropped  atomic.Uint64
}

// NewCamera creates a camera source. device is a numeric index or a
// file/stream path.
func NewCamera(device string, pool *motion.FramePool, logger motion.Logger) *Camera {
	return &Camera{device: device, pool: pool, logger: logger}
}

// Captured and Dropped report frame counters.
func (c *Camera) Captured() uint64 { return c.captured.Load() }
func (c *Camera) Dropped() uint64  { return c.dropped.Load() }

func (c *Camera) open() (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(c.device); err == nil {
		return gocv.OpenVideoCapture(id)
	}
	return gocv.OpenVideoCapture(c.device)
}

// Run captures until ctx is done or the device stops producing frames. out is
// closed on return. A frame is dropped when no pool buffer is free or out is
// full.
func (c *Camera) Run(ctx context.Context, out chan<- *motion.Frame) error {
	defer close(out)

	webcam, err := c.open()
	if err != nil {
		return errors.Wrapf(err, "failed to open camera %s", c.device)
	}
	defer webcam.Close()

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.pool.Width()))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.pool.Height()))
	c.logger.Info("Camera %s opened (%dx%d)", c.device, c.pool.Width(), c.pool.Height())

	img := gocv.NewMat()
	defer img.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()

	size := image.Pt(c.pool.Width(), c.pool.Height())
	failures := 0

	for ctx.Err() == nil {
		if ok := webcam.Read(&img); !ok || img.Empty() {
			failures++
			if failures == 1 || failures%100 == 0 {
				c.logger.Warning("Failed to read frame from camera %s (%d consecutive)", c.device, failures)
			}
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		failures = 0

		src := img
		if img.Cols() != size.X || img.Rows() != size.Y {
			gocv.Resize(img, &scaled, size, 0, 0, gocv.InterpolationLinear)
			if scaled.Empty() {
				c.logger.Warning("Failed to scale frame from %dx%d", img.Cols(), img.Rows())
				continue
			}
			src = scaled
		}
		if src.Channels() != 3 {
			c.logger.Warning("Unsupported frame with %d channels", src.Channels())
			continue
		}

		frame, ok := c.pool.Get(time.Now())
		if !ok {
			c.dropped.Add(1)
			continue
		}
		copy(frame.Pix, src.ToBytes())
		c.captured.Add(1)

		select {
		case out <- frame:
		default:
			c.dropped.Add(1)
			frame.Release()
		}
	}

	c.logger.Info("Camera %s stopped (captured=%d dropped=%d)", c.device, c.Captured(), c.Dropped())
	return nil
}
