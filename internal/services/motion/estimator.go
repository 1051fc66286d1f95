package motion

import (
	"github.com/pkg/errors"
)

const (
	DefaultBlockSize      = 8  // Pixel stride of the moving point count
	DefaultBlockThreshold = 15 // Minimum per-pixel intensity change to count as moved
)

var (
	ErrNilFrame          = errors.New("frame is nil")
	ErrDimensionMismatch = errors.New("frame dimensions differ")
)

// MovingPointCounter is the external primitive that counts moved pixels
// between two frames of the same size.
type MovingPointCounter interface {
	CountMovingPoints(a, b *Frame, blockSize, blockThreshold int) (int, error)
}

// Estimator adapts a MovingPointCounter to the fixed sensitivity parameters
// of the classifier and checks the frame preconditions.
type Estimator struct {
	counter        MovingPointCounter
	blockSize      int
	blockThreshold int
}

func NewEstimator(counter MovingPointCounter, blockSize, blockThreshold int) *Estimator {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if blockThreshold <= 0 {
		blockThreshold = DefaultBlockThreshold
	}
	return &Estimator{
		counter:        counter,
		blockSize:      blockSize,
		blockThreshold: blockThreshold,
	}
}

// Estimate returns the number of moving points between older and newer.
func (e *Estimator) Estimate(older, newer *Frame) (int, error) {
	if older == nil || newer == nil {
		return 0, ErrNilFrame
	}
	if !older.SameSize(newer) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "%dx%d vs %dx%d",
			older.Width, older.Height, newer.Width, newer.Height)
	}

	points, err := e.counter.CountMovingPoints(older, newer, e.blockSize, e.blockThreshold)
	if err != nil {
		return 0, errors.Wrap(err, "count moving points")
	}
	if points < 0 {
		points = 0
	}
	return points, nil
}
