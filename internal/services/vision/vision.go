// Package vision binds the motion core to OpenCV: frame differencing, the
// motion marker, camera capture and JPEG encoding.
package vision

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

var markerColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}

// toMat copies a BGR frame into a new Mat. The caller closes it.
func toMat(f *motion.Frame) (gocv.Mat, error) {
	if f == nil {
		return gocv.NewMat(), motion.ErrNilFrame
	}
	if len(f.Pix) < f.Width*f.Height*3 {
		return gocv.NewMat(), errors.Errorf("frame buffer too small: %d bytes for %dx%d", len(f.Pix), f.Width, f.Height)
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix[:f.Width*f.Height*3])
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to wrap frame")
	}
	return mat, nil
}

// DiffCounter counts moved sample points between two frames.
type DiffCounter struct{}

// CountMovingPoints samples one pixel per blockSize x blockSize block of the
// absolute difference and counts the samples whose gray level exceeds
// blockThreshold.
func (DiffCounter) CountMovingPoints(a, b *motion.Frame, blockSize, blockThreshold int) (int, error) {
	if blockSize <= 0 {
		return 0, errors.Errorf("invalid block size %d", blockSize)
	}

	matA, err := toMat(a)
	if err != nil {
		return 0, err
	}
	defer matA.Close()

	matB, err := toMat(b)
	if err != nil {
		return 0, err
	}
	defer matB.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(matA, matB, &diff); err != nil {
		return 0, errors.Wrap(err, "failed to diff frames")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray); err != nil {
		return 0, errors.Wrap(err, "failed to convert diff to gray")
	}

	cols, rows := a.Width/blockSize, a.Height/blockSize
	if cols == 0 || rows == 0 {
		return 0, nil
	}

	sampled := gocv.NewMat()
	defer sampled.Close()
	gocv.Resize(gray, &sampled, image.Pt(cols, rows), 0, 0, gocv.InterpolationNearestNeighbor)
	if sampled.Empty() {
		return 0, errors.New("failed to sample diff")
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(sampled, &thresh, float32(blockThreshold), 255, gocv.ThresholdBinary)

	return gocv.CountNonZero(thresh), nil
}

// RectangleMarker draws a filled rectangle on frames in place.
type RectangleMarker struct{}

func (RectangleMarker) Mark(frame *motion.Frame, rect image.Rectangle) error {
	mat, err := toMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	if err := gocv.Rectangle(&mat, rect, markerColor, -1); err != nil {
		return errors.Wrap(err, "failed to draw rectangle")
	}
	copy(frame.Pix, mat.ToBytes())
	return nil
}

// EncodeJPEG compresses a frame for viewers.
func EncodeJPEG(frame *motion.Frame, quality int) ([]byte, error) {
	mat, err := toMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
