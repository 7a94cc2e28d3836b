// Package cv implements the perception adapter on top of GoCV (OpenCV):
// gradient-energy saliency, MIL object tracking and Canny contours, with an
// optional external saliency model.
package cv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/perception"
)

// Frame wraps a BGR or grayscale camera frame.
type Frame struct {
	Mat *gocv.Mat

	// Seq identifies the frame. Saliency results are shared between calls
	// for the same non-zero Seq.
	Seq uint64
}

// NewFrame wraps mat with sequence number seq.
func NewFrame(mat *gocv.Mat, seq uint64) Frame {
	return Frame{Mat: mat, Seq: seq}
}

// Size implements perception.Frame.
func (f Frame) Size() (int, int) {
	if f.Mat == nil {
		return 0, 0
	}
	return f.Mat.Cols(), f.Mat.Rows()
}

func matOf(frame perception.Frame) (Frame, error) {
	f, ok := frame.(Frame)
	if !ok {
		return Frame{}, fmt.Errorf("%w: %T", perception.ErrUnsupportedFrame, frame)
	}
	if f.Mat == nil || f.Mat.Empty() {
		return Frame{}, fmt.Errorf("%w: empty frame", perception.ErrUnavailable)
	}
	return f, nil
}

// toGray returns a single-channel copy of mat. The caller closes it.
func toGray(mat gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if mat.Channels() > 1 {
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	} else {
		mat.CopyTo(&gray)
	}
	return gray
}
