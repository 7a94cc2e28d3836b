package cv

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/perception"
)

// MILTracker follows one region with OpenCV's MIL tracker.
//
// MIL reports success or failure but no score, so successful updates carry
// full confidence and a failed update ends the track with IsLastFrame.
type MILTracker struct {
	mu      sync.Mutex
	tracker gocv.Tracker
}

// NewMILTracker creates an unseeded tracker.
func NewMILTracker() *MILTracker {
	return &MILTracker{}
}

// Track implements perception.Tracker.
func (t *MILTracker) Track(region geometry.Rect, frame perception.Frame) (*perception.TrackingSample, error) {
	f, err := matOf(frame)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := f.Size()

	if t.tracker == nil {
		box := toPixels(region, w, h)
		if box.Empty() {
			return nil, fmt.Errorf("seed region %+v outside frame", region)
		}

		tracker := gocv.NewTrackerMIL()
		if ok := tracker.Init(*f.Mat, box); !ok {
			tracker.Close()
			return nil, fmt.Errorf("init MIL tracker")
		}
		t.tracker = tracker
		return &perception.TrackingSample{Region: region, Confidence: 1}, nil
	}

	box, ok := t.tracker.Update(*f.Mat)
	if !ok {
		return &perception.TrackingSample{Region: region, IsLastFrame: true}, nil
	}

	return &perception.TrackingSample{
		Region:     fromPixels(box, w, h),
		Confidence: 1,
	}, nil
}

// Reset implements perception.Tracker.
func (t *MILTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release()
}

// Close implements perception.Tracker.
func (t *MILTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.release()
}

func (t *MILTracker) release() error {
	if t.tracker == nil {
		return nil
	}
	err := t.tracker.Close()
	t.tracker = nil
	return err
}

// toPixels converts a normalized rect to a pixel rect clipped to the frame.
func toPixels(r geometry.Rect, w, h int) image.Rectangle {
	fw, fh := float64(w), float64(h)
	px := image.Rect(
		int(r.X*fw),
		int(r.Y*fh),
		int(r.MaxX()*fw),
		int(r.MaxY()*fh),
	)
	return px.Intersect(image.Rect(0, 0, w, h))
}

// fromPixels converts a pixel rect to normalized coordinates.
func fromPixels(r image.Rectangle, w, h int) geometry.Rect {
	fw, fh := float64(w), float64(h)
	return geometry.Rect{
		X:      float64(r.Min.X) / fw,
		Y:      float64(r.Min.Y) / fh,
		Width:  float64(r.Dx()) / fw,
		Height: float64(r.Dy()) / fh,
	}
}
