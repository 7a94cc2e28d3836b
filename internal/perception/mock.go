package perception

import (
	"image"
	"math"
	"sync"

	"github.com/ayusman/framer/internal/geometry"
)

// StaticFrame is a Frame with a fixed size and no pixels, for tests and
// for adapters that do not read frame data.
type StaticFrame struct {
	Width, Height int
}

// Size implements Frame.
func (f StaticFrame) Size() (int, int) {
	return f.Width, f.Height
}

// PeakHeatmap returns a size×size heatmap that is dark everywhere except
// one full-brightness pixel at p.
func PeakHeatmap(p geometry.Point, size int) *geometry.Heatmap {
	img := image.NewGray(image.Rect(0, 0, size, size))
	x := min(size-1, max(0, int(math.Round(p.X*float64(size)))))
	y := min(size-1, max(0, int(math.Round(p.Y*float64(size)))))
	img.Pix[y*img.Stride+x] = 255
	return &geometry.Heatmap{Gray: img, SourceWidth: size, SourceHeight: size}
}

// MockAdapter is a test implementation of the Adapter interface.
// It allows tests to control every perception result.
type MockAdapter struct {
	mu         sync.Mutex
	heatmap    *geometry.Heatmap
	heatmapErr error
	boxes      []geometry.Rect
	boxesErr   error
	contours   []geometry.Polyline
	contourErr error
	tracker    *MockTracker

	HeatmapCalls int
	BoxCalls     int
	ContourCalls int
}

// NewMockAdapter creates a new MockAdapter instance.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{tracker: NewMockTracker()}
}

// SetHeatmap sets the heatmap returned by DetectAttentionHeatmap.
func (m *MockAdapter) SetHeatmap(h *geometry.Heatmap, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heatmap, m.heatmapErr = h, err
}

// SetFocus is a shortcut for SetHeatmap(PeakHeatmap(p, 100), nil).
func (m *MockAdapter) SetFocus(p geometry.Point) {
	m.SetHeatmap(PeakHeatmap(p, 100), nil)
}

// SetBoxes sets the boxes returned by DetectSalientBoxes.
func (m *MockAdapter) SetBoxes(boxes []geometry.Rect, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes, m.boxesErr = boxes, err
}

// SetContours sets the polylines returned by ExtractContours.
func (m *MockAdapter) SetContours(paths []geometry.Polyline, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contours, m.contourErr = paths, err
}

// Tracker returns the tracker handed out by NewTracker.
func (m *MockAdapter) Tracker() *MockTracker {
	return m.tracker
}

// DetectAttentionHeatmap returns the pre-configured heatmap or error.
func (m *MockAdapter) DetectAttentionHeatmap(Frame) (*geometry.Heatmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeatmapCalls++
	if m.heatmapErr != nil {
		return nil, m.heatmapErr
	}
	return m.heatmap, nil
}

// DetectSalientBoxes returns the pre-configured boxes or error.
func (m *MockAdapter) DetectSalientBoxes(Frame) ([]geometry.Rect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BoxCalls++
	if m.boxesErr != nil {
		return nil, m.boxesErr
	}
	return m.boxes, nil
}

// NewTracker returns the shared mock tracker, reset.
func (m *MockAdapter) NewTracker() Tracker {
	m.tracker.Reset()
	return m.tracker
}

// ExtractContours returns the pre-configured polylines or error.
func (m *MockAdapter) ExtractContours(Frame) ([]geometry.Polyline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContourCalls++
	if m.contourErr != nil {
		return nil, m.contourErr
	}
	return m.contours, nil
}

// Close is a no-op for the mock adapter.
func (m *MockAdapter) Close() error {
	return nil
}

// MockTracker replays queued samples. The seeding call and any call made
// while the queue is empty echo the submitted region with full confidence.
type MockTracker struct {
	mu      sync.Mutex
	samples []*TrackingSample
	err     error
	seeded  bool

	// Seeds records every region the tracker was seeded with.
	Seeds []geometry.Rect
	// Calls counts Track invocations.
	Calls int
}

// NewMockTracker creates a new MockTracker instance.
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// Push queues samples returned by subsequent Track calls, in order.
func (t *MockTracker) Push(samples ...*TrackingSample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, samples...)
}

// SetError sets the error returned by Track.
func (t *MockTracker) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

// Track implements Tracker.
func (t *MockTracker) Track(region geometry.Rect, _ Frame) (*TrackingSample, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Calls++
	if t.err != nil {
		return nil, t.err
	}
	if !t.seeded {
		t.seeded = true
		t.Seeds = append(t.Seeds, region)
		return &TrackingSample{Region: region, Confidence: 1}, nil
	}
	if len(t.samples) == 0 {
		return &TrackingSample{Region: region, Confidence: 1}, nil
	}

	s := t.samples[0]
	t.samples = t.samples[1:]
	return s, nil
}

// Reset implements Tracker.
func (t *MockTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seeded = false
}

// Seeded reports whether the tracker currently holds a seed.
func (t *MockTracker) Seeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seeded
}

// Close is a no-op for the mock tracker.
func (t *MockTracker) Close() error {
	return nil
}
