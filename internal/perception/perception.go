// Package perception defines the contract between the guidance engine and
// the saliency detector, object tracker and contour extractor it consumes.
package perception

import (
	"errors"

	"github.com/ayusman/framer/internal/geometry"
)

// ErrUnsupportedFrame is returned when an adapter is handed a frame type it
// cannot read.
var ErrUnsupportedFrame = errors.New("unsupported frame type")

// ErrUnavailable is returned when a perception primitive produced nothing
// for the frame.
var ErrUnavailable = errors.New("perception unavailable")

// Frame is one camera frame handed to an Adapter.
type Frame interface {
	// Size returns the frame resolution in pixels.
	Size() (width, height int)
}

// TrackingSample is the per-frame result of an object tracker.
type TrackingSample struct {
	Region      geometry.Rect `json:"region"`
	Confidence  float64       `json:"confidence"`
	IsLastFrame bool          `json:"is_last_frame"`
}

// Tracker follows one region across frames. The first Track call after
// creation or Reset seeds the tracker with region; later calls update it.
type Tracker interface {
	Track(region geometry.Rect, frame Frame) (*TrackingSample, error)

	// Reset drops the current seed so the next Track call re-seeds.
	Reset()

	// Close releases any resources held by the tracker.
	Close() error
}

// Adapter produces the perception primitives for a frame.
type Adapter interface {
	// DetectAttentionHeatmap returns the attention-based saliency map.
	DetectAttentionHeatmap(frame Frame) (*geometry.Heatmap, error)

	// DetectSalientBoxes returns objectness-based salient object boxes.
	DetectSalientBoxes(frame Frame) ([]geometry.Rect, error)

	// NewTracker returns a tracker owned by a single guidance instance.
	NewTracker() Tracker

	// ExtractContours returns contour polylines in normalized coordinates.
	ExtractContours(frame Frame) ([]geometry.Polyline, error)

	// Close releases any resources held by the adapter.
	Close() error
}

// Config holds configuration options shared by adapter implementations.
type Config struct {
	// HeatmapSize is the edge length of the low-resolution attention map.
	HeatmapSize int

	// MinBoxArea drops salient boxes smaller than this normalized area.
	MinBoxArea float64

	// MaxScanPixels caps the resolution a heatmap is upsampled to before
	// the focus point scan. Zero scans at full source resolution.
	MaxScanPixels int

	// ContourEpsilon is the polyline approximation tolerance as a fraction
	// of each contour's perimeter.
	ContourEpsilon float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		HeatmapSize:    64,
		MinBoxArea:     0.005,
		MaxScanPixels:  0,
		ContourEpsilon: 0.01,
	}
}
