package guidance

import (
	"fmt"

	"github.com/ayusman/framer/internal/geometry"
)

// Confidence thresholds below which a tracking sample counts as lost.
const (
	DefaultConfidenceThreshold = 0.5
	ThirdsConfidenceThreshold  = 0.33
)

// Fallback seed box used when no large salient box contains the focus point.
const (
	FixedBoxSize   = 0.4
	fixedBoxOffset = 0.2
)

// Seed is the result of acquisition: the region handed to the tracker and
// any target the style fixes at seed time.
type Seed struct {
	Region    geometry.Rect
	Target    *geometry.Point
	Keypoints []int
}

// Strategy supplies the style-specific rules plugged into the shared state
// machine.
type Strategy interface {
	Style() Style

	// FocusMode is the heatmap scoring used to find the focus point.
	FocusMode() geometry.ScoringMode

	// ConfidenceThreshold is the minimum tracker confidence.
	ConfidenceThreshold() float64

	// Seed picks the initial tracked region from the focus point and the
	// candidate salient boxes.
	Seed(focus geometry.Point, boxes []geometry.Rect) (Seed, error)

	// ShotPoint derives the on-screen shot point for the updated region.
	ShotPoint(st State, region geometry.Rect) (geometry.Point, error)
}

// contourStrategy is implemented by styles that run on contours instead of
// acquisition and tracking.
type contourStrategy interface {
	Strategy
	Analyze(paths []geometry.Polyline) ([]geometry.Segment, *geometry.Point)
}

var strategies = map[Style]func(Params) Strategy{
	StyleCenter:       func(Params) Strategy { return centerStrategy{} },
	StyleRuleOfThirds: func(Params) Strategy { return thirdsStrategy{} },
	StyleGoldenRatio:  func(p Params) Strategy { return newGoldenStrategy(p) },
	StyleLeadingLine:  func(Params) Strategy { return leadingLineStrategy{} },
	StyleSymmetric:    func(Params) Strategy { return symmetricStrategy{} },
}

// NewStrategy returns the strategy for style.
func NewStrategy(style Style, params Params) (Strategy, error) {
	build, ok := strategies[style]
	if !ok {
		return nil, fmt.Errorf("no strategy for %s", style)
	}
	return build(params), nil
}

// containingBox returns the first box that contains p.
func containingBox(boxes []geometry.Rect, p geometry.Point) (geometry.Rect, bool) {
	for _, b := range boxes {
		if b.Contains(p) {
			return b, true
		}
	}
	return geometry.Rect{}, false
}

// fixedBox returns the fallback box with its origin 0.2 above and left of
// the focus point.
func fixedBox(focus geometry.Point) geometry.Rect {
	return geometry.Rect{
		X:      focus.X - fixedBoxOffset,
		Y:      focus.Y - fixedBoxOffset,
		Width:  FixedBoxSize,
		Height: FixedBoxSize,
	}
}

// seedRegion tracks the first box containing focus directly when it is
// larger than large in either dimension, and falls back to the fixed box
// otherwise. Later containing boxes are not considered.
func seedRegion(focus geometry.Point, boxes []geometry.Rect, large float64) geometry.Rect {
	if box, ok := containingBox(boxes, focus); ok && (box.Width > large || box.Height > large) {
		return box
	}
	return fixedBox(focus)
}
