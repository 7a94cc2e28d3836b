package guidance

import (
	"math"

	"github.com/ayusman/framer/internal/geometry"
)

// Golden-ratio anchor for the top-left quadrant before the aspect offset.
const (
	goldenAnchorX = 0.236
	goldenAnchorY = 0.282

	// goldenOffsetX compensates for the wider visible crop of non-9:16 frames.
	goldenOffsetX = 0.214
)

// goldenLargeObject is the size above which a salient box is tracked as is.
const goldenLargeObject = 0.33

// Jitter thresholds: a new candidate replaces the previous shot point only
// when it moves more than this in either axis.
const (
	goldenAlignedJitter   = 0.1
	goldenUnalignedJitter = 0.025
)

// GoldenAnchor returns the target anchor for the given activation params.
func GoldenAnchor(p Params) geometry.Point {
	offset := goldenOffsetX
	if p.Is9x16() {
		offset = 0
	}

	x, y := goldenAnchorX+offset/2, goldenAnchorY
	switch p.Orientation {
	case TopRight:
		x = 1 - x
	case BottomLeft:
		y = 1 - y
	case BottomRight:
		x, y = 1-x, 1-y
	}
	return geometry.Pt(x, y)
}

// goldenStrategy moves the subject onto a golden-ratio point with
// hysteresis so the shot point does not jitter near the target.
type goldenStrategy struct {
	anchor geometry.Point
}

func newGoldenStrategy(p Params) goldenStrategy {
	return goldenStrategy{anchor: GoldenAnchor(p)}
}

func (goldenStrategy) Style() Style                    { return StyleGoldenRatio }
func (goldenStrategy) FocusMode() geometry.ScoringMode { return geometry.MaxBrightness }
func (goldenStrategy) ConfidenceThreshold() float64    { return DefaultConfidenceThreshold }

func (g goldenStrategy) Seed(focus geometry.Point, boxes []geometry.Rect) (Seed, error) {
	anchor := g.anchor
	return Seed{Region: seedRegion(focus, boxes, goldenLargeObject), Target: &anchor}, nil
}

func (g goldenStrategy) ShotPoint(st State, region geometry.Rect) (geometry.Point, error) {
	target := g.anchor
	if st.TargetAnchor != nil {
		target = *st.TargetAnchor
	}

	adj := target.Sub(region.Center())
	candidate := geometry.Pt(0.5+adj.X, 1-(0.5+adj.Y))

	prev := st.BestShotPoint
	if prev == nil {
		return candidate, nil
	}

	if st.Aligned {
		if movedMoreThan(*prev, candidate, goldenAlignedJitter) {
			return candidate, nil
		}
		return geometry.Pt(0.5, 0.5), nil
	}

	if movedMoreThan(*prev, candidate, goldenUnalignedJitter) {
		return candidate, nil
	}
	return *prev, nil
}

// movedMoreThan reports whether a and b differ by more than d in either axis.
func movedMoreThan(a, b geometry.Point, d float64) bool {
	return math.Abs(a.X-b.X) > d || math.Abs(a.Y-b.Y) > d
}
