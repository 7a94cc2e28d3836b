package guidance

import "github.com/ayusman/framer/internal/geometry"

// centerLargeObject is the size above which a salient box is treated as
// the subject itself.
const centerLargeObject = 0.5

// centerStrategy keeps the subject in the middle of the frame. The frame
// center is the implicit target, so no anchor is stored.
type centerStrategy struct{}

func (centerStrategy) Style() Style                    { return StyleCenter }
func (centerStrategy) FocusMode() geometry.ScoringMode { return geometry.CenterWeighted }
func (centerStrategy) ConfidenceThreshold() float64    { return DefaultConfidenceThreshold }

func (centerStrategy) Seed(focus geometry.Point, boxes []geometry.Rect) (Seed, error) {
	return Seed{Region: seedRegion(focus, boxes, centerLargeObject)}, nil
}

func (centerStrategy) ShotPoint(_ State, region geometry.Rect) (geometry.Point, error) {
	return region.Center().FlipY(), nil
}
