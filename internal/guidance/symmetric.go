package guidance

import "github.com/ayusman/framer/internal/geometry"

// symmetricStrategy runs the acquisition call pattern but has no rule
// mapping a region to a symmetric target, so it never seeds or aligns.
type symmetricStrategy struct{}

func (symmetricStrategy) Style() Style                    { return StyleSymmetric }
func (symmetricStrategy) FocusMode() geometry.ScoringMode { return geometry.CenterWeighted }
func (symmetricStrategy) ConfidenceThreshold() float64    { return DefaultConfidenceThreshold }

func (symmetricStrategy) Seed(geometry.Point, []geometry.Rect) (Seed, error) {
	return Seed{}, ErrNoTargetRule
}

func (symmetricStrategy) ShotPoint(State, geometry.Rect) (geometry.Point, error) {
	return geometry.Point{}, ErrNoTargetRule
}
