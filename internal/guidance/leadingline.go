package guidance

import "github.com/ayusman/framer/internal/geometry"

// MinSegmentLength drops contour segments shorter than this, in normalized
// units, as noise.
const MinSegmentLength = 0.0035

// leadingLineStrategy extracts straight segments from contours and
// estimates a vanishing point. It produces visualization data only.
type leadingLineStrategy struct{}

func (leadingLineStrategy) Style() Style                    { return StyleLeadingLine }
func (leadingLineStrategy) FocusMode() geometry.ScoringMode { return geometry.MaxBrightness }
func (leadingLineStrategy) ConfidenceThreshold() float64    { return DefaultConfidenceThreshold }

func (leadingLineStrategy) Seed(geometry.Point, []geometry.Rect) (Seed, error) {
	return Seed{}, ErrNoTargetRule
}

func (leadingLineStrategy) ShotPoint(State, geometry.Rect) (geometry.Point, error) {
	return geometry.Point{}, ErrNoTargetRule
}

// Analyze returns the straight segments of every path and the average of
// all their pairwise intersections.
func (leadingLineStrategy) Analyze(paths []geometry.Polyline) ([]geometry.Segment, *geometry.Point) {
	var segments []geometry.Segment
	for _, path := range paths {
		segments = append(segments, geometry.Segments(path, MinSegmentLength)...)
	}

	var crossings []geometry.Point
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if p, ok := geometry.Intersect(segments[i], segments[j]); ok {
				crossings = append(crossings, p)
			}
		}
	}

	vp, ok := geometry.Average(crossings)
	if !ok {
		return segments, nil
	}
	return segments, &vp
}
