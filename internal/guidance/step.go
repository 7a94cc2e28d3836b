package guidance

import (
	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/perception"
)

// Observation is the perception input for one frame. Which fields are
// filled depends on the phase: acquisition reads Focus and Boxes, tracking
// reads Sample, contour styles read Contours.
type Observation struct {
	Focus    *geometry.Point
	Boxes    []geometry.Rect
	Sample   *perception.TrackingSample
	Contours []geometry.Polyline

	// Err records a perception failure for the frame.
	Err error
}

// Step advances st by one frame. It is pure: the same inputs always give
// the same outputs, and st is never modified.
//
// Every failure degrades to "no guidance this frame"; the reason is carried
// on Output.Err.
func Step(st State, s Strategy, obs Observation) (State, Output) {
	if cs, ok := s.(contourStrategy); ok {
		return stepContours(cs, obs)
	}

	if st.Phase == Tracking {
		return stepTracking(st, s, obs)
	}
	return stepAcquiring(st, s, obs)
}

func stepAcquiring(st State, s Strategy, obs Observation) (State, Output) {
	if obs.Err != nil || obs.Focus == nil {
		return st, st.output(s.Style(), ErrPerceptionUnavailable)
	}
	if len(obs.Boxes) == 0 {
		return st, st.output(s.Style(), ErrNoCandidateRegion)
	}

	seed, err := s.Seed(*obs.Focus, obs.Boxes)
	if err != nil {
		return st, st.output(s.Style(), err)
	}

	region := seed.Region
	next := State{
		Phase:             Tracking,
		TrackedRegion:     &region,
		TargetAnchor:      seed.Target,
		SelectedKeypoints: seed.Keypoints,
	}
	return next, next.output(s.Style(), nil)
}

func stepTracking(st State, s Strategy, obs Observation) (State, Output) {
	if obs.Err != nil || obs.Sample == nil {
		next := NewState()
		return next, next.output(s.Style(), ErrPerceptionUnavailable)
	}

	sample := obs.Sample
	if sample.IsLastFrame || sample.Confidence < s.ConfidenceThreshold() {
		next := NewState()
		return next, next.output(s.Style(), ErrTrackingLost)
	}

	region := sample.Region
	next := st
	next.TrackedRegion = &region

	shot, err := s.ShotPoint(st, region)
	if err != nil {
		next.BestShotPoint = nil
		next.Aligned = false
		return next, next.output(s.Style(), err)
	}

	next.BestShotPoint = &shot
	next.Aligned = IsAligned(shot)
	return next, next.output(s.Style(), nil)
}

func stepContours(s contourStrategy, obs Observation) (State, Output) {
	next := NewState()
	if obs.Err != nil {
		return next, next.output(s.Style(), ErrPerceptionUnavailable)
	}

	next.Segments, next.VanishingPoint = s.Analyze(obs.Contours)
	return next, next.output(s.Style(), nil)
}
