package guidance

import (
	"errors"
	"fmt"

	"github.com/ayusman/framer/internal/geometry"
)

// Degradation reasons. None of them is ever returned as a failure; they are
// reported on Output.Err so callers can tell why no guidance was produced.
var (
	ErrPerceptionUnavailable = errors.New("perception unavailable")
	ErrTrackingLost          = errors.New("tracking lost")
	ErrNoCandidateRegion     = errors.New("no candidate region")
	ErrNoTargetRule          = errors.New("style has no target rule")
	ErrReset                 = errors.New("guidance reset")
)

// Alignment tolerance around the frame center, per axis.
const (
	AlignMin = 0.4
	AlignMax = 0.6
)

// IsAligned reports whether p lies within the centered alignment window.
func IsAligned(p geometry.Point) bool {
	return p.X >= AlignMin && p.X <= AlignMax && p.Y >= AlignMin && p.Y <= AlignMax
}

// Phase is the acquisition/tracking split of a guidance state.
type Phase int

const (
	// Acquiring looks for a subject to seed the tracker with.
	Acquiring Phase = iota
	// Tracking follows the seeded subject.
	Tracking
)

// String returns the phase name.
func (p Phase) String() string {
	if p == Tracking {
		return "tracking"
	}
	return "acquiring"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "acquiring":
		*p = Acquiring
	case "tracking":
		*p = Tracking
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// State is the complete per-style guidance state. Values are replaced
// wholesale by Step and never mutated in place.
type State struct {
	Phase             Phase
	TrackedRegion     *geometry.Rect
	TargetAnchor      *geometry.Point
	BestShotPoint     *geometry.Point
	Aligned           bool
	SelectedKeypoints []int

	// Leading-line visualization.
	Segments       []geometry.Segment
	VanishingPoint *geometry.Point
}

// NewState returns the initial state: acquiring, nothing tracked.
func NewState() State {
	return State{Phase: Acquiring}
}

// ShouldReset reports whether the next frame runs acquisition.
func (s State) ShouldReset() bool {
	return s.Phase == Acquiring
}

// Output is what a guidance pass publishes to the UI layer.
type Output struct {
	Style          Style              `json:"style"`
	Phase          Phase              `json:"phase"`
	ShotPoint      *geometry.Point    `json:"shot_point,omitempty"`
	Aligned        bool               `json:"aligned"`
	TrackedRegion  *geometry.Rect     `json:"tracked_region,omitempty"`
	TargetAnchor   *geometry.Point    `json:"target_anchor,omitempty"`
	Keypoints      []int              `json:"keypoints,omitempty"`
	Segments       []geometry.Segment `json:"segments,omitempty"`
	VanishingPoint *geometry.Point    `json:"vanishing_point,omitempty"`
	Reason         string             `json:"reason,omitempty"`

	// Activation increments on every style swap.
	Activation uint64 `json:"activation"`

	Err error `json:"-"`
}

func (s State) output(style Style, reason error) Output {
	out := Output{
		Style:          style,
		Phase:          s.Phase,
		ShotPoint:      s.BestShotPoint,
		Aligned:        s.Aligned,
		TrackedRegion:  s.TrackedRegion,
		TargetAnchor:   s.TargetAnchor,
		Keypoints:      s.SelectedKeypoints,
		Segments:       s.Segments,
		VanishingPoint: s.VanishingPoint,
		Err:            reason,
	}
	if reason != nil {
		out.Reason = reason.Error()
	}
	return out
}
