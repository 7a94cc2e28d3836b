// Package guidance implements the composition guidance engine: the shared
// acquisition/tracking state machine, the per-style strategies plugged into
// it, and the selector that swaps styles at runtime.
package guidance

import (
	"errors"
	"fmt"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
)

// Machine drives one style instance: it gathers the perception results the
// current phase needs and feeds them to Step. A Machine is not safe for
// concurrent use; the Selector serializes access.
type Machine struct {
	strategy      Strategy
	adapter       perception.Adapter
	tracker       perception.Tracker
	state         State
	maxScanPixels int
}

// NewMachine creates a Machine in the acquiring phase. The tracker is
// taken from the adapter and owned by the Machine.
func NewMachine(strategy Strategy, adapter perception.Adapter) *Machine {
	m := &Machine{
		strategy: strategy,
		adapter:  adapter,
		state:    NewState(),
	}
	if _, contours := strategy.(contourStrategy); !contours && adapter != nil {
		m.tracker = adapter.NewTracker()
	}
	return m
}

// SetMaxScanPixels caps the resolution of the focus point scan.
func (m *Machine) SetMaxScanPixels(n int) {
	m.maxScanPixels = n
}

// Strategy returns the active strategy.
func (m *Machine) Strategy() Strategy {
	return m.strategy
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Process runs one guidance pass for frame.
func (m *Machine) Process(frame perception.Frame) Output {
	prev := m.state.Phase
	obs := m.observe(frame)

	next, out := Step(m.state, m.strategy, obs)
	m.state = next

	if next.Phase == Tracking && prev == Acquiring {
		m.seedTracker(*next.TrackedRegion, frame)
	}
	if next.Phase == Acquiring && prev == Tracking && m.tracker != nil {
		m.tracker.Reset()
	}

	if out.Err != nil || next.Phase != prev {
		log.Debug("guidance step",
			"style", m.strategy.Style(),
			"phase", next.Phase,
			"reason", out.Reason,
			"perception_err", obs.Err,
		)
	}
	return out
}

// Reset returns the machine to acquisition with all state cleared.
func (m *Machine) Reset() Output {
	m.state = NewState()
	if m.tracker != nil {
		m.tracker.Reset()
	}
	return m.state.output(m.strategy.Style(), ErrReset)
}

// Close releases the tracker.
func (m *Machine) Close() error {
	if m.tracker == nil {
		return nil
	}
	return m.tracker.Close()
}

func (m *Machine) observe(frame perception.Frame) Observation {
	if m.adapter == nil {
		return Observation{Err: perception.ErrUnavailable}
	}

	if _, ok := m.strategy.(contourStrategy); ok {
		paths, err := m.adapter.ExtractContours(frame)
		if err != nil {
			return Observation{Err: fmt.Errorf("contours: %w", err)}
		}
		return Observation{Contours: paths}
	}

	if m.state.Phase == Tracking {
		return m.observeTracking(frame)
	}
	return m.observeAcquiring(frame)
}

func (m *Machine) observeAcquiring(frame perception.Frame) Observation {
	var obs Observation

	hm, err := m.adapter.DetectAttentionHeatmap(frame)
	if err != nil {
		obs.Err = fmt.Errorf("heatmap: %w", err)
	} else if focus, ok := geometry.LocateFocusPoint(hm.Downscaled(m.maxScanPixels), m.strategy.FocusMode()); ok {
		obs.Focus = &focus
	}

	boxes, err := m.adapter.DetectSalientBoxes(frame)
	if err != nil {
		obs.Err = errors.Join(obs.Err, fmt.Errorf("salient boxes: %w", err))
		return obs
	}
	obs.Boxes = boxes
	return obs
}

func (m *Machine) observeTracking(frame perception.Frame) Observation {
	if m.tracker == nil || m.state.TrackedRegion == nil {
		return Observation{Err: perception.ErrUnavailable}
	}

	sample, err := m.tracker.Track(*m.state.TrackedRegion, frame)
	if err != nil {
		return Observation{Err: fmt.Errorf("track: %w", err)}
	}
	return Observation{Sample: sample}
}

// seedTracker hands the freshly acquired region to the tracker on the same
// frame it was found in. A failed seed is retried by the next Track call.
func (m *Machine) seedTracker(region geometry.Rect, frame perception.Frame) {
	if m.tracker == nil {
		return
	}
	m.tracker.Reset()
	if _, err := m.tracker.Track(region, frame); err != nil {
		log.Debug("tracker seed failed", "style", m.strategy.Style(), "err", err)
		m.tracker.Reset()
	}
}
