package guidance

import (
	"sync"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
)

// Selector owns the active style's Machine, forwards frames to it and
// publishes every Output to subscribers. It is safe for concurrent use.
type Selector struct {
	mu            sync.Mutex
	adapter       perception.Adapter
	machine       *Machine
	style         Style
	params        Params
	last          Output
	activation    uint64
	maxScanPixels int

	subMu  sync.RWMutex
	subs   map[int]chan Output
	nextID int
}

// NewSelector creates a Selector with style active.
func NewSelector(adapter perception.Adapter, style Style, params Params) (*Selector, error) {
	s := &Selector{
		adapter: adapter,
		subs:    make(map[int]chan Output),
	}
	if err := s.SetActiveStyle(style, params); err != nil {
		return nil, err
	}
	return s, nil
}

// SetActiveStyle atomically swaps the active style. The previous Machine
// is discarded and the new one starts acquiring; no state carries over.
func (s *Selector) SetActiveStyle(style Style, params Params) error {
	strategy, err := NewStrategy(style, params)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapLocked(strategy, style, params)
	s.publish(s.last)

	log.Info("guidance style activated", "style", style, "orientation", params.Orientation, "aspect", params.Aspect)
	return nil
}

// SetAdapter replaces the perception adapter and restarts the active style.
func (s *Selector) SetAdapter(adapter perception.Adapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter = adapter
	s.swapLocked(s.machine.Strategy(), s.style, s.params)
	s.publish(s.last)
}

// SetMaxScanPixels caps the focus point scan resolution for this and every
// later Machine.
func (s *Selector) SetMaxScanPixels(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxScanPixels = n
	if s.machine != nil {
		s.machine.SetMaxScanPixels(n)
	}
}

func (s *Selector) swapLocked(strategy Strategy, style Style, params Params) {
	if s.machine != nil {
		if err := s.machine.Close(); err != nil {
			log.Warn("closing guidance machine", "style", s.style, "err", err)
		}
	}

	s.machine = NewMachine(strategy, s.adapter)
	s.machine.SetMaxScanPixels(s.maxScanPixels)
	s.style = style
	s.params = params
	s.activation++

	s.last = s.machine.State().output(style, nil)
	s.last.Activation = s.activation
}

// ActiveStyle returns the active style and its parameters.
func (s *Selector) ActiveStyle() (Style, Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style, s.params
}

// Process forwards frame to the active Machine and publishes the result.
func (s *Selector) Process(frame perception.Frame) Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.machine.Process(frame)
	out.Activation = s.activation
	s.last = out
	s.publish(out)
	return out
}

// Reset forces the active Machine back to acquisition.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.machine.Reset()
	out.Activation = s.activation
	s.last = out
	s.publish(out)
}

// Output returns the most recent Output.
func (s *Selector) Output() Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// CurrentShotPoint returns the current shot point, or nil.
func (s *Selector) CurrentShotPoint() *geometry.Point {
	return s.Output().ShotPoint
}

// IsAligned reports whether the current shot point is aligned.
func (s *Selector) IsAligned() bool {
	return s.Output().Aligned
}

// CurrentTrackedRegion returns the current tracked region, or nil.
func (s *Selector) CurrentTrackedRegion() *geometry.Rect {
	return s.Output().TrackedRegion
}

// Subscribe returns a channel receiving every published Output and a
// function that cancels the subscription. Slow subscribers miss updates
// rather than block the frame loop.
func (s *Selector) Subscribe(buffer int) (<-chan Output, func()) {
	ch := make(chan Output, max(1, buffer))

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// publish delivers out to every subscriber without blocking. Callers hold
// s.mu so subscribers see outputs in activation order.
func (s *Selector) publish(out Output) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- out:
		default:
		}
	}
}

// Close releases the active Machine.
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return nil
	}
	return s.machine.Close()
}
