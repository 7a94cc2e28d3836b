package cv

import (
	"fmt"
	"sync"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
)

// Adapter implements perception.Adapter with GoCV.
type Adapter struct {
	config   perception.Config
	primary  SaliencySource
	fallback SaliencySource

	mu        sync.Mutex
	cachedSeq uint64
	cached    Saliency
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSaliencySource makes src the primary saliency source. The built-in
// gradient saliency is used whenever src fails.
func WithSaliencySource(src SaliencySource) Option {
	return func(a *Adapter) {
		a.primary = src
	}
}

// NewAdapter creates an Adapter.
func NewAdapter(config perception.Config, opts ...Option) *Adapter {
	a := &Adapter{
		config:   config,
		fallback: NewGradientSaliency(config.HeatmapSize, config.MinBoxArea),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DetectAttentionHeatmap implements perception.Adapter.
func (a *Adapter) DetectAttentionHeatmap(frame perception.Frame) (*geometry.Heatmap, error) {
	s, err := a.saliency(frame)
	if err != nil {
		return nil, err
	}
	if s.Heatmap.Empty() {
		return nil, fmt.Errorf("%w: empty heatmap", perception.ErrUnavailable)
	}
	return s.Heatmap, nil
}

// DetectSalientBoxes implements perception.Adapter.
func (a *Adapter) DetectSalientBoxes(frame perception.Frame) ([]geometry.Rect, error) {
	s, err := a.saliency(frame)
	if err != nil {
		return nil, err
	}
	return s.Boxes, nil
}

// NewTracker implements perception.Adapter.
func (a *Adapter) NewTracker() perception.Tracker {
	return NewMILTracker()
}

// ExtractContours implements perception.Adapter.
func (a *Adapter) ExtractContours(frame perception.Frame) ([]geometry.Polyline, error) {
	f, err := matOf(frame)
	if err != nil {
		return nil, err
	}
	return extractContours(*f.Mat, a.config.ContourEpsilon), nil
}

// Close releases the saliency sources.
func (a *Adapter) Close() error {
	var err error
	if a.primary != nil {
		err = a.primary.Close()
	}
	if ferr := a.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}

// saliency computes the saliency of frame once per sequence number.
func (a *Adapter) saliency(frame perception.Frame) (Saliency, error) {
	f, err := matOf(frame)
	if err != nil {
		return Saliency{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if f.Seq != 0 && f.Seq == a.cachedSeq {
		return a.cached, nil
	}

	var s Saliency
	if a.primary != nil {
		s, err = a.primary.Saliency(*f.Mat)
		if err != nil {
			log.Warn("saliency service failed, using gradient saliency", "err", err)
		}
	}
	if a.primary == nil || err != nil {
		s, err = a.fallback.Saliency(*f.Mat)
		if err != nil {
			return Saliency{}, err
		}
	}

	a.cachedSeq = f.Seq
	a.cached = s
	return s, nil
}
