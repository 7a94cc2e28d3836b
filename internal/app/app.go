// Package app wires the camera, the shake gesture, the perception adapter
// and the guidance selector into the frame pipeline.
package app

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/capture"
	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
	"github.com/ayusman/framer/internal/perception/cv"
	"github.com/ayusman/framer/internal/store"
)

// Frame pacing. Frames are processed at most this often.
const (
	MinFrameInterval     = 250 * time.Millisecond
	MaxFrameInterval     = 500 * time.Millisecond
	DefaultFrameInterval = MinFrameInterval
)

// Config holds configuration options for the application.
type Config struct {
	// Store journals sessions and events. Optional.
	Store *store.Store

	// Camera overrides the device camera, mostly for tests.
	Camera       capture.Camera
	CameraConfig capture.Config

	FrameInterval  time.Duration
	ShakeThreshold float64

	Style  guidance.Style
	Params guidance.Params

	// RestoreStyle replaces Style and Params with the last persisted ones.
	RestoreStyle bool

	Perception perception.Config

	// SaliencyScript is the external saliency service. Empty searches the
	// default locations; the gradient saliency is used when none is found.
	SaliencyScript string
}

// ClampFrameInterval limits d to the supported frame pacing.
func ClampFrameInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultFrameInterval
	}
	return min(max(d, MinFrameInterval), MaxFrameInterval)
}

// App runs the guidance pipeline.
type App struct {
	config   Config
	camera   capture.Camera
	shake    *capture.ShakeDetector
	adapter  perception.Adapter
	selector *guidance.Selector
	journal  *Journal

	seq atomic.Uint64

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	cancel      func()
	journalDone chan struct{}

	frameMu sync.Mutex
	latest  *gocv.Mat
}

// New creates an App. The pipeline does not run until Start.
func New(config Config) (*App, error) {
	config.FrameInterval = ClampFrameInterval(config.FrameInterval)
	if config.Perception.HeatmapSize == 0 {
		config.Perception = perception.DefaultConfig()
	}
	if config.RestoreStyle && config.Store != nil {
		config.Style, config.Params = restoreStyle(config.Store.Settings(), config.Style, config.Params)
	}

	a := &App{
		config:  config,
		camera:  config.Camera,
		shake:   capture.NewShakeDetector(config.ShakeThreshold),
		adapter: newAdapter(config),
		enabled: true,
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraConfig)
	}

	sel, err := guidance.NewSelector(a.adapter, config.Style, config.Params)
	if err != nil {
		return nil, err
	}
	sel.SetMaxScanPixels(config.Perception.MaxScanPixels)
	a.selector = sel

	if config.Store != nil {
		a.journal = NewJournal(config.Store, sel)
		if err := a.journal.Record(sel.Output()); err != nil {
			log.Warn("journal initial style", "err", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		updates, unsubscribe := sel.Subscribe(64)
		a.journalDone = make(chan struct{})
		a.cancel = func() {
			cancel()
			unsubscribe()
		}
		go func() {
			defer close(a.journalDone)
			a.journal.Run(ctx, updates)
		}()
	}

	return a, nil
}

// newAdapter prefers the external saliency service and falls back to the
// built-in gradient saliency.
func newAdapter(config Config) perception.Adapter {
	var opts []cv.Option
	if svc, err := cv.NewServiceSaliency(config.SaliencyScript); err == nil {
		opts = append(opts, cv.WithSaliencySource(svc))
		log.Info("using external saliency service")
	} else {
		log.Info("saliency service not available, using gradient saliency", "reason", err)
	}
	return cv.NewAdapter(config.Perception, opts...)
}

// restoreStyle reads the persisted style, keeping the given values for any
// setting that is missing or invalid.
func restoreStyle(settings *store.SettingsRepository, style guidance.Style, params guidance.Params) (guidance.Style, guidance.Params) {
	if v, err := settings.Get(store.SettingStyle); err == nil {
		if s, err := guidance.ParseStyle(v); err == nil {
			style = s
		}
	}
	if v, err := settings.Get(store.SettingOrientation); err == nil {
		if o, err := guidance.ParseOrientation(v); err == nil {
			params.Orientation = o
		}
	}
	if v, err := settings.Get(store.SettingAspect); err == nil {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			params.Aspect = f
		}
	}
	return style, params
}

// Start opens the camera and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(int(time.Second / a.config.FrameInterval))

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Info("guidance pipeline started", "interval", a.config.FrameInterval)
	return nil
}

// Stop halts the pipeline and closes the camera. The App can be started
// again.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.camera.Close(); err != nil {
		log.Warn("closing camera", "err", err)
	}
	log.Info("guidance pipeline stopped")
}

// Close stops the pipeline and releases every resource.
func (a *App) Close() error {
	a.Stop()

	var errs []error
	if a.journal != nil {
		a.cancel()
		<-a.journalDone
		errs = append(errs, a.journal.Close())
	}
	errs = append(errs, a.selector.Close(), a.adapter.Close())
	a.shake.Close()

	a.frameMu.Lock()
	if a.latest != nil {
		a.latest.Close()
		a.latest = nil
	}
	a.frameMu.Unlock()

	return errors.Join(errs...)
}

// SetEnabled pauses or resumes frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetAdapter replaces the perception adapter. The previous adapter is not
// closed.
func (a *App) SetAdapter(adapter perception.Adapter) {
	a.mu.Lock()
	a.adapter = adapter
	a.mu.Unlock()
	a.selector.SetAdapter(adapter)
}

// SetStyle activates style with params.
func (a *App) SetStyle(style guidance.Style, params guidance.Params) error {
	return a.selector.SetActiveStyle(style, params)
}

// Reset forces the active style back to acquisition.
func (a *App) Reset() {
	a.selector.Reset()
}

// Selector returns the guidance selector.
func (a *App) Selector() *guidance.Selector {
	return a.selector
}

// Journal returns the session journal, or nil without a store.
func (a *App) Journal() *Journal {
	return a.journal
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Snapshot returns a copy of the last processed frame together with the
// current guidance output. The caller closes the frame.
func (a *App) Snapshot() (gocv.Mat, guidance.Output, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.latest == nil {
		return gocv.Mat{}, guidance.Output{}, false
	}
	return a.latest.Clone(), a.selector.Output(), true
}
