package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception/cv"
)

// runPipeline reads a frame every FrameInterval until stop is closed.
//
// Per frame:
//  1. Shake detection; a shake resets guidance and skips the frame
//  2. Perception and the guidance step of the active style
//  3. The frame is kept for Snapshot
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Warn("reading frame", "err", err)
				continue
			}

			a.ProcessFrame(frame)
			frame.Close()
		}
	}
}

// ProcessFrame runs one frame through the pipeline and returns the
// resulting guidance output. The caller keeps ownership of frame.
func (a *App) ProcessFrame(frame *gocv.Mat) guidance.Output {
	if frame == nil || frame.Empty() {
		return a.selector.Output()
	}

	if shaken, ratio := a.shake.Detect(frame); shaken {
		log.Info("shake detected, resetting guidance", "changed", ratio)
		a.selector.Reset()
		a.keepFrame(frame)
		return a.selector.Output()
	}

	out := a.selector.Process(cv.NewFrame(frame, a.seq.Add(1)))
	a.keepFrame(frame)

	if out.Err != nil {
		log.Debug("guidance step", "phase", out.Phase, "reason", out.Reason)
	}
	return out
}

func (a *App) keepFrame(frame *gocv.Mat) {
	clone := frame.Clone()

	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if a.latest != nil {
		a.latest.Close()
	}
	a.latest = &clone
}
