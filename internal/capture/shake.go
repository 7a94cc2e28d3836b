package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	BlurSize      = 21
	DiffThreshold = 25
)

// DefaultShakeThreshold is the fraction of changed pixels that counts as a
// shake.
const DefaultShakeThreshold = 0.35

// DefaultShakeCooldown is the number of frames ignored after a shake so one
// gesture triggers one reset.
const DefaultShakeCooldown = 3

// ShakeDetector reports when the whole frame changes at once, as it does
// when the device is shaken.
type ShakeDetector struct {
	mu        sync.Mutex
	threshold float64
	cooldown  int
	remaining int
	prevGray  gocv.Mat
	hasPrev   bool
}

// NewShakeDetector returns a detector that fires when more than threshold
// (0..1) of the pixels change between consecutive frames.
func NewShakeDetector(threshold float64) *ShakeDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultShakeThreshold
	}
	return &ShakeDetector{
		threshold: threshold,
		cooldown:  DefaultShakeCooldown,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. It returns whether a shake
// was detected and the fraction of pixels that changed.
//
// Algorithm:
//  1. Grayscale and 21×21 Gaussian blur
//  2. Absolute difference with the previous frame
//  3. Binary threshold at 25 and count of changed pixels
func (d *ShakeDetector) Detect(frame *gocv.Mat) (bool, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault)

	if !d.hasPrev || blurred.Rows() != d.prevGray.Rows() || blurred.Cols() != d.prevGray.Cols() {
		blurred.CopyTo(&d.prevGray)
		d.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, d.prevGray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols())
	blurred.CopyTo(&d.prevGray)

	if d.remaining > 0 {
		d.remaining--
		return false, changed
	}
	if changed > d.threshold {
		d.remaining = d.cooldown
		return true, changed
	}
	return false, changed
}

// SetThreshold changes the shake threshold. Values outside (0,1] are
// ignored.
func (d *ShakeDetector) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold > 1 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
}

// SetCooldown sets how many frames are ignored after a shake.
func (d *ShakeDetector) SetCooldown(frames int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cooldown = max(0, frames)
}

// Reset drops the baseline frame.
func (d *ShakeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

// Close releases the baseline frame.
func (d *ShakeDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *ShakeDetector) resetLocked() {
	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.hasPrev = false
	d.remaining = 0
}
