// Package capture reads camera frames with GoCV (OpenCV) and detects the
// shake gesture that resets guidance.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings.
const (
	DefaultFPS    = 4
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Read errors.
var (
	ErrCameraNotOpen = errors.New("camera is not open")
	ErrNoFrame       = errors.New("no frame available")
)

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error

	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)

	// Resolution returns the frame size actually delivered by the device,
	// or the requested size before the first frame.
	Resolution() (width, height int)

	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Config selects the capture device and the requested stream format.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultConfig returns the settings for the default camera.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

type videoCamera struct {
	mu      sync.Mutex
	config  Config
	capture *gocv.VideoCapture
	width   int
	height  int
}

// NewCamera creates a Camera for config. Zero fields fall back to
// DefaultConfig values.
func NewCamera(config Config) Camera {
	def := DefaultConfig()
	if config.Width <= 0 {
		config.Width = def.Width
	}
	if config.Height <= 0 {
		config.Height = def.Height
	}
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	return &videoCamera{config: config, width: config.Width, height: config.Height}
}

// Open opens the device and requests the configured format.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	c.capture = capture
	return nil
}

// Close releases the device.
func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}

	c.width, c.height = mat.Cols(), mat.Rows()
	return &mat, nil
}

func (c *videoCamera) Resolution() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// SetFPS updates the requested frame rate. Non-positive values are ignored.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.FPS
}

func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
