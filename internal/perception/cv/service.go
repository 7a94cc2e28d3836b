package cv

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/log"
)

// DefaultServiceIdle is how long the saliency process may sit idle before
// it is stopped.
const DefaultServiceIdle = 30 * time.Second

// ErrServiceNotFound is returned when no saliency service script exists.
var ErrServiceNotFound = errors.New("saliency service script not found")

// ServiceSaliency runs an external saliency model in a subprocess.
//
// Each request is a 4-byte big-endian length followed by a JPEG frame; the
// response is one JSON line. The process is started on first use and
// stopped after an idle period.
type ServiceSaliency struct {
	script string
	python string
	idle   time.Duration

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewServiceSaliency locates the service script and returns a
// ServiceSaliency. An empty script searches the default locations.
func NewServiceSaliency(script string) (*ServiceSaliency, error) {
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	return &ServiceSaliency{script: script, python: python, idle: DefaultServiceIdle}, nil
}

// serviceResponse is the JSON line written by the service for each frame.
// Heatmap holds Width×Height row-major 8-bit values, base64 encoded.
type serviceResponse struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Heatmap []uint8         `json:"heatmap"`
	Boxes   []geometry.Rect `json:"boxes"`
	Error   string          `json:"error,omitempty"`
}

// Saliency implements SaliencySource.
func (s *ServiceSaliency) Saliency(mat gocv.Mat) (Saliency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return Saliency{}, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return Saliency{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	resp, err := s.roundTrip(buf.GetBytes())
	if err != nil {
		// A broken pipe leaves the protocol out of sync; restart next time.
		s.shutdown()
		return Saliency{}, err
	}

	s.resetIdleTimer()
	return resp.toSaliency(mat.Cols(), mat.Rows())
}

func (s *ServiceSaliency) roundTrip(data []byte) (serviceResponse, error) {
	var resp serviceResponse

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := s.stdin.Write(length); err != nil {
		return resp, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return resp, fmt.Errorf("write data: %w", err)
	}

	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return resp, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return resp, fmt.Errorf("parse response: %w", err)
	}
	return resp, nil
}

func (r serviceResponse) toSaliency(frameW, frameH int) (Saliency, error) {
	if r.Error != "" {
		return Saliency{}, fmt.Errorf("saliency service: %s", r.Error)
	}
	if r.Width <= 0 || r.Height <= 0 || len(r.Heatmap) != r.Width*r.Height {
		return Saliency{}, fmt.Errorf("saliency service: heatmap %dx%d with %d values", r.Width, r.Height, len(r.Heatmap))
	}

	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Heatmap)

	return Saliency{
		Heatmap: &geometry.Heatmap{Gray: img, SourceWidth: frameW, SourceHeight: frameH},
		Boxes:   r.Boxes,
	}, nil
}

// Close shuts down the service process.
func (s *ServiceSaliency) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *ServiceSaliency) ensureStarted() error {
	if s.started {
		return nil
	}

	s.cmd = exec.Command(s.python, s.script)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start saliency service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	log.Info("saliency service started", "script", s.script, "pid", s.cmd.Process.Pid)
	return nil
}

func (s *ServiceSaliency) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	log.Debug("saliency service stopped", "err", err)
	return err
}

func (s *ServiceSaliency) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.idle, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}

func findServiceScript() string {
	return firstExisting(
		"scripts/saliency_service.py",
		"../scripts/saliency_service.py",
		filepath.Join(execDir(), "scripts/saliency_service.py"),
		filepath.Join(os.Getenv("HOME"), ".framer/scripts/saliency_service.py"),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory or the executable.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".framer/venv/bin/python"),
	)
}

func execDir() string {
	path, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(path)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
