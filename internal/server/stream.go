package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
)

// DefaultStreamInterval paces the MJPEG stream.
const DefaultStreamInterval = 100 * time.Millisecond

// FrameSource provides the latest processed frame with its guidance
// output. The caller closes the returned frame.
type FrameSource interface {
	Snapshot() (gocv.Mat, guidance.Output, bool)
}

// StreamHandler serves MJPEG frames annotated with the guidance overlay.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler over source.
func NewStreamHandler(source FrameSource, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &StreamHandler{source: source, interval: interval}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := h.writeFrame(w); err != nil {
			log.Debug("stream client gone", "err", err)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// writeFrame writes one annotated frame. A missing frame is skipped.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, out, ok := h.source.Snapshot()
	if !ok {
		return nil
	}
	defer frame.Close()

	DrawOverlay(&frame, out)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		log.Warn("encode stream frame", "err", err)
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
