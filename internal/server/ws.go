package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
)

const (
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
	socketBuffer   = 16
	readLimitBytes = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Subscriber publishes guidance outputs.
type Subscriber interface {
	Subscribe(buffer int) (<-chan guidance.Output, func())
	Output() guidance.Output
}

// GuidanceSocket pushes every guidance Output to WebSocket clients as JSON.
// Each client first receives the current output.
type GuidanceSocket struct {
	source Subscriber
}

// NewGuidanceSocket creates a GuidanceSocket over source.
func NewGuidanceSocket(source Subscriber) *GuidanceSocket {
	return &GuidanceSocket{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *GuidanceSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.source.Subscribe(socketBuffer)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(readLimitBytes)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeOutput(conn, h.source.Output()); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case out, ok := <-updates:
			if !ok {
				return
			}
			if err := writeOutput(conn, out); err != nil {
				log.Debug("websocket write", "err", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeOutput(conn *websocket.Conn, out guidance.Output) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(out)
}
