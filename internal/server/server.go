// Package server provides the HTTP server for the framer viewer: the
// guidance control API, the session journal, the annotated camera stream
// and the guidance WebSocket.
package server

import (
	"net/http"
	"time"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/server/api"
	"github.com/ayusman/framer/internal/store"
)

// Guidance is the selector surface the server needs.
type Guidance interface {
	api.Guidance
	Subscribe(buffer int) (<-chan guidance.Output, func())
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Guidance  Guidance
	Frames    FrameSource

	// StreamInterval paces the MJPEG stream. Zero uses DefaultStreamInterval.
	StreamInterval time.Duration
}

// Server is the HTTP server for the framer viewer.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration. Routes whose
// dependencies are not configured are not registered.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Guidance != nil {
		h := api.NewGuidanceHandler(s.config.Guidance)
		s.mux.HandleFunc("/api/style", h.Style)
		s.mux.HandleFunc("/api/reset", h.Reset)
		s.mux.HandleFunc("/api/guidance", h.Current)
		s.mux.Handle("/api/guidance/ws", NewGuidanceSocket(s.config.Guidance))
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.config.StreamInterval))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Style  string `json:"style,omitempty"`
	Phase  string `json:"phase,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Guidance != nil {
		out := s.config.Guidance.Output()
		resp.Style = out.Style.String()
		resp.Phase = out.Phase.String()
	}
	writeJSON(w, resp)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	log.Info("http server listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
