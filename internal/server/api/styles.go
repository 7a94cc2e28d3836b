package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/framer/internal/guidance"
)

// Guidance is the part of the guidance selector the API controls.
type Guidance interface {
	ActiveStyle() (guidance.Style, guidance.Params)
	SetActiveStyle(style guidance.Style, params guidance.Params) error
	Reset()
	Output() guidance.Output
}

// GuidanceHandler serves the active style, resets and the current output.
type GuidanceHandler struct {
	guidance Guidance
}

// NewGuidanceHandler creates a GuidanceHandler controlling g.
func NewGuidanceHandler(g Guidance) *GuidanceHandler {
	return &GuidanceHandler{guidance: g}
}

type styleRequest struct {
	Style       string   `json:"style"`
	Aspect      *float64 `json:"aspect,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
}

type styleResponse struct {
	Style  guidance.Style   `json:"style"`
	Params guidance.Params  `json:"params"`
	Styles []guidance.Style `json:"styles"`
}

// Style handles GET and PUT /api/style.
func (h *GuidanceHandler) Style(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeStyle(w)
	case http.MethodPut:
		h.setStyle(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *GuidanceHandler) writeStyle(w http.ResponseWriter) {
	style, params := h.guidance.ActiveStyle()
	writeJSON(w, http.StatusOK, styleResponse{
		Style:  style,
		Params: params,
		Styles: guidance.Styles(),
	})
}

// setStyle activates a style. Omitted parameters keep their current value.
func (h *GuidanceHandler) setStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	style, err := guidance.ParseStyle(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, params := h.guidance.ActiveStyle()
	if req.Aspect != nil {
		if *req.Aspect <= 0 {
			writeError(w, http.StatusBadRequest, "Aspect must be positive")
			return
		}
		params.Aspect = *req.Aspect
	}
	if req.Orientation != "" {
		o, err := guidance.ParseOrientation(req.Orientation)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.Orientation = o
	}

	if err := h.guidance.SetActiveStyle(style, params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeStyle(w)
}

// Reset handles POST /api/reset.
func (h *GuidanceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.guidance.Reset()
	writeJSON(w, http.StatusOK, h.guidance.Output())
}

// Current handles GET /api/guidance.
func (h *GuidanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.guidance.Output())
}
