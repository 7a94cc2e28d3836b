package server

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/framer/internal/log"
)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("encode response", "err", err)
	}
}
