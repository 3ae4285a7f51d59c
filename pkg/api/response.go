package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Response is the envelope every handler in this package writes, mirroring
// the teacher's models.APIResponse shape.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, log zerolog.Logger, message string, data interface{}) {
	writeJSON(w, log, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, log zerolog.Logger, status int, message string, err error) {
	resp := Response{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, log, status, resp)
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode JSON response")
	}
}
