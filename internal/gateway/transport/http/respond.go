package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// All responses use the {ok: ...} envelope. Success payloads are maps so
// handlers can splice result fields next to ok.

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondOK(w http.ResponseWriter, fields map[string]interface{}) {
	body := map[string]interface{}{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	respondWithJSON(w, http.StatusOK, body)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]interface{}{"ok": false, "error": message})
}
