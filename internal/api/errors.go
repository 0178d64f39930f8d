package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// httpError writes an OpenAI-style JSON error body.
func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if code >= 500 {
		slog.Error("api error", "status", code, "type", errType, "message", msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": msg,
			"type":    errType,
		},
	})
}
