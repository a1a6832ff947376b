package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError answers with a small JSON body of the form {"error": "..."}.
// Admin clients are API consumers, so middleware never writes plain text.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
