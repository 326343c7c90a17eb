package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with status. HTML is not escaped so replies keep their markup
// byte for byte.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// Detail writes the {"detail": "..."} error shape used by the chat endpoint.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, map[string]string{"detail": detail})
}
