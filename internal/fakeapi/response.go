package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
)

// envelope is the backend's response wrapper.
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// JSON writes an envelope with the given HTTP status.
func JSON(w http.ResponseWriter, status int, ok bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: ok, Message: message, Data: data})
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, true, message, data)
}

// Rejected writes a 200 envelope with status false, the backend's way of
// refusing a well-formed request.
func Rejected(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, false, message, nil)
}

// Fail writes a non-2xx envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, false, message, nil)
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}
