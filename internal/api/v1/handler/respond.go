package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/model"
)

// errorBody is the JSON error envelope every endpoint returns.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps a domain error onto an HTTP status. Unknown errors are
// reported as a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	kind := model.ErrorKind(err)
	status := http.StatusInternalServerError
	message := err.Error()
	switch kind {
	case model.KindValidation:
		status = http.StatusBadRequest
	case model.KindConflict:
		status = http.StatusConflict
	case model.KindNotFound:
		status = http.StatusNotFound
	case model.KindForbidden:
		status = http.StatusForbidden
	default:
		message = "internal server error"
	}
	writeJSON(w, status, errorBody{Kind: kind, Message: message})
}
