package handler

// Response helpers. Every endpoint, success or failure, answers with the
// same envelope so clients parse one shape:
//
//	{"status": 200, "data": {...}, "message": "ok"}
//	{"status": 409, "data": null, "message": "a user with this email or username already exists"}
//
// writeError is the single place where the apperror taxonomy is mapped to
// HTTP status codes; handlers never pick status codes for domain errors
// themselves.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/userhub/internal/apperror"
)

// envelope is the uniform response body.
type envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// writeJSON sends the envelope with the given status code. Headers must be
// set before the body is written; once Encode runs, the response is
// committed.
func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Status: status, Data: data, Message: message}); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error to its HTTP status and sends the
// envelope. The service layer knows nothing about HTTP; the sentinel in
// the error chain decides the code here.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, status, nil, appErr.Message)
		return
	}

	// Unwrapped errors carry internal detail (queries, paths); never echo
	// them to the client.
	writeJSON(w, status, nil, "An internal error occurred")
}
