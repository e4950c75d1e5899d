package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"strengths-service/internal/app"
	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes; anything unrecognised is a
// 500 carrying fallback while the cause is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		logRequestError(r, "request failed", err)
		message = fallback
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func classify(err error) (int, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, "Email already in use."
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, "Username already in use."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid email or password."
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "No token provided."
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, app.ErrNoResults):
		return http.StatusNotFound, "No results to display."
	case errors.Is(err, domain.ErrPoolNotFound):
		return http.StatusNotFound, "Question pool not found."
	default:
		return http.StatusInternalServerError, ""
	}
}

func logRequestError(r *http.Request, msg string, err error) {
	observability.LoggerFromContext(r.Context()).Error(msg,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
