// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"campusevents/internal/apperr"
	"campusevents/internal/auth"
	"campusevents/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondError maps domain errors onto HTTP statuses. Anything outside
// the taxonomy is a 500 with no detail leaked.
func respondError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "bad_request", ve.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, apperr.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, apperr.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "conflict", "event is fully booked")
	case errors.Is(err, apperr.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "conflict", "already booked")
	case errors.Is(err, apperr.ErrEmailTaken):
		writeError(w, http.StatusConflict, "conflict", "email is already registered")
	case errors.Is(err, context.DeadlineExceeded):
		// Transaction contention; the request is safe to retry.
		writeError(w, http.StatusServiceUnavailable, "timeout", "operation timed out, try again")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// identity pulls the authenticated caller out of the request context.
// The auth middleware guarantees it is present on protected routes.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
	}
	return id, ok
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClientConfig serves GET /config: the settings a browser client needs,
// currently just the maps widget key.
func ClientConfig(mapsAPIKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"maps_api_key": mapsAPIKey})
	}
}
