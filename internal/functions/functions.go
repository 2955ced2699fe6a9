// Package functions implements the auxiliary HTTP-triggered functions:
// ticket QR generation, booking email delivery, and check-in
// validation. Each endpoint is guarded by its own shared-secret header,
// so the functions binary can be deployed independently of the server.
package functions

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

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

// checkSecret compares the header against the expected secret. An
// unset secret rejects everything rather than letting everything in.
func checkSecret(r *http.Request, header, expected string) bool {
	if expected == "" {
		return false
	}
	provided := r.Header.Get(header)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
