package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"campusevents/internal/apperr"
	"campusevents/internal/audit"
	"campusevents/internal/model"
)

// BookingFinder is the lookup the check-in validator needs.
type BookingFinder interface {
	GetByTicketCode(ctx context.Context, eventID, ticketCode string) (*model.Booking, error)
}

// CheckinHandler validates a presented ticket against the bookings
// table. Validation attempts are themselves audited.
type CheckinHandler struct {
	secret   string
	bookings BookingFinder
	audit    audit.Recorder
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(secret string, bookings BookingFinder, rec audit.Recorder) *CheckinHandler {
	return &CheckinHandler{secret: secret, bookings: bookings, audit: rec}
}

// ServeHTTP handles POST {ticket_code, event_id} -> {valid, booking?}.
func (h *CheckinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkSecret(r, "X-Checkin-Secret", h.secret) {
		h.audit.Record(r.Context(), model.ActionCheckinDenied, "", map[string]any{"reason": "bad_secret"})
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req struct {
		TicketCode string `json:"ticket_code"`
		EventID    string `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.TicketCode = strings.TrimSpace(req.TicketCode)
	if req.TicketCode == "" || req.EventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "ticket_code and event_id are required")
		return
	}

	booking, err := h.bookings.GetByTicketCode(r.Context(), req.EventID, req.TicketCode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.audit.Record(r.Context(), model.ActionCheckinInvalid, "", map[string]any{"event_id": req.EventID})
			writeJSON(w, http.StatusOK, map[string]any{"valid": false})
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "lookup failed")
		return
	}

	h.audit.Record(r.Context(), model.ActionCheckinValid, booking.UserID, map[string]any{
		"event_id":   req.EventID,
		"booking_id": booking.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "booking": booking})
}
