package functions

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRHandler renders a ticket code as a QR PNG.
type QRHandler struct {
	secret string
}

// NewQRHandler constructs a QRHandler guarded by the given secret.
func NewQRHandler(secret string) *QRHandler {
	return &QRHandler{secret: secret}
}

// ServeHTTP handles POST {ticket_code} -> {ticket_code, png_base64,
// data_url}.
func (h *QRHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkSecret(r, "X-QR-Secret", h.secret) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req struct {
		TicketCode string `json:"ticket_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.TicketCode = strings.TrimSpace(req.TicketCode)
	if req.TicketCode == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "ticket_code is required")
		return
	}

	png, err := qrcode.Encode(req.TicketCode, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "qr encoding failed")
		return
	}
	b64 := base64.StdEncoding.EncodeToString(png)

	writeJSON(w, http.StatusOK, map[string]string{
		"ticket_code": req.TicketCode,
		"png_base64":  b64,
		"data_url":    "data:image/png;base64," + b64,
	})
}
