package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultSendGridURL = "https://api.sendgrid.com/v3/mail/send"

// EmailHandler sends a booking confirmation email with the ticket QR
// attached inline, via the SendGrid v3 API.
type EmailHandler struct {
	secret      string
	apiKey      string
	fromEmail   string
	sendGridURL string
	client      *http.Client
	log         *zap.Logger
}

// NewEmailHandler constructs an EmailHandler.
func NewEmailHandler(secret, apiKey, fromEmail string, log *zap.Logger) *EmailHandler {
	return &EmailHandler{
		secret:      secret,
		apiKey:      apiKey,
		fromEmail:   fromEmail,
		sendGridURL: defaultSendGridURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

type emailRequest struct {
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject"`
	HTML        string `json:"html"`
	QRPNGBase64 string `json:"qr_png_base64"`
}

// ServeHTTP handles POST {to_email, subject?, html?, qr_png_base64}.
func (h *EmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkSecret(r, "X-Email-Secret", h.secret) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.ToEmail = strings.TrimSpace(req.ToEmail)
	if req.ToEmail == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "to_email is required")
		return
	}
	if strings.TrimSpace(req.QRPNGBase64) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "qr_png_base64 is required")
		return
	}
	if h.apiKey == "" || h.fromEmail == "" {
		writeError(w, http.StatusInternalServerError, "server_error", "mail sender not configured")
		return
	}

	if req.Subject == "" {
		req.Subject = "Your Campus Event Ticket"
	}
	if req.HTML == "" {
		req.HTML = "<p>Your ticket is attached.</p>"
	}
	// Inline image: referenced in the HTML as <img src="cid:ticketqr" />
	if !strings.Contains(req.HTML, "cid:ticketqr") {
		req.HTML += `<p><img alt="Ticket QR" src="cid:ticketqr" /></p>`
	}

	status, err := h.send(r.Context(), req)
	if err != nil {
		h.log.Warn("sendgrid request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "sendgrid_error", err.Error())
		return
	}
	// SendGrid returns 202 on accepted.
	if status != http.StatusAccepted {
		writeError(w, http.StatusBadGateway, "sendgrid_error", fmt.Sprintf("status %d", status))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *EmailHandler) send(ctx context.Context, req emailRequest) (int, error) {
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": req.ToEmail}}},
		},
		"from":    map[string]string{"email": h.fromEmail},
		"subject": req.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": "Your ticket is attached (QR code)."},
			{"type": "text/html", "value": req.HTML},
		},
		"attachments": []map[string]string{
			{
				"content":     req.QRPNGBase64,
				"type":        "image/png",
				"filename":    "ticket-qr.png",
				"disposition": "attachment",
				"content_id":  "ticketqr",
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.sendGridURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
