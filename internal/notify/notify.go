// Package notify triggers the auxiliary HTTP functions after a booking
// commits: QR generation, then the confirmation email with the QR
// attached. Both calls are best-effort; a failure is logged and never
// affects the booking.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campusevents/internal/model"

	"go.uber.org/zap"
)

// Notifier is invoked by the booking service after commit.
type Notifier interface {
	BookingConfirmed(ctx context.Context, email string, event *model.Event, booking *model.Booking)
}

// TicketMailer calls the QR function for a PNG and forwards it to the
// email function.
type TicketMailer struct {
	client *http.Client
	log    *zap.Logger

	qrURL       string
	qrSecret    string
	emailURL    string
	emailSecret string
}

// NewTicketMailer constructs a TicketMailer. Either URL may be empty,
// in which case the corresponding step is skipped.
func NewTicketMailer(qrURL, qrSecret, emailURL, emailSecret string, log *zap.Logger) *TicketMailer {
	return &TicketMailer{
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
		qrURL:       qrURL,
		qrSecret:    qrSecret,
		emailURL:    emailURL,
		emailSecret: emailSecret,
	}
}

// BookingConfirmed implements Notifier.
func (m *TicketMailer) BookingConfirmed(ctx context.Context, email string, event *model.Event, booking *model.Booking) {
	if m.qrURL == "" || m.emailURL == "" {
		return
	}

	// The booking already committed; its request context may be done.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 25*time.Second)
	defer cancel()

	qrPNG, err := m.fetchQR(ctx, booking.TicketCode)
	if err != nil {
		m.log.Warn("ticket QR generation failed",
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
		return
	}

	if err := m.sendEmail(ctx, email, event, qrPNG); err != nil {
		m.log.Warn("booking email failed",
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

func (m *TicketMailer) fetchQR(ctx context.Context, ticketCode string) (string, error) {
	var out struct {
		PNGBase64 string `json:"png_base64"`
	}
	err := m.post(ctx, m.qrURL, "X-QR-Secret", m.qrSecret,
		map[string]any{"ticket_code": ticketCode}, &out)
	if err != nil {
		return "", err
	}
	if out.PNGBase64 == "" {
		return "", fmt.Errorf("qr function returned empty png")
	}
	return out.PNGBase64, nil
}

func (m *TicketMailer) sendEmail(ctx context.Context, email string, event *model.Event, qrPNG string) error {
	html := fmt.Sprintf(
		"<p>Your booking for <strong>%s</strong> is confirmed.</p><p><img alt=\"Ticket QR\" src=\"cid:ticketqr\" /></p>",
		event.Title,
	)
	return m.post(ctx, m.emailURL, "X-Email-Secret", m.emailSecret, map[string]any{
		"to_email":      email,
		"subject":       "Your ticket: " + event.Title,
		"html":          html,
		"qr_png_base64": qrPNG,
	}, nil)
}

func (m *TicketMailer) post(ctx context.Context, url, secretHeader, secret string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, secret)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Nop discards notifications. Used in tests and when no functions are
// configured.
type Nop struct{}

// BookingConfirmed implements Notifier.
func (Nop) BookingConfirmed(context.Context, string, *model.Event, *model.Booking) {}
