package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"campusevents/internal/model"
	"campusevents/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// BookingHandler holds the HTTP handlers for bookings and tickets.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Book handles POST /events/{id}/book
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	booking, err := h.svc.BookEvent(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

// Mine handles GET /bookings
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	bookings, err := h.svc.MyBookings(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// Ticket handles GET /bookings/{id}/ticket.pdf and streams a printable
// PDF with the ticket QR embedded.
func (h *BookingHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	booking, event, err := h.svc.GetTicket(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	qrPNG, err := qrcode.Encode(booking.TicketCode, qrcode.Medium, 256)
	if err != nil {
		respondError(w, err)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Event Ticket")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Event: %s", event.Title))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Location: %s", event.Location))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Starts: %s", event.StartTime.Format("Mon, 02 Jan 2006 15:04 MST")))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Ticket code: %s", booking.TicketCode))
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=ticket-"+booking.ID+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
