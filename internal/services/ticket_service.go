package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/repositories"
	"rideshare/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// TicketService renders the PDF e-ticket of a confirmed booking.
type TicketService struct {
	Store     repositories.Store
	RequestID string
	Loader    func(ctx context.Context, bookingID int64) (ticketData, error)
}

type ticketData struct {
	Booking  models.Booking
	Trip     models.Trip
	FromStop string
	ToStop   string
}

// BookingTicket returns the PDF bytes and a download filename. Only the
// booking's passenger and the trip driver may fetch it.
func (s TicketService) BookingTicket(ctx context.Context, bookingID, requesterID int64) ([]byte, string, error) {
	if bookingID <= 0 {
		return nil, "", domain.ValidationError{Field: "booking_id", Msg: "must be positive"}
	}
	data, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if requesterID != data.Booking.PassengerID && requesterID != data.Trip.DriverID {
		return nil, "", domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "not a party to this booking"}
	}
	if data.Booking.Status != models.BookingConfirmed {
		return nil, "", domain.InvalidTransitionError{
			From:   string(data.Booking.Status),
			Action: "ticket",
			Msg:    "e-ticket is only available for confirmed bookings",
		}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("booking_id=%d requester_id=%d", bookingID, requesterID))
	return buildTicketPDF(data)
}

func (s TicketService) load(ctx context.Context, bookingID int64) (ticketData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, bookingID)
	}
	var out ticketData
	b, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return out, err
	}
	trip, err := s.Store.GetTrip(ctx, b.TripID)
	if err != nil {
		return out, err
	}
	out.Booking = b
	out.Trip = trip
	if stops, err := s.Store.ListTripStops(ctx, b.TripID); err == nil {
		for _, st := range stops {
			switch st.Order {
			case b.FromStopOrder:
				out.FromStop = st.Name
			case b.ToStopOrder:
				out.ToStop = st.Name
			}
		}
	}
	if strings.TrimSpace(out.FromStop) == "" {
		out.FromStop = trip.RouteFrom
	}
	if strings.TrimSpace(out.ToStop) == "" {
		out.ToStop = trip.RouteTo
	}
	return out, nil
}

func buildTicketPDF(d ticketData) ([]byte, string, error) {
	b := d.Booking
	perSeat, ok := utils.PerSeatFromTotal(b.TotalFare, b.NumberOfSeats)
	if !ok {
		perSeat = b.OriginalFare
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Ref    : %s", safe(b.Reference, "-")),
		fmt.Sprintf("Trip           : #%d", d.Trip.ID),
		fmt.Sprintf("Route          : %s -> %s", safe(d.FromStop, "-"), safe(d.ToStop, "-")),
		fmt.Sprintf("Departure      : %s UTC", utils.FormatDateTime(d.Trip.DepartureTime)),
		fmt.Sprintf("Seats          : %d (male %d, female %d)", b.NumberOfSeats, b.MaleSeats, b.FemaleSeats),
		fmt.Sprintf("Fare per seat  : %s", utils.FormatPKR(perSeat)),
		fmt.Sprintf("Total fare     : %s", utils.FormatPKR(b.TotalFare)),
		fmt.Sprintf("Status         : %s", b.Status),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this e-ticket to the driver at pickup. Fare is payable as agreed in the app.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", domain.InternalError{Msg: "render ticket failed", Err: err}
	}

	filename := fmt.Sprintf("ETICKET_%d_%s.pdf", b.ID, utils.SafeFilenamePart(b.Reference))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
