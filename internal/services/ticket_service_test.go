package services

import (
	"bytes"
	"context"
	"testing"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingTicket(t *testing.T) {
	f := newFixture(t)
	trip := f.postTrip(t, 4, 500)
	res := f.request(t, trip.ID, riderA, 2, nil)
	tickets := TicketService{Store: f.store}

	_, _, err := tickets.BookingTicket(context.Background(), res.BookingID, riderA)
	assert.True(t, domain.IsInvalidTransition(err))

	_, err = f.driver(t, trip.ID, res.BookingID, DriverAccept, nil)
	require.NoError(t, err)

	pdf, name, err := tickets.BookingTicket(context.Background(), res.BookingID, riderA)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, name, "ETICKET_")
	assert.Contains(t, name, ".pdf")

	_, _, err = tickets.BookingTicket(context.Background(), res.BookingID, driverID)
	assert.NoError(t, err)

	_, _, err = tickets.BookingTicket(context.Background(), res.BookingID, riderB)
	assert.True(t, domain.IsForbidden(err))

	_, _, err = tickets.BookingTicket(context.Background(), 9999, riderA)
	assert.True(t, domain.IsNotFound(err))
}

func TestBookingTicketCustomLoader(t *testing.T) {
	tickets := TicketService{Loader: func(ctx context.Context, id int64) (ticketData, error) {
		return ticketData{
			Booking: models.Booking{
				ID: id, PassengerID: 7, Reference: "ab/cd", Status: models.BookingConfirmed,
				NumberOfSeats: 1, MaleSeats: 1, TotalFare: 750, OriginalFare: 750,
			},
			Trip: models.Trip{ID: 3, DriverID: 8},
		}, nil
	}}

	pdf, name, err := tickets.BookingTicket(context.Background(), 5, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.NotContains(t, name, "/")
}
