package services

import (
	"math"
	"testing"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptFarePriority(t *testing.T) {
	b := models.Booking{OriginalFare: 600}
	assert.EqualValues(t, 600, driverAcceptFare(b))
	assert.EqualValues(t, 600, passengerAcceptFare(b))

	b.NegotiatedFare = fare(550)
	assert.EqualValues(t, 550, driverAcceptFare(b))
	assert.EqualValues(t, 550, passengerAcceptFare(b))

	b.PassengerOffer = fare(500)
	assert.EqualValues(t, 500, driverAcceptFare(b))
	assert.EqualValues(t, 550, passengerAcceptFare(b))
}

func TestFinalFarePerSeat(t *testing.T) {
	accepted := models.Booking{
		NumberOfSeats: 2, TotalFare: 900, NegotiatedFare: fare(450), BargainingStatus: models.BargainAccepted,
	}

	cases := []struct {
		name   string
		b      models.Booking
		events []models.NegotiationEvent
		want   int64
		ok     bool
	}{
		{
			name: "last accept wins",
			b:    accepted,
			events: []models.NegotiationEvent{
				{Action: models.ActionDriverCounter, Fare: fare(470)},
				{Action: models.ActionPassengerAccept, AcceptedFarePerSeat: fare(460)},
			},
			want: 460, ok: true,
		},
		{
			name: "latest counter without accept",
			b:    models.Booking{NumberOfSeats: 2, TotalFare: 800},
			events: []models.NegotiationEvent{
				{Action: models.ActionDriverCounter, Fare: fare(470)},
				{Action: models.ActionPassengerCounter, Fare: fare(430)},
			},
			want: 430, ok: true,
		},
		{name: "accepted negotiated fare", b: accepted, want: 450, ok: true},
		{name: "total split", b: models.Booking{NumberOfSeats: 3, TotalFare: 1500}, want: 500, ok: true},
		{name: "total split rounds half up", b: models.Booking{NumberOfSeats: 2, TotalFare: 1001}, want: 501, ok: true},
		{name: "zero total", b: models.Booking{NumberOfSeats: 2, TotalFare: 0}, want: 0, ok: true},
		{name: "nothing to derive", b: models.Booking{}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FinalFarePerSeat(tc.b, tc.events)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestBookingTotalRefusesOverflow(t *testing.T) {
	total, err := bookingTotal(450, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 900, total)

	_, err = bookingTotal(math.MaxInt64/2+1, 2)
	assert.True(t, domain.IsValidation(err))
}
