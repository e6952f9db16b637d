package services

import (
	"fmt"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/utils"
)

// bookingTotal is the only way a total_fare is computed.
func bookingTotal(perSeat int64, seats int) (int64, error) {
	total, ok := utils.TotalFare(perSeat, seats)
	if !ok {
		return 0, domain.ValidationError{Field: "fare", Msg: fmt.Sprintf("%d per seat for %d seat(s) is out of range", perSeat, seats)}
	}
	return total, nil
}

// checkFareCeiling rejects client fares above utils.MaxFarePerSeat.
func checkFareCeiling(field string, fare int64) error {
	if fare > utils.MaxFarePerSeat {
		return domain.ValidationError{Field: field, Msg: fmt.Sprintf("cannot exceed %d", utils.MaxFarePerSeat)}
	}
	return nil
}

// driverAcceptFare honors the passenger's last number, then the driver's
// own last counter, then the listed fare.
func driverAcceptFare(b models.Booking) int64 {
	fare, _ := utils.FirstFare(b.PassengerOffer, b.NegotiatedFare, &b.OriginalFare)
	return fare
}

// passengerAcceptFare honors the driver's counter, else the listed fare.
func passengerAcceptFare(b models.Booking) int64 {
	fare, _ := utils.FirstFare(b.NegotiatedFare, &b.OriginalFare)
	return fare
}

// FinalFarePerSeat reconstructs the agreed per-seat fare for display. It
// never feeds a write. Priority: fare recorded on the last accept event,
// then the last counter offer, then negotiated_fare of an accepted
// booking, then total_fare split over the seats.
func FinalFarePerSeat(b models.Booking, events []models.NegotiationEvent) (int64, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Action.IsAccept() && ev.AcceptedFarePerSeat != nil {
			return *ev.AcceptedFarePerSeat, true
		}
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Action.IsCounter() && ev.Fare != nil {
			return *ev.Fare, true
		}
	}
	if b.BargainingStatus == models.BargainAccepted && b.NegotiatedFare != nil {
		return *b.NegotiatedFare, true
	}
	return utils.PerSeatFromTotal(b.TotalFare, b.NumberOfSeats)
}
