package utils

import "math"

// MaxFarePerSeat caps any per-seat fare accepted from a client.
const MaxFarePerSeat int64 = 1_000_000_000

// TotalFare multiplies a per-seat fare by the seat count. Non-positive
// seat counts are treated as one seat. ok is false when the product does
// not fit in an int64 or the fare is negative.
func TotalFare(perSeat int64, seats int) (int64, bool) {
	if seats <= 0 {
		seats = 1
	}
	if perSeat < 0 || perSeat > math.MaxInt64/int64(seats) {
		return 0, false
	}
	return perSeat * int64(seats), true
}

// PerSeatFromTotal reverses TotalFare, rounding half up. A zero total
// splits to zero.
func PerSeatFromTotal(total int64, seats int) (int64, bool) {
	if total < 0 || seats <= 0 {
		return 0, false
	}
	n := int64(seats)
	return total/n + (total%n*2)/n, true
}

// FirstFare returns the first non-nil fare.
func FirstFare(candidates ...*int64) (int64, bool) {
	for _, c := range candidates {
		if c != nil {
			return *c, true
		}
	}
	return 0, false
}
