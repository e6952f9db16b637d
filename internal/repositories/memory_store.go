package repositories

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
)

// ErrLockTimeout is wrapped in TransientStoreError when a trip lock could
// not be acquired in time.
var ErrLockTimeout = errors.New("trip lock wait timeout")

type eventKey struct {
	tripID    int64
	bookingID int64
}

type blockKey struct {
	blockerID int64
	blockedID int64
}

type memVehicle struct {
	ownerID int64
	status  string
}

// MemoryStore is an in-process Store used by tests and by STORE_DRIVER=memory.
// Each trip has a one-slot semaphore standing in for the row lock; writes
// are staged on the Tx and published on Commit.
type MemoryStore struct {
	LockTimeout time.Duration

	mu            sync.Mutex
	trips         map[int64]models.Trip
	stops         map[int64][]models.RouteStop
	bookings      map[int64]models.Booking
	events        map[eventKey][]models.NegotiationEvent
	blocks        map[blockKey]models.BlockRecord
	users         map[int64]models.Verification
	vehicles      map[int64]memVehicle
	locks         map[int64]chan struct{}
	nextTripID    int64
	nextBookingID int64
}

func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		LockTimeout: lockTimeout,
		trips:       map[int64]models.Trip{},
		stops:       map[int64][]models.RouteStop{},
		bookings:    map[int64]models.Booking{},
		events:      map[eventKey][]models.NegotiationEvent{},
		blocks:      map[blockKey]models.BlockRecord{},
		users:       map[int64]models.Verification{},
		vehicles:    map[int64]memVehicle{},
		locks:       map[int64]chan struct{}{},
	}
}

// SeedUser registers an account for the verification gate.
func (s *MemoryStore) SeedUser(id int64, status, gender string, pendingKeys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		status = models.UserActive
	}
	s.users[id] = models.Verification{UserID: id, Status: status, Gender: gender, PendingKeys: pendingKeys}
}

func (s *MemoryStore) SeedVehicle(id, ownerID int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[id] = memVehicle{ownerID: ownerID, status: status}
}

// TripBookings returns every booking of the trip ordered by id.
func (s *MemoryStore) TripBookings(tripID int64) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.TripID == tripID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) GetTrip(ctx context.Context, tripID int64) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (s *MemoryStore) ListTripStops(ctx context.Context, tripID int64) ([]models.RouteStop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RouteStop(nil), s.stops[tripID]...), nil
}

func (s *MemoryStore) ListPendingBookings(ctx context.Context, tripID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.TripID == tripID && b.Status == models.BookingPending {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookedAt.Equal(out[j].BookedAt) {
			return out[i].BookedAt.After(out[j].BookedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, tripID, bookingID int64) ([]models.NegotiationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NegotiationEvent{}, s.events[eventKey{tripID, bookingID}]...), nil
}

func (s *MemoryStore) ListBlockRecords(ctx context.Context, blockerID int64) ([]models.BlockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.BlockRecord{}
	for k, rec := range s.blocks {
		if k.blockerID == blockerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) LoadVerification(ctx context.Context, userID, vehicleID int64) (models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.Verification{UserID: userID}, domain.NotFoundError{Resource: "user"}
	}
	v := u
	v.PendingKeys = append([]string(nil), u.PendingKeys...)
	if vehicleID > 0 {
		veh, ok := s.vehicles[vehicleID]
		if !ok {
			return v, domain.NotFoundError{Resource: "vehicle"}
		}
		v.HasVehicle = true
		v.VehicleOwner = veh.ownerID
		v.VehicleStatus = veh.status
	}
	return v, nil
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.TransientStoreError{Op: "begin", Err: err}
	}
	return &memTx{
		s:        s,
		held:     map[int64]chan struct{}{},
		trips:    map[int64]models.Trip{},
		stops:    map[int64][]models.RouteStop{},
		bookings: map[int64]models.Booking{},
		events:   map[eventKey][]models.NegotiationEvent{},
		blocks:   map[blockKey]*models.BlockRecord{},
	}, nil
}

func (s *MemoryStore) tripLock(tripID int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[tripID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[tripID] = ch
	}
	return ch
}

type memTx struct {
	s    *MemoryStore
	held map[int64]chan struct{}
	done bool

	trips    map[int64]models.Trip
	stops    map[int64][]models.RouteStop
	bookings map[int64]models.Booking
	events   map[eventKey][]models.NegotiationEvent
	blocks   map[blockKey]*models.BlockRecord
}

func (t *memTx) finish() {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
	t.done = true
}

func (t *memTx) Commit() error {
	if t.done {
		return domain.InternalError{Msg: "transaction already finished"}
	}
	s := t.s
	s.mu.Lock()
	for id, trip := range t.trips {
		s.trips[id] = trip
	}
	for id, st := range t.stops {
		s.stops[id] = st
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	for k, evs := range t.events {
		s.events[k] = append(s.events[k], evs...)
	}
	for k, rec := range t.blocks {
		if rec == nil {
			delete(s.blocks, k)
			continue
		}
		s.blocks[k] = *rec
	}
	s.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *memTx) LockTrip(ctx context.Context, tripID int64) (models.Trip, error) {
	if _, ok := t.held[tripID]; ok {
		return t.trip(tripID)
	}
	if _, err := t.trip(tripID); err != nil {
		return models.Trip{}, err
	}

	ch := t.s.tripLock(tripID)
	var timeout <-chan time.Time
	if t.s.LockTimeout > 0 {
		timer := time.NewTimer(t.s.LockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case ch <- struct{}{}:
	case <-timeout:
		return models.Trip{}, domain.TransientStoreError{Op: "lock trip", Err: ErrLockTimeout}
	case <-ctx.Done():
		return models.Trip{}, domain.TransientStoreError{Op: "lock trip", Err: ctx.Err()}
	}
	t.held[tripID] = ch
	return t.trip(tripID)
}

func (t *memTx) requireLock(tripID int64, op string) error {
	if _, ok := t.held[tripID]; !ok {
		return domain.InternalError{Msg: op + ": trip not locked"}
	}
	return nil
}

func (t *memTx) trip(tripID int64) (models.Trip, error) {
	if trip, ok := t.trips[tripID]; ok {
		return trip, nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	trip, ok := t.s.trips[tripID]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return trip, nil
}

func (t *memTx) booking(bookingID int64) (models.Booking, bool) {
	if b, ok := t.bookings[bookingID]; ok {
		return b, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[bookingID]
	return b, ok
}

// tripBookings merges committed rows with rows staged on this Tx.
func (t *memTx) tripBookings(tripID int64) []models.Booking {
	merged := map[int64]models.Booking{}
	t.s.mu.Lock()
	for id, b := range t.s.bookings {
		if b.TripID == tripID {
			merged[id] = b
		}
	}
	t.s.mu.Unlock()
	for id, b := range t.bookings {
		if b.TripID == tripID {
			merged[id] = b
		}
	}
	out := make([]models.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) ReserveSeats(ctx context.Context, tripID int64, seats int) (bool, error) {
	if err := t.requireLock(tripID, "reserve seats"); err != nil {
		return false, err
	}
	trip, err := t.trip(tripID)
	if err != nil {
		return false, err
	}
	if trip.AvailableSeats < seats {
		return false, nil
	}
	trip.AvailableSeats -= seats
	t.trips[tripID] = trip
	return true, nil
}

func (t *memTx) ReleaseSeats(ctx context.Context, tripID int64, seats int) (models.SeatRelease, error) {
	if err := t.requireLock(tripID, "release seats"); err != nil {
		return models.SeatRelease{}, err
	}
	trip, err := t.trip(tripID)
	if err != nil {
		return models.SeatRelease{}, err
	}
	rel := models.SeatRelease{Before: trip.AvailableSeats, Total: trip.TotalSeats, After: trip.AvailableSeats + seats}
	if rel.After > rel.Total {
		rel.After = rel.Total
		rel.Clamped = true
	}
	trip.AvailableSeats = rel.After
	t.trips[tripID] = trip
	return rel, nil
}

func (t *memTx) InsertTrip(ctx context.Context, trip models.Trip, stops []models.RouteStop) (int64, error) {
	t.s.mu.Lock()
	t.s.nextTripID++
	id := t.s.nextTripID
	t.s.mu.Unlock()

	trip.ID = id
	t.trips[id] = trip
	staged := make([]models.RouteStop, 0, len(stops))
	for _, st := range stops {
		st.TripID = id
		staged = append(staged, st)
	}
	sort.Slice(staged, func(i, j int) bool { return staged[i].Order < staged[j].Order })
	t.stops[id] = staged
	return id, nil
}

func (t *memTx) UpdateTripStatus(ctx context.Context, tripID int64, status models.TripStatus) error {
	if err := t.requireLock(tripID, "update trip status"); err != nil {
		return err
	}
	trip, err := t.trip(tripID)
	if err != nil {
		return err
	}
	trip.Status = status
	trip.UpdatedAt = time.Now().UTC()
	t.trips[tripID] = trip
	return nil
}

func (t *memTx) InsertBooking(ctx context.Context, b models.Booking) (int64, error) {
	if err := t.requireLock(b.TripID, "insert booking"); err != nil {
		return 0, err
	}
	t.s.mu.Lock()
	t.s.nextBookingID++
	id := t.s.nextBookingID
	t.s.mu.Unlock()

	b.ID = id
	t.bookings[id] = b
	return id, nil
}

func (t *memTx) LockBooking(ctx context.Context, tripID, bookingID int64) (models.Booking, error) {
	if err := t.requireLock(tripID, "lock booking"); err != nil {
		return models.Booking{}, err
	}
	b, ok := t.booking(bookingID)
	if !ok || b.TripID != tripID {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (t *memTx) UpdateBooking(ctx context.Context, bookingID int64, u models.BookingUpdate) error {
	b, ok := t.booking(bookingID)
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if err := t.requireLock(b.TripID, "update booking"); err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}
	b = u.Apply(b)
	b.UpdatedAt = time.Now().UTC()
	t.bookings[bookingID] = b
	return nil
}

func (t *memTx) ListOpenBookings(ctx context.Context, tripID int64) ([]models.Booking, error) {
	if err := t.requireLock(tripID, "list open bookings"); err != nil {
		return nil, err
	}
	out := []models.Booking{}
	for _, b := range t.tripBookings(tripID) {
		if b.Status != models.BookingCancelled && b.Status != models.BookingCompleted {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) HasActiveBooking(ctx context.Context, tripID, passengerID int64) (bool, error) {
	for _, b := range t.tripBookings(tripID) {
		if b.PassengerID == passengerID && b.HoldsSeats() &&
			(b.Status == models.BookingPending || b.Status == models.BookingConfirmed) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) IsBlockedForTrip(ctx context.Context, tripID, passengerID int64) (bool, error) {
	for _, b := range t.tripBookings(tripID) {
		if b.PassengerID == passengerID && b.Blocked {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ClearTripBlocks(ctx context.Context, tripID, passengerID int64) (int64, error) {
	if err := t.requireLock(tripID, "clear trip blocks"); err != nil {
		return 0, err
	}
	var n int64
	for _, b := range t.tripBookings(tripID) {
		if b.PassengerID == passengerID && b.Blocked {
			b.Blocked = false
			b.UpdatedAt = time.Now().UTC()
			t.bookings[b.ID] = b
			n++
		}
	}
	return n, nil
}

func (t *memTx) AppendEvent(ctx context.Context, ev models.NegotiationEvent) (models.NegotiationEvent, error) {
	if err := t.requireLock(ev.TripID, "append event"); err != nil {
		return ev, err
	}
	k := eventKey{ev.TripID, ev.BookingID}
	t.s.mu.Lock()
	committed := len(t.s.events[k])
	t.s.mu.Unlock()
	ev.Seq = committed + len(t.events[k]) + 1
	t.events[k] = append(t.events[k], ev)
	return ev, nil
}

func (t *memTx) blockRecord(k blockKey) (models.BlockRecord, bool) {
	if rec, ok := t.blocks[k]; ok {
		if rec == nil {
			return models.BlockRecord{}, false
		}
		return *rec, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	rec, ok := t.s.blocks[k]
	return rec, ok
}

func (t *memTx) HasBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	_, ok := t.blockRecord(blockKey{blockerID, blockedID})
	return ok, nil
}

func (t *memTx) UpsertBlockRecord(ctx context.Context, rec models.BlockRecord) error {
	k := blockKey{rec.BlockerID, rec.BlockedID}
	if _, ok := t.blockRecord(k); ok {
		return nil
	}
	t.blocks[k] = &rec
	return nil
}

func (t *memTx) DeleteBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	k := blockKey{blockerID, blockedID}
	if _, ok := t.blockRecord(k); !ok {
		return false, nil
	}
	t.blocks[k] = nil
	return true, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = MySQLStore{}
)
