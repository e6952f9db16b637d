package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	intdb "rideshare/internal/db"
	"rideshare/internal/domain"
	"rideshare/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, lockTimeout time.Duration) (MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return MySQLStore{DB: db, LockTimeout: lockTimeout}, mock
}

func beginTx(t *testing.T, s MySQLStore, mock sqlmock.Sqlmock) Tx {
	t.Helper()
	mock.ExpectBegin()
	if s.LockTimeout > 0 {
		mock.ExpectExec(`SET SESSION innodb_lock_wait_timeout = \d+`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func tripRows(id int64, total, available int) *sqlmock.Rows {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "driver_id", "vehicle_id", "status", "total_seats", "available_seats", "base_fare",
		"is_negotiable", "minimum_acceptable_fare", "gender_preference", "route_from", "route_to",
		"departure_time", "notes", "created_at", "updated_at",
	}).AddRow(id, 1, 10, "scheduled", total, available, 500, true, nil, "any", "Lahore", "Islamabad", now, "", now, now)
}

func TestBeginSetsLockWaitTimeout(t *testing.T) {
	s, mock := newMockStore(t, 1500*time.Millisecond)
	mock.ExpectBegin()
	mock.ExpectExec(`SET SESSION innodb_lock_wait_timeout = 2`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEveryBeginResetsLockWait(t *testing.T) {
	s, mock := newMockStore(t, 3*time.Second)
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`SET SESSION innodb_lock_wait_timeout = 3`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}

	for i := 0; i < 2; i++ {
		tx, err := s.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTripForUpdate(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)
	mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).WithArgs(int64(7)).WillReturnRows(tripRows(7, 4, 3))

	trip, err := tx.LockTrip(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.TripScheduled, trip.Status)
	assert.Equal(t, models.GenderAny, trip.GenderPreference)
	assert.Equal(t, 3, trip.AvailableSeats)
	assert.Nil(t, trip.MinimumAcceptableFare)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTripErrors(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	_, err := tx.LockTrip(context.Background(), 1)
	assert.True(t, domain.IsNotFound(err))

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	_, err = tx.LockTrip(context.Background(), 1)
	assert.True(t, domain.IsTransient(err))
	assert.False(t, domain.IsSeatsUnavailable(err))

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	_, err = tx.LockTrip(context.Background(), 1)
	assert.True(t, domain.IsTransient(err))

	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("syntax error"))
	_, err = tx.LockTrip(context.Background(), 1)
	assert.True(t, domain.IsInternal(err))
}

func TestReserveSeatsCompareAndDecrement(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	mock.ExpectExec(`UPDATE trips\s+SET available_seats = available_seats - \?\s+WHERE id = \? AND available_seats >= \?`).
		WithArgs(2, int64(7), 2).WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := tx.ReserveSeats(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE trips\s+SET available_seats = available_seats - \?`).
		WithArgs(5, int64(7), 5).WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = tx.ReserveSeats(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsClamps(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	mock.ExpectQuery(`SELECT available_seats, total_seats FROM trips WHERE id = \? FOR UPDATE`).
		WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"available_seats", "total_seats"}).AddRow(3, 4))
	mock.ExpectExec(`UPDATE trips SET available_seats = \? WHERE id = \?`).
		WithArgs(4, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

	rel, err := tx.ReleaseSeats(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, rel.Clamped)
	assert.Equal(t, 4, rel.After)
	assert.Equal(t, 3, rel.Before)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendEventAssignsNextSeq(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\),0\)\+1 FROM negotiation_events`).
		WithArgs(int64(7), int64(9)).WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO negotiation_events`).WillReturnResult(sqlmock.NewResult(0, 1))

	fare := int64(450)
	ev, err := tx.AppendEvent(context.Background(), models.NegotiationEvent{
		TripID: 7, BookingID: 9, EventID: "e-1", Action: models.ActionDriverCounter,
		ActorID: 1, ActorRole: domain.RoleDriver, Fare: &fare, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingWritesOnlySetFields(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	status := models.BookingCancelled
	locked := false
	mock.ExpectExec(`UPDATE bookings SET booking_status = \?, seats_locked = \?, negotiated_fare = \? WHERE id = \?`).
		WithArgs("CANCELLED", false, nil, int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))

	err := tx.UpdateBooking(context.Background(), 9, models.BookingUpdate{
		Status: &status, SeatsLocked: &locked, SetNegotiatedFare: true,
	})
	require.NoError(t, err)

	require.NoError(t, tx.UpdateBooking(context.Background(), 9, models.BookingUpdate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingMissingRow(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	blocked := true
	mock.ExpectExec(`UPDATE bookings SET blocked = \?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM bookings WHERE id = \?`).WillReturnError(sql.ErrNoRows)

	err := tx.UpdateBooking(context.Background(), 404, models.BookingUpdate{Blocked: &blocked})
	assert.True(t, domain.IsNotFound(err))
}

func TestBlockRecordChecks(t *testing.T) {
	s, mock := newMockStore(t, 0)
	tx := beginTx(t, s, mock)

	mock.ExpectQuery(`SELECT 1 FROM blocked_users`).WithArgs(int64(1), int64(2)).WillReturnError(sql.ErrNoRows)
	found, err := tx.HasBlockRecord(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectExec(`(?s)INSERT INTO blocked_users.*ON DUPLICATE KEY UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, tx.UpsertBlockRecord(context.Background(), models.BlockRecord{BlockerID: 1, BlockedID: 2}))

	mock.ExpectExec(`DELETE FROM blocked_users`).WithArgs(int64(1), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err := tx.DeleteBlockRecord(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadVerification(t *testing.T) {
	s, mock := newMockStore(t, 0)

	mock.ExpectQuery(`SELECT UPPER\(status\), LOWER\(gender\) FROM users WHERE id = \?`).
		WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"status", "gender"}).AddRow("ACTIVE", "female"))
	mock.ExpectQuery(`FROM change_requests`).
		WithArgs(int64(5), "USER_PROFILE").
		WillReturnRows(sqlmock.NewRows([]string{"requested_changes"}).
			AddRow(`{"phone_no":"0300","name":"A"}`).
			AddRow(`not json`).
			AddRow(nil))
	mock.ExpectQuery(`SELECT owner_id, UPPER\(status\) FROM vehicles WHERE id = \?`).
		WithArgs(int64(10)).WillReturnRows(sqlmock.NewRows([]string{"owner_id", "status"}).AddRow(5, "VERIFIED"))

	v, err := s.LoadVerification(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Equal(t, "female", v.Gender)
	assert.Equal(t, []string{"name", "phone_no"}, v.PendingKeys)
	assert.True(t, v.HasVehicle)
	assert.EqualValues(t, 5, v.VehicleOwner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadVerificationUnknownUser(t *testing.T) {
	s, mock := newMockStore(t, 0)
	mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)

	_, err := s.LoadVerification(context.Background(), 99, 0)
	assert.True(t, domain.IsNotFound(err))
}

func TestPingWithoutDB(t *testing.T) {
	err := MySQLStore{}.Ping(context.Background())
	assert.True(t, domain.IsTransient(err))
}

func TestMissingTablesOnStore(t *testing.T) {
	s, mock := newMockStore(t, 0)
	for i, table := range intdb.Tables {
		rows := sqlmock.NewRows([]string{"table_name"})
		if i > 0 {
			rows.AddRow(table)
		}
		mock.ExpectQuery(`FROM information_schema.tables`).WithArgs(table).WillReturnRows(rows)
	}

	assert.Equal(t, []string{intdb.Tables[0]}, s.MissingTables(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, intdb.Tables, MySQLStore{}.MissingTables(context.Background()))
}
