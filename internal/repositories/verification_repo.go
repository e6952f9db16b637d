package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
)

const entityUserProfile = "USER_PROFILE"

// LoadVerification reads the account status, the keys of pending profile
// change requests and, when vehicleID > 0, the vehicle's owner and status.
func (s MySQLStore) LoadVerification(ctx context.Context, userID, vehicleID int64) (models.Verification, error) {
	db := s.db()
	v := models.Verification{UserID: userID}

	err := db.QueryRowContext(ctx, `SELECT UPPER(status), LOWER(gender) FROM users WHERE id = ?`, userID).
		Scan(&v.Status, &v.Gender)
	if err != nil {
		return v, notFoundOr("load user", "user", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT requested_changes
		FROM change_requests
		WHERE user_id = ? AND entity_type = ? AND status = 'PENDING'
		ORDER BY created_at DESC
	`, userID, entityUserProfile)
	if err != nil {
		return v, storeErr("load change requests", err)
	}
	defer rows.Close()

	keys := map[string]struct{}{}
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return v, storeErr("load change requests", err)
		}
		for _, k := range requestedKeys(raw.String) {
			keys[k] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return v, storeErr("load change requests", err)
	}
	for k := range keys {
		v.PendingKeys = append(v.PendingKeys, k)
	}
	sort.Strings(v.PendingKeys)

	if vehicleID > 0 {
		err := db.QueryRowContext(ctx, `SELECT owner_id, UPPER(status) FROM vehicles WHERE id = ?`, vehicleID).
			Scan(&v.VehicleOwner, &v.VehicleStatus)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return v, domain.NotFoundError{Resource: "vehicle", Err: err}
		case err != nil:
			return v, storeErr("load vehicle", err)
		}
		v.HasVehicle = true
	}
	return v, nil
}

// requestedKeys returns the top-level keys of a change request payload.
// Malformed payloads contribute nothing.
func requestedKeys(raw string) []string {
	if raw == "" {
		return nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	out := make([]string, 0, len(payload))
	for k := range payload {
		out = append(out, k)
	}
	return out
}
