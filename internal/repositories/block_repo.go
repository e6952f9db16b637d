package repositories

import (
	"context"
	"database/sql"

	"rideshare/internal/domain/models"
)

func (s MySQLStore) ListBlockRecords(ctx context.Context, blockerID int64) ([]models.BlockRecord, error) {
	rows, err := s.db().QueryContext(ctx, `
		SELECT blocker_id, blocked_id, reason, created_at
		FROM blocked_users
		WHERE blocker_id = ?
		ORDER BY created_at DESC
	`, blockerID)
	if err != nil {
		return nil, storeErr("list blocks", err)
	}
	defer rows.Close()

	out := []models.BlockRecord{}
	for rows.Next() {
		var rec models.BlockRecord
		if err := rows.Scan(&rec.BlockerID, &rec.BlockedID, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, storeErr("list blocks", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list blocks", err)
	}
	return out, nil
}

func (t *mysqlTx) HasBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM blocked_users WHERE blocker_id = ? AND blocked_id = ? LIMIT 1
	`, blockerID, blockedID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check block record", err)
	}
	return true, nil
}

// UpsertBlockRecord keeps the first reason and timestamp when the pair exists.
func (t *mysqlTx) UpsertBlockRecord(ctx context.Context, rec models.BlockRecord) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO blocked_users (blocker_id, blocked_id, reason, created_at)
		VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE blocker_id = blocker_id
	`, rec.BlockerID, rec.BlockedID, rec.Reason, rec.CreatedAt); err != nil {
		return storeErr("upsert block record", err)
	}
	return nil
}

func (t *mysqlTx) DeleteBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM blocked_users WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
	if err != nil {
		return false, storeErr("delete block record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("delete block record", err)
	}
	return n > 0, nil
}
