package services

import (
	"context"

	"rideshare/internal/domain"
	"rideshare/internal/repositories"
)

// inTx runs fn in one transaction. Any error from fn rolls everything back,
// so callers see either the whole transition or none of it.
func inTx(ctx context.Context, store repositories.Store, fn func(tx repositories.Tx) error) error {
	if store == nil {
		return domain.InternalError{Msg: "store not configured"}
	}
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
