package repository

import (
	"context"
	"errors"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repositories bundles every store the services depend on. Both the Postgres
// implementation and the in-memory one fill it.
type Repositories struct {
	Users         UserRepository
	Rides         RideRepository
	Ledger        LedgerRepository
	Trust         TrustRepository
	Subscriptions SubscriptionRepository
	Messages      MessageRepository
}

func NewPostgres(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Rides:         NewRideRepository(db),
		Ledger:        NewLedgerRepository(db),
		Trust:         NewTrustRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		Messages:      NewMessageRepository(db),
	}
}

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// isForeignKeyViolation reports a reference to a row that does not exist.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation
}

// mapLockError turns lost row-lock races into ErrConcurrencyConflict so the
// caller can ask the client to retry.
func mapLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return apperrors.ErrConcurrencyConflict
		}
	}
	return err
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return mapLockError(err)
	}
	return mapLockError(tx.Commit())
}
