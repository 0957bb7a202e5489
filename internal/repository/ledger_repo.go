package repository

import (
	"context"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LedgerRepository is append-only: transactions are never updated or deleted.
type LedgerRepository interface {
	// Record inserts the transaction unless one already exists for its
	// (ride, user) pair. recorded is false for the duplicate case.
	Record(ctx context.Context, txn *models.WalletTransaction) (recorded bool, err error)
	Totals(ctx context.Context, userID string) (*models.WalletTotals, error)
	Recent(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error)
	ListByRide(ctx context.Context, rideID string) ([]*models.WalletTransaction, error)
	CampusSummary(ctx context.Context) (*models.CampusSummary, error)
}

type ledgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Record(ctx context.Context, txn *models.WalletTransaction) (bool, error) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO wallet_transactions (id, user_id, ride_id, carbon_saved_grams, credits_earned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ride_id, user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.RideID, txn.CarbonSavedGrams, txn.CreditsEarned, txn.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ledgerRepository) Totals(ctx context.Context, userID string) (*models.WalletTotals, error) {
	var totals models.WalletTotals
	query := `
		SELECT COALESCE(SUM(credits_earned), 0) AS total_credits,
			COALESCE(SUM(carbon_saved_grams), 0) AS total_carbon_saved_grams
		FROM wallet_transactions
		WHERE user_id = $1
	`
	err := r.db.GetContext(ctx, &totals, query, userID)
	return &totals, err
}

func (r *ledgerRepository) Recent(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	txns := []*models.WalletTransaction{}
	query := `
		SELECT * FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	err := r.db.SelectContext(ctx, &txns, query, userID, limit)
	return txns, err
}

func (r *ledgerRepository) ListByRide(ctx context.Context, rideID string) ([]*models.WalletTransaction, error) {
	txns := []*models.WalletTransaction{}
	query := `SELECT * FROM wallet_transactions WHERE ride_id = $1 ORDER BY user_id`
	err := r.db.SelectContext(ctx, &txns, query, rideID)
	return txns, err
}

func (r *ledgerRepository) CampusSummary(ctx context.Context) (*models.CampusSummary, error) {
	var summary models.CampusSummary
	query := `
		SELECT COALESCE(SUM(carbon_saved_grams), 0) AS total_carbon_saved_grams,
			COALESCE(SUM(credits_earned), 0) AS total_credits_issued,
			COUNT(DISTINCT ride_id) AS total_rides
		FROM wallet_transactions
	`
	err := r.db.GetContext(ctx, &summary, query)
	return &summary, err
}
