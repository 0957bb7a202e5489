package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SubscriptionRepository interface {
	// Create inserts the pool with its creator as the first member.
	Create(ctx context.Context, pool *models.SubscriptionPool) error
	GetByID(ctx context.Context, id string) (*models.SubscriptionPool, error)
	AddMember(ctx context.Context, poolID, userID string) (*models.SubscriptionPool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.SubscriptionPool, error)
	ListAll(ctx context.Context) ([]*models.SubscriptionPool, error)
	Members(ctx context.Context, poolID string) ([]*models.PoolMember, error)

	// ClaimOccurrence atomically sets the "materialized for date" marker.
	// claimed is false when another tick already holds it.
	ClaimOccurrence(ctx context.Context, poolID, date string) (claimed bool, err error)
	AttachRide(ctx context.Context, poolID, date, rideID string) error
	ReleaseOccurrence(ctx context.Context, poolID, date string) error
	CountOccurrencesBefore(ctx context.Context, poolID, date string) (int, error)
	GetOccurrence(ctx context.Context, poolID, date string) (*models.PoolOccurrence, error)
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, pool *models.SubscriptionPool) error {
	if pool.ID == "" {
		pool.ID = uuid.New().String()
	}
	pool.CreatedAt = time.Now()
	pool.MemberCount = 1

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscription_pools (id, pickup_zone, departure_time, day_of_week, created_by, member_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, pool.ID, pool.PickupZone, pool.DepartureTime, pool.DayOfWeek, pool.CreatedBy, pool.MemberCount, pool.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pool_members (pool_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			pool.ID, pool.CreatedBy, pool.CreatedAt)
		return err
	})
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*models.SubscriptionPool, error) {
	var pool models.SubscriptionPool
	err := r.db.GetContext(ctx, &pool, `SELECT * FROM subscription_pools WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &pool, err
}

func (r *subscriptionRepository) AddMember(ctx context.Context, poolID, userID string) (*models.SubscriptionPool, error) {
	var pool models.SubscriptionPool
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, `SELECT id FROM subscription_pools WHERE id = $1 FOR UPDATE`, poolID)
		if err == sql.ErrNoRows {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO pool_members (pool_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			poolID, userID, time.Now())
		switch {
		case isUniqueViolation(err):
			return apperrors.ErrAlreadyMember
		case isForeignKeyViolation(err):
			return apperrors.ErrNotFound
		case err != nil:
			return err
		}

		return tx.GetContext(ctx, &pool,
			`UPDATE subscription_pools SET member_count = member_count + 1 WHERE id = $1 RETURNING *`, poolID)
	})
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *subscriptionRepository) ListForUser(ctx context.Context, userID string) ([]*models.SubscriptionPool, error) {
	pools := []*models.SubscriptionPool{}
	query := `
		SELECT sp.* FROM subscription_pools sp
		JOIN pool_members m ON m.pool_id = sp.id
		WHERE m.user_id = $1
		ORDER BY sp.day_of_week, sp.departure_time, sp.id
	`
	err := r.db.SelectContext(ctx, &pools, query, userID)
	return pools, err
}

func (r *subscriptionRepository) ListAll(ctx context.Context) ([]*models.SubscriptionPool, error) {
	pools := []*models.SubscriptionPool{}
	err := r.db.SelectContext(ctx, &pools, `SELECT * FROM subscription_pools ORDER BY id`)
	return pools, err
}

func (r *subscriptionRepository) Members(ctx context.Context, poolID string) ([]*models.PoolMember, error) {
	members := []*models.PoolMember{}
	query := `SELECT * FROM pool_members WHERE pool_id = $1 ORDER BY joined_at, user_id`
	err := r.db.SelectContext(ctx, &members, query, poolID)
	return members, err
}

func (r *subscriptionRepository) ClaimOccurrence(ctx context.Context, poolID, date string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pool_occurrences (pool_id, occurrence_date, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (pool_id, occurrence_date) DO NOTHING
	`, poolID, date, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *subscriptionRepository) AttachRide(ctx context.Context, poolID, date, rideID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pool_occurrences SET ride_id = $1 WHERE pool_id = $2 AND occurrence_date = $3`,
		rideID, poolID, date)
	return err
}

func (r *subscriptionRepository) ReleaseOccurrence(ctx context.Context, poolID, date string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pool_occurrences WHERE pool_id = $1 AND occurrence_date = $2 AND ride_id IS NULL`,
		poolID, date)
	return err
}

func (r *subscriptionRepository) CountOccurrencesBefore(ctx context.Context, poolID, date string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM pool_occurrences WHERE pool_id = $1 AND occurrence_date < $2`, poolID, date)
	return n, err
}

func (r *subscriptionRepository) GetOccurrence(ctx context.Context, poolID, date string) (*models.PoolOccurrence, error) {
	var occ models.PoolOccurrence
	err := r.db.GetContext(ctx, &occ,
		`SELECT * FROM pool_occurrences WHERE pool_id = $1 AND occurrence_date = $2`, poolID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &occ, err
}
