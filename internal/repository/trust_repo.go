package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/jmoiron/sqlx"
)

type TrustRepository interface {
	// Apply runs next on the user's current score and bumps rides_completed,
	// at most once per (ride, user). applied is false when the pair was seen before.
	Apply(ctx context.Context, rideID, userID string, next func(score float64) float64) (applied bool, err error)
	// Connections lists every co-rider of completed rides, most mutual rides first.
	Connections(ctx context.Context, userID string) ([]*models.Connection, error)
}

type trustRepository struct {
	db *sqlx.DB
}

func NewTrustRepository(db *sqlx.DB) TrustRepository {
	return &trustRepository{db: db}
}

func (r *trustRepository) Apply(ctx context.Context, rideID, userID string, next func(float64) float64) (bool, error) {
	var applied bool
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var score float64
		err := tx.GetContext(ctx, &score, `SELECT trust_score FROM users WHERE id = $1 FOR UPDATE`, userID)
		if err == sql.ErrNoRows {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO trust_applications (ride_id, user_id, applied_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (ride_id, user_id) DO NOTHING
		`, rideID, userID, time.Now())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET trust_score = $1, rides_completed = rides_completed + 1, updated_at = $2
			WHERE id = $3
		`, next(score), time.Now(), userID); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *trustRepository) Connections(ctx context.Context, userID string) ([]*models.Connection, error) {
	conns := []*models.Connection{}
	query := `
		SELECT other.user_id AS peer_id, u.name, COUNT(*) AS mutual_rides
		FROM ride_participants self
		JOIN rides r ON r.id = self.ride_id AND r.status = $2
		JOIN ride_participants other ON other.ride_id = self.ride_id AND other.user_id <> self.user_id
		JOIN users u ON u.id = other.user_id
		WHERE self.user_id = $1 AND self.status <> $3 AND other.status <> $3
		GROUP BY other.user_id, u.name
		ORDER BY mutual_rides DESC, peer_id ASC
	`
	err := r.db.SelectContext(ctx, &conns, query, userID, models.RideStatusCompleted, models.ParticipantCancelled)
	return conns, err
}
