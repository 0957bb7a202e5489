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

// RideRepository owns rides and their participant rows. Every method that
// changes seats or status runs under a row lock on the ride.
type RideRepository interface {
	// Create inserts the ride together with the driver's CONFIRMED participant row.
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string) (*models.Ride, error)
	ListOpen(ctx context.Context, from, to time.Time) ([]*models.Ride, error)
	ListForUser(ctx context.Context, userID string) ([]*models.UserRide, error)
	GetParticipant(ctx context.Context, rideID, userID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, rideID string) ([]*models.Participant, error)
	CoRiders(ctx context.Context, userID string) ([]string, error)

	ReserveSeat(ctx context.Context, rideID, userID string) (*models.Ride, error)
	ReleaseSeat(ctx context.Context, rideID, userID string) (*models.Ride, error)
	ConfirmParticipant(ctx context.Context, rideID, userID string) error
	Cancel(ctx context.Context, rideID string) (*models.Ride, error)
	// Complete moves the ride to COMPLETED and returns its active participants.
	// On an already completed ride it returns transitioned=false and the same participants.
	Complete(ctx context.Context, rideID string) (ride *models.Ride, participants []*models.Participant, transitioned bool, err error)
}

type rideRepository struct {
	db *sqlx.DB
}

func NewRideRepository(db *sqlx.DB) RideRepository {
	return &rideRepository{db: db}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	ride.Status = models.RideStatusOpen
	ride.AvailableSeats = ride.TotalSeats

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO rides (id, driver_id, pickup_zone, destination, departure_time,
				total_seats, available_seats, status, is_subscription, price_per_seat,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.ExecContext(ctx, query,
			ride.ID, ride.DriverID, ride.PickupZone, ride.Destination, ride.DepartureTime,
			ride.TotalSeats, ride.AvailableSeats, ride.Status, ride.IsSubscription, ride.PricePerSeat,
			ride.CreatedAt, ride.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO ride_participants (ride_id, user_id, role, status, joined_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, ride.ID, ride.DriverID, models.RoleDriver, models.ParticipantConfirmed, now)
		return err
	})
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE id = $1`
	err := r.db.GetContext(ctx, &ride, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}

func (r *rideRepository) ListOpen(ctx context.Context, from, to time.Time) ([]*models.Ride, error) {
	rides := []*models.Ride{}
	query := `
		SELECT * FROM rides
		WHERE status = $1 AND available_seats > 0 AND departure_time BETWEEN $2 AND $3
		ORDER BY departure_time, id
	`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusOpen, from, to)
	return rides, err
}

func (r *rideRepository) ListForUser(ctx context.Context, userID string) ([]*models.UserRide, error) {
	rides := []*models.UserRide{}
	query := `
		SELECT r.*, p.role, p.status AS participant_status, u.name AS driver_name
		FROM ride_participants p
		JOIN rides r ON r.id = p.ride_id
		JOIN users u ON u.id = r.driver_id
		WHERE p.user_id = $1
		ORDER BY r.departure_time, r.id
	`
	err := r.db.SelectContext(ctx, &rides, query, userID)
	return rides, err
}

func (r *rideRepository) GetParticipant(ctx context.Context, rideID, userID string) (*models.Participant, error) {
	var p models.Participant
	query := `SELECT * FROM ride_participants WHERE ride_id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &p, query, rideID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &p, err
}

func (r *rideRepository) ListParticipants(ctx context.Context, rideID string) ([]*models.Participant, error) {
	participants := []*models.Participant{}
	query := `SELECT * FROM ride_participants WHERE ride_id = $1 ORDER BY joined_at, user_id`
	err := r.db.SelectContext(ctx, &participants, query, rideID)
	return participants, err
}

func (r *rideRepository) CoRiders(ctx context.Context, userID string) ([]string, error) {
	peers := []string{}
	query := `
		SELECT DISTINCT other.user_id
		FROM ride_participants self
		JOIN ride_participants other ON other.ride_id = self.ride_id AND other.user_id <> self.user_id
		WHERE self.user_id = $1 AND self.status <> $2 AND other.status <> $2
		ORDER BY other.user_id
	`
	err := r.db.SelectContext(ctx, &peers, query, userID, models.ParticipantCancelled)
	return peers, err
}

func (r *rideRepository) ReserveSeat(ctx context.Context, rideID, userID string) (*models.Ride, error) {
	var updated models.Ride
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ride, err := r.getByIDForUpdate(ctx, tx, rideID)
		if err != nil {
			return err
		}

		existing, err := getParticipantTx(ctx, tx, rideID, userID)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsActive() {
			return apperrors.ErrAlreadyJoined
		}
		if !ride.IsJoinable() {
			return apperrors.RideUnavailable(ride.UnavailableReason())
		}

		now := time.Now()
		// Conditional decrement: the status flip to FULL happens in the same statement.
		err = tx.GetContext(ctx, &updated, `
			UPDATE rides
			SET available_seats = available_seats - 1,
				status = CASE WHEN available_seats - 1 = 0 THEN $2 ELSE status END,
				updated_at = $3
			WHERE id = $1 AND status = $4 AND available_seats > 0
			RETURNING *
		`, rideID, models.RideStatusFull, now, models.RideStatusOpen)
		if err == sql.ErrNoRows {
			return apperrors.ErrConcurrencyConflict
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ride_participants (ride_id, user_id, role, status, joined_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (ride_id, user_id)
			DO UPDATE SET status = EXCLUDED.status, joined_at = EXCLUDED.joined_at, updated_at = EXCLUDED.updated_at
		`, rideID, userID, models.RolePassenger, models.ParticipantRequested, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *rideRepository) ReleaseSeat(ctx context.Context, rideID, userID string) (*models.Ride, error) {
	var updated models.Ride
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ride, err := r.getByIDForUpdate(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if !ride.IsActive() {
			return apperrors.RideUnavailable(ride.UnavailableReason())
		}

		p, err := getParticipantTx(ctx, tx, rideID, userID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive() || p.Role != models.RolePassenger {
			return apperrors.ErrNotFound
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE ride_participants SET status = $1, updated_at = $2 WHERE ride_id = $3 AND user_id = $4`,
			models.ParticipantCancelled, now, rideID, userID); err != nil {
			return err
		}

		return tx.GetContext(ctx, &updated, `
			UPDATE rides
			SET available_seats = LEAST(available_seats + 1, total_seats),
				status = CASE WHEN status = $2 THEN $3 ELSE status END,
				updated_at = $4
			WHERE id = $1
			RETURNING *
		`, rideID, models.RideStatusFull, models.RideStatusOpen, now)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *rideRepository) ConfirmParticipant(ctx context.Context, rideID, userID string) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ride, err := r.getByIDForUpdate(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if !ride.IsActive() {
			return apperrors.RideUnavailable(ride.UnavailableReason())
		}

		p, err := getParticipantTx(ctx, tx, rideID, userID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive() {
			return apperrors.ErrNotFound
		}
		if p.Status == models.ParticipantConfirmed {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE ride_participants SET status = $1, updated_at = $2 WHERE ride_id = $3 AND user_id = $4`,
			models.ParticipantConfirmed, time.Now(), rideID, userID)
		return err
	})
}

func (r *rideRepository) Cancel(ctx context.Context, rideID string) (*models.Ride, error) {
	var updated models.Ride
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ride, err := r.getByIDForUpdate(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if !ride.CanTransitionTo(models.RideStatusCancelled) {
			return apperrors.InvalidTransition(ride.Status, models.RideStatusCancelled)
		}

		now := time.Now()
		if err := tx.GetContext(ctx, &updated,
			`UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3 RETURNING *`,
			models.RideStatusCancelled, now, rideID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE ride_participants SET status = $1, updated_at = $2 WHERE ride_id = $3 AND status <> $1`,
			models.ParticipantCancelled, now, rideID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *rideRepository) Complete(ctx context.Context, rideID string) (*models.Ride, []*models.Participant, bool, error) {
	var (
		ride         *models.Ride
		participants []*models.Participant
		transitioned bool
	)
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		ride, err = r.getByIDForUpdate(ctx, tx, rideID)
		if err != nil {
			return err
		}

		switch {
		case ride.Status == models.RideStatusCompleted:
		case ride.CanTransitionTo(models.RideStatusCompleted):
			ride.Status = models.RideStatusCompleted
			ride.UpdatedAt = time.Now()
			if _, err := tx.ExecContext(ctx,
				`UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3`,
				ride.Status, ride.UpdatedAt, rideID); err != nil {
				return err
			}
			transitioned = true
		default:
			return apperrors.InvalidTransition(ride.Status, models.RideStatusCompleted)
		}

		participants = []*models.Participant{}
		return tx.SelectContext(ctx, &participants, `
			SELECT * FROM ride_participants
			WHERE ride_id = $1 AND status IN ($2, $3)
			ORDER BY joined_at, user_id
		`, rideID, models.ParticipantRequested, models.ParticipantConfirmed)
	})
	if err != nil {
		return nil, nil, false, err
	}
	return ride, participants, transitioned, nil
}

// getByIDForUpdate locks the ride row for the rest of the transaction.
func (r *rideRepository) getByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE id = $1 FOR UPDATE`
	err := tx.GetContext(ctx, &ride, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return &ride, err
}

func getParticipantTx(ctx context.Context, tx *sqlx.Tx, rideID, userID string) (*models.Participant, error) {
	var p models.Participant
	query := `SELECT * FROM ride_participants WHERE ride_id = $1 AND user_id = $2`
	err := tx.GetContext(ctx, &p, query, rideID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &p, err
}
