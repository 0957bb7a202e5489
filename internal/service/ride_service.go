package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/events"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/repository"
)

type RideService interface {
	CreateRide(ctx context.Context, driverID string, req *models.CreateRideRequest) (*models.RideResponse, error)
	GetRide(ctx context.Context, id string) (*models.RideResponse, error)
	JoinRide(ctx context.Context, rideID, riderID string) error
	LeaveRide(ctx context.Context, rideID, userID string) error
	ConfirmParticipant(ctx context.Context, rideID, driverID, userID string) error
	CancelRide(ctx context.Context, rideID, driverID string) error
	CompleteRide(ctx context.Context, rideID, actorID string) error
	ListForUser(ctx context.Context, userID string) ([]*models.MyRideResponse, error)
}

type rideService struct {
	rideRepo  repository.RideRepository
	userRepo  repository.UserRepository
	ledger    LedgerService
	trust     TrustService
	carbon    CarbonService
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	ledger LedgerService,
	trust TrustService,
	carbon CarbonService,
	publisher events.Publisher,
	logger *slog.Logger,
) RideService {
	if publisher == nil {
		publisher = events.NewNop()
	}
	return &rideService{
		rideRepo:  rideRepo,
		userRepo:  userRepo,
		ledger:    ledger,
		trust:     trust,
		carbon:    carbon,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *rideService) CreateRide(ctx context.Context, driverID string, req *models.CreateRideRequest) (*models.RideResponse, error) {
	zone := strings.TrimSpace(req.PickupZone)
	destination := strings.TrimSpace(req.Destination)
	if zone == "" || destination == "" {
		return nil, apperrors.Validation("pickup zone and destination are required")
	}
	if req.AvailableSeats < 1 {
		return nil, apperrors.Validation("a ride needs at least one seat")
	}
	if !req.DepartureTime.After(s.now()) {
		return nil, apperrors.Validation("departure time must be in the future")
	}
	if req.PricePerSeat != nil && *req.PricePerSeat < 0 {
		return nil, apperrors.Validation("price per seat must not be negative")
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("user")
	}

	ride := &models.Ride{
		DriverID:       driverID,
		PickupZone:     zone,
		Destination:    destination,
		DepartureTime:  req.DepartureTime.UTC(),
		TotalSeats:     req.AvailableSeats,
		IsSubscription: req.IsSubscription,
		PricePerSeat:   req.PricePerSeat,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.publish(ctx, events.RideCreated, ride, driverID)
	return ride.ToResponse(driver.Name), nil
}

func (s *rideService) GetRide(ctx context.Context, id string) (*models.RideResponse, error) {
	ride, err := s.getRide(ctx, id)
	if err != nil {
		return nil, err
	}

	driverName := ""
	driver, err := s.userRepo.GetByID(ctx, ride.DriverID)
	if err == nil && driver != nil {
		driverName = driver.Name
	}
	return ride.ToResponse(driverName), nil
}

func (s *rideService) JoinRide(ctx context.Context, rideID, riderID string) error {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID == riderID {
		observability.RideJoinsTotal.WithLabelValues(apperrors.CodeSelfJoin).Inc()
		return apperrors.SelfJoin()
	}

	updated, err := s.rideRepo.ReserveSeat(ctx, rideID, riderID)
	if err != nil {
		err = joinError(err)
		observability.RideJoinsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return err
	}
	observability.RideJoinsTotal.WithLabelValues("joined").Inc()

	s.publish(ctx, events.RideJoined, updated, riderID)
	if updated.Status == models.RideStatusFull {
		s.publish(ctx, events.RideFull, updated, "")
	}
	return nil
}

func (s *rideService) LeaveRide(ctx context.Context, rideID, userID string) error {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID == userID {
		return apperrors.Validation("the driver cannot leave their own ride, cancel it instead")
	}

	updated, err := s.rideRepo.ReleaseSeat(ctx, rideID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("participation")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, events.RideLeft, updated, userID)
	return nil
}

func (s *rideService) ConfirmParticipant(ctx context.Context, rideID, driverID, userID string) error {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID != driverID {
		return apperrors.NotOwner("confirm participants of")
	}

	err = s.rideRepo.ConfirmParticipant(ctx, rideID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("participant")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, events.ParticipantConfirmed, ride, userID)
	return nil
}

func (s *rideService) CancelRide(ctx context.Context, rideID, driverID string) error {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID != driverID {
		return apperrors.NotOwner("cancel")
	}

	cancelled, err := s.rideRepo.Cancel(ctx, rideID)
	if err != nil {
		return err
	}

	s.publish(ctx, events.RideCancelled, cancelled, driverID)
	return nil
}

// CompleteRide closes the ride and then credits every active participant in
// the ledger and the trust engine. Both writes are keyed by (ride, user), so
// calling it again after a partial failure finishes the job without
// crediting anyone twice.
func (s *rideService) CompleteRide(ctx context.Context, rideID, actorID string) error {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID != actorID {
		return apperrors.NotOwner("complete")
	}

	completed, participants, transitioned, err := s.rideRepo.Complete(ctx, rideID)
	if err != nil {
		return err
	}
	if transitioned {
		observability.RidesCompletedTotal.Inc()
	}

	estimate := s.carbon.Estimate(len(participants))

	var errs []error
	for _, p := range participants {
		if _, err := s.ledger.RecordCompletion(ctx, rideID, p.UserID, estimate.GramsSaved, estimate.Credits); err != nil {
			errs = append(errs, fmt.Errorf("ledger %s: %w", p.UserID, err))
			continue
		}
		if _, err := s.trust.ApplyCompletion(ctx, rideID, p.UserID, p.Role); err != nil {
			errs = append(errs, fmt.Errorf("trust %s: %w", p.UserID, err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.Error("ride completion fan-out incomplete, retry completion to finish",
			"ride_id", rideID, "participants", len(participants), "error", err)
		return err
	}

	// Published whenever the fan-out finishes, not only on the transition, so
	// a completion whose first fan-out failed still emits the event on retry.
	// A repeated completion may publish again; consumers key on the ride id.
	s.publish(ctx, events.RideCompleted, completed, actorID)
	return nil
}

func (s *rideService) ListForUser(ctx context.Context, userID string) ([]*models.MyRideResponse, error) {
	rides, err := s.rideRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.MyRideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, r.ToResponse())
	}
	return out, nil
}

func (s *rideService) getRide(ctx context.Context, id string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	return ride, nil
}

func (s *rideService) publish(ctx context.Context, eventType string, ride *models.Ride, userID string) {
	event := events.RideEvent{
		Type:           eventType,
		RideID:         ride.ID,
		UserID:         userID,
		Status:         ride.Status,
		AvailableSeats: ride.AvailableSeats,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ride event publish failed", "type", eventType, "ride_id", ride.ID, "error", err)
	}
}

func joinError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyJoined):
		return apperrors.AlreadyJoined()
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return apperrors.ConcurrencyConflict()
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.NotFound("ride")
	}
	return err
}

func outcomeOf(err error) string {
	if apiErr := apperrors.AsAPIError(err); apiErr != nil {
		return apiErr.Code
	}
	return apperrors.CodeInternal
}
