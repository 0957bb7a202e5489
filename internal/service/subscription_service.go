package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ecoride/ecoride-core/internal/config"
	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	occurrenceDateLayout = "2006-01-02"
	poolTimeLayout       = "15:04"
	poolRideDestination  = "Campus"
)

type SubscriptionService interface {
	CreatePool(ctx context.Context, creatorID string, req *models.CreatePoolRequest) (*models.SubscriptionResponse, error)
	JoinPool(ctx context.Context, poolID, userID string) (*models.SubscriptionResponse, error)
	MyPools(ctx context.Context, userID string) ([]*models.SubscriptionResponse, error)
	// Materialize creates the ride for every pool whose next occurrence falls
	// within the lookahead after now. Safe to run repeatedly and concurrently.
	Materialize(ctx context.Context, now time.Time) (*MaterializeReport, error)
}

type MaterializeReport struct {
	Created int64
	Skipped int64
	Failed  int64
}

type subscriptionService struct {
	poolRepo repository.SubscriptionRepository
	rides    RideService
	cfg      config.SchedulerConfig
	loc      *time.Location
	logger   *slog.Logger
}

func NewSubscriptionService(
	poolRepo repository.SubscriptionRepository,
	rides RideService,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) SubscriptionService {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &subscriptionService{
		poolRepo: poolRepo,
		rides:    rides,
		cfg:      cfg,
		loc:      cfg.Location(),
		logger:   logger,
	}
}

func (s *subscriptionService) CreatePool(ctx context.Context, creatorID string, req *models.CreatePoolRequest) (*models.SubscriptionResponse, error) {
	zone := strings.TrimSpace(req.PickupZone)
	if zone == "" {
		return nil, apperrors.Validation("pickup zone is required")
	}
	if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		return nil, apperrors.Validation("day of week must be between 0 (Sunday) and 6 (Saturday)")
	}
	departure, err := time.Parse(poolTimeLayout, strings.TrimSpace(req.DepartureTime))
	if err != nil {
		return nil, apperrors.Validation("departure time must be HH:mm")
	}

	pool := &models.SubscriptionPool{
		PickupZone:    zone,
		DepartureTime: departure.Format(poolTimeLayout),
		DayOfWeek:     *req.DayOfWeek,
		CreatedBy:     creatorID,
	}
	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, err
	}
	return pool.ToResponse(), nil
}

func (s *subscriptionService) JoinPool(ctx context.Context, poolID, userID string) (*models.SubscriptionResponse, error) {
	pool, err := s.poolRepo.AddMember(ctx, poolID, userID)
	switch {
	case errors.Is(err, apperrors.ErrAlreadyMember):
		return nil, apperrors.AlreadyMember()
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.NotFound("subscription pool")
	case err != nil:
		return nil, err
	}
	return pool.ToResponse(), nil
}

func (s *subscriptionService) MyPools(ctx context.Context, userID string) ([]*models.SubscriptionResponse, error) {
	pools, err := s.poolRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.SubscriptionResponse, 0, len(pools))
	for _, p := range pools {
		out = append(out, p.ToResponse())
	}
	return out, nil
}

func (s *subscriptionService) Materialize(ctx context.Context, now time.Time) (*MaterializeReport, error) {
	pools, err := s.poolRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var created, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, pool := range pools {
		pool := pool
		g.Go(func() error {
			ok, err := s.materializePool(gctx, pool, now)
			switch {
			case err != nil:
				failed.Add(1)
				observability.MaterializationsTotal.WithLabelValues("failed").Inc()
				s.logger.Error("pool materialization failed", "pool_id", pool.ID, "error", err)
			case ok:
				created.Add(1)
				observability.MaterializationsTotal.WithLabelValues("created").Inc()
			default:
				skipped.Add(1)
			}
			// One pool failing never stops the others.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &MaterializeReport{
		Created: created.Load(),
		Skipped: skipped.Load(),
		Failed:  failed.Load(),
	}, nil
}

func (s *subscriptionService) materializePool(ctx context.Context, pool *models.SubscriptionPool, now time.Time) (bool, error) {
	at, ok, err := NextOccurrence(pool, now.In(s.loc), s.cfg.Lookahead)
	if err != nil || !ok {
		return false, err
	}
	date := at.Format(occurrenceDateLayout)

	claimed, err := s.poolRepo.ClaimOccurrence(ctx, pool.ID, date)
	if err != nil || !claimed {
		return false, err
	}

	rideID, err := s.createOccurrenceRide(ctx, pool, date, at)
	if err != nil {
		if relErr := s.poolRepo.ReleaseOccurrence(ctx, pool.ID, date); relErr != nil {
			s.logger.Error("releasing occurrence claim failed", "pool_id", pool.ID, "date", date, "error", relErr)
		}
		return false, err
	}

	if err := s.poolRepo.AttachRide(ctx, pool.ID, date, rideID); err != nil {
		return false, fmt.Errorf("attach ride %s: %w", rideID, err)
	}
	s.logger.Info("pool occurrence materialized", "pool_id", pool.ID, "date", date, "ride_id", rideID)
	return true, nil
}

// createOccurrenceRide rotates the driver through members in join order and
// books everyone else as a passenger.
func (s *subscriptionService) createOccurrenceRide(ctx context.Context, pool *models.SubscriptionPool, date string, at time.Time) (string, error) {
	members, err := s.poolRepo.Members(ctx, pool.ID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", fmt.Errorf("pool %s has no members", pool.ID)
	}
	prior, err := s.poolRepo.CountOccurrencesBefore(ctx, pool.ID, date)
	if err != nil {
		return "", err
	}

	driver := members[prior%len(members)]
	seats := len(members) - 1
	if seats < 1 {
		seats = 1
	}

	ride, err := s.rides.CreateRide(ctx, driver.UserID, &models.CreateRideRequest{
		PickupZone:     pool.PickupZone,
		Destination:    poolRideDestination,
		DepartureTime:  at,
		AvailableSeats: seats,
		IsSubscription: true,
	})
	if err != nil {
		return "", err
	}

	for _, m := range members {
		if m.UserID == driver.UserID {
			continue
		}
		if err := s.rides.JoinRide(ctx, ride.ID, m.UserID); err != nil {
			s.logger.Warn("booking pool member failed", "pool_id", pool.ID, "ride_id", ride.ID, "user_id", m.UserID, "error", err)
		}
	}
	return ride.ID, nil
}

// NextOccurrence finds the first pool departure strictly after now and no
// later than now+lookahead, in now's location.
func NextOccurrence(pool *models.SubscriptionPool, now time.Time, lookahead time.Duration) (time.Time, bool, error) {
	clock, err := time.Parse(poolTimeLayout, pool.DepartureTime)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("pool %s: bad departure time %q: %w", pool.ID, pool.DepartureTime, err)
	}

	horizon := now.Add(lookahead)
	for d := 0; d <= 7; d++ {
		day := now.AddDate(0, 0, d)
		if int(day.Weekday()) != pool.DayOfWeek {
			continue
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			continue
		}
		if at.After(horizon) {
			return time.Time{}, false, nil
		}
		return at, true, nil
	}
	return time.Time{}, false, nil
}
