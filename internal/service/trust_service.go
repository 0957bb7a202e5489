package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/ecoride/ecoride-core/internal/cache"
	"github.com/ecoride/ecoride-core/internal/config"
	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/repository"
)

const profileConnectionLimit = 4

// TrustService is the only writer of trust_score and rides_completed.
type TrustService interface {
	ApplyCompletion(ctx context.Context, rideID, userID, role string) (bool, error)
	Profile(ctx context.Context, userID string) (*models.TrustProfile, error)
	TopConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error)
	Connections(ctx context.Context, userID string) ([]*models.Connection, error)
	// Scores returns stored trust scores, served from cache when possible.
	Scores(ctx context.Context, userIDs []string) (map[string]float64, error)
	BadgeFor(user *models.User) string
}

type trustService struct {
	userRepo  repository.UserRepository
	trustRepo repository.TrustRepository
	cache     cache.TrustScoreCache
	cfg       config.TrustConfig
	logger    *slog.Logger
}

func NewTrustService(
	userRepo repository.UserRepository,
	trustRepo repository.TrustRepository,
	scoreCache cache.TrustScoreCache,
	cfg config.TrustConfig,
	logger *slog.Logger,
) TrustService {
	return &trustService{
		userRepo:  userRepo,
		trustRepo: trustRepo,
		cache:     scoreCache,
		cfg:       cfg,
		logger:    logger,
	}
}

// NextScore moves score toward ceiling by increment scaled with the remaining
// headroom, so every step is smaller than the previous one and the result
// never passes ceiling.
func NextScore(score, increment, ceiling float64) float64 {
	if score < 0 {
		score = 0
	}
	if score >= ceiling {
		return ceiling
	}
	next := score + increment*(1-score/ceiling)
	return math.Min(ceiling, math.Max(score, next))
}

// Badge maps a trust score and completed ride count to a tier.
func Badge(trustScore float64, ridesCompleted int) string {
	switch {
	case trustScore >= 75 && ridesCompleted >= 20:
		return models.BadgePlatinum
	case trustScore >= 50 && ridesCompleted >= 10:
		return models.BadgeGold
	case trustScore >= 25 && ridesCompleted >= 3:
		return models.BadgeSilver
	default:
		return models.BadgeBronze
	}
}

func (s *trustService) BadgeFor(user *models.User) string {
	return Badge(user.TrustScore, user.RidesCompleted)
}

func (s *trustService) increment(role string) float64 {
	if role == models.RoleDriver {
		return s.cfg.DriverIncrement
	}
	return s.cfg.PassengerIncrement
}

func (s *trustService) ApplyCompletion(ctx context.Context, rideID, userID, role string) (bool, error) {
	inc := s.increment(role)
	applied, err := s.trustRepo.Apply(ctx, rideID, userID, func(score float64) float64 {
		return NextScore(score, inc, s.cfg.Ceiling)
	})
	if err != nil {
		observability.TrustUpdatesTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if !applied {
		observability.TrustUpdatesTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}
	observability.TrustUpdatesTotal.WithLabelValues("applied").Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("trust cache invalidate failed", "user_id", userID, "error", err)
		}
	}
	return true, nil
}

func (s *trustService) Profile(ctx context.Context, userID string) (*models.TrustProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	conns, err := s.trustRepo.Connections(ctx, userID)
	if err != nil {
		return nil, err
	}
	top := conns
	if len(top) > profileConnectionLimit {
		top = top[:profileConnectionLimit]
	}

	return &models.TrustProfile{
		UserID:             user.ID,
		Name:               user.Name,
		TrustScore:         models.DisplayTrust(user.TrustScore),
		RidesCompleted:     user.RidesCompleted,
		Badge:              s.BadgeFor(user),
		UniqueRidePartners: len(conns),
		TopConnections:     top,
	}, nil
}

func (s *trustService) TopConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	conns, err := s.trustRepo.Connections(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(conns) > limit {
		conns = conns[:limit]
	}
	return conns, nil
}

func (s *trustService) Connections(ctx context.Context, userID string) ([]*models.Connection, error) {
	return s.trustRepo.Connections(ctx, userID)
}

func (s *trustService) Scores(ctx context.Context, userIDs []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(userIDs))
	missing := userIDs

	if s.cache != nil {
		cached, err := s.cache.GetScores(ctx, userIDs)
		if err != nil {
			s.logger.Warn("trust cache read failed", "error", err)
		} else {
			missing = make([]string, 0, len(userIDs))
			for _, id := range userIDs {
				if score, ok := cached[id]; ok {
					scores[id] = score
				} else {
					missing = append(missing, id)
				}
			}
		}
	}
	if len(missing) == 0 {
		return scores, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range users {
		scores[id] = u.TrustScore
		if s.cache != nil {
			if err := s.cache.SetScore(ctx, id, u.TrustScore); err != nil {
				s.logger.Warn("trust cache write failed", "user_id", id, "error", err)
			}
		}
	}
	return scores, nil
}
