package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ecoride/ecoride-core/internal/config"
	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/repository"
)

const (
	exactMatch   = 1.0
	partialMatch = 0.5
)

type MatchingService interface {
	FindMatches(ctx context.Context, q models.MatchQuery) ([]*models.MatchResult, error)
}

type matchingService struct {
	rideRepo repository.RideRepository
	userRepo repository.UserRepository
	trust    TrustService
	cfg      config.MatchingConfig
}

func NewMatchingService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	trust TrustService,
	cfg config.MatchingConfig,
) MatchingService {
	return &matchingService{
		rideRepo: rideRepo,
		userRepo: userRepo,
		trust:    trust,
		cfg:      cfg,
	}
}

type candidate struct {
	ride     *models.Ride
	timeFit  float64
	location float64
}

// FindMatches ranks open rides for a search. No qualifying ride yields an
// empty slice, never an error.
func (s *matchingService) FindMatches(ctx context.Context, q models.MatchQuery) ([]*models.MatchResult, error) {
	start := time.Now()
	defer func() { observability.MatchLatency.Observe(time.Since(start).Seconds()) }()

	zone := normalizeZone(q.PickupZone)
	if zone == "" {
		return nil, apperrors.Validation("pickup zone is required")
	}
	if q.RequestedTime.IsZero() {
		return nil, apperrors.Validation("requested time is required")
	}
	destination := normalizeZone(q.Destination)

	rides, err := s.rideRepo.ListOpen(ctx, q.RequestedTime.Add(-s.cfg.Window), q.RequestedTime.Add(s.cfg.Window))
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(rides))
	driverIDs := make([]string, 0, len(rides))
	for _, ride := range rides {
		if ride.DriverID == q.RequesterID || !ride.IsJoinable() {
			continue
		}
		zoneFit := locationMatch(zone, normalizeZone(ride.PickupZone))
		if zoneFit == 0 {
			continue
		}
		location := zoneFit
		if destination != "" {
			destFit := locationMatch(destination, normalizeZone(ride.Destination))
			if destFit == 0 {
				continue
			}
			location = (zoneFit + destFit) / 2
		}
		timeFit := timeProximity(ride.DepartureTime, q.RequestedTime, s.cfg.Window)
		candidates = append(candidates, candidate{ride: ride, timeFit: timeFit, location: location})
		driverIDs = append(driverIDs, ride.DriverID)
	}

	results := []*models.MatchResult{}
	if len(candidates) == 0 {
		observability.MatchResults.Observe(0)
		return results, nil
	}

	scores, err := s.trust.Scores(ctx, driverIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetByIDs(ctx, append(driverIDs, q.RequesterID))
	if err != nil {
		return nil, err
	}
	connected := map[string]bool{}
	if q.RequesterID != "" {
		conns, err := s.trust.Connections(ctx, q.RequesterID)
		if err != nil {
			return nil, err
		}
		for _, c := range conns {
			connected[c.UserID] = true
		}
	}
	requester := users[q.RequesterID]

	for _, c := range candidates {
		driver := users[c.ride.DriverID]
		trustScore := scores[c.ride.DriverID]

		var deptBonus, connBonus float64
		if sameDepartment(requester, driver) {
			deptBonus = s.cfg.DepartmentBonus
		}
		if connected[c.ride.DriverID] {
			connBonus = s.cfg.ConnectionBonus
		}

		r := &models.MatchResult{
			RideID:               c.ride.ID,
			DriverID:             c.ride.DriverID,
			PickupZone:           c.ride.PickupZone,
			Destination:          c.ride.Destination,
			DepartureTime:        c.ride.DepartureTime,
			AvailableSeats:       c.ride.AvailableSeats,
			PricePerSeat:         c.ride.PricePerSeat,
			MatchScore:           s.score(c.timeFit, c.location, trustScore, deptBonus+connBonus),
			TimeProximityScore:   round2(c.timeFit * 100),
			LocationScore:        round2(c.location * 100),
			TrustScore:           models.DisplayTrust(trustScore),
			DepartmentMatchBonus: deptBonus,
			TrustBonus:           connBonus,
		}
		if driver != nil {
			r.DriverName = driver.Name
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if !a.DepartureTime.Equal(b.DepartureTime) {
			return a.DepartureTime.Before(b.DepartureTime)
		}
		return a.RideID < b.RideID
	})
	if s.cfg.TopN > 0 && len(results) > s.cfg.TopN {
		results = results[:s.cfg.TopN]
	}

	observability.MatchResults.Observe(float64(len(results)))
	return results, nil
}

// score combines the weighted factors on a 0-100 scale, adds flat bonuses
// and clamps to 100.
func (s *matchingService) score(timeFit, location, trustScore, bonus float64) float64 {
	total := s.cfg.WeightTime + s.cfg.WeightLocation + s.cfg.WeightTrust
	weighted := 0.0
	if total > 0 {
		weighted = 100 * (s.cfg.WeightTime*timeFit +
			s.cfg.WeightLocation*location +
			s.cfg.WeightTrust*clamp(trustScore, 0, 100)/100) / total
	}
	return round2(clamp(weighted+bonus, 0, 100))
}

// timeProximity decays linearly from 1 at the requested time to 0 at the window edge.
func timeProximity(departure, requested time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	diff := math.Abs(float64(departure.Sub(requested)))
	return clamp(1-diff/float64(window), 0, 1)
}

// locationMatch scores normalized zone names: identical strings match fully,
// one containing the other matches partially.
func locationMatch(query, candidate string) float64 {
	switch {
	case query == "" || candidate == "":
		return 0
	case query == candidate:
		return exactMatch
	case strings.Contains(candidate, query) || strings.Contains(query, candidate):
		return partialMatch
	default:
		return 0
	}
}

func normalizeZone(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sameDepartment(a, b *models.User) bool {
	if a == nil || b == nil || a.Department == nil || b.Department == nil {
		return false
	}
	da := strings.TrimSpace(*a.Department)
	return da != "" && strings.EqualFold(da, strings.TrimSpace(*b.Department))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
