package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
)

const (
	maxPredictions    = 3
	predictionBucket  = 15 * time.Minute
	predictionTimeFmt = "15:04"
)

// PredictionService suggests recurring trips from a user's own ride history.
type PredictionService interface {
	Suggestions(ctx context.Context, userID string) ([]*models.Prediction, error)
}

type predictionService struct {
	rideRepo repository.RideRepository
	loc      *time.Location
}

func NewPredictionService(rideRepo repository.RideRepository, loc *time.Location) PredictionService {
	if loc == nil {
		loc = time.UTC
	}
	return &predictionService{rideRepo: rideRepo, loc: loc}
}

type habitKey struct {
	zone    string
	weekday time.Weekday
	clock   string
}

func (s *predictionService) Suggestions(ctx context.Context, userID string) ([]*models.Prediction, error) {
	rides, err := s.rideRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[habitKey]int)
	for _, r := range rides {
		if r.Status == models.RideStatusCancelled || r.ParticipantStatus == models.ParticipantCancelled {
			continue
		}
		local := r.DepartureTime.In(s.loc)
		slot := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, s.loc).Round(predictionBucket)
		counts[habitKey{zone: r.PickupZone, weekday: local.Weekday(), clock: slot.Format(predictionTimeFmt)}]++
	}

	keys := make([]habitKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if a.zone != b.zone {
			return a.zone < b.zone
		}
		if a.weekday != b.weekday {
			return a.weekday < b.weekday
		}
		return a.clock < b.clock
	})
	if len(keys) > maxPredictions {
		keys = keys[:maxPredictions]
	}

	out := make([]*models.Prediction, 0, len(keys))
	for _, k := range keys {
		n := counts[k]
		out = append(out, &models.Prediction{
			PickupZone:             k.zone,
			SuggestedDepartureTime: k.clock,
			ConfidenceRideCount:    n,
			DayOfWeek:              k.weekday.String(),
			Message:                fmt.Sprintf("You usually ride from %s on %ss around %s (%d rides)", k.zone, k.weekday, k.clock, n),
		})
	}
	return out, nil
}
