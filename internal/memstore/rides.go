package memstore

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
)

type rideStore struct {
	s *Store
}

func (r *rideStore) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	ride.Status = models.RideStatusOpen
	ride.AvailableSeats = ride.TotalSeats

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[ride.DriverID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *ride
	r.s.rides[ride.ID] = &cp
	r.s.participants[ride.ID] = map[string]*models.Participant{
		ride.DriverID: {
			RideID:    ride.ID,
			UserID:    ride.DriverID,
			Role:      models.RoleDriver,
			Status:    models.ParticipantConfirmed,
			JoinedAt:  now,
			UpdatedAt: now,
		},
	}
	return nil
}

func (r *rideStore) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return nil, nil
	}
	cp := *ride
	return &cp, nil
}

func (r *rideStore) ListOpen(ctx context.Context, from, to time.Time) ([]*models.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rides := []*models.Ride{}
	for _, ride := range r.s.rides {
		if ride.Status != models.RideStatusOpen || ride.AvailableSeats <= 0 {
			continue
		}
		if ride.DepartureTime.Before(from) || ride.DepartureTime.After(to) {
			continue
		}
		cp := *ride
		rides = append(rides, &cp)
	}
	sort.Slice(rides, func(i, j int) bool {
		if !rides[i].DepartureTime.Equal(rides[j].DepartureTime) {
			return rides[i].DepartureTime.Before(rides[j].DepartureTime)
		}
		return rides[i].ID < rides[j].ID
	})
	return rides, nil
}

func (r *rideStore) ListForUser(ctx context.Context, userID string) ([]*models.UserRide, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.UserRide{}
	for rideID, byUser := range r.s.participants {
		p, ok := byUser[userID]
		if !ok {
			continue
		}
		ride := r.s.rides[rideID]
		ur := &models.UserRide{
			Ride:              *ride,
			Role:              p.Role,
			ParticipantStatus: p.Status,
		}
		if driver, ok := r.s.users[ride.DriverID]; ok {
			ur.DriverName = driver.Name
		}
		out = append(out, ur)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].DepartureTime.Before(out[j].DepartureTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *rideStore) GetParticipant(ctx context.Context, rideID, userID string) (*models.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.participant(rideID, userID), nil
}

func (r *rideStore) ListParticipants(ctx context.Context, rideID string) ([]*models.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.participants(rideID, false), nil
}

func (r *rideStore) CoRiders(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, byUser := range r.s.participants {
		self, ok := byUser[userID]
		if !ok || !self.IsActive() {
			continue
		}
		for peerID, p := range byUser {
			if peerID != userID && p.IsActive() {
				seen[peerID] = struct{}{}
			}
		}
	}
	peers := make([]string, 0, len(seen))
	for id := range seen {
		peers = append(peers, id)
	}
	sort.Strings(peers)
	return peers, nil
}

func (r *rideStore) ReserveSeat(ctx context.Context, rideID, userID string) (*models.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if p := r.s.participants[rideID][userID]; p != nil && p.IsActive() {
		return nil, apperrors.ErrAlreadyJoined
	}
	if !ride.IsJoinable() {
		return nil, apperrors.RideUnavailable(ride.UnavailableReason())
	}

	now := time.Now()
	ride.AvailableSeats--
	if ride.AvailableSeats == 0 {
		ride.Status = models.RideStatusFull
	}
	ride.UpdatedAt = now

	r.s.participants[rideID][userID] = &models.Participant{
		RideID:    rideID,
		UserID:    userID,
		Role:      models.RolePassenger,
		Status:    models.ParticipantRequested,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	cp := *ride
	return &cp, nil
}

func (r *rideStore) ReleaseSeat(ctx context.Context, rideID, userID string) (*models.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !ride.IsActive() {
		return nil, apperrors.RideUnavailable(ride.UnavailableReason())
	}
	p := r.s.participants[rideID][userID]
	if p == nil || !p.IsActive() || p.Role != models.RolePassenger {
		return nil, apperrors.ErrNotFound
	}

	now := time.Now()
	p.Status = models.ParticipantCancelled
	p.UpdatedAt = now
	if ride.AvailableSeats < ride.TotalSeats {
		ride.AvailableSeats++
	}
	if ride.Status == models.RideStatusFull {
		ride.Status = models.RideStatusOpen
	}
	ride.UpdatedAt = now

	cp := *ride
	return &cp, nil
}

func (r *rideStore) ConfirmParticipant(ctx context.Context, rideID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !ride.IsActive() {
		return apperrors.RideUnavailable(ride.UnavailableReason())
	}
	p := r.s.participants[rideID][userID]
	if p == nil || !p.IsActive() {
		return apperrors.ErrNotFound
	}
	p.Status = models.ParticipantConfirmed
	p.UpdatedAt = time.Now()
	return nil
}

func (r *rideStore) Cancel(ctx context.Context, rideID string) (*models.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !ride.CanTransitionTo(models.RideStatusCancelled) {
		return nil, apperrors.InvalidTransition(ride.Status, models.RideStatusCancelled)
	}

	now := time.Now()
	ride.Status = models.RideStatusCancelled
	ride.UpdatedAt = now
	for _, p := range r.s.participants[rideID] {
		if p.Status != models.ParticipantCancelled {
			p.Status = models.ParticipantCancelled
			p.UpdatedAt = now
		}
	}
	cp := *ride
	return &cp, nil
}

func (r *rideStore) Complete(ctx context.Context, rideID string) (*models.Ride, []*models.Participant, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideID]
	if !ok {
		return nil, nil, false, apperrors.ErrNotFound
	}

	transitioned := false
	switch {
	case ride.Status == models.RideStatusCompleted:
	case ride.CanTransitionTo(models.RideStatusCompleted):
		ride.Status = models.RideStatusCompleted
		ride.UpdatedAt = time.Now()
		transitioned = true
	default:
		return nil, nil, false, apperrors.InvalidTransition(ride.Status, models.RideStatusCompleted)
	}

	cp := *ride
	return &cp, r.participants(rideID, true), transitioned, nil
}

// participant and participants expect r.s.mu to be held.
func (r *rideStore) participant(rideID, userID string) *models.Participant {
	p, ok := r.s.participants[rideID][userID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (r *rideStore) participants(rideID string, activeOnly bool) []*models.Participant {
	out := []*models.Participant{}
	for _, p := range r.s.participants[rideID] {
		if activeOnly && !p.IsActive() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
