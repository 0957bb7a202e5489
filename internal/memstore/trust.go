package memstore

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
)

type trustStore struct {
	s *Store
}

func (t *trustStore) Apply(ctx context.Context, rideID, userID string, next func(float64) float64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	user, ok := t.s.users[userID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	key := pairKey{rideID, userID}
	if _, seen := t.s.trustKeys[key]; seen {
		return false, nil
	}

	user.TrustScore = next(user.TrustScore)
	user.RidesCompleted++
	user.UpdatedAt = time.Now()
	t.s.trustKeys[key] = struct{}{}
	return true, nil
}

func (t *trustStore) Connections(ctx context.Context, userID string) ([]*models.Connection, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	counts := make(map[string]int)
	for rideID, byUser := range t.s.participants {
		if t.s.rides[rideID].Status != models.RideStatusCompleted {
			continue
		}
		self, ok := byUser[userID]
		if !ok || self.Status == models.ParticipantCancelled {
			continue
		}
		for peerID, p := range byUser {
			if peerID != userID && p.Status != models.ParticipantCancelled {
				counts[peerID]++
			}
		}
	}

	conns := make([]*models.Connection, 0, len(counts))
	for peerID, n := range counts {
		c := &models.Connection{UserID: peerID, MutualRides: n}
		if u, ok := t.s.users[peerID]; ok {
			c.Name = u.Name
		}
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].MutualRides != conns[j].MutualRides {
			return conns[i].MutualRides > conns[j].MutualRides
		}
		return conns[i].UserID < conns[j].UserID
	})
	return conns, nil
}
