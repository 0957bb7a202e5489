package memstore

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
)

type subscriptionStore struct {
	s *Store
}

func (p *subscriptionStore) Create(ctx context.Context, pool *models.SubscriptionPool) error {
	if pool.ID == "" {
		pool.ID = uuid.New().String()
	}
	pool.CreatedAt = time.Now()
	pool.MemberCount = 1

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	cp := *pool
	p.s.pools[pool.ID] = &cp
	p.s.members[pool.ID] = []*models.PoolMember{{PoolID: pool.ID, UserID: pool.CreatedBy, JoinedAt: pool.CreatedAt}}
	return nil
}

func (p *subscriptionStore) GetByID(ctx context.Context, id string) (*models.SubscriptionPool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	pool, ok := p.s.pools[id]
	if !ok {
		return nil, nil
	}
	cp := *pool
	return &cp, nil
}

func (p *subscriptionStore) AddMember(ctx context.Context, poolID, userID string) (*models.SubscriptionPool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	pool, ok := p.s.pools[poolID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for _, m := range p.s.members[poolID] {
		if m.UserID == userID {
			return nil, apperrors.ErrAlreadyMember
		}
	}
	p.s.members[poolID] = append(p.s.members[poolID], &models.PoolMember{
		PoolID:   poolID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	pool.MemberCount++

	cp := *pool
	return &cp, nil
}

func (p *subscriptionStore) ListForUser(ctx context.Context, userID string) ([]*models.SubscriptionPool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := []*models.SubscriptionPool{}
	for poolID, members := range p.s.members {
		for _, m := range members {
			if m.UserID == userID {
				cp := *p.s.pools[poolID]
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (p *subscriptionStore) ListAll(ctx context.Context) ([]*models.SubscriptionPool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]*models.SubscriptionPool, 0, len(p.s.pools))
	for _, pool := range p.s.pools {
		cp := *pool
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *subscriptionStore) Members(ctx context.Context, poolID string) ([]*models.PoolMember, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	// Members are appended in join order already.
	out := make([]*models.PoolMember, 0, len(p.s.members[poolID]))
	for _, m := range p.s.members[poolID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (p *subscriptionStore) ClaimOccurrence(ctx context.Context, poolID, date string) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	key := pairKey{poolID, date}
	if _, taken := p.s.occurrences[key]; taken {
		return false, nil
	}
	p.s.occurrences[key] = &models.PoolOccurrence{PoolID: poolID, OccurrenceDate: date, CreatedAt: time.Now()}
	return true, nil
}

func (p *subscriptionStore) AttachRide(ctx context.Context, poolID, date, rideID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	occ, ok := p.s.occurrences[pairKey{poolID, date}]
	if !ok {
		return apperrors.ErrNotFound
	}
	occ.RideID = &rideID
	return nil
}

func (p *subscriptionStore) ReleaseOccurrence(ctx context.Context, poolID, date string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	key := pairKey{poolID, date}
	if occ, ok := p.s.occurrences[key]; ok && occ.RideID == nil {
		delete(p.s.occurrences, key)
	}
	return nil
}

func (p *subscriptionStore) CountOccurrencesBefore(ctx context.Context, poolID, date string) (int, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	n := 0
	for key := range p.s.occurrences {
		if key.a == poolID && key.b < date {
			n++
		}
	}
	return n, nil
}

func (p *subscriptionStore) GetOccurrence(ctx context.Context, poolID, date string) (*models.PoolOccurrence, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	occ, ok := p.s.occurrences[pairKey{poolID, date}]
	if !ok {
		return nil, nil
	}
	cp := *occ
	return &cp, nil
}
