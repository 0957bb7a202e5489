// Package memstore keeps every repository in process memory. It backs the
// test suites and lets the server run without Postgres.
package memstore

import (
	"sync"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
)

type pairKey struct {
	a, b string
}

// Store guards all tables with one lock. Every mutation runs entirely under
// the write lock, which makes seat reservation a single atomic step.
type Store struct {
	mu sync.RWMutex

	users        map[string]*models.User
	rides        map[string]*models.Ride
	participants map[string]map[string]*models.Participant // ride id -> user id

	ledger     []*models.WalletTransaction
	ledgerKeys map[pairKey]struct{}
	trustKeys  map[pairKey]struct{}

	pools       map[string]*models.SubscriptionPool
	members     map[string][]*models.PoolMember
	occurrences map[pairKey]*models.PoolOccurrence

	messages []*models.Message
}

func New() *Store {
	return &Store{
		users:        make(map[string]*models.User),
		rides:        make(map[string]*models.Ride),
		participants: make(map[string]map[string]*models.Participant),
		ledgerKeys:   make(map[pairKey]struct{}),
		trustKeys:    make(map[pairKey]struct{}),
		pools:        make(map[string]*models.SubscriptionPool),
		members:      make(map[string][]*models.PoolMember),
		occurrences:  make(map[pairKey]*models.PoolOccurrence),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:         &userStore{s},
		Rides:         &rideStore{s},
		Ledger:        &ledgerStore{s},
		Trust:         &trustStore{s},
		Subscriptions: &subscriptionStore{s},
		Messages:      &messageStore{s},
	}
}
