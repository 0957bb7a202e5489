package service

import (
	"context"
	"testing"
	"time"

	"github.com/ecoride/ecoride-core/internal/config"
	"github.com/ecoride/ecoride-core/internal/logging"
	"github.com/ecoride/ecoride-core/internal/memstore"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
)

type testEnv struct {
	repos    *repository.Repositories
	trust    TrustService
	ledger   LedgerService
	rides    RideService
	matching MatchingService
	pools    SubscriptionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.Discard()
	repos := memstore.New().Repositories()

	trust := NewTrustService(repos.Users, repos.Trust, nil, config.TrustConfig{
		DriverIncrement:    5,
		PassengerIncrement: 3,
		Ceiling:            100,
	}, logger)
	ledger := NewLedgerService(repos.Ledger, 20, logger)
	carbon := NewCarbonService(config.CarbonConfig{GramsPerSeat: 1200, GramsPerCredit: 100})
	rides := NewRideService(repos.Rides, repos.Users, ledger, trust, carbon, nil, logger)

	return &testEnv{
		repos:  repos,
		trust:  trust,
		ledger: ledger,
		rides:  rides,
		matching: NewMatchingService(repos.Rides, repos.Users, trust, config.MatchingConfig{
			Window:          2 * time.Hour,
			TopN:            10,
			WeightTime:      0.45,
			WeightLocation:  0.30,
			WeightTrust:     0.25,
			DepartmentBonus: 5,
			ConnectionBonus: 5,
		}),
		pools: NewSubscriptionService(repos.Subscriptions, rides, config.SchedulerConfig{
			Lookahead: 24 * time.Hour,
			Timezone:  "UTC",
			Workers:   4,
		}, logger),
	}
}

func (e *testEnv) user(t *testing.T, name string) string {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@campus.edu"}
	if err := e.repos.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u.ID
}

func (e *testEnv) ride(t *testing.T, driverID, zone string, departure time.Time, seats int) string {
	t.Helper()
	resp, err := e.rides.CreateRide(context.Background(), driverID, &models.CreateRideRequest{
		PickupZone:     zone,
		Destination:    "Main Gate",
		DepartureTime:  departure,
		AvailableSeats: seats,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return resp.ID
}

func (e *testEnv) mustRide(t *testing.T, id string) *models.Ride {
	t.Helper()
	r, err := e.repos.Rides.GetByID(context.Background(), id)
	if err != nil || r == nil {
		t.Fatalf("get ride %s: %v", id, err)
	}
	return r
}

func errorCode(err error) string {
	return outcomeOf(err)
}
