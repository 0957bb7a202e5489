package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
)

func seedUsers(t *testing.T, s *Store, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		u := &models.User{Name: name, Email: name + "@campus.edu"}
		if err := s.Repositories().Users.Create(context.Background(), u); err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestReserveSeatConcurrentLastSeat(t *testing.T) {
	s := New()
	repos := s.Repositories()
	ctx := context.Background()

	ids := seedUsers(t, s, "driver", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8")
	ride := &models.Ride{DriverID: ids[0], PickupZone: "North Campus", Destination: "Library",
		DepartureTime: time.Now().Add(time.Hour), TotalSeats: 1}
	if err := repos.Rides.Create(ctx, ride); err != nil {
		t.Fatalf("create ride: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, id := range ids[1:] {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := repos.Rides.ReserveSeat(ctx, ride.ID, userID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, apperrors.RideUnavailable("")) {
				t.Errorf("unexpected join error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
	got, _ := repos.Rides.GetByID(ctx, ride.ID)
	if got.AvailableSeats != 0 || got.Status != models.RideStatusFull {
		t.Errorf("ride = %d seats/%s, want 0/FULL", got.AvailableSeats, got.Status)
	}
}

func TestReleaseSeatReopensFullRide(t *testing.T) {
	s := New()
	repos := s.Repositories()
	ctx := context.Background()

	ids := seedUsers(t, s, "driver", "rider")
	ride := &models.Ride{DriverID: ids[0], PickupZone: "Zone A", Destination: "Gym",
		DepartureTime: time.Now().Add(time.Hour), TotalSeats: 1}
	if err := repos.Rides.Create(ctx, ride); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Rides.ReserveSeat(ctx, ride.ID, ids[1]); err != nil {
		t.Fatal(err)
	}

	got, err := repos.Rides.ReleaseSeat(ctx, ride.ID, ids[1])
	if err != nil {
		t.Fatalf("ReleaseSeat() error = %v", err)
	}
	if got.AvailableSeats != 1 || got.Status != models.RideStatusOpen {
		t.Errorf("ride = %d seats/%s, want 1/OPEN", got.AvailableSeats, got.Status)
	}

	// Rejoining after leaving is allowed.
	if _, err := repos.Rides.ReserveSeat(ctx, ride.ID, ids[1]); err != nil {
		t.Errorf("rejoin error = %v", err)
	}
}

func TestLedgerRecordIsIdempotent(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	txn := func() *models.WalletTransaction {
		return &models.WalletTransaction{UserID: "u1", RideID: "r1", CarbonSavedGrams: 600, CreditsEarned: 6}
	}
	first, err := repos.Ledger.Record(ctx, txn())
	if err != nil || !first {
		t.Fatalf("first Record() = %v, %v", first, err)
	}
	second, err := repos.Ledger.Record(ctx, txn())
	if err != nil || second {
		t.Fatalf("second Record() = %v, %v, want false, nil", second, err)
	}

	totals, _ := repos.Ledger.Totals(ctx, "u1")
	if totals.TotalCredits != 6 || totals.TotalCarbonSavedGrams != 600 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestClaimOccurrenceOnce(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		claims int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repos.Subscriptions.ClaimOccurrence(ctx, "pool-1", "2026-10-19")
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				claims++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if claims != 1 {
		t.Errorf("claims = %d, want 1", claims)
	}
}
