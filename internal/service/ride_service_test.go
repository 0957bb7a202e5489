package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ecoride/ecoride-core/internal/config"
	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/events"
	"github.com/ecoride/ecoride-core/internal/logging"
	"github.com/ecoride/ecoride-core/internal/models"
)

func TestJoinRideUntilFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.user(t, "driver")
	a, b, c := env.user(t, "a"), env.user(t, "b"), env.user(t, "c")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 2)

	if err := env.rides.JoinRide(ctx, rideID, a); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if r := env.mustRide(t, rideID); r.AvailableSeats != 1 || r.Status != models.RideStatusOpen {
		t.Fatalf("after one join: seats=%d status=%s", r.AvailableSeats, r.Status)
	}
	if err := env.rides.JoinRide(ctx, rideID, b); err != nil {
		t.Fatalf("join b: %v", err)
	}
	if r := env.mustRide(t, rideID); r.AvailableSeats != 0 || r.Status != models.RideStatusFull {
		t.Fatalf("after two joins: seats=%d status=%s", r.AvailableSeats, r.Status)
	}

	err := env.rides.JoinRide(ctx, rideID, c)
	if got := errorCode(err); got != apperrors.CodeRideUnavailable {
		t.Fatalf("third join error = %v (%s), want %s", err, got, apperrors.CodeRideUnavailable)
	}
	if apperrors.AsAPIError(err).Message != "ride is full" {
		t.Errorf("reason = %q", apperrors.AsAPIError(err).Message)
	}
}

func TestJoinRideConcurrentLastSeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.user(t, "driver")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 1)

	const riders = 10
	ids := make([]string, riders)
	for i := range ids {
		ids[i] = env.user(t, fmt.Sprintf("rider%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		refused int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := env.rides.JoinRide(ctx, rideID, id)
			mu.Lock()
			defer mu.Unlock()
			switch errorCode(err) {
			case apperrors.CodeRideUnavailable, apperrors.CodeConcurrencyConflict:
				refused++
			default:
				if err == nil {
					joined++
				} else {
					t.Errorf("unexpected join error: %v", err)
				}
			}
		}(id)
	}
	wg.Wait()

	if joined != 1 || refused != riders-1 {
		t.Fatalf("joined=%d refused=%d, want 1 and %d", joined, refused, riders-1)
	}
	r := env.mustRide(t, rideID)
	if r.AvailableSeats != 0 || r.Status != models.RideStatusFull {
		t.Errorf("ride seats=%d status=%s, want 0 FULL", r.AvailableSeats, r.Status)
	}
}

func TestJoinRideRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.user(t, "driver")
	rider := env.user(t, "rider")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 3)
	if err := env.rides.JoinRide(ctx, rideID, rider); err != nil {
		t.Fatalf("join: %v", err)
	}

	cancelledID := env.ride(t, driver, "North Campus", time.Now().Add(2*time.Hour), 3)
	if err := env.rides.CancelRide(ctx, cancelledID, driver); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	tests := []struct {
		name   string
		rideID string
		userID string
		want   string
	}{
		{"driver joins own ride", rideID, driver, apperrors.CodeSelfJoin},
		{"rider joins twice", rideID, rider, apperrors.CodeAlreadyJoined},
		{"unknown ride", "missing", rider, apperrors.CodeNotFound},
		{"cancelled ride", cancelledID, rider, apperrors.CodeRideUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.rides.JoinRide(ctx, tt.rideID, tt.userID)
			if got := errorCode(err); got != tt.want {
				t.Errorf("JoinRide() error = %v (%s), want %s", err, got, tt.want)
			}
		})
	}

	if r := env.mustRide(t, rideID); r.AvailableSeats != 2 {
		t.Errorf("rejected joins changed seats: %d", r.AvailableSeats)
	}
}

func TestLeaveRideReopensSeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver, a, b := env.user(t, "driver"), env.user(t, "a"), env.user(t, "b")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 1)

	if err := env.rides.JoinRide(ctx, rideID, a); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := env.rides.LeaveRide(ctx, rideID, a); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if r := env.mustRide(t, rideID); r.AvailableSeats != 1 || r.Status != models.RideStatusOpen {
		t.Fatalf("after leave: seats=%d status=%s", r.AvailableSeats, r.Status)
	}
	if err := env.rides.JoinRide(ctx, rideID, b); err != nil {
		t.Fatalf("join after leave: %v", err)
	}
	if err := env.rides.LeaveRide(ctx, rideID, driver); errorCode(err) != apperrors.CodeValidation {
		t.Errorf("driver leave error = %v", err)
	}
}

func TestRideOwnerOnlyOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver, other := env.user(t, "driver"), env.user(t, "other")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 2)

	if err := env.rides.CancelRide(ctx, rideID, other); errorCode(err) != apperrors.CodeNotOwner {
		t.Errorf("cancel by non-owner error = %v", err)
	}
	if err := env.rides.CompleteRide(ctx, rideID, other); errorCode(err) != apperrors.CodeNotOwner {
		t.Errorf("complete by non-owner error = %v", err)
	}
	if err := env.rides.ConfirmParticipant(ctx, rideID, other, driver); errorCode(err) != apperrors.CodeNotOwner {
		t.Errorf("confirm by non-owner error = %v", err)
	}
	if r := env.mustRide(t, rideID); r.Status != models.RideStatusOpen {
		t.Errorf("status = %s, want OPEN", r.Status)
	}
}

func TestCreateRideValidation(t *testing.T) {
	env := newTestEnv(t)
	driver := env.user(t, "driver")

	tests := []struct {
		name string
		req  models.CreateRideRequest
	}{
		{"departure in the past", models.CreateRideRequest{PickupZone: "North", Destination: "Gate", DepartureTime: time.Now().Add(-time.Minute), AvailableSeats: 2}},
		{"no seats", models.CreateRideRequest{PickupZone: "North", Destination: "Gate", DepartureTime: time.Now().Add(time.Hour)}},
		{"blank zone", models.CreateRideRequest{PickupZone: "  ", Destination: "Gate", DepartureTime: time.Now().Add(time.Hour), AvailableSeats: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.rides.CreateRide(context.Background(), driver, &tt.req)
			if errorCode(err) != apperrors.CodeValidation {
				t.Errorf("CreateRide() error = %v, want validation error", err)
			}
		})
	}
}

func TestCompleteRideCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver, a, b := env.user(t, "driver"), env.user(t, "a"), env.user(t, "b")
	leaver := env.user(t, "leaver")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 3)
	for _, id := range []string{a, b, leaver} {
		if err := env.rides.JoinRide(ctx, rideID, id); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if err := env.rides.LeaveRide(ctx, rideID, leaver); err != nil {
		t.Fatalf("leave: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.rides.CompleteRide(ctx, rideID, driver); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
	}

	txns, err := env.repos.Ledger.ListByRide(ctx, rideID)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("ledger entries = %d, want 3", len(txns))
	}
	for _, txn := range txns {
		// Three occupants: 1200*2/3 = 800 grams, 8 credits each.
		if txn.CarbonSavedGrams != 800 || txn.CreditsEarned != 8 {
			t.Errorf("entry for %s = %d g / %d credits", txn.UserID, txn.CarbonSavedGrams, txn.CreditsEarned)
		}
		if txn.UserID == leaver {
			t.Error("participant who left was credited")
		}
	}

	users, err := env.repos.Users.GetByIDs(ctx, []string{driver, a, leaver})
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	if got := users[driver]; got.RidesCompleted != 1 || got.TrustScore != 5 {
		t.Errorf("driver rides=%d trust=%v, want 1 and 5", got.RidesCompleted, got.TrustScore)
	}
	if got := users[a]; got.RidesCompleted != 1 || got.TrustScore != 3 {
		t.Errorf("passenger rides=%d trust=%v, want 1 and 3", got.RidesCompleted, got.TrustScore)
	}
	if got := users[leaver]; got.RidesCompleted != 0 {
		t.Errorf("leaver rides=%d, want 0", got.RidesCompleted)
	}

	if err := env.rides.JoinRide(ctx, rideID, leaver); errorCode(err) != apperrors.CodeRideUnavailable {
		t.Errorf("join completed ride error = %v", err)
	}
	if err := env.rides.CancelRide(ctx, rideID, driver); errorCode(err) != apperrors.CodeRideUnavailable {
		t.Errorf("cancel completed ride error = %v", err)
	}
}

func TestListForUserShowsRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver, rider := env.user(t, "driver"), env.user(t, "rider")
	later := env.ride(t, driver, "North Campus", time.Now().Add(3*time.Hour), 2)
	sooner := env.ride(t, rider, "South Campus", time.Now().Add(time.Hour), 2)
	if err := env.rides.JoinRide(ctx, later, rider); err != nil {
		t.Fatalf("join: %v", err)
	}

	got, err := env.rides.ListForUser(ctx, rider)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rides = %d, want 2", len(got))
	}
	if got[0].RideID != sooner || got[0].Role != models.RoleDriver {
		t.Errorf("first = %s/%s, want own ride as DRIVER", got[0].RideID, got[0].Role)
	}
	if got[1].RideID != later || got[1].Role != models.RolePassenger || got[1].DriverName != "driver" {
		t.Errorf("second = %+v", got[1])
	}
}

// flakyLedger fails the first failures RecordCompletion calls.
type flakyLedger struct {
	LedgerService
	mu       sync.Mutex
	failures int
}

func (l *flakyLedger) RecordCompletion(ctx context.Context, rideID, userID string, grams, credits int64) (bool, error) {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return false, fmt.Errorf("ledger unavailable")
	}
	l.mu.Unlock()
	return l.LedgerService.RecordCompletion(ctx, rideID, userID, grams, credits)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RideEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.RideEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestCompleteRideRetryPublishesCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	logger := logging.Discard()

	ledger := &flakyLedger{LedgerService: env.ledger, failures: 1}
	pub := &recordingPublisher{}
	carbon := NewCarbonService(config.CarbonConfig{GramsPerSeat: 1200, GramsPerCredit: 100})
	rides := NewRideService(env.repos.Rides, env.repos.Users, ledger, env.trust, carbon, pub, logger)

	driver, rider := env.user(t, "driver"), env.user(t, "rider")
	rideID := env.ride(t, driver, "North Campus", time.Now().Add(time.Hour), 2)
	if err := rides.JoinRide(ctx, rideID, rider); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := rides.CompleteRide(ctx, rideID, driver); err == nil {
		t.Fatal("first completion succeeded despite ledger failure")
	}
	if got := env.mustRide(t, rideID).Status; got != models.RideStatusCompleted {
		t.Fatalf("status after failed fan-out = %s, want COMPLETED", got)
	}
	if n := pub.count(events.RideCompleted); n != 0 {
		t.Fatalf("completion published %d times before fan-out finished", n)
	}

	if err := rides.CompleteRide(ctx, rideID, driver); err != nil {
		t.Fatalf("retry completion: %v", err)
	}
	if n := pub.count(events.RideCompleted); n != 1 {
		t.Fatalf("completion events after retry = %d, want 1", n)
	}

	txns, err := env.repos.Ledger.ListByRide(ctx, rideID)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(txns))
	}
}
