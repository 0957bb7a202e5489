package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
)

// upcoming returns the first given weekday strictly after from, at hh:mm UTC.
func upcoming(from time.Time, day time.Weekday, hh, mm int) time.Time {
	from = from.UTC()
	d := time.Date(from.Year(), from.Month(), from.Day(), hh, mm, 0, 0, time.UTC).AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func intPtr(v int) *int { return &v }

func TestNextOccurrence(t *testing.T) {
	pool := &models.SubscriptionPool{ID: "p", DepartureTime: "08:30", DayOfWeek: int(time.Monday)}
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday

	tests := []struct {
		name      string
		now       time.Time
		lookahead time.Duration
		want      time.Time
		wantOK    bool
	}{
		{"same day before departure", monday.Add(6 * time.Hour), 24 * time.Hour, monday.Add(8*time.Hour + 30*time.Minute), true},
		{"day before within lookahead", monday.Add(-14 * time.Hour), 24 * time.Hour, monday.Add(8*time.Hour + 30*time.Minute), true},
		{"exactly at departure", monday.Add(8*time.Hour + 30*time.Minute), 24 * time.Hour, time.Time{}, false},
		{"after departure, short lookahead", monday.Add(9 * time.Hour), 24 * time.Hour, time.Time{}, false},
		{"after departure, week lookahead", monday.Add(9 * time.Hour), 8 * 24 * time.Hour, monday.AddDate(0, 0, 7).Add(8*time.Hour + 30*time.Minute), true},
		{"too far ahead", monday.AddDate(0, 0, -3), 24 * time.Hour, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := NextOccurrence(pool, tt.now, tt.lookahead)
			if err != nil {
				t.Fatalf("NextOccurrence: %v", err)
			}
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, _, err := NextOccurrence(&models.SubscriptionPool{DepartureTime: "8am"}, monday, time.Hour); err == nil {
		t.Error("expected error for malformed departure time")
	}
}

func TestMaterializeCreatesOneRidePerOccurrence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, b, c := env.user(t, "a"), env.user(t, "b"), env.user(t, "c")
	pool, err := env.pools.CreatePool(ctx, a, &models.CreatePoolRequest{
		PickupZone:    "North Campus",
		DepartureTime: "08:30",
		DayOfWeek:     intPtr(int(time.Monday)),
	})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	for _, id := range []string{b, c} {
		if _, err := env.pools.JoinPool(ctx, pool.ID, id); err != nil {
			t.Fatalf("JoinPool: %v", err)
		}
	}
	if _, err := env.pools.JoinPool(ctx, pool.ID, b); errorCode(err) != apperrors.CodeAlreadyMember {
		t.Errorf("rejoin error = %v", err)
	}

	tick := upcoming(time.Now(), time.Monday, 6, 0)
	report, err := env.pools.Materialize(ctx, tick)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if report.Created != 1 || report.Failed != 0 {
		t.Fatalf("first tick = %+v, want 1 created", report)
	}

	again, err := env.pools.Materialize(ctx, tick.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if again.Created != 0 || again.Skipped != 1 {
		t.Fatalf("second tick = %+v, want nothing created", again)
	}

	date := tick.Format(occurrenceDateLayout)
	occ, err := env.repos.Subscriptions.GetOccurrence(ctx, pool.ID, date)
	if err != nil || occ == nil || occ.RideID == nil {
		t.Fatalf("occurrence = %+v, %v", occ, err)
	}
	ride := env.mustRide(t, *occ.RideID)
	if ride.DriverID != a {
		t.Errorf("driver = %s, want pool creator", ride.DriverID)
	}
	if !ride.IsSubscription || ride.TotalSeats != 2 || ride.Status != models.RideStatusFull {
		t.Errorf("ride = %+v", ride)
	}
	wantAt := time.Date(tick.Year(), tick.Month(), tick.Day(), 8, 30, 0, 0, time.UTC)
	if !ride.DepartureTime.Equal(wantAt) {
		t.Errorf("departure = %v, want %v", ride.DepartureTime, wantAt)
	}
}

func TestMaterializeRotatesDriver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, b := env.user(t, "a"), env.user(t, "b")
	pool, err := env.pools.CreatePool(ctx, a, &models.CreatePoolRequest{
		PickupZone:    "East Hostel",
		DepartureTime: "17:45",
		DayOfWeek:     intPtr(int(time.Wednesday)),
	})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if _, err := env.pools.JoinPool(ctx, pool.ID, b); err != nil {
		t.Fatalf("JoinPool: %v", err)
	}

	first := upcoming(time.Now(), time.Wednesday, 9, 0)
	want := []string{a, b, a}
	for week, driver := range want {
		tick := first.AddDate(0, 0, 7*week)
		if _, err := env.pools.Materialize(ctx, tick); err != nil {
			t.Fatalf("week %d: %v", week, err)
		}
		occ, err := env.repos.Subscriptions.GetOccurrence(ctx, pool.ID, tick.Format(occurrenceDateLayout))
		if err != nil || occ == nil || occ.RideID == nil {
			t.Fatalf("week %d occurrence = %+v, %v", week, occ, err)
		}
		if got := env.mustRide(t, *occ.RideID).DriverID; got != driver {
			t.Errorf("week %d driver = %s, want %s", week, got, driver)
		}
	}
}

func TestCreatePoolValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "a")

	tests := []struct {
		name string
		req  models.CreatePoolRequest
	}{
		{"missing day", models.CreatePoolRequest{PickupZone: "North", DepartureTime: "08:00"}},
		{"day out of range", models.CreatePoolRequest{PickupZone: "North", DepartureTime: "08:00", DayOfWeek: intPtr(7)}},
		{"bad time", models.CreatePoolRequest{PickupZone: "North", DepartureTime: "25:00", DayOfWeek: intPtr(1)}},
		{"blank zone", models.CreatePoolRequest{PickupZone: " ", DepartureTime: "08:00", DayOfWeek: intPtr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.pools.CreatePool(context.Background(), user, &tt.req); errorCode(err) != apperrors.CodeValidation {
				t.Errorf("CreatePool() error = %v, want validation error", err)
			}
		})
	}
}
