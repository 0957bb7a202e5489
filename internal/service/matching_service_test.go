package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
)

func TestFindMatchesRanking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	requester := env.user(t, "requester")
	near := env.user(t, "near")
	far := env.user(t, "far")
	south := env.user(t, "south")

	at := time.Now().Add(4 * time.Hour).Truncate(time.Minute)
	exact := env.ride(t, near, "North Campus", at, 2)
	partial := env.ride(t, far, "North", at.Add(time.Hour), 2)
	env.ride(t, south, "South Campus", at, 2)
	env.ride(t, near, "North Campus", at.Add(3*time.Hour), 2)
	env.ride(t, requester, "North Campus", at, 2)

	got, err := env.matching.FindMatches(ctx, models.MatchQuery{
		RequesterID:   requester,
		PickupZone:    "  north   CAMPUS ",
		RequestedTime: at,
	})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2", len(got))
	}

	want := []struct {
		id    string
		score float64
	}{
		{exact, 75},     // 100 * (0.45*1 + 0.30*1 + 0.25*0)
		{partial, 37.5}, // 100 * (0.45*0.5 + 0.30*0.5)
	}
	for i, w := range want {
		if got[i].RideID != w.id {
			t.Errorf("rank %d = %s, want %s", i, got[i].RideID, w.id)
		}
		if math.Abs(got[i].MatchScore-w.score) > 0.01 {
			t.Errorf("rank %d score = %v, want %v", i, got[i].MatchScore, w.score)
		}
		if got[i].MatchScore < 0 || got[i].MatchScore > 100 {
			t.Errorf("score out of range: %v", got[i].MatchScore)
		}
	}
	if got[0].DriverName != "near" {
		t.Errorf("driver name = %q", got[0].DriverName)
	}
}

func TestFindMatchesNoResultsIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	requester := env.user(t, "requester")
	driver := env.user(t, "driver")
	env.ride(t, driver, "East Hostel", time.Now().Add(time.Hour), 2)

	got, err := env.matching.FindMatches(context.Background(), models.MatchQuery{
		RequesterID:   requester,
		PickupZone:    "West Gate",
		RequestedTime: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %#v, want empty non-nil slice", got)
	}
}

func TestFindMatchesTieBreakAndBonus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dept := "Computer Science"
	requester := &models.User{Name: "req", Email: "req@campus.edu", Department: &dept}
	if err := env.repos.Users.Create(ctx, requester); err != nil {
		t.Fatalf("create: %v", err)
	}
	sameDept := "computer science"
	colleague := &models.User{Name: "colleague", Email: "col@campus.edu", Department: &sameDept}
	if err := env.repos.Users.Create(ctx, colleague); err != nil {
		t.Fatalf("create: %v", err)
	}
	d1, d2 := env.user(t, "d1"), env.user(t, "d2")

	at := time.Now().Add(5 * time.Hour).Truncate(time.Minute)
	r1 := env.ride(t, d1, "Library", at, 1)
	r2 := env.ride(t, d2, "Library", at, 1)
	bonus := env.ride(t, colleague.ID, "Library", at, 1)

	got, err := env.matching.FindMatches(ctx, models.MatchQuery{
		RequesterID:   requester.ID,
		PickupZone:    "library",
		RequestedTime: at,
	})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("matches = %d, want 3", len(got))
	}
	if got[0].RideID != bonus || got[0].DepartmentMatchBonus != 5 || math.Abs(got[0].MatchScore-80) > 0.01 {
		t.Errorf("first = %s score %v bonus %v", got[0].RideID, got[0].MatchScore, got[0].DepartmentMatchBonus)
	}
	first, second := r1, r2
	if second < first {
		first, second = second, first
	}
	if got[1].RideID != first || got[2].RideID != second {
		t.Errorf("equal scores not ordered by ride id: %s, %s", got[1].RideID, got[2].RideID)
	}
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		query, candidate string
		want             float64
	}{
		{"north campus", "north campus", 1},
		{"north", "north campus", 0.5},
		{"north campus gate", "north campus", 0.5},
		{"north", "south", 0},
		{"", "north", 0},
	}
	for _, tt := range tests {
		if got := locationMatch(tt.query, tt.candidate); got != tt.want {
			t.Errorf("locationMatch(%q, %q) = %v, want %v", tt.query, tt.candidate, got, tt.want)
		}
	}
}

func TestTimeProximity(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	window := 2 * time.Hour

	tests := []struct {
		offset time.Duration
		want   float64
	}{
		{0, 1},
		{time.Hour, 0.5},
		{-time.Hour, 0.5},
		{2 * time.Hour, 0},
		{3 * time.Hour, 0},
	}
	for _, tt := range tests {
		if got := timeProximity(base.Add(tt.offset), base, window); got != tt.want {
			t.Errorf("timeProximity(%v) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}
