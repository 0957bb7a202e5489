package service

import (
	"context"
	"testing"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
)

func TestNextScoreIsBoundedAndMonotonic(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		increment float64
		want      float64
	}{
		{"from zero", 0, 5, 5},
		{"halfway", 50, 5, 52.5},
		{"near ceiling", 99, 5, 99.05},
		{"at ceiling", 100, 5, 100},
		{"above ceiling is clamped", 120, 5, 100},
		{"negative treated as zero", -10, 3, 3},
		{"zero increment keeps score", 40, 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextScore(tt.score, tt.increment, 100)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("NextScore(%v, %v) = %v, want %v", tt.score, tt.increment, got, tt.want)
			}
		})
	}

	score := 0.0
	prevStep := 101.0
	for i := 0; i < 500; i++ {
		next := NextScore(score, 5, 100)
		if next < score || next > 100 {
			t.Fatalf("step %d: %v -> %v left bounds", i, score, next)
		}
		if step := next - score; step > prevStep+1e-12 {
			t.Fatalf("step %d grew: %v > %v", i, step, prevStep)
		} else {
			prevStep = step
		}
		score = next
	}
}

func TestBadge(t *testing.T) {
	tests := []struct {
		score float64
		rides int
		want  string
	}{
		{0, 0, models.BadgeBronze},
		{24.9, 50, models.BadgeBronze},
		{25, 3, models.BadgeSilver},
		{60, 9, models.BadgeSilver},
		{50, 10, models.BadgeGold},
		{80, 19, models.BadgeGold},
		{75, 20, models.BadgePlatinum},
		{100, 200, models.BadgePlatinum},
	}
	for _, tt := range tests {
		if got := Badge(tt.score, tt.rides); got != tt.want {
			t.Errorf("Badge(%v, %d) = %s, want %s", tt.score, tt.rides, got, tt.want)
		}
	}
}

func TestApplyCompletionOncePerRide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "rider")

	applied, err := env.trust.ApplyCompletion(ctx, "ride-1", user, models.RolePassenger)
	if err != nil || !applied {
		t.Fatalf("first apply = %v, %v", applied, err)
	}
	applied, err = env.trust.ApplyCompletion(ctx, "ride-1", user, models.RolePassenger)
	if err != nil || applied {
		t.Fatalf("second apply = %v, %v, want absorbed", applied, err)
	}

	scores, err := env.trust.Scores(ctx, []string{user})
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if scores[user] != 3 {
		t.Errorf("score = %v, want 3", scores[user])
	}
}

func TestProfileConnections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.user(t, "driver")
	peers := []string{env.user(t, "p1"), env.user(t, "p2"), env.user(t, "p3"), env.user(t, "p4"), env.user(t, "p5")}

	// p1 rides twice with the driver, everyone else once.
	first := env.ride(t, driver, "North", time.Now().Add(time.Hour), 5)
	second := env.ride(t, driver, "North", time.Now().Add(2*time.Hour), 1)
	for _, p := range peers {
		if err := env.rides.JoinRide(ctx, first, p); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if err := env.rides.JoinRide(ctx, second, peers[0]); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, id := range []string{first, second} {
		if err := env.rides.CompleteRide(ctx, id, driver); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	profile, err := env.trust.Profile(ctx, driver)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.UniqueRidePartners != 5 {
		t.Errorf("unique partners = %d, want 5", profile.UniqueRidePartners)
	}
	if len(profile.TopConnections) != 4 {
		t.Fatalf("top connections = %d, want 4", len(profile.TopConnections))
	}
	if top := profile.TopConnections[0]; top.UserID != peers[0] || top.MutualRides != 2 || top.Name != "p1" {
		t.Errorf("top connection = %+v", top)
	}
	if profile.RidesCompleted != 2 || profile.Badge != models.BadgeBronze {
		t.Errorf("rides=%d badge=%s", profile.RidesCompleted, profile.Badge)
	}
}
