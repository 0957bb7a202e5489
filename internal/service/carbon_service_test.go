package service

import (
	"testing"

	"github.com/ecoride/ecoride-core/internal/config"
)

func TestCarbonEstimate(t *testing.T) {
	cs := NewCarbonService(config.CarbonConfig{GramsPerSeat: 1200, GramsPerCredit: 100})

	tests := []struct {
		name        string
		occupants   int
		wantGrams   int64
		wantCredits int64
	}{
		{"Solo ride", 1, 0, 0},
		{"No occupants", 0, 0, 0},
		{"Driver plus one", 2, 600, 6},
		{"Driver plus two", 3, 800, 8},
		{"Full car", 5, 960, 9}, // 1200*4/5 = 960, 960/100 = 9
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cs.Estimate(tt.occupants)
			if got.GramsSaved != tt.wantGrams || got.Credits != tt.wantCredits {
				t.Errorf("Estimate(%d) = %+v, want %d grams / %d credits",
					tt.occupants, got, tt.wantGrams, tt.wantCredits)
			}
		})
	}
}

func TestCarbonEstimateIsDeterministic(t *testing.T) {
	cs := NewCarbonService(config.CarbonConfig{GramsPerSeat: 1000, GramsPerCredit: 0})

	first := cs.Estimate(4)
	for i := 0; i < 10; i++ {
		if got := cs.Estimate(4); got != first {
			t.Fatalf("Estimate(4) = %+v, then %+v", first, got)
		}
	}
	// Zero grams per credit falls back to the default of 100.
	if first.GramsSaved != 750 || first.Credits != 7 {
		t.Errorf("Estimate(4) = %+v, want 750 grams / 7 credits", first)
	}
}
