package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MATCH_TOP_N", "")
	t.Setenv("MATCH_WINDOW", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matching.Window != 2*time.Hour {
		t.Errorf("Matching.Window = %v, want 2h", cfg.Matching.Window)
	}
	if cfg.Trust.Ceiling != 100 {
		t.Errorf("Trust.Ceiling = %v, want 100", cfg.Trust.Ceiling)
	}
	if cfg.Scheduler.Location() == nil {
		t.Error("Scheduler.Location() returned nil")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATCH_WINDOW", "90m")
	t.Setenv("MATCH_WEIGHT_TRUST", "0.5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matching.Window != 90*time.Minute {
		t.Errorf("Matching.Window = %v, want 90m", cfg.Matching.Window)
	}
	if cfg.Matching.WeightTrust != 0.5 {
		t.Errorf("Matching.WeightTrust = %v, want 0.5", cfg.Matching.WeightTrust)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadReportsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "MATCH_WINDOW", "two hours"},
		{"bad int", "MATCH_TOP_N", "ten"},
		{"non positive top n", "MATCH_TOP_N", "0"},
		{"bad timezone", "SCHEDULER_TIMEZONE", "Mars/Olympus"},
		{"ceiling too high", "TRUST_CEILING", "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q returned nil error", tt.key, tt.value)
			}
		})
	}
}
