package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL          string
	DBMaxConnections     int
	DBMaxIdleConnections int
	DBAutoMigrate        bool

	// Redis
	RedisURL      string
	RedisPassword string

	// Kafka
	KafkaBrokers   []string
	KafkaRideTopic string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// New Relic
	NewRelicLicenseKey string
	NewRelicAppName    string
	NewRelicEnabled    bool

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Matching     MatchingConfig
	Trust        TrustConfig
	Carbon       CarbonConfig
	Scheduler    SchedulerConfig
	WalletRecent int
}

// MatchingConfig holds the tolerance window and scoring weights of the matcher.
// Time, Location and Trust are relative weights; Department and Connection are
// flat bonus points added on top of the weighted score.
type MatchingConfig struct {
	Window          time.Duration
	TopN            int
	WeightTime      float64
	WeightLocation  float64
	WeightTrust     float64
	DepartmentBonus float64
	ConnectionBonus float64
}

type TrustConfig struct {
	DriverIncrement    float64
	PassengerIncrement float64
	Ceiling            float64
	CacheTTL           time.Duration
}

type CarbonConfig struct {
	GramsPerSeat   int
	GramsPerCredit int
}

type SchedulerConfig struct {
	Interval  time.Duration
	Lookahead time.Duration
	Timezone  string
	Workers   int
}

func Load() (*Config, error) {
	// Load .env file if exists
	godotenv.Load()

	var errs []error

	cfg := &Config{
		// Server
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		// Database
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 25, &errs),
		DBMaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5, &errs),
		DBAutoMigrate:        getEnvAsBool("DB_AUTO_MIGRATE", true),

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		// Kafka
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaRideTopic: getEnv("KAFKA_RIDE_TOPIC", "ride-events"),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", "ecoride-dev-secret"),
		JWTTTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour, &errs),

		// New Relic
		NewRelicLicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
		NewRelicAppName:    getEnv("NEW_RELIC_APP_NAME", "ecoride-core"),
		NewRelicEnabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),

		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100, &errs),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute, &errs),

		Matching: MatchingConfig{
			Window:          getEnvAsDuration("MATCH_WINDOW", 2*time.Hour, &errs),
			TopN:            getEnvAsInt("MATCH_TOP_N", 10, &errs),
			WeightTime:      getEnvAsFloat("MATCH_WEIGHT_TIME", 0.45, &errs),
			WeightLocation:  getEnvAsFloat("MATCH_WEIGHT_LOCATION", 0.30, &errs),
			WeightTrust:     getEnvAsFloat("MATCH_WEIGHT_TRUST", 0.25, &errs),
			DepartmentBonus: getEnvAsFloat("MATCH_WEIGHT_DEPARTMENT", 5, &errs),
			ConnectionBonus: getEnvAsFloat("MATCH_WEIGHT_CONNECTION", 5, &errs),
		},

		Trust: TrustConfig{
			DriverIncrement:    getEnvAsFloat("TRUST_DRIVER_INCREMENT", 5, &errs),
			PassengerIncrement: getEnvAsFloat("TRUST_PASSENGER_INCREMENT", 3, &errs),
			Ceiling:            getEnvAsFloat("TRUST_CEILING", 100, &errs),
			CacheTTL:           getEnvAsDuration("TRUST_CACHE_TTL", 5*time.Minute, &errs),
		},

		Carbon: CarbonConfig{
			GramsPerSeat:   getEnvAsInt("CARBON_GRAMS_PER_SEAT", 1200, &errs),
			GramsPerCredit: getEnvAsInt("CARBON_GRAMS_PER_CREDIT", 100, &errs),
		},

		Scheduler: SchedulerConfig{
			Interval:  getEnvAsDuration("SCHEDULER_INTERVAL", time.Hour, &errs),
			Lookahead: getEnvAsDuration("SCHEDULER_LOOKAHEAD", 24*time.Hour, &errs),
			Timezone:  getEnv("SCHEDULER_TIMEZONE", "UTC"),
			Workers:   getEnvAsInt("SCHEDULER_WORKERS", 4, &errs),
		},

		WalletRecent: getEnvAsInt("WALLET_RECENT_LIMIT", 20, &errs),
	}

	if cfg.Matching.TopN <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_TOP_N must be > 0"))
	}
	if cfg.Matching.Window <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_WINDOW must be > 0"))
	}
	if cfg.Trust.Ceiling <= 0 || cfg.Trust.Ceiling > 100 {
		errs = append(errs, fmt.Errorf("TRUST_CEILING must be in (0, 100]"))
	}
	if cfg.Carbon.GramsPerCredit <= 0 {
		errs = append(errs, fmt.Errorf("CARBON_GRAMS_PER_CREDIT must be > 0"))
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err))
	}

	return cfg, errors.Join(errs...)
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64, errs *[]error) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return defaultValue
		}
		return floatValue
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitAndTrim(v string) []string {
	if v == "" {
		return nil
	}
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
