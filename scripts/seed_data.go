//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/ecoride/ecoride-core/internal/config"
	"github.com/ecoride/ecoride-core/internal/database"
	"github.com/ecoride/ecoride-core/internal/events"
	"github.com/ecoride/ecoride-core/internal/logging"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
)

const seedPassword = "ecoride-seed"

var (
	firstNames  = []string{"Aarav", "Diya", "Ishaan", "Kavya", "Rohan", "Ananya", "Arjun", "Meera", "Kabir", "Saanvi"}
	lastNames   = []string{"Iyer", "Sharma", "Patel", "Singh", "Reddy", "Rao", "Gupta", "Nair"}
	departments = []string{"Computer Science", "Mechanical", "Civil", "Electrical", "Biotech"}
	zones       = []string{"North Campus", "South Gate", "Hostel Block A", "Metro Station", "City Centre"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for seeding")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	logger := logging.NewLogger("warn")
	repos := repository.NewPostgres(db.DB)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	trust := service.NewTrustService(repos.Users, repos.Trust, nil, cfg.Trust, logger)
	ledger := service.NewLedgerService(repos.Ledger, cfg.WalletRecent, logger)
	rides := service.NewRideService(repos.Rides, repos.Users, ledger, trust, service.NewCarbonService(cfg.Carbon), events.NewNop(), logger)
	pools := service.NewSubscriptionService(repos.Subscriptions, rides, cfg.Scheduler, logger)
	auth := service.NewAuthService(repos.Users, tokens)

	log.Println("Creating 30 users...")
	userIDs := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		year := 1 + rand.Intn(4)
		email := fmt.Sprintf("seed.user%02d.%d@campus.edu", i, time.Now().Unix())
		if _, err := auth.Register(ctx, &models.RegisterRequest{
			Name:       fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]),
			Email:      email,
			Password:   seedPassword,
			Department: departments[rand.Intn(len(departments))],
			Year:       &year,
		}); err != nil {
			log.Printf("Failed to register %s: %v", email, err)
			continue
		}
		user, err := repos.Users.GetByEmail(ctx, email)
		if err != nil || user == nil {
			log.Printf("Failed to load %s: %v", email, err)
			continue
		}
		userIDs = append(userIDs, user.ID)
	}
	log.Printf("Created %d users", len(userIDs))
	if len(userIDs) < 2 {
		log.Fatal("Not enough users to seed rides")
	}

	log.Println("Creating 40 rides...")
	created := 0
	for i := 0; i < 40; i++ {
		driverID := userIDs[rand.Intn(len(userIDs))]
		departure := time.Now().Add(time.Duration(1+rand.Intn(72)) * time.Hour).Truncate(15 * time.Minute)
		ride, err := rides.CreateRide(ctx, driverID, &models.CreateRideRequest{
			PickupZone:     zones[rand.Intn(len(zones))],
			Destination:    "Main Gate",
			DepartureTime:  departure,
			AvailableSeats: 1 + rand.Intn(4),
		})
		if err != nil {
			log.Printf("Failed to create ride: %v", err)
			continue
		}
		created++

		// A few riders each, some of them bounce off a full ride.
		for j := 0; j < rand.Intn(4); j++ {
			riderID := userIDs[rand.Intn(len(userIDs))]
			if err := rides.JoinRide(ctx, ride.ID, riderID); err != nil {
				log.Printf("Join %s skipped: %v", ride.ID, err)
			}
		}
	}
	log.Printf("Created %d rides", created)

	log.Println("Creating 5 subscription pools...")
	for i := 0; i < 5; i++ {
		day := rand.Intn(7)
		creatorID := userIDs[rand.Intn(len(userIDs))]
		pool, err := pools.CreatePool(ctx, creatorID, &models.CreatePoolRequest{
			PickupZone:    zones[i%len(zones)],
			DepartureTime: fmt.Sprintf("%02d:%02d", 7+rand.Intn(3), 15*rand.Intn(4)),
			DayOfWeek:     &day,
		})
		if err != nil {
			log.Printf("Failed to create pool: %v", err)
			continue
		}
		for j := 0; j < 2; j++ {
			if _, err := pools.JoinPool(ctx, pool.ID, userIDs[rand.Intn(len(userIDs))]); err != nil {
				log.Printf("Pool join skipped: %v", err)
			}
		}
	}

	report, err := pools.Materialize(ctx, time.Now())
	if err != nil {
		log.Fatalf("Failed to materialize pools: %v", err)
	}

	log.Println("\n=== Seed Data Summary ===")
	log.Printf("Users created: %d (password %q)", len(userIDs), seedPassword)
	log.Printf("Rides created: %d", created)
	log.Printf("Pool rides materialized: %d", report.Created)
	log.Println("\nSample User ID:", userIDs[0])
}
