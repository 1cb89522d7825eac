package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/quickcourt/booking-backend/internal/config"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	fullName string
	email    string
	role     models.UserRole
}

var seedUsers = []seedUser{
	{"QuickCourt Admin", "admin@quickcourt.local", models.RoleAdmin},
	{"Priya Sharma", "owner@quickcourt.local", models.RoleFacilityOwner},
	{"Arjun Mehta", "player@quickcourt.local", models.RoleUser},
}

func main() {
	var (
		dbURLFlag  string
		password   string
		hourlyRate float64
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&password, "password", "Password@123", "Password for every seeded account")
	flag.Float64Var(&hourlyRate, "hourly-rate", 500, "Hourly rate of the seeded courts")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             os.Getenv("DATABASE_DRIVER"),
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	userRepo := database.NewUserRepository(db)
	ids := make(map[models.UserRole]uuid.UUID, len(seedUsers))
	for _, u := range seedUsers {
		existing, err := userRepo.GetUserByEmail(u.email)
		if err != nil {
			log.Fatalf("failed to look up %s: %v", u.email, err)
		}
		if existing != nil {
			log.Printf("User %s already exists, skipping", u.email)
			ids[u.role] = existing.ID
			continue
		}

		created, err := userRepo.CreateUser(u.fullName, u.email, string(hash), u.role, "")
		if err != nil {
			log.Fatalf("failed to create %s: %v", u.email, err)
		}
		log.Printf("Created %s (%s)", u.email, u.role)
		ids[u.role] = created.ID
	}

	ownerID := ids[models.RoleFacilityOwner]
	facilityRepo := database.NewFacilityRepository(db)
	owned, err := facilityRepo.ListFacilitiesByOwner(ownerID)
	if err != nil {
		log.Fatalf("failed to list owner facilities: %v", err)
	}
	if len(owned) > 0 {
		log.Printf("Owner already has %d facilities, skipping facility seed", len(owned))
		return
	}

	facility, err := facilityRepo.CreateFacility(ctx, ownerID, &models.CreateFacilityRequest{
		Name:                   "Smash Arena",
		Description:            "Indoor badminton and outdoor tennis with floodlights",
		Location:               "100 Feet Road, Indiranagar",
		City:                   "Bangalore",
		Phone:                  "+91 80 4000 1234",
		Email:                  "hello@smasharena.local",
		OperatingHoursWeekdays: "06:00 - 23:00",
		OperatingHoursWeekends: "07:00 - 22:00",
		Sports:                 []string{"Badminton", "Tennis"},
		Amenities:              []string{"Parking", "Showers", "Equipment Rental"},
		SportCourts:            "Badminton:3,Tennis:2",
	}, nil, hourlyRate)
	if err != nil {
		log.Fatalf("failed to create facility: %v", err)
	}
	if err := facilityRepo.SetStatus(facility.ID, models.FacilityStatusActive, ""); err != nil {
		log.Fatalf("failed to activate facility: %v", err)
	}
	log.Printf("Created facility %s (%s)", facility.Name, facility.ID)

	courts, err := database.NewCourtRepository(db).ListCourts(&facility.ID)
	if err != nil {
		log.Fatalf("failed to list courts: %v", err)
	}
	courtIDs := make([]uuid.UUID, 0, len(courts))
	for _, court := range courts {
		courtIDs = append(courtIDs, court.ID)
	}

	created, err := database.NewTimeSlotRepository(db).InitializeDefaults(ctx, courtIDs, 6, 23)
	if err != nil {
		log.Fatalf("failed to create time slots: %v", err)
	}
	log.Printf("Created %d courts and %d time slots", len(courtIDs), created)
}
