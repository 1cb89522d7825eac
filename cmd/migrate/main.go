package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/quickcourt/booking-backend/internal/config"
	"github.com/quickcourt/booking-backend/internal/database"
)

func main() {
	var (
		dbURLFlag   string
		versionOnly bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&versionOnly, "version", false, "Print the current schema version without migrating")
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if !versionOnly {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	version, err := database.MigrationVersion(ctx, db)
	if err != nil {
		log.Fatalf("failed to read schema version: %v", err)
	}
	log.Printf("Schema version: %d", version)
}
