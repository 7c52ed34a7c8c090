package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"gamegate/internal/config"
	"gamegate/internal/database"
	"gamegate/internal/repository"
)

// One-shot expired-token cleanup, for cron or manual runs. The API server
// runs the same sweep on its own interval.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	repo := repository.NewTokenRepository(db)

	removed, err := repo.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	log.Printf("sweep completed: removed=%d", removed)
}
