package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"gamegate/internal/config"
	"gamegate/internal/database"
	"gamegate/internal/modules/entitlement"
	"gamegate/internal/repository"
)

// Seeds a handful of tokens for local development.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	service := entitlement.NewService(repository.NewTokenRepository(db))

	seeds := []entitlement.MintRequest{
		{Number: "DEMO000000001", PlanType: "demo"},
		{Number: "DEMO000000002", PlanType: "demo"},
		{Number: "PREM000000001", PlanType: "premium"},
	}

	ctx := context.Background()
	for _, req := range seeds {
		view, err := service.Mint(ctx, req)
		if err != nil {
			if err == entitlement.ErrDuplicate {
				log.Printf("skip %s: already exists", req.Number)
				continue
			}
			log.Fatalf("mint %s failed: %v", req.Number, err)
		}
		log.Printf("minted %s plan=%s games=%d duration=%dh",
			view.Number, view.PlanType, view.GamesAllowed, view.DurationHours)
	}
}
