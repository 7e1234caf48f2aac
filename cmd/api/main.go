package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"invoicegen/adapters/api"
	"invoicegen/internal/config"
	"invoicegen/internal/container"
	"invoicegen/internal/migration"
)

// Headless variant: the generation API without the ops console.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Container initialization failed: %v", err)
	}
	defer c.Shutdown(context.Background())

	if cfg.Database.Enabled() {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		if err := migration.NewRunner().Run(context.Background(), db); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := c.InitWithDatabase(db); err != nil {
			log.Fatalf("Audit trail initialization failed: %v", err)
		}
	}

	if err := api.NewServer(c).Run(); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}
