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
	"invoicegen/internal/errors"
	"invoicegen/internal/migration"
	"invoicegen/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

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
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Database initialization failed: %v", err)
		}
		if err := c.InitWithDatabase(db); err != nil {
			log.Fatalf("Audit trail initialization failed: %v", err)
		}
	} else {
		log.Printf("DATABASE_URL not set; running without the audit trail")
	}

	console, err := ui.NewApp(c)
	if err != nil {
		log.Fatalf("Ops console initialization failed: %v", err)
	}
	go func() {
		if err := console.Start(cfg.Server.ConsolePort); err != nil {
			log.Fatalf("Ops console failed: %v", err)
		}
	}()

	if err := api.NewServer(c).Run(); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

// initDatabase connects to PostgreSQL and brings the schema up to date.
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}
