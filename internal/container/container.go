package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"invoicegen/adapters/postgres"
	"invoicegen/app"
	"invoicegen/internal/bundle"
	"invoicegen/internal/config"
	"invoicegen/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	BundleRepo ports.BundleRepository
	AuditRepo  ports.AuditRepository

	// Application services
	Generation *app.GenerationService
	Batch      *app.BatchService
}

// New creates a new dependency injection container. The audit repository
// stays nil until InitWithDatabase; generation then runs without session
// persistence.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:     cfg,
		BundleRepo: bundle.NewRepository(cfg.Paths.BundleDir, cfg.Paths.TemplateDir),
	}
	c.initServices()

	return c, nil
}

// InitWithDatabase wires the audit trail onto a database connection.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.AuditRepo = postgres.NewAuditRepository(db)
	c.initServices()

	log.Printf("Container initialized with database-backed audit trail")
	return nil
}

// initServices rebuilds the service layer over the current repositories.
func (c *Container) initServices() {
	c.Generation = app.NewGenerationService(c.BundleRepo, c.AuditRepo, c.Config)
	c.Batch = app.NewBatchService(c.Generation, c.Config)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
