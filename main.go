package main

import (
	"context"
	"log"

	"koafrail/adapters/model"
	"koafrail/adapters/postgres"
	"koafrail/app"
	"koafrail/internal/config"
	"koafrail/internal/errors"
	"koafrail/internal/migration"
	"koafrail/ports"
	"koafrail/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and brings the audit schema up to date
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Run migrations
	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Load the risk model: MODEL_FILE when set, the embedded artifact otherwise
	artifact, err := model.Load(cfg.Model.File)
	if err != nil {
		log.Fatalf("Failed to load model artifact: %v", err)
	}
	scorer, err := model.NewLinearScorer(artifact)
	if err != nil {
		log.Fatalf("Failed to build scorer: %v", err)
	}
	log.Printf("Model %s loaded (hash %s)", artifact.Version, artifact.Hash().Short())

	// The audit store is optional; without DATABASE_URL every surface still
	// works, assessments just go unrecorded.
	var store ports.AssessmentStore
	if cfg.Database.Enabled {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		store = postgres.NewAssessmentRepository(db)
		log.Println("Assessment audit log enabled")
	} else {
		log.Println("DATABASE_URL not set, assessment audit log disabled")
	}

	assess := app.NewAssessService(scorer, store)

	uiApp, err := ui.NewApp(ui.Config{Port: cfg.Server.Port}, assess)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting frailty assessment UI on http://localhost:%s", cfg.Server.Port)
	log.Fatal(uiApp.Start())
}
