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

	"github.com/gin-gonic/gin"
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
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	artifact, err := model.Load(cfg.Model.File)
	if err != nil {
		log.Fatalf("Failed to load model artifact: %v", err)
	}
	scorer, err := model.NewLinearScorer(artifact)
	if err != nil {
		log.Fatalf("Failed to build scorer: %v", err)
	}
	log.Printf("Model %s loaded (hash %s)", artifact.Version, artifact.Hash().Short())

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

	server := ui.NewServer(app.NewAssessService(scorer, store))
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
