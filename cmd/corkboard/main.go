package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/corkboard-dev/corkboard/db"
	"github.com/corkboard-dev/corkboard/internal/access"
	"github.com/corkboard-dev/corkboard/internal/auth"
	"github.com/corkboard-dev/corkboard/internal/janitor"
	"github.com/corkboard-dev/corkboard/internal/router"
	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Warn("No .env file loaded")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.WithError(err).Fatal("Failed to initialize JWT secret")
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.MigrateDatabase(); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	guard := access.NewGuard(db.DB)
	hub := ws.NewHub(guard)
	exporter := services.NewBacklogExporter(os.Getenv("EXPORT_WEBHOOK_URL"))

	deps := router.Deps{
		Projects:      services.NewProjectsService(db.DB, guard, hub, exporter),
		Columns:       services.NewColumnsService(db.DB, guard, hub),
		Tasks:         services.NewTasksService(db.DB, guard, hub),
		Notifications: services.NewNotificationsService(db.DB),
		Hub:           hub,
	}

	sweeper := janitor.New(db.DB, janitor.DefaultInterval, janitor.DefaultRetention)
	sweeper.Start()
	defer sweeper.Stop()

	r := router.NewRouter(deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
		log.Info("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
