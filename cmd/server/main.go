package main

import (
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/config"
	"github.com/swiftquantum/qubitlab/internal/database"
	"github.com/swiftquantum/qubitlab/internal/handlers"
	"github.com/swiftquantum/qubitlab/internal/logging"
	"github.com/swiftquantum/qubitlab/internal/repository"
	"github.com/swiftquantum/qubitlab/internal/router"
	"github.com/swiftquantum/qubitlab/internal/services"
)

func main() {
	// Bootstrap logger; replaced once the config is known.
	bootstrapLog, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}

	cfg, err := config.Load(".", bootstrapLog)
	if err != nil {
		bootstrapLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logging.Init(cfg.Logging)
	if err != nil {
		bootstrapLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	runs := repository.NewRunRepository(db)

	maintenance := services.NewMaintenance(log, users, runs)
	if err := maintenance.Start(); err != nil {
		log.Fatal("Failed to schedule maintenance jobs", zap.Error(err))
	}
	defer maintenance.Stop()

	usersHandler := handlers.NewUsersHandler(log, users)
	runsHandler := handlers.NewRunsHandler(log, runs, users, nil)

	r := router.Setup(log, users, usersHandler, runsHandler)

	port := ":" + cfg.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run server", zap.Error(err))
	}
}
