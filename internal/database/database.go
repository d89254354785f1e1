package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/swiftquantum/qubitlab/internal/config"
	"github.com/swiftquantum/qubitlab/internal/logging"
	"github.com/swiftquantum/qubitlab/internal/models"
)

// Connect opens the database and runs migrations. The handle is returned and
// injected into repositories rather than held as a package global, so the
// service layers stay testable in isolation.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established successfully.")
	if err := migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB, log *zap.Logger) error {
	// AutoMigrate creates tables, columns and foreign keys. Custom indexes
	// are handled separately below.
	err := db.AutoMigrate(
		&models.User{},
		&models.CircuitRun{},
		&models.LessonCompletion{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	runsIndex := `CREATE INDEX IF NOT EXISTS idx_runs_user_recent ON circuit_runs (user_id, created_at DESC);`
	if err := db.Exec(runsIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on circuit_runs: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
