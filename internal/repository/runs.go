package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftquantum/qubitlab/internal/models"
)

// RunRetention is how many circuit runs are kept per user; the hub's recent
// list shows the newest five.
const RunRetention = 5

// RunRepository persists demo circuit runs.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create stores a run, assigning an ID when the caller did not.
func (r *RunRepository) Create(ctx context.Context, run *models.CircuitRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// RecentByUser lists a user's newest runs, capped at limit.
func (r *RunRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]models.CircuitRun, error) {
	if limit <= 0 || limit > RunRetention {
		limit = RunRetention
	}
	var runs []models.CircuitRun
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// GetByID fetches one run scoped to its owner.
func (r *RunRepository) GetByID(ctx context.Context, userID uint, id string) (*models.CircuitRun, error) {
	var run models.CircuitRun
	result := r.db.WithContext(ctx).First(&run, "id = ? AND user_id = ?", id, userID)
	return &run, result.Error
}

// Prune deletes every run beyond the per-user retention cap. Run from the
// maintenance job.
func (r *RunRepository) Prune(ctx context.Context) error {
	query := `
		DELETE FROM circuit_runs WHERE id IN (
			SELECT id FROM (
				SELECT id,
					ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY created_at DESC) AS rn
				FROM circuit_runs
			) AS ordered
			WHERE ordered.rn > ?
		);
	`
	return r.db.WithContext(ctx).Exec(query, RunRetention).Error
}
