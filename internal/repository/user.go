package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/utils"
)

// LessonXP is awarded once per completed lesson.
const LessonXP = 100

// ErrInvalidAPIKey is returned when a presented key does not match.
var ErrInvalidAPIKey = errors.New("invalid api key")

// UserRepository owns all user persistence.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Stats is the compact stats payload served by /api/v1/users/stats.
type Stats struct {
	LessonsCompleted int `json:"lessonsCompleted"`
	XPPoints         int `json:"xpPoints"`
	Level            int `json:"level"`
	Streak           int `json:"streak"`
}

// Create registers a user and returns the one-time plaintext API key in the
// form "<id>.<secret>". Only the bcrypt hash of the secret is stored.
func (r *UserRepository) Create(ctx context.Context, username string) (*models.User, string, error) {
	secret, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:       username,
		APIKeyHash:     string(hash),
		Level:          1,
		WeeklyActivity: make([]int64, 7),
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, "", err
	}
	return user, fmt.Sprintf("%d.%s", user.ID, secret), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)
	return &user, result.Error
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "username = ?", username)
	return &user, result.Error
}

// Authenticate resolves an "<id>.<secret>" API key to its user.
func (r *UserRepository) Authenticate(ctx context.Context, id uint, secret string) (*models.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	if !user.CheckAPIKey(secret) {
		return nil, ErrInvalidAPIKey
	}
	return user, nil
}

// AddXP awards points and recomputes the level. Negative awards are ignored.
func (r *UserRepository) AddXP(ctx context.Context, userID uint, points int) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if points > 0 {
		user.XPPoints += points
		user.Level = models.LevelForXP(user.XPPoints)
		if err := r.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
			"xp_points": user.XPPoints,
			"level":     user.Level,
		}).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// CompleteLesson records a lesson completion. Replays of an already completed
// lesson change nothing; the first completion bumps the lesson count, awards
// XP, updates the streak and today's activity bucket.
func (r *UserRepository) CompleteLesson(ctx context.Context, userID uint, lessonID string) (*models.User, bool, error) {
	completion := models.LessonCompletion{UserID: userID, LessonID: lessonID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&completion)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		user, err := r.GetByID(ctx, userID)
		return user, false, err
	}

	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	user.LessonsCompleted++
	user.XPPoints += LessonXP
	user.Level = models.LevelForXP(user.XPPoints)
	user.Streak = NextStreak(user.Streak, user.LastActivityDate, now)
	user.LastActivityDate = &now
	user.WeeklyActivity = bumpWeekday(user.WeeklyActivity, now)

	err = r.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"lessons_completed":  user.LessonsCompleted,
		"xp_points":          user.XPPoints,
		"level":              user.Level,
		"streak":             user.Streak,
		"last_activity_date": user.LastActivityDate,
		"weekly_activity":    user.WeeklyActivity,
	}).Error
	return user, true, err
}

// RecordExperiment counts one circuit/hardware run against the profile.
func (r *UserRepository) RecordExperiment(ctx context.Context, userID uint, qpuMinutes float64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"experiments_run": gorm.Expr("experiments_run + 1"),
			"qpu_minutes":     gorm.Expr("qpu_minutes + ?", qpuMinutes),
		}).Error
}

// Stats returns the compact stats payload.
func (r *UserRepository) Stats(ctx context.Context, userID uint) (*Stats, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		LessonsCompleted: user.LessonsCompleted,
		XPPoints:         user.XPPoints,
		Level:            user.Level,
		Streak:           user.Streak,
	}, nil
}

// RecomputeRanks refreshes world_rank and top_percentile for every user from
// the XP leaderboard. Run from the nightly maintenance job.
func (r *UserRepository) RecomputeRanks(ctx context.Context) error {
	query := `
		UPDATE users SET
			world_rank = ranked.rank,
			top_percentile = ROUND(ranked.rank * 100.0 / ranked.total, 1)
		FROM (
			SELECT id,
				RANK() OVER (ORDER BY xp_points DESC) AS rank,
				COUNT(*) OVER () AS total
			FROM users
		) AS ranked
		WHERE users.id = ranked.id;
	`
	return r.db.WithContext(ctx).Exec(query).Error
}

// NextStreak implements the daily-streak rule: activity on the same UTC day
// keeps the streak, on the following day extends it, and after a gap restarts
// at 1.
func NextStreak(current int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	lastDay := last.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)

	switch today.Sub(lastDay) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 24 * time.Hour:
		return current + 1
	default:
		return 1
	}
}

func bumpWeekday(activity []int64, now time.Time) []int64 {
	if len(activity) != 7 {
		activity = make([]int64, 7)
	}
	activity[int(now.UTC().Weekday())]++
	return activity
}
