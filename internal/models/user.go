package models

import (
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// XPPerLevel is how much XP separates consecutive levels.
const XPPerLevel = 1000

type User struct {
	ID         uint   `gorm:"primaryKey"`
	Username   string `gorm:"uniqueIndex"`
	APIKeyHash string

	XPPoints         int
	Level            int
	LessonsCompleted int
	Streak           int
	LastActivityDate *time.Time

	ExperimentsRun int
	QPUMinutes     float64
	TotalStudyTime float64

	WorldRank     *int
	TopPercentile *float64

	WeeklyActivity pq.Int64Array  `gorm:"type:integer[]"`
	Achievements   pq.StringArray `gorm:"type:text[]"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LevelForXP maps accumulated XP to a 1-based level.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// CheckAPIKey compares a presented key secret against the stored hash.
func (u *User) CheckAPIKey(secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.APIKeyHash), []byte(secret))
	return err == nil
}

// APIKeyConfigured reports whether the account has an active key.
func (u *User) APIKeyConfigured() bool {
	return u.APIKeyHash != ""
}
