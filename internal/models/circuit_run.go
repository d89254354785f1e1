package models

import (
	"encoding/json"
	"time"
)

// CircuitRun is one recorded demo circuit execution.
type CircuitRun struct {
	ID       string `gorm:"primaryKey"`
	UserID   uint   `gorm:"index"`
	User     User   `gorm:"foreignKey:UserID"`
	Template string
	Qubits   int
	Shots    int
	// Outcome frequencies as a bitstring → count object.
	Counts []byte `gorm:"type:jsonb"`

	CreatedAt time.Time
}

// DecodeCounts unpacks the stored frequency map.
func (r *CircuitRun) DecodeCounts() (map[string]int, error) {
	counts := make(map[string]int)
	if len(r.Counts) == 0 {
		return counts, nil
	}
	err := json.Unmarshal(r.Counts, &counts)
	return counts, err
}

// EncodeCounts packs a frequency map for storage.
func EncodeCounts(counts map[string]int) ([]byte, error) {
	return json.Marshal(counts)
}

// LessonCompletion records that a user finished a lesson. The unique index
// makes completion idempotent per lesson.
type LessonCompletion struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"uniqueIndex:idx_user_lesson"`
	LessonID string `gorm:"uniqueIndex:idx_user_lesson"`

	CreatedAt time.Time
}
