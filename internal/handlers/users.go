package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/repository"
	"github.com/swiftquantum/qubitlab/internal/utils"
)

// UserStore is the slice of the user repository the handlers need.
type UserStore interface {
	Create(ctx context.Context, username string) (*models.User, string, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Stats(ctx context.Context, id uint) (*repository.Stats, error)
	AddXP(ctx context.Context, id uint, points int) (*models.User, error)
	CompleteLesson(ctx context.Context, id uint, lessonID string) (*models.User, bool, error)
}

type UsersHandler struct {
	log   *zap.Logger
	users UserStore
}

func NewUsersHandler(log *zap.Logger, users UserStore) *UsersHandler {
	return &UsersHandler{log: log, users: users}
}

// ProfileResponse mirrors the profile payload the mobile clients consume.
type ProfileResponse struct {
	Username         string    `json:"username"`
	Level            int       `json:"level"`
	XPPoints         int       `json:"xpPoints"`
	LessonsCompleted int       `json:"lessonsCompleted"`
	Streak           int       `json:"streak"`
	ExperimentsRun   int       `json:"experimentsRun"`
	QPUMinutes       float64   `json:"qpuMinutes"`
	TotalStudyTime   float64   `json:"totalStudyTime"`
	WorldRank        *int      `json:"worldRank,omitempty"`
	TopPercentile    *float64  `json:"topPercentile,omitempty"`
	WeeklyActivity   []int64   `json:"weeklyActivity,omitempty"`
	Achievements     []string  `json:"achievements,omitempty"`
	APIKeyConfigured bool      `json:"apiKeyConfigured"`
	CreatedAt        time.Time `json:"createdAt"`
}

func profileFromUser(user *models.User) ProfileResponse {
	return ProfileResponse{
		Username:         user.Username,
		Level:            user.Level,
		XPPoints:         user.XPPoints,
		LessonsCompleted: user.LessonsCompleted,
		Streak:           user.Streak,
		ExperimentsRun:   user.ExperimentsRun,
		QPUMinutes:       user.QPUMinutes,
		TotalStudyTime:   user.TotalStudyTime,
		WorldRank:        user.WorldRank,
		TopPercentile:    user.TopPercentile,
		WeeklyActivity:   user.WeeklyActivity,
		Achievements:     user.Achievements,
		APIKeyConfigured: user.APIKeyConfigured(),
		CreatedAt:        user.CreatedAt,
	}
}

// GetProfile serves GET /api/v1/users/profile.
func (h *UsersHandler) GetProfile(c *gin.Context) {
	userID := MustUserID(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to load profile", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, profileFromUser(user))
}

// GetStats serves GET /api/v1/users/stats.
func (h *UsersHandler) GetStats(c *gin.Context) {
	userID := MustUserID(c)
	stats, err := h.users.Stats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to load stats", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
}

// Register serves POST /api/v1/register: the only unauthenticated endpoint.
// The response carries the account's API key exactly once; only its hash is
// kept server-side.
func (h *UsersHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	if !utils.IsValidUsername(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username"})
		return
	}

	user, apiKey, err := h.users.Create(c.Request.Context(), req.Username)
	if err != nil {
		h.log.Error("Failed to register user", zap.Error(err), zap.String("username", req.Username))
		c.JSON(http.StatusConflict, gin.H{"error": "Username unavailable"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"username": user.Username,
		"apiKey":   apiKey,
	})
}

type addXPRequest struct {
	Points int `json:"points"`
}

// AddXP serves POST /api/v1/users/xp. Non-positive awards are accepted and
// ignored, matching the clamp-don't-fail posture of the rest of the system.
func (h *UsersHandler) AddXP(c *gin.Context) {
	userID := MustUserID(c)
	var req addXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind xp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	user, err := h.users.AddXP(c.Request.Context(), userID, req.Points)
	if err != nil {
		h.log.Error("Failed to award xp", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to award xp"})
		return
	}
	c.JSON(http.StatusOK, repository.Stats{
		LessonsCompleted: user.LessonsCompleted,
		XPPoints:         user.XPPoints,
		Level:            user.Level,
		Streak:           user.Streak,
	})
}

type completeLessonRequest struct {
	LessonID string `json:"lessonId" binding:"required"`
}

// CompleteLesson serves POST /api/v1/users/lessons/complete.
func (h *UsersHandler) CompleteLesson(c *gin.Context) {
	userID := MustUserID(c)
	var req completeLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind lesson request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	user, completed, err := h.users.CompleteLesson(c.Request.Context(), userID, req.LessonID)
	if err != nil {
		h.log.Error("Failed to complete lesson",
			zap.Error(err),
			zap.Uint("userID", userID),
			zap.String("lessonID", req.LessonID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete lesson"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"completed":        completed,
		"lessonsCompleted": user.LessonsCompleted,
		"xpPoints":         user.XPPoints,
		"level":            user.Level,
		"streak":           user.Streak,
	})
}
