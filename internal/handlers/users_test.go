package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/repository"
)

type fakeUserStore struct {
	user       models.User
	lastXP     int
	lastLesson string
	createErr  error
}

func (f *fakeUserStore) Create(ctx context.Context, username string) (*models.User, string, error) {
	if f.createErr != nil {
		return nil, "", f.createErr
	}
	f.user.Username = username
	f.user.ID = 1
	return &f.user, "1.test-secret", nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return &f.user, nil
}

func (f *fakeUserStore) Stats(ctx context.Context, id uint) (*repository.Stats, error) {
	return &repository.Stats{
		LessonsCompleted: f.user.LessonsCompleted,
		XPPoints:         f.user.XPPoints,
		Level:            f.user.Level,
		Streak:           f.user.Streak,
	}, nil
}

func (f *fakeUserStore) AddXP(ctx context.Context, id uint, points int) (*models.User, error) {
	f.lastXP = points
	if points > 0 {
		f.user.XPPoints += points
		f.user.Level = models.LevelForXP(f.user.XPPoints)
	}
	return &f.user, nil
}

func (f *fakeUserStore) CompleteLesson(ctx context.Context, id uint, lessonID string) (*models.User, bool, error) {
	first := f.lastLesson != lessonID
	f.lastLesson = lessonID
	if first {
		f.user.LessonsCompleted++
	}
	return &f.user, first, nil
}

func authed(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, uint(1))
		c.Next()
	})
	r.Any("/x", h)
	r.Any("/x/:id/chart", h)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetProfile(t *testing.T) {
	store := &fakeUserStore{user: models.User{
		Username: "ada",
		Level:    3,
		XPPoints: 2400,
		Streak:   6,
	}}
	h := NewUsersHandler(zap.NewNop(), store)

	w := doJSON(t, authed(h.GetProfile), http.MethodGet, "/x", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, 2400, got.XPPoints)
	assert.Equal(t, 6, got.Streak)
	assert.False(t, got.APIKeyConfigured)
}

func TestGetStats(t *testing.T) {
	store := &fakeUserStore{user: models.User{XPPoints: 900, Level: 1, Streak: 2, LessonsCompleted: 4}}
	h := NewUsersHandler(zap.NewNop(), store)

	w := doJSON(t, authed(h.GetStats), http.MethodGet, "/x", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got repository.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, repository.Stats{LessonsCompleted: 4, XPPoints: 900, Level: 1, Streak: 2}, got)
}

func TestAddXP(t *testing.T) {
	store := &fakeUserStore{user: models.User{XPPoints: 950, Level: 1}}
	h := NewUsersHandler(zap.NewNop(), store)

	w := doJSON(t, authed(h.AddXP), http.MethodPost, "/x", `{"points": 100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, store.lastXP)

	var got repository.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1050, got.XPPoints)
	assert.Equal(t, 2, got.Level, "crossing 1000 XP reaches level 2")
}

func TestAddXPRejectsMalformedBody(t *testing.T) {
	h := NewUsersHandler(zap.NewNop(), &fakeUserStore{})
	w := doJSON(t, authed(h.AddXP), http.MethodPost, "/x", `{"points": "ten"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	store := &fakeUserStore{}
	h := NewUsersHandler(zap.NewNop(), store)
	r := authed(h.CompleteLesson)

	w := doJSON(t, r, http.MethodPost, "/x", `{"lessonId": "superposition-101"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, true, first["completed"])

	w = doJSON(t, r, http.MethodPost, "/x", `{"lessonId": "superposition-101"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, false, second["completed"])
	assert.EqualValues(t, 1, second["lessonsCompleted"])
}

func TestCompleteLessonRequiresLessonID(t *testing.T) {
	h := NewUsersHandler(zap.NewNop(), &fakeUserStore{})
	w := doJSON(t, authed(h.CompleteLesson), http.MethodPost, "/x", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister(t *testing.T) {
	h := NewUsersHandler(zap.NewNop(), &fakeUserStore{})
	w := doJSON(t, authed(h.Register), http.MethodPost, "/x", `{"username": "ada_l"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ada_l", got["username"])
	assert.NotEmpty(t, got["apiKey"])
}

func TestRegisterRejectsBadUsernames(t *testing.T) {
	h := NewUsersHandler(zap.NewNop(), &fakeUserStore{})
	for _, username := range []string{"ab", "1starts-with-digit", "has space", ""} {
		w := doJSON(t, authed(h.Register), http.MethodPost, "/x",
			`{"username": "`+username+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, username)
	}
}

func TestRegisterConflict(t *testing.T) {
	h := NewUsersHandler(zap.NewNop(), &fakeUserStore{createErr: errors.New("duplicate key")})
	w := doJSON(t, authed(h.Register), http.MethodPost, "/x", `{"username": "ada_l"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
