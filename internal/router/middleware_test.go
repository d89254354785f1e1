package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/handlers"
	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/repository"
)

type fakeAuthenticator struct {
	id     uint
	secret string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, id uint, secret string) (*models.User, error) {
	if id != f.id || secret != f.secret {
		return nil, repository.ErrInvalidAPIKey
	}
	return &models.User{ID: id}, nil
}

func TestSplitAPIKey(t *testing.T) {
	tests := []struct {
		key    string
		id     uint
		secret string
		ok     bool
	}{
		{"42.sekrit", 42, "sekrit", true},
		{"42.se.krit", 42, "se.krit", true},
		{"", 0, "", false},
		{"noseparator", 0, "", false},
		{"42.", 0, "", false},
		{"abc.sekrit", 0, "", false},
	}
	for _, tt := range tests {
		id, secret, ok := splitAPIKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.secret, secret)
		}
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := &fakeAuthenticator{id: 7, secret: "good"}

	r := gin.New()
	r.Use(APIKeyMiddleware(zap.NewNop(), auth))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": handlers.MustUserID(c)})
	})

	get := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("7.good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 7}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get("").Code)
	assert.Equal(t, http.StatusUnauthorized, get("malformed").Code)
	assert.Equal(t, http.StatusUnauthorized, get("7.bad").Code)
	assert.Equal(t, http.StatusUnauthorized, get("8.good").Code)
}
