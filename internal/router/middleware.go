package router

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/handlers"
	"github.com/swiftquantum/qubitlab/internal/models"
)

// APIKeyHeader carries the client credential on every API call.
const APIKeyHeader = "X-API-Key"

// Authenticator resolves an API key to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, id uint, secret string) (*models.User, error)
}

// APIKeyMiddleware validates the "<id>.<secret>" key and stores the user ID
// in the request context. Requests without a valid key never reach the API
// group.
func APIKeyMiddleware(log *zap.Logger, auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, secret, ok := splitAPIKey(c.GetHeader(APIKeyHeader))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed api key"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), id, secret)
		if err != nil {
			log.Warn("Rejected api key", zap.Uint("userID", id), zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid api key"})
			return
		}

		c.Set(handlers.UserIDKey, user.ID)
		c.Next()
	}
}

func splitAPIKey(key string) (uint, string, bool) {
	idPart, secret, found := strings.Cut(key, ".")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(id), secret, true
}
