package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/handlers"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup wires middleware and routes. All collaborators come in as arguments;
// nothing here reaches for package globals.
func Setup(log *zap.Logger, auth Authenticator, users *handlers.UsersHandler, runs *handlers.RunsHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 60,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/v1/register", limiter, users.Register)

	api := router.Group("/api/v1")
	api.Use(APIKeyMiddleware(log, auth))
	{
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("/profile", users.GetProfile)
			userRoutes.GET("/stats", users.GetStats)
			userRoutes.POST("/xp", limiter, users.AddXP)
			userRoutes.POST("/lessons/complete", limiter, users.CompleteLesson)
		}

		runRoutes := api.Group("/runs")
		{
			runRoutes.GET("", runs.ListRuns)
			runRoutes.POST("", limiter, runs.CreateRun)
			runRoutes.GET("/:id/chart", runs.RunChart)
		}
	}

	return router
}
