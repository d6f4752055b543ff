package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stepwise/stepwise-backend/internal/handlers"
	"github.com/stepwise/stepwise-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	UserHandler      *handlers.UserHandler
	QuestionHandler  *handlers.QuestionHandler
	AttemptHandler   *handlers.AttemptHandler
	ReviewHandler    *handlers.ReviewHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	AllowOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	api := protected.Group("/api")
	// User
	api.GET("/user", cfg.UserHandler.GetMe)
	// Questions
	api.GET("/questions/next", cfg.QuestionHandler.GetNext)
	api.GET("/questions/:id", cfg.QuestionHandler.GetByID)
	// Attempts
	api.POST("/attempts", cfg.AttemptHandler.SubmitAttempt)
	api.GET("/attempts/recent", cfg.AttemptHandler.ListRecent)
	// Review queue
	api.GET("/review/due", cfg.ReviewHandler.GetDueQueue)
	// Analytics
	api.GET("/analytics/topics", cfg.AnalyticsHandler.GetTopicBreakdown)

	return router
}
