package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/handlers"
	"github.com/eventreg/backend/internal/middleware"
)

// RegisterPublicRoutes registers the applicant-facing routes
func RegisterPublicRoutes(router *gin.Engine, submissionHandler *handlers.SubmissionHandler, rateLimiter *middleware.RateLimiter) {
	publicGroup := router.Group("/api/submissions")
	publicGroup.Use(rateLimiter.PublicRateLimiterMiddleware())
	{
		publicGroup.POST("", submissionHandler.Create)
		publicGroup.GET("/status/:referenceId", submissionHandler.Status)
	}
}

// RegisterAdminRoutes registers authentication and review routes
func RegisterAdminRoutes(router *gin.Engine, authHandler *handlers.AuthHandler, adminHandler *handlers.AdminHandler, rateLimiter *middleware.RateLimiter, jwtCfg config.JWTConfig) {
	// Login is rate limited but not authenticated
	loginGroup := router.Group("/api/admin")
	loginGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		loginGroup.POST("/login", authHandler.Login)
	}

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(jwtCfg.Secret))
	{
		adminGroup.GET("/verify", authHandler.Verify)
		adminGroup.POST("/2fa/setup", authHandler.SetupTwoFactor)
		adminGroup.POST("/2fa/enable", authHandler.EnableTwoFactor)

		adminGroup.GET("/submissions", adminHandler.ListSubmissions)
		adminGroup.GET("/submissions/:id", adminHandler.GetSubmission)
		adminGroup.GET("/submissions/:id/receipt", adminHandler.GetReceipt)
		adminGroup.PATCH("/submissions/:id/approve", adminHandler.Approve)
		adminGroup.PATCH("/submissions/:id/reject", adminHandler.Reject)

		adminGroup.GET("/audit-logs", adminHandler.AuditLogs)
	}
}

// RegisterHealthRoutes registers liveness probes
func RegisterHealthRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
