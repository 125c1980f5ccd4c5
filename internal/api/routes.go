package api

import (
	"emberfree_go_backend/internal/auth"
	"emberfree_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	aiService *services.AIContentService,
	userService *services.UserService,
	premiumService *services.PremiumService,
	reportService *services.UsageReportService,
) {
	api := r.Group("/api")
	{
		api.GET("/ai/motivation", auth.AuthMiddleware(userService), getMotivationHandler(aiService))
		api.GET("/ai/missions", auth.AuthMiddleware(userService), getMissionsHandler(aiService))
		api.GET("/ai/usage", auth.AuthMiddleware(userService), getUsageStatsHandler(aiService))
		api.PUT("/progress", auth.AuthMiddleware(userService), updateProgressHandler(userService))

		api.POST("/premium/checkout", auth.AuthMiddleware(userService), createCheckoutHandler(premiumService))
		api.POST("/stripe/webhook", stripeWebhookHandler(premiumService, userService))

		admin := api.Group("/admin", auth.AuthMiddleware(userService), auth.AdminOnly())
		{
			admin.POST("/ai/reset", resetUsageHandler(aiService))
			admin.GET("/ai/report", usageReportHandler(reportService))
		}
	}
}
