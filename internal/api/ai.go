package api

import (
	"net/http"

	apperrors "emberfree_go_backend/internal/errors"
	"emberfree_go_backend/internal/models"
	"emberfree_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		apperrors.HandleError(c, apperrors.New401Error())
		return nil, false
	}
	userModel, ok := user.(*models.User)
	if !ok {
		apperrors.HandleError(c, apperrors.New401Error())
		return nil, false
	}
	return userModel, true
}

func requestLanguage(c *gin.Context, user *models.User) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	if user.Language != "" {
		return user.Language
	}
	return "en"
}

func getMotivationHandler(aiService *services.AIContentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		triggerType := c.DefaultQuery("trigger", "daily")
		triggerData := c.Query("trigger_data")
		language := requestLanguage(c, user)

		text, source := aiService.GetMotivation(c.Request.Context(), user, triggerType, triggerData, language)
		c.JSON(http.StatusOK, gin.H{
			"text":   text,
			"source": source,
		})
	}
}

func getMissionsHandler(aiService *services.AIContentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		language := requestLanguage(c, user)
		missions, source := aiService.GetMissions(c.Request.Context(), user, language)
		c.JSON(http.StatusOK, gin.H{
			"missions": missions,
			"source":   source,
		})
	}
}

func getUsageStatsHandler(aiService *services.AIContentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		stats := aiService.GetUsageStats(c.Request.Context(), user.ID.String())
		c.JSON(http.StatusOK, stats)
	}
}

func updateProgressHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var progress models.UserProgress
		if err := c.ShouldBindJSON(&progress); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid progress payload"))
			return
		}

		if err := userService.UpdateProgress(user.ID, progress); err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

func resetUsageHandler(aiService *services.AIContentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := aiService.ResetMonthlyUsage(c.Request.Context()); err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset": true})
	}
}

func usageReportHandler(reportService *services.UsageReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reportService.MonthlyReport(c.Request.Context())
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="ai-usage-report.pdf"`)
		c.Data(http.StatusOK, "application/pdf", report)
	}
}
