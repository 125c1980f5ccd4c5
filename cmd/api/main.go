package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"emberfree_go_backend/cmd/api/config"
	"emberfree_go_backend/internal/api"
	"emberfree_go_backend/internal/auth"
	"emberfree_go_backend/internal/database"
	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/services"
	"emberfree_go_backend/internal/utils/broker"
	"emberfree_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	genaiAPIKey := os.Getenv("GOOGLE_AI_STUDIO_API_KEY")
	if genaiAPIKey == "" {
		log.Fatal("GOOGLE_AI_STUDIO_API_KEY is not set in the environment")
	}

	ctx := context.Background()
	cfg := config.NewConfig()
	if os.Getenv("PREMIUM_ONLY_AI") == "true" {
		cfg.PremiumOnlyAI = true
	}

	database.InitDB()
	store := docstore.NewGormStore(database.DB)

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(genaiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}
	defer genaiClient.Close()

	// External service clients
	premiumService := services.NewPremiumService(
		os.Getenv("STRIPE_PUBLIC_KEY"),
		os.Getenv("STRIPE_SECRET_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
	)

	// Internal services
	events := broker.New()
	userService := services.NewUserService(database.DB)
	usageLedger := services.NewUsageLedgerService(store, cfg.MaxCallsPerUserPerMonth, cfg.MaxCallsPerUserPerDay, cfg.PremiumOnlyAI)
	budgetGuard := services.NewBudgetGuardService(store, cfg.MonthlyBudgetUSD)
	contentCache := services.NewContentCacheService(store, cfg.CacheTTLFor, cfg.ProgressInvalidation)
	callGate := services.NewCallGate()
	fallback := services.NewFallbackService()
	textGenerator := services.NewGeminiTextService(genaiClient, cfg.ModelName, cfg.Temperature, cfg.MaxOutputTokens)

	aiService := services.NewAIContentService(
		contentCache,
		usageLedger,
		budgetGuard,
		callGate,
		fallback,
		textGenerator,
		events,
		cfg.UpstreamTimeout,
		cfg.MaxCallsPerUserPerMonth,
		cfg.MissionCount,
		cfg.InputCostPerMillionTokens,
		cfg.OutputCostPerMillionTokens,
	)

	reportService := services.NewUsageReportService(store, budgetGuard, cfg.MonthlyBudgetUSD)

	// Periodic rollover sweep so counters reset even for idle users.
	scheduler := services.NewScheduler(cfg.RolloverSweepInterval)
	scheduler.AddJob(usageLedger.SweepRollovers)
	scheduler.AddJob(func(ctx context.Context) error {
		budgetGuard.IsEmergencyStopActive(ctx)
		return nil
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: restrict to ALLOWED_ORIGINS before GA
		},
	}
	wsHandler := wsocket.NewHandler(upgrader, events, 30*time.Second)

	api.SetupRoutes(r, aiService, userService, premiumService, reportService)
	auth.SetupRoutes(r, userService)

	r.GET("/ws", auth.AuthMiddleware(userService), func(c *gin.Context) {
		user, _ := c.Get("user")
		wsHandler.HandleWebSocket(c.Writer, c.Request, user)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
