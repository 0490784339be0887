package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"quizquest/internal/adapter"
	"quizquest/internal/cache"
	"quizquest/internal/config"
	"quizquest/internal/database"
	"quizquest/internal/handler"
	"quizquest/internal/logger"
	"quizquest/internal/middleware"
	"quizquest/internal/repository"
	"quizquest/internal/service"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	questionRepository := repository.NewSQLXQuestionRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)
	periodXPRepository := repository.NewSQLXPeriodXPRepository(db)
	categoryStatRepository := repository.NewSQLXCategoryStatRepository(db)
	achievementRepository := repository.NewSQLXAchievementRepository(db)
	statsRepository := repository.NewSQLXStatsRepository(db)
	leaderboardRepository := repository.NewSQLXLeaderboardRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize Redis client
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	notificationSink := adapter.NewRedisNotificationSink(redisClient)

	// Initialize services
	scoringEngine := service.NewScoringEngine()
	progressionLedger := service.NewProgressionLedger(userRepository, periodXPRepository)
	achievementEvaluator := service.NewAchievementEvaluator(achievementRepository, statsRepository, userRepository, progressionLedger, notificationSink)
	sessionService := service.NewSessionService(questionRepository, attemptRepository, categoryStatRepository, scoringEngine, progressionLedger, achievementEvaluator, txManager, notificationSink)
	leaderboardRanker := service.NewLeaderboardRanker(leaderboardRepository, cacheAdapter, cfg.Leaderboard.TopNCacheTTL)
	profileService := service.NewProfileService(userRepository, periodXPRepository)
	authService := service.NewAuthService(cfg.JWT)
	appLogger.Info("Services initialized")

	// Initialize handlers
	assessmentHandler := handler.NewAssessmentHandler(sessionService)
	gamificationHandler := handler.NewGamificationHandler(achievementEvaluator, profileService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardRanker)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	// Add request logging middleware
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group
	apiGroup := app.Group("/api")

	apiGroup.Get("/categories", assessmentHandler.ListCategories)

	// Test-attempt routes. Starting and submitting work anonymously too,
	// so an optional auth only resolves the user when a token is present.
	testGroup := apiGroup.Group("/tests")
	testGroup.Post("/", middleware.OptionalAuth(authService), assessmentHandler.StartTest)
	testGroup.Post("/:attemptId/submit", middleware.OptionalAuth(authService), assessmentHandler.SubmitTest)
	testGroup.Get("/:attemptId", middleware.OptionalAuth(authService), assessmentHandler.GetResult)
	testGroup.Get("/", middleware.Protected(authService), assessmentHandler.GetHistory)

	// Gamification routes (all protected)
	apiGroup.Get("/achievements", middleware.Protected(authService), gamificationHandler.ListAchievements)
	apiGroup.Post("/achievements/evaluate", middleware.Protected(authService), gamificationHandler.EvaluateAchievements)
	apiGroup.Get("/users/me/progress", middleware.Protected(authService), gamificationHandler.GetProgress)

	// Leaderboard routes
	apiGroup.Get("/leaderboard", leaderboardHandler.TopN)
	apiGroup.Get("/leaderboard/rank", middleware.Protected(authService), leaderboardHandler.MyRank)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
