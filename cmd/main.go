package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stepwise/stepwise-backend/internal/clients/contentgen"
	"github.com/stepwise/stepwise-backend/internal/db"
	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/handlers"
	"github.com/stepwise/stepwise-backend/internal/locks"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/middleware"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/server"
	"github.com/stepwise/stepwise-backend/internal/services"
	"github.com/stepwise/stepwise-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	engineConfigPath := utils.GetEnv("ENGINE_CONFIG_PATH", "", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	openaiAPIKey := utils.GetEnv("OPENAI_API_KEY", "", log)
	openaiModel := utils.GetEnv("OPENAI_MODEL", "", log)
	genTimeoutSeconds := utils.GetEnvAsInt("GENERATION_TIMEOUT", 30, log)
	selectionSeed := utils.GetEnvAsInt("SELECTION_SEED", int(time.Now().UnixNano()), log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

	// Engine config
	engineCfg, err := engine.LoadConfig(engineConfigPath)
	if err != nil {
		log.Error("Could not load engine config", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Locks: Redis when configured, in-process otherwise.
	var locker locks.Locker
	if redisAddr != "" {
		redisLocker, err := locks.NewRedisLocker(redisAddr, log)
		if err != nil {
			log.Error("Could not init RedisLocker", "error", err)
			os.Exit(1)
		}
		locker = redisLocker
	} else {
		log.Warn("REDIS_ADDR not set, attempt locks are process-local")
		locker = locks.NewKeyedMutex()
	}

	// Content generation is optional: without a key the selector returns
	// generate-new directives instead of dispatching them.
	var generator contentgen.Generator
	if openaiAPIKey != "" {
		generator, err = contentgen.NewOpenAIGenerator(openaiAPIKey, openaiModel, log)
		if err != nil {
			log.Error("Could not init OpenAI generator", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, question generation disabled")
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	attemptRepo := repos.NewAttemptRepo(thePG, log)
	topicAccuracyRepo := repos.NewTopicAccuracyRepo(thePG, log)
	reviewCardRepo := repos.NewReviewCardRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	performanceService := services.NewPerformanceService(thePG, log, topicAccuracyRepo, engineCfg)
	scheduleService := services.NewReviewScheduleService(thePG, log, reviewCardRepo, engineCfg)
	attemptService := services.NewAttemptService(thePG, log, locker, questionRepo, attemptRepo, performanceService, scheduleService)
	selectionService := services.NewSelectionService(
		thePG,
		log,
		questionRepo,
		performanceService,
		scheduleService,
		generator,
		engineCfg,
		time.Duration(genTimeoutSeconds)*time.Second,
		int64(selectionSeed),
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(log, userService)
	questionHandler := handlers.NewQuestionHandler(log, selectionService, questionRepo)
	attemptHandler := handlers.NewAttemptHandler(log, attemptService)
	reviewHandler := handlers.NewReviewHandler(log, scheduleService)
	analyticsHandler := handlers.NewAnalyticsHandler(log, performanceService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		UserHandler:      userHandler,
		QuestionHandler:  questionHandler,
		AttemptHandler:   attemptHandler,
		ReviewHandler:    reviewHandler,
		AnalyticsHandler: analyticsHandler,
		AllowOrigins:     strings.Split(allowOrigins, ","),
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
