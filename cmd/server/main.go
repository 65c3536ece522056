package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"recommread-server/internal/auth"
	"recommread-server/internal/authoring"
	"recommread-server/internal/config"
	"recommread-server/internal/generation"
	"recommread-server/internal/handler"
	"recommread-server/internal/messaging"
	"recommread-server/internal/middleware"
	"recommread-server/internal/repository"
	"recommread-server/internal/service"
	"recommread-server/migrations"
	"recommread-server/pkg/database"
	"recommread-server/pkg/logger"
	"recommread-server/pkg/migration"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Named("Main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := database.NewPool(ctx, database.Config{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to PostgreSQL", zap.String("host", cfg.DBHost))

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, pool)
	if err := migrator.Up(ctx); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	// RabbitMQ
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()

	// Repositories
	storyRepo := repository.NewPgStoryRepository(pool, zapLogger)
	userRepo := repository.NewPgUserRepository(pool, zapLogger)
	swipeRepo := repository.NewPgSwipeRepository(pool, zapLogger)
	contestRepo := repository.NewPgContestRepository(pool, zapLogger)
	rewardRepo := repository.NewRedisRewardRepository(redisClient, zapLogger)
	leaderboardRepo := repository.NewRedisLeaderboardRepository(redisClient, zapLogger)

	// Messaging
	eventPublisher, err := messaging.NewRabbitMQPublisher(rabbitConn, cfg.StoryEventsQueue, zapLogger)
	if err != nil {
		log.Fatal("Failed to create event publisher", zap.Error(err))
	}
	processor := messaging.NewEventProcessor(storyRepo, leaderboardRepo, zapLogger)
	consumer, err := messaging.NewConsumer(rabbitConn, cfg.StoryEventsQueue, processor, zapLogger)
	if err != nil {
		log.Fatal("Failed to create event consumer", zap.Error(err))
	}
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start event consumer", zap.Error(err))
	}
	defer consumer.Stop()

	// Generation gateway
	generator := generation.NewOpenAIGenerator(generation.Config{
		APIKey:         cfg.AIAPIKey,
		BaseURL:        cfg.AIBaseURL,
		Model:          cfg.AIModel,
		RequestTimeout: cfg.AIRequestTimeout,
	}, zapLogger)

	// Authoring sessions
	sessionManager := authoring.NewManager(
		storyRepo,
		generator,
		service.NewPublisherEventSink(eventPublisher),
		authoring.Options{
			AutosaveInterval:        cfg.AutosaveInterval,
			AutosaveMinGap:          cfg.AutosaveMinGap,
			OpTimeout:               cfg.PersistOpTimeout,
			SurfaceAutosaveFailures: cfg.AutosaveSurfaceFailures,
		},
		zapLogger,
	)
	defer sessionManager.CloseAll()

	// Services
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, zapLogger)
	verifier := auth.NewVerifier(cfg.JWTSecret)
	storyService := service.NewStoryService(storyRepo, zapLogger)
	swipeService := service.NewSwipeService(swipeRepo, storyRepo, eventPublisher, zapLogger)
	contestService := service.NewContestService(contestRepo, storyRepo, zapLogger)
	rewardService := service.NewRewardService(rewardRepo, zapLogger)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, storyRepo, userRepo, zapLogger)
	analyticsService := service.NewAnalyticsService(storyRepo, zapLogger)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogging(zapLogger.Named("HTTP")))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("recommread")
	prom.Use(router)

	h := handler.NewHandler(
		authService, verifier, sessionManager,
		storyService, swipeService, contestService,
		rewardService, leaderboardService, analyticsService,
		zapLogger,
	)
	h.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

// connectRabbitMQ dials with retries so the server tolerates the broker
// coming up after it.
func connectRabbitMQ(url string, log *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ")
			return conn, nil
		}
		log.Warn("RabbitMQ connection failed, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("connecting to RabbitMQ after retries: %w", err)
}
