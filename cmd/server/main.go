package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	identityapp "github.com/scholarconnect/backend/internal/application/identity"
	profileapp "github.com/scholarconnect/backend/internal/application/profile"
	socialapp "github.com/scholarconnect/backend/internal/application/social"
	"github.com/scholarconnect/backend/internal/infrastructure/auth"
	"github.com/scholarconnect/backend/internal/infrastructure/config"
	"github.com/scholarconnect/backend/internal/infrastructure/event"
	"github.com/scholarconnect/backend/internal/infrastructure/logger"
	"github.com/scholarconnect/backend/internal/infrastructure/persistence"
	"github.com/scholarconnect/backend/internal/infrastructure/realtime"
	"github.com/scholarconnect/backend/internal/infrastructure/storage"
	"github.com/scholarconnect/backend/internal/interfaces/http/handler"
	"github.com/scholarconnect/backend/internal/interfaces/http/middleware"
	"github.com/scholarconnect/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ScholarConnect backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	postRepo := persistence.NewGormPostRepository(db.DB)
	commentRepo := persistence.NewGormCommentRepository(db.DB)

	// Redis backs the token blacklist and the change-stream broker when
	// configured; a single-instance deployment falls back to in-memory.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected successfully",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port))
	}

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Using in-memory token blacklist; revocations do not survive restarts")
	}

	var broker realtime.Broker
	if redisClient != nil {
		broker = realtime.NewRedisBrokerWithClient(redisClient,
			realtime.WithBrokerChannel(cfg.Realtime.Channel),
			realtime.WithBrokerLogger(log),
		)
	} else {
		broker = realtime.NewInMemoryBroker()
		log.Warn("Using in-memory change broker; post changes do not fan out across instances")
	}
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error("Error closing change broker", zap.Error(err))
		}
	}()

	// Avatar object storage
	var avatarStorage profileapp.AvatarStorage
	switch cfg.Storage.Provider {
	case "s3":
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignTTL),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		avatarStorage = s3Storage
		log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	default:
		avatarStorage = storage.NewStubObjectStorage()
		log.Warn("Using stub object storage; avatar uploads are not persisted")
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Post domain events feed the realtime change stream
	changeRelay := socialapp.NewPostChangeRelay(broker, log)
	eventBus.Subscribe(changeRelay)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	mailer := identityapp.NewLogMailer(log)
	authService := identityapp.NewAuthService(
		accountRepo, jwtService, blacklist, mailer, eventBus,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockDuration:     cfg.Auth.LockoutDuration,
		},
		log,
	)
	profileService := profileapp.NewProfileService(profileRepo, avatarStorage, eventBus, log)
	postService := socialapp.NewPostService(postRepo, profileRepo, avatarStorage, eventBus, log)
	commentService := socialapp.NewCommentService(commentRepo, postRepo, profileRepo, avatarStorage, eventBus, log)

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(db, version)
	authHandler := handler.NewAuthHandler(authService, profileService)
	profileHandler := handler.NewProfileHandler(profileService)
	postHandler := handler.NewPostHandler(postService, commentService)
	streamHandler := handler.NewFeedStreamHandler(broker,
		handler.WithStreamLogger(log),
		handler.WithStreamHeartbeat(cfg.Realtime.HeartbeatInterval),
		handler.WithStreamMaxClients(cfg.Realtime.MaxClients),
	)
	if err := streamHandler.Start(); err != nil {
		log.Fatal("Failed to start feed stream handler", zap.Error(err))
	}
	defer streamHandler.Stop()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Stricter per-IP limit on credential endpoints
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authPaths := map[string]bool{
			"/api/v1/auth/signup": true,
			"/api/v1/auth/login":  true,
		}
		engine.Use(func(c *gin.Context) {
			if authPaths[c.Request.URL.Path] {
				middleware.RateLimit(authLimiter)(c)
				return
			}
			c.Next()
		})
	}

	// JWT authentication for everything except the public auth endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/auth/signup",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/auth/verify-email",
			"/api/v1/auth/resend-verification",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(authHandler).
		Register(profileHandler).
		Register(postHandler).
		Register(streamHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
