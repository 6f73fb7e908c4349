package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leafguard/server/cache"
	"leafguard/server/classifier"
	"leafguard/server/config"
	"leafguard/server/handlers"
	"leafguard/server/middleware"
	"leafguard/server/processor"
)

type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	pipeline    *processor.Pipeline
	model       *classifier.Model
	cache       cache.Cache
	rateLimiter *middleware.RateLimiter
	config      *config.Config
}

func main() {
	cfg := config.LoadConfig()

	var logger *zap.Logger
	var err error

	if cfg.Logging.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := cfg.ValidateConfig(logger); err != nil {
		logger.Fatal("Configuration validation failed", zap.Error(err))
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.Bool("model_loaded", server.pipeline.IsRealModelLoaded()))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.pipeline.Shutdown(); err != nil {
		logger.Error("Failed to shutdown pipeline", zap.Error(err))
	}

	if server.rateLimiter != nil {
		server.rateLimiter.Shutdown()
	}

	if server.cache != nil {
		if err := server.cache.Close(); err != nil {
			logger.Error("Failed to close cache", zap.Error(err))
		}
	}

	if server.model != nil {
		server.model.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Redis when configured, in-process cache otherwise.
	var cacheInstance cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Pipeline.CacheTTL,
			logger,
		)
		if err != nil {
			logger.Warn("Failed to connect to Redis, using memory cache", zap.Error(err))
			cacheInstance = cache.NewMemoryCache(1000, cfg.Pipeline.CacheTTL, logger)
		} else {
			cacheInstance = redisCache
		}
	} else {
		cacheInstance = cache.NewMemoryCache(1000, cfg.Pipeline.CacheTTL, logger)
	}

	// The trained classifier is optional. A load failure is logged and the
	// service runs on the heuristic scorer; callers can see which path is
	// active through /health.
	var model *classifier.Model
	var realModel processor.RealModel
	if cfg.Model.Path != "" {
		loaded, err := classifier.LoadModel(cfg.Model.Path)
		if err != nil {
			logger.Warn("Model unavailable, heuristic scoring active",
				zap.String("path", cfg.Model.Path),
				zap.Error(err))
		} else {
			model = loaded
			realModel = loaded
			logger.Info("Model loaded", zap.String("path", cfg.Model.Path))
		}
	}

	pipeline := processor.NewPipeline(
		realModel,
		classifier.NewHeuristicScorer(),
		cacheInstance,
		&processor.PipelineConfig{
			MaxQueueSize:      cfg.Pipeline.MaxQueueSize,
			MaxWorkers:        cfg.Pipeline.MaxWorkers,
			ProcessingTimeout: cfg.Pipeline.ProcessingTimeout,
			CacheTTL:          cfg.Pipeline.CacheTTL,
		},
		logger,
	)

	rateLimiter := middleware.NewRateLimiter(
		cfg.Security.RateLimitRPS,
		cfg.Security.RateLimitBurst,
		logger,
	)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.Security.MaxRequestSize))

	predictHandler := handlers.NewPredictHandler(pipeline, logger)
	wsHandler := handlers.NewWebSocketHandler(pipeline, logger)

	setupRoutes(router, predictHandler, wsHandler, rateLimiter)

	return &Server{
		router:      router,
		logger:      logger,
		pipeline:    pipeline,
		model:       model,
		cache:       cacheInstance,
		rateLimiter: rateLimiter,
		config:      cfg,
	}, nil
}

func setupRoutes(router *gin.Engine, predictHandler *handlers.PredictHandler, wsHandler *handlers.WebSocketHandler, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", predictHandler.Health)

	router.GET("/ws", rateLimiter.RateLimit(), wsHandler.HandleWebSocket)

	api := router.Group("/api/v1")
	{
		api.GET("/health", predictHandler.Health)
		api.GET("/model-info", predictHandler.ModelInfo)

		protected := api.Group("/")
		protected.Use(rateLimiter.RateLimit())
		{
			protected.POST("/predict", predictHandler.Predict)
			protected.POST("/predict/image", predictHandler.PredictFromImage)
			protected.GET("/stats", predictHandler.Stats)
		}
	}
}
