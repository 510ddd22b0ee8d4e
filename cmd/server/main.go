package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	campaignapp "github.com/bva/backend/internal/application/campaign"
	integrationapp "github.com/bva/backend/internal/application/integration"
	restockapp "github.com/bva/backend/internal/application/restock"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/infrastructure/auth"
	"github.com/bva/backend/internal/infrastructure/cache"
	"github.com/bva/backend/internal/infrastructure/config"
	"github.com/bva/backend/internal/infrastructure/logger"
	"github.com/bva/backend/internal/infrastructure/mlservice"
	"github.com/bva/backend/internal/infrastructure/persistence"
	"github.com/bva/backend/internal/infrastructure/scheduler"
	"github.com/bva/backend/internal/infrastructure/social"
	"github.com/bva/backend/internal/infrastructure/storage"
	"github.com/bva/backend/internal/infrastructure/storefront"
	"github.com/bva/backend/internal/infrastructure/telemetry"
	"github.com/bva/backend/internal/interfaces/http/handler"
	"github.com/bva/backend/internal/interfaces/http/middleware"
	"github.com/bva/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/bva/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			BVA Backend API
//	@version		1.0
//	@description	Business Virtual Assistant backend - storefront sync, campaign publishing and restock planning for small shops

//	@contact.name	API Support
//	@contact.url	https://github.com/bva/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting BVA backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Initialize tracing
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Connect to database
	database, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingConfig := telemetry.DefaultDBTracingConfig()
		dbTracingConfig.Enabled = true
		dbTracing := telemetry.NewDBTracingPlugin(dbTracingConfig, log)
		if err := dbTracing.RegisterOtelGorm(database.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	shopRepo := persistence.NewGormShopRepository(database.DB)
	productRepo := persistence.NewGormProductRepository(database.DB)
	saleRepo := persistence.NewGormSaleRepository(database.DB)
	integrationRepo := persistence.NewGormIntegrationRepository(database.DB)
	campaignRepo := persistence.NewGormCampaignRepository(database.DB)
	notificationRepo := persistence.NewGormNotificationRepository(database.DB)

	// Remote storefront clients
	storefrontRegistry := storefront.NewRegistry()
	storefrontRegistry.Register(storefront.NewClient(integration.PlatformCodeShopee, storefront.Options{
		BaseURL:    cfg.Storefront.ShopeeBaseURL,
		Timeout:    cfg.Storefront.Timeout,
		RetryCount: cfg.Storefront.RetryCount,
		Logger:     log,
	}))
	storefrontRegistry.Register(storefront.NewClient(integration.PlatformCodeLazada, storefront.Options{
		BaseURL:    cfg.Storefront.LazadaBaseURL,
		Timeout:    cfg.Storefront.Timeout,
		RetryCount: cfg.Storefront.RetryCount,
		Logger:     log,
	}))

	// Integration services
	syncService := integrationapp.NewSyncService(productRepo, saleRepo, storefrontRegistry, log)
	integrationService := integrationapp.NewService(integrationRepo, shopRepo, storefrontRegistry, syncService, log)

	// Campaign publishing
	publisher := social.NewFacebookPublisher(&social.FacebookConfig{
		GraphURL:    cfg.Facebook.GraphURL,
		PageID:      cfg.Facebook.PageID,
		AccessToken: cfg.Facebook.AccessToken,
		Timeout:     cfg.Facebook.Timeout,
	}, log)

	var imageStore campaignapp.ImageStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ImageStore(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 image store", zap.Error(err))
		}
		imageStore = s3Store
		log.Info("S3 image store enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		imageStore = storage.NewPassthroughImageStore()
	}

	campaignService := campaignapp.NewService(
		campaignRepo,
		notificationRepo,
		shopRepo,
		publisher,
		imageStore,
		cfg.Facebook.NativeScheduleHorizon,
		log,
	)

	// Restock planning
	mlClient := mlservice.NewClient(mlservice.Options{
		BaseURL: cfg.MLService.BaseURL,
		Timeout: cfg.MLService.Timeout,
		Logger:  log,
	})

	var strategyCache cache.StrategyCache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewRedisStrategyCache(cfg.Redis, cfg.MLService.CacheTTL, log)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory strategy cache", zap.Error(err))
			strategyCache = cache.NewInMemoryStrategyCache(cfg.MLService.CacheTTL)
		} else {
			strategyCache = redisCache
			log.Info("Redis strategy cache enabled", zap.String("host", cfg.Redis.Host))
		}
	} else {
		strategyCache = cache.NewInMemoryStrategyCache(cfg.MLService.CacheTTL)
	}

	restockService := restockapp.NewService(productRepo, saleRepo, mlClient, strategyCache, log)

	// Campaign poller publishes due scheduled campaigns
	var poller *scheduler.CampaignPoller
	if cfg.Poller.Enabled {
		poller, err = scheduler.NewCampaignPoller(scheduler.CampaignPollerConfig{
			Interval:          cfg.Poller.Interval,
			MaxPublishRetries: cfg.Poller.MaxPublishRetries,
			TickTimeout:       cfg.Poller.TickTimeout,
		}, campaignRepo, notificationRepo, shopRepo, publisher, log)
		if err != nil {
			log.Fatal("Failed to create campaign poller", zap.Error(err))
		}
		if err := poller.Start(ctx); err != nil {
			log.Fatal("Failed to start campaign poller", zap.Error(err))
		}
		log.Info("Campaign poller started",
			zap.Duration("interval", cfg.Poller.Interval),
			zap.Int("maxPublishRetries", cfg.Poller.MaxPublishRetries))
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	if cfg.HTTP.RateLimit > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)))
	}

	middleware.SetupValidator()

	// Handlers
	systemHandler := handler.NewSystemHandler(database.DB)
	integrationHandler := handler.NewIntegrationHandler(integrationService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	restockHandler := handler.NewRestockHandler(restockService)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	// Health probe stays outside API versioning
	engine.GET("/health", systemHandler.Health)

	swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{Enabled: cfg.Swagger.Enabled}, nil)
	engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Swagger.Enabled {
		log.Info("Swagger UI enabled at /swagger/index.html")
	}

	// Authenticated API routes
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Host != "" {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
			tokenBlacklist = auth.NewInMemoryTokenBlacklist()
		} else {
			tokenBlacklist = redisBlacklist
		}
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}
	authMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	})
	engine.Use(authMiddleware)
	if cfg.Telemetry.Enabled {
		// Runs after auth so spans pick up the identity from JWT claims.
		engine.Use(middleware.TracingAttributeInjector())
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(integrationHandler).
		Register(campaignHandler).
		Register(restockHandler).
		Register(notificationHandler)
	r.Setup()

	// HTTP server with graceful shutdown
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
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if poller != nil {
		if err := poller.Stop(shutdownCtx); err != nil {
			log.Warn("Campaign poller stop failed", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
