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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/swivelcare/swivel-api/internal/config"
	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/handlers"
	"github.com/swivelcare/swivel-api/internal/middleware"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.App.Env == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	err = utils.InitLogger(&utils.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting Swivel API", utils.LogFields{
		"version":     "1.0.0",
		"environment": cfg.App.Env,
		"port":        cfg.App.Port,
	})

	dbConn, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	db := dbConn.DB()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	logger.Info("Database migrations completed successfully", nil)

	// Redis is optional; without it the pending-request store falls back to
	// process memory, which loses staged sign-ups on restart.
	var redisClient database.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = database.InitializeRedis(cfg.Redis)
		if err != nil {
			logger.Warn("Redis not available, staging requests in memory", utils.LogFields{
				"error": err.Error(),
			})
			redisClient = nil
		} else {
			logger.Info("Redis connected successfully", utils.LogFields{
				"url": cfg.Redis.URL,
			})
		}
	}

	svcs := initializeServices(cfg, dbConn, redisClient)
	hndls := initializeHandlers(cfg, db, redisClient, svcs)
	middlewares := initializeMiddleware(svcs)

	router := setupRouter(cfg, hndls, middlewares)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.App.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Server starting", utils.LogFields{
			"addr": srv.Addr,
		})

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", err)
	}

	logger.Info("Server stopped gracefully")
}

// ServiceContainer holds all initialized services
type ServiceContainer struct {
	JWTService          *services.JWTService
	StagingStore        services.PendingRequestStore
	AuthService         *services.AuthService
	ProvisioningService *services.ProvisioningService
	OrganizationService *services.OrganizationService
	FormConfigService   *services.FormConfigService
	ClientService       *services.ClientService
	BucketService       *services.BucketService
}

// HandlerContainer holds all initialized handlers
type HandlerContainer struct {
	AuthHandler         *handlers.AuthHandler
	OrganizationHandler *handlers.OrganizationHandler
	FormConfigHandler   *handlers.FormConfigHandler
	ClientHandler       *handlers.ClientHandler
	BucketHandler       *handlers.BucketHandler
	AdminHandler        *handlers.AdminHandler
	HealthHandler       *handlers.HealthHandler
}

// MiddlewareContainer holds all initialized middleware
type MiddlewareContainer struct {
	JWTMiddleware    *middleware.JWTMiddleware
	TenantMiddleware *middleware.TenantMiddleware
}

func initializeServices(cfg *config.Config, db database.Database, redisClient database.RedisClient) *ServiceContainer {
	jwtService := services.NewJWTService(
		cfg.Security.JWTSecret,
		cfg.Security.JWTExpiry,
		cfg.Security.RefreshExpiry,
		cfg.Security.VerifyExpiry,
	)
	stagingStore := services.NewPendingRequestStore(redisClient, cfg.Staging.TTL)

	formConfigService := services.NewFormConfigService(db)

	return &ServiceContainer{
		JWTService:          jwtService,
		StagingStore:        stagingStore,
		AuthService:         services.NewAuthService(db, stagingStore, jwtService, cfg.Security.BcryptCost),
		ProvisioningService: services.NewProvisioningService(db, stagingStore),
		OrganizationService: services.NewOrganizationService(db),
		FormConfigService:   formConfigService,
		ClientService:       services.NewClientService(db, formConfigService),
		BucketService:       services.NewBucketService(db),
	}
}

func initializeHandlers(cfg *config.Config, db *gorm.DB, redisClient database.RedisClient, svcs *ServiceContainer) *HandlerContainer {
	return &HandlerContainer{
		AuthHandler:         handlers.NewAuthHandler(svcs.AuthService, svcs.ProvisioningService, svcs.OrganizationService, svcs.JWTService, cfg),
		OrganizationHandler: handlers.NewOrganizationHandler(svcs.ProvisioningService, svcs.OrganizationService),
		FormConfigHandler:   handlers.NewFormConfigHandler(svcs.FormConfigService),
		ClientHandler:       handlers.NewClientHandler(svcs.ClientService),
		BucketHandler:       handlers.NewBucketHandler(svcs.BucketService),
		AdminHandler:        handlers.NewAdminHandler(svcs.OrganizationService),
		HealthHandler:       handlers.NewHealthHandler(db, redisClient, cfg.App.Env),
	}
}

func initializeMiddleware(svcs *ServiceContainer) *MiddlewareContainer {
	return &MiddlewareContainer{
		JWTMiddleware:    middleware.NewJWTMiddleware(svcs.JWTService),
		TenantMiddleware: middleware.NewTenantMiddleware(svcs.OrganizationService),
	}
}

func setupRouter(cfg *config.Config, hndls *HandlerContainer, middlewares *MiddlewareContainer) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(utils.StandardLogger()))

	router.Use(func(c *gin.Context) {
		utils.SetSecurityHeaders(c)
		c.Next()
	})

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	}

	router.Use(cors.New(corsConfig))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(cfg))
	}

	// Health endpoints (no auth required)
	router.GET("/health", hndls.HealthHandler.Health)
	router.GET("/ready", hndls.HealthHandler.Readiness)
	router.GET("/live", hndls.HealthHandler.Liveness)

	router.GET("/", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{
			"name":        cfg.App.Name,
			"version":     "1.0.0",
			"environment": cfg.App.Env,
			"status":      "running",
			"timestamp":   time.Now(),
		})
	})

	api := router.Group("/api")

	// Public authentication routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", hndls.AuthHandler.Signup)
		auth.POST("/login", hndls.AuthHandler.Login)
		auth.POST("/verify-email", hndls.AuthHandler.VerifyEmail)
		auth.POST("/resend-verification", hndls.AuthHandler.ResendVerification)
		auth.POST("/refresh", hndls.AuthHandler.RefreshToken)
	}

	// Authenticated routes that must work before a profile exists: the
	// provisioning endpoint itself, and the profile probe the client uses
	// to decide whether setup is complete.
	authed := api.Group("/")
	authed.Use(middlewares.JWTMiddleware.AuthRequired())
	{
		authed.POST("/create-organization", hndls.OrganizationHandler.CreateOrganization)
		authed.GET("/profile", hndls.AuthHandler.GetProfile)
	}

	// Tenant-scoped routes require a complete profile.
	protected := api.Group("/")
	protected.Use(middlewares.JWTMiddleware.AuthRequired())
	protected.Use(middlewares.TenantMiddleware.RequireProfile())
	protected.Use(middlewares.TenantMiddleware.EnforceTenantIsolation())
	{
		protected.GET("/organization", hndls.OrganizationHandler.GetOrganization)

		protected.GET("/form-config", hndls.FormConfigHandler.GetConfig)
		protected.POST("/form-config", hndls.FormConfigHandler.SaveConfig)

		clients := protected.Group("/clients")
		{
			clients.POST("", hndls.ClientHandler.CreateClient)
			clients.GET("", hndls.ClientHandler.ListClients)
			clients.GET("/:id", hndls.ClientHandler.GetClient)
			clients.PUT("/:id", hndls.ClientHandler.UpdateClient)
			clients.DELETE("/:id", hndls.ClientHandler.DeleteClient)

			clients.POST("/:id/buckets", hndls.BucketHandler.CreateBucket)
			clients.GET("/:id/buckets", hndls.BucketHandler.ListBuckets)
		}

		buckets := protected.Group("/buckets")
		{
			buckets.GET("/:bucketId", hndls.BucketHandler.GetBucket)
			buckets.POST("/:bucketId/transactions", hndls.BucketHandler.RecordTransaction)
		}

		// Admin endpoints (admin role required)
		admin := protected.Group("/admin")
		admin.Use(middlewares.JWTMiddleware.AdminRequired())
		{
			admin.GET("/organizations", hndls.AdminHandler.ListOrganizations)
			admin.GET("/organizations/orphans", hndls.AdminHandler.ListOrphanOrganizations)
			admin.GET("/users", hndls.AdminHandler.ListUsers)
		}
	}

	return router
}
