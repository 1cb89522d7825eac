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
	"github.com/quickcourt/booking-backend/internal/config"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/handlers"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/pkg/email"
	"github.com/quickcourt/booking-backend/pkg/storage"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	log.SetOutput(logger.Writer())

	logger.Info("Starting QuickCourt booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := database.Migrate(migrateCtx, db); err != nil {
			cancel()
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		cancel()
		logger.Info("Database migrations applied")
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	pendingRepo := database.NewPendingSignupRepository(db)
	facilityRepo := database.NewFacilityRepository(db)
	courtRepo := database.NewCourtRepository(db)
	timeSlotRepo := database.NewTimeSlotRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	statsRepo := database.NewStatsRepository(db)
	auditRepo := database.NewAuditRepository(db)

	// Photo storage
	var store storage.Store
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Store(storage.S3Config{
			Region:    cfg.Storage.S3Region,
			Bucket:    cfg.Storage.S3Bucket,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		})
	default:
		store, err = storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.URLPrefix)
	}
	if err != nil {
		logger.Fatalf("Failed to initialize %s storage: %v", cfg.Storage.Backend, err)
	}

	// Email gateway
	var gateway email.Gateway
	if cfg.Email.Mode == "production" {
		gateway = email.NewSendGridGateway(email.SendGridConfig{
			APIURL:      cfg.Email.APIURL,
			APIKey:      cfg.Email.APIKey,
			SenderEmail: cfg.Email.SenderEmail,
			SenderName:  cfg.Email.SenderName,
		})
		logger.Info("Email gateway: SendGrid")
	} else {
		gateway = email.NewLogGateway(logger)
		logger.Warn("Email gateway: dev mode, OTP codes are logged and returned in responses")
	}

	// Initialize services
	logger.Info("Initializing services...")
	otpService := services.NewOTPService(
		pendingRepo,
		time.Duration(cfg.OTP.ExpiryMinutes)*time.Minute,
		cfg.OTP.MaxAttempts,
	)
	rateLimitService := services.NewRateLimitService(pendingRepo, services.RateLimitConfig{
		MaxEmailRequests: cfg.OTP.RateLimit,
		EmailWindow:      time.Duration(cfg.OTP.RateWindowMinutes) * time.Minute,
		MaxIPRequests:    cfg.OTP.IPRateLimit,
		IPWindow:         time.Duration(cfg.OTP.RateWindowMinutes) * time.Minute,
	})
	authService := services.NewAuthService(
		userRepo,
		pendingRepo,
		otpService,
		rateLimitService,
		gateway,
		services.AuthServiceConfig{
			BcryptCost: cfg.Security.BcryptCost,
			DevMode:    cfg.Email.Mode != "production",
		},
		logger,
	)
	auditService := services.NewAuditService(auditRepo)
	bookingService := services.NewBookingService(bookingRepo, facilityRepo, logger)
	facilityService := services.NewFacilityService(facilityRepo, store, services.FacilityConfig{
		AllowedCities:     cfg.Booking.AllowedCities,
		DefaultHourlyRate: cfg.Booking.DefaultHourlyRate,
	}, logger)
	reviewService := services.NewReviewService(reviewRepo)

	// Handlers get a nil audit service when audit logging is off
	handlerAudit := auditService
	if !cfg.Security.EnableAuditLog {
		handlerAudit = nil
		logger.Warn("Audit logging disabled")
	}

	var cronService *services.CronService
	if cfg.Cron.Enabled {
		cronService = services.NewCronService(
			otpService,
			bookingService,
			auditService,
			time.Duration(cfg.Cron.AuditRetentionDays)*24*time.Hour,
			logger,
		)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	logger.Info("Services initialized successfully")

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, version)
	authHandler := handlers.NewAuthHandler(authService, handlerAudit)
	userHandler := handlers.NewUserHandler(authService, userRepo, handlerAudit)
	adminHandler := handlers.NewAdminHandler(statsRepo, userRepo, facilityService, cronService, handlerAudit)
	facilityHandler := handlers.NewFacilityHandler(facilityService, cfg.Storage.MaxUploadMB)
	courtHandler := handlers.NewCourtHandler(courtRepo, facilityRepo)
	timeSlotHandler := handlers.NewTimeSlotHandler(
		timeSlotRepo,
		courtRepo,
		facilityRepo,
		cfg.Booking.SlotOpenHour,
		cfg.Booking.SlotCloseHour,
	)
	bookingHandler := handlers.NewBookingHandler(bookingService, courtRepo, facilityRepo, handlerAudit)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = int64(cfg.Storage.MaxUploadMB) << 20

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Caller identity from X-User-ID
	router.Use(middleware.Identify(userRepo))
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/health/db", healthHandler.Database)

	if cfg.Storage.Backend != "s3" {
		router.Static(cfg.Storage.URLPrefix, cfg.Storage.UploadDir)
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/resend-otp", authHandler.ResendOTP)
			auth.POST("/login", authHandler.Login)
			auth.GET("/check-email-status", authHandler.CheckEmailStatus)
		}

		users := v1.Group("/users")
		users.Use(middleware.RequireUser())
		{
			users.GET("", middleware.RequireRole(models.RoleAdmin, models.RoleFacilityOwner), userHandler.ListUsers)
			users.GET("/profile", userHandler.GetProfile)
			users.POST("/profile", userHandler.UpdateProfile)
			users.POST("/change-password", userHandler.ChangePassword)
		}
		v1.GET("/facility-owners", middleware.RequireRole(models.RoleAdmin), userHandler.ListFacilityOwners)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/facilities", adminHandler.ListFacilities)
			admin.POST("/facilities/:id/approve", adminHandler.ApproveFacility)
			admin.GET("/cron", adminHandler.GetCronStatus)

			admin.POST("/cron/complete-bookings", func(c *gin.Context) {
				if cronService == nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cron_disabled", "message": "Cron service is disabled"})
					return
				}
				cronService.RunCompletePastBookingsNow()
				c.JSON(http.StatusOK, gin.H{"message": "Booking completion triggered"})
			})
		}

		facilities := v1.Group("/facilities")
		{
			facilities.GET("", facilityHandler.ListFacilities)
			facilities.GET("/my", middleware.RequireRole(models.RoleFacilityOwner), facilityHandler.ListMyFacilities)
			facilities.GET("/:id", facilityHandler.GetFacility)
			facilities.POST("", middleware.RequireRole(models.RoleFacilityOwner), facilityHandler.CreateFacility)
			facilities.PUT("/:id", middleware.RequireUser(), middleware.RequireFacilityOwnership(facilityRepo), facilityHandler.UpdateFacility)
			facilities.DELETE("/:id", middleware.RequireUser(), middleware.RequireFacilityOwnership(facilityRepo), facilityHandler.DeleteFacility)
		}
		v1.GET("/facility-courts", facilityHandler.ListFacilityCourts)

		courts := v1.Group("/courts")
		{
			courts.GET("", courtHandler.ListCourts)

			manage := courts.Group("")
			manage.Use(middleware.RequireRole(models.RoleFacilityOwner, models.RoleAdmin))
			manage.POST("", courtHandler.CreateCourt)
			manage.PUT("/:id", courtHandler.UpdateCourt)
			manage.DELETE("/:id", courtHandler.DeleteCourt)
		}

		timeSlots := v1.Group("/time-slots")
		{
			timeSlots.GET("", timeSlotHandler.ListTimeSlots)

			manage := timeSlots.Group("")
			manage.Use(middleware.RequireRole(models.RoleFacilityOwner, models.RoleAdmin))
			manage.POST("", timeSlotHandler.CreateTimeSlot)
			manage.PUT("/:id", timeSlotHandler.UpdateTimeSlot)
			manage.POST("/bulk-update", timeSlotHandler.BulkUpdateTimeSlots)

			timeSlots.POST("/clear", middleware.RequireRole(models.RoleAdmin), timeSlotHandler.ClearTimeSlots)
			timeSlots.POST("/initialize", middleware.RequireRole(models.RoleAdmin), timeSlotHandler.InitializeTimeSlots)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("/check-conflict", bookingHandler.CheckConflict)

			caller := bookings.Group("")
			caller.Use(middleware.RequireUser())
			caller.GET("", bookingHandler.ListMyBookings)
			caller.POST("", bookingHandler.CreateBooking)
			caller.PUT("/:id", bookingHandler.UpdateBooking)
			caller.POST("/:id/cancel", bookingHandler.CancelBooking)
			caller.GET("/stats", middleware.RequireRole(models.RoleFacilityOwner, models.RoleAdmin), bookingHandler.GetFacilityStats)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.GET("/facility/:id", reviewHandler.ListFacilityReviews)
			reviews.GET("/facility/:id/stats", reviewHandler.GetFacilityReviewStats)
			reviews.POST("", middleware.RequireUser(), reviewHandler.CreateReview)
			reviews.GET("/can-review/:id", middleware.RequireUser(), reviewHandler.CanReview)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   path,
			"ip":     c.ClientIP(),
		}).Debug("Incoming request")

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}
