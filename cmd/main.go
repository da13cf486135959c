package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"salonhub/internal/analytics"
	"salonhub/internal/caching"
	"salonhub/internal/common"
	"salonhub/internal/config"
	"salonhub/internal/handlers"
	"salonhub/internal/jobs"
	"salonhub/internal/jobs/background"
	"salonhub/internal/logging"
	"salonhub/internal/metrics"
	"salonhub/internal/middleware"
	"salonhub/internal/models"
	"salonhub/internal/repositories"
	"salonhub/internal/services"
	"salonhub/pkg/database"
)

const version = "1.0.0"

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment())

	if cfg.AutoMigrate || *migrateOnly {
		if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		if *migrateOnly {
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	minioSvc, err := services.NewMinioService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
	if err != nil {
		return err
	}
	if err := minioSvc.EnsureBucket(ctx); err != nil {
		// Uploads fail until storage is reachable; everything else keeps working.
		logger.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("object storage unavailable")
	}

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	clk := clock.WallClock

	// Create repositories
	tx := repositories.NewTransactor(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	stylistRepo := repositories.NewStylistRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	serviceRepo := repositories.NewServiceRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create services
	auditSvc := services.NewAuditLogsService(auditLogRepo, clk)
	authSvc := services.NewAuthService(tx, tenantRepo, userRepo, cacheSvc, clk, services.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		AccessTTL:       cfg.JWTAccessTTL,
		RefreshTTL:      cfg.JWTRefreshTTL,
		LoginAttempts:   cfg.RateLimitLogin,
		LoginRateWindow: cfg.RateLimitWindow,
	})
	tenantSvc := services.NewTenantService(tenantRepo, cacheSvc)
	userSvc := services.NewUserService(tx, userRepo, stylistRepo, clk)
	clientSvc := services.NewClientService(clientRepo, appointmentRepo, orderRepo, clk)
	stylistSvc := services.NewStylistService(tx, stylistRepo, appointmentRepo, minioSvc, clk)
	catalogSvc := services.NewCatalogService(categoryRepo, serviceRepo, clk)
	availabilitySvc := services.NewAvailabilityService(tenantRepo, stylistRepo, serviceRepo, appointmentRepo, clk)
	appointmentSvc := services.NewAppointmentService(tx, tenantRepo, clientRepo, stylistRepo, serviceRepo, appointmentRepo, auditSvc, cacheSvc, clk)
	productSvc := services.NewProductService(tx, productRepo, categoryRepo, auditSvc, minioSvc, clk)
	orderSvc := services.NewOrderService(tx, orderRepo, productRepo, tenantRepo, clientRepo, appointmentRepo, auditSvc, cacheSvc, clk)
	reportSvc := analytics.NewReportService(tenantRepo, appointmentRepo, orderRepo, clientRepo, productRepo, cacheSvc, cfg.ReportCacheTTL, clk)

	// Background jobs
	scheduler, err := background.NewJobScheduler(
		background.DefaultIntervals(cfg.DepositSweepInterval),
		jobs.NewAppointmentSweepService(tenantRepo, appointmentSvc, cfg.ReminderLeadTime, logger),
		jobs.NewInventoryAlertService(tenantRepo, productRepo, logger),
		jobs.NewAnalyticsRefreshService(tenantRepo, reportSvc, logger),
		clk, logger,
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	stylistHandlers := handlers.NewStylistHandlers(stylistSvc)
	serviceCategoryHandlers := handlers.NewCategoryHandlers(catalogSvc, models.CategoryKindService)
	productCategoryHandlers := handlers.NewCategoryHandlers(catalogSvc, models.CategoryKindProduct)
	serviceHandlers := handlers.NewServiceHandlers(catalogSvc)
	availabilityHandlers := handlers.NewAvailabilityHandlers(availabilitySvc)
	appointmentHandlers := handlers.NewAppointmentHandlers(appointmentSvc, tenantSvc)
	productHandlers := handlers.NewProductHandlers(productSvc)
	orderHandlers := handlers.NewOrderHandlers(orderSvc, tenantSvc)
	reportHandlers := handlers.NewReportHandlers(reportSvc, tenantSvc)
	auditLogsHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, minioSvc, clk, version)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()

	// Global middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestLogger(logger))
	e.Use(metrics.Middleware())

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health and metrics (no auth required)
	e.GET("/health", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Protected routes; staff is the floor, stricter routes add RequireRole.
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(cfg.JWTSecret)))
	protected.Use(middleware.RequireIdentity())
	manager := middleware.RequireRole(models.RoleManager)
	owner := middleware.RequireRole(models.RoleOwner)
	// admin writes that no service audits itself
	audit := middleware.NewAuditMiddleware(auditSvc)

	protected.GET("/me", authHandlers.Me)

	protected.GET("/business", tenantHandlers.GetBusiness)
	protected.PUT("/business", tenantHandlers.UpdateBusiness, owner, audit.AuditWrite(models.EntityBusiness))

	protected.GET("/users", userHandlers.ListUsers, manager)
	protected.POST("/users", userHandlers.CreateUser, manager, audit.AuditWrite(models.EntityUser))
	protected.GET("/users/:id", userHandlers.GetUser, manager)
	protected.PUT("/users/:id", userHandlers.UpdateUser, manager, audit.AuditWrite(models.EntityUser))
	protected.DELETE("/users/:id", userHandlers.DeleteUser, manager, audit.AuditWrite(models.EntityUser))
	protected.PUT("/users/:id/password", userHandlers.ChangePassword)

	protected.GET("/clients", clientHandlers.ListClients)
	protected.POST("/clients", clientHandlers.CreateClient)
	protected.GET("/clients/:id", clientHandlers.GetClient)
	protected.PUT("/clients/:id", clientHandlers.UpdateClient)
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient)
	protected.GET("/clients/:id/history", clientHandlers.ClientHistory)

	protected.GET("/stylists", stylistHandlers.ListStylists)
	protected.POST("/stylists", stylistHandlers.CreateStylist, manager, audit.AuditWrite(models.EntityStylist))
	protected.GET("/stylists/:id", stylistHandlers.GetStylist)
	protected.PUT("/stylists/:id", stylistHandlers.UpdateStylist, manager, audit.AuditWrite(models.EntityStylist))
	protected.DELETE("/stylists/:id", stylistHandlers.DeleteStylist, manager, audit.AuditWrite(models.EntityStylist))
	protected.GET("/stylists/:id/schedule", stylistHandlers.GetSchedule)
	protected.PUT("/stylists/:id/schedule", stylistHandlers.ReplaceSchedule, manager, audit.AuditWrite(models.EntityStylist))
	protected.POST("/stylists/:id/photo", stylistHandlers.UploadPhoto, manager, audit.AuditWrite(models.EntityStylist))

	registerCategoryRoutes(protected, "/service-categories", serviceCategoryHandlers, manager, audit.AuditWrite(models.EntityServiceCategory))
	registerCategoryRoutes(protected, "/product-categories", productCategoryHandlers, manager, audit.AuditWrite(models.EntityProductCategory))

	protected.GET("/services", serviceHandlers.ListServices)
	protected.POST("/services", serviceHandlers.CreateService, manager, audit.AuditWrite(models.EntityService))
	protected.GET("/services/:id", serviceHandlers.GetService)
	protected.PUT("/services/:id", serviceHandlers.UpdateService, manager, audit.AuditWrite(models.EntityService))
	protected.DELETE("/services/:id", serviceHandlers.DeleteService, manager, audit.AuditWrite(models.EntityService))

	protected.GET("/availability", availabilityHandlers.FindSlots)

	protected.GET("/appointments", appointmentHandlers.ListAppointments)
	protected.POST("/appointments", appointmentHandlers.BookAppointment)
	protected.GET("/appointments/:id", appointmentHandlers.GetAppointment)
	protected.PUT("/appointments/:id", appointmentHandlers.RescheduleAppointment)
	protected.DELETE("/appointments/:id", appointmentHandlers.DeleteAppointment, manager)
	protected.POST("/appointments/:id/confirm", appointmentHandlers.ConfirmAppointment)
	protected.POST("/appointments/:id/complete", appointmentHandlers.CompleteAppointment)
	protected.POST("/appointments/:id/cancel", appointmentHandlers.CancelAppointment)
	protected.POST("/appointments/:id/no-show", appointmentHandlers.NoShowAppointment)
	protected.POST("/appointments/:id/deposit/received", appointmentHandlers.DepositReceived)
	protected.POST("/appointments/:id/deposit/waived", appointmentHandlers.DepositWaived, manager)
	protected.POST("/appointments/:id/deposit/rejected", appointmentHandlers.DepositRejected)
	protected.GET("/deposits/pending", appointmentHandlers.ListPendingDeposits)

	protected.GET("/products", productHandlers.ListProducts)
	protected.POST("/products", productHandlers.CreateProduct, manager, audit.AuditWrite(models.EntityProduct))
	protected.GET("/products/:id", productHandlers.GetProduct)
	protected.PUT("/products/:id", productHandlers.UpdateProduct, manager, audit.AuditWrite(models.EntityProduct))
	protected.DELETE("/products/:id", productHandlers.DeleteProduct, manager, audit.AuditWrite(models.EntityProduct))
	protected.POST("/products/:id/stock", productHandlers.AdjustStock, manager)
	protected.GET("/products/:id/stock-movements", productHandlers.ListStockMovements)
	protected.POST("/products/:id/image", productHandlers.UploadImage, manager, audit.AuditWrite(models.EntityProduct))

	protected.GET("/orders", orderHandlers.ListOrders)
	protected.POST("/orders", orderHandlers.CreateOrder)
	protected.GET("/orders/:id", orderHandlers.GetOrder)
	protected.POST("/orders/:id/refund", orderHandlers.RefundOrder, manager)

	reports := protected.Group("/reports", manager)
	reports.GET("/dashboard", reportHandlers.Dashboard)
	reports.GET("/summary", reportHandlers.Summary)
	reports.GET("/summary.csv", reportHandlers.SummaryCSV)
	reports.GET("/summary.pdf", reportHandlers.SummaryPDF)

	protected.GET("/audit-logs", auditLogsHandlers.ListAuditLogs, manager)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("version", version).Str("addr", addr).Msg("salonhub server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func registerCategoryRoutes(g *echo.Group, prefix string, h *handlers.CategoryHandlers, write ...echo.MiddlewareFunc) {
	g.GET(prefix, h.ListCategories)
	g.POST(prefix, h.CreateCategory, write...)
	g.GET(prefix+"/:id", h.GetCategory)
	g.PUT(prefix+"/:id", h.UpdateCategory, write...)
	g.DELETE(prefix+"/:id", h.DeleteCategory, write...)
}
