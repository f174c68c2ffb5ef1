package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "erp/api/swagger" // swagger docs
	"erp/internal/config"
	"erp/internal/database"
	"erp/internal/handler"
	"erp/internal/logger"
	"erp/internal/middleware"
	"erp/internal/repository"
	"erp/internal/service"
	"erp/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           ERP API
// @version         1.0
// @description     Back office API: partners, stock, sales and performa invoices, purchases, payments and finance reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("configs/.env not loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to PostgreSQL")

	middleware.InitAuth(cfg.JWTSecret, cfg.IsRelease())

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	numberer := repository.NewDocumentNumberer(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	stockRepo := repository.NewStockRepository(db)
	ledgerRepo := repository.NewInventoryTxRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	performaRepo := repository.NewPerformaRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	bankRepo := repository.NewBankRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)

	// Services
	guard := service.NewStockGuard(stockRepo, ledgerRepo, txManager)
	userService := service.NewUserService(userRepo, auditRepo, cfg.JWTSecret)
	partnerService := service.NewPartnerService(partnerRepo, auditRepo, txManager)
	stockService := service.NewStockService(stockRepo, ledgerRepo, auditRepo, guard, txManager, wsHub, cfg.LowStockThreshold)
	invoiceService := service.NewInvoiceService(invoiceRepo, partnerRepo, stockRepo, auditRepo, numberer, guard, txManager, wsHub)
	performaService := service.NewPerformaService(performaRepo, invoiceRepo, partnerRepo, stockRepo, auditRepo, numberer, guard, txManager, wsHub)
	purchaseService := service.NewPurchaseService(purchaseRepo, partnerRepo, auditRepo, numberer, guard, txManager, wsHub)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, auditRepo, txManager, wsHub)
	expenseService := service.NewExpenseService(expenseRepo, partnerRepo, auditRepo, txManager)
	bankService := service.NewBankService(bankRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo)
	revenueService := service.NewRevenueService(revenueRepo)

	if cfg.AdminEmail != "" {
		created, err := userService.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("admin bootstrap failed")
		}
		if created {
			log.Info().Str("email", cfg.AdminEmail).Msg("bootstrap admin created")
		}
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthCheck(db))
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	api := router.Group("")
	handler.NewUserHandler(userService).RegisterRoutes(api)
	handler.NewPartnerHandler(partnerService).RegisterRoutes(api)
	handler.NewStockHandler(stockService).RegisterRoutes(api)
	handler.NewInvoiceHandler(invoiceService).RegisterRoutes(api)
	handler.NewPerformaHandler(performaService).RegisterRoutes(api)
	handler.NewPurchaseHandler(purchaseService).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(api)
	handler.NewExpenseHandler(expenseService).RegisterRoutes(api)
	handler.NewBankHandler(bankService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewStatisticsHandler(statisticsService, revenueService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	wsHub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	}
}
