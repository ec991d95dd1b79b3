package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"captable/internal/config"
	"captable/internal/database"
	"captable/internal/events"
	"captable/internal/handlers"
	"captable/internal/logger"
	"captable/internal/middleware"
	"captable/internal/services"
	"captable/internal/validator"
)

// @title           Cap Table API
// @version         1.0
// @description     Transactional cap-table management: share classes, shareholders, ownership-changing transactions, option vesting, snapshots, and analytics.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	dispatcher := events.NewDispatcher()
	companyService := services.NewCompanyService(db)
	shareholderService := services.NewShareholderService(db, companyService)
	shareClassService := services.NewShareClassService(db, companyService)
	capTableService := services.NewCapTableService(db, companyService)
	transactionService := services.NewTransactionService(db, companyService, capTableService, dispatcher)
	optionGrantService := services.NewOptionGrantService(db, companyService)
	snapshotService := services.NewSnapshotService(db, companyService)
	auditService := services.NewAuditService(db)
	notifier := services.NewLogNotifier()

	// Side effects of confirmed transactions: snapshot capture and a
	// notification to the transaction's creator.
	dispatcher.Subscribe(events.TransactionConfirmed, snapshotService.HandleTransactionConfirmed)
	dispatcher.Subscribe(events.TransactionConfirmed, func(evt events.Event) error {
		notifier.Notify(evt.ActorID, "Transaction confirmed",
			fmt.Sprintf("Transaction %s has been confirmed", evt.TransactionID))
		return nil
	})
	defer dispatcher.Wait()

	// Initialize handlers
	companyHandler := handlers.NewCompanyHandler(companyService, auditService)
	shareholderHandler := handlers.NewShareholderHandler(shareholderService, auditService)
	shareClassHandler := handlers.NewShareClassHandler(shareClassService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	capTableHandler := handlers.NewCapTableHandler(capTableService, auditService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, auditService)
	optionGrantHandler := handlers.NewOptionGrantHandler(optionGrantService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group, all routes behind authentication
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	companies := v1.Group("/companies")
	companies.POST("", companyHandler.CreateCompany)
	companies.GET("/:companyId", companyHandler.GetCompany)
	companies.PATCH("/:companyId/status", companyHandler.UpdateCompanyStatus)

	shareholders := companies.Group("/:companyId/shareholders")
	shareholders.POST("", shareholderHandler.CreateShareholder)
	shareholders.GET("", shareholderHandler.GetShareholders)
	shareholders.GET("/:id", shareholderHandler.GetShareholderByID)
	shareholders.PATCH("/:id/status", shareholderHandler.UpdateShareholderStatus)

	shareClasses := companies.Group("/:companyId/share-classes")
	shareClasses.POST("", shareClassHandler.CreateShareClass)
	shareClasses.GET("", shareClassHandler.GetShareClasses)
	shareClasses.GET("/:id", shareClassHandler.GetShareClassByID)

	transactions := companies.Group("/:companyId/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.POST("/:id/submit", transactionHandler.SubmitTransaction)
	transactions.POST("/:id/approve", transactionHandler.ApproveTransaction)
	transactions.POST("/:id/confirm", transactionHandler.ConfirmTransaction)
	transactions.POST("/:id/cancel", transactionHandler.CancelTransaction)

	capTable := companies.Group("/:companyId/cap-table")
	capTable.GET("", capTableHandler.GetCapTable)
	capTable.GET("/fully-diluted", capTableHandler.GetFullyDiluted)
	capTable.GET("/export", capTableHandler.ExportCapTable)
	capTable.GET("/concentration", capTableHandler.GetConcentrationReport)

	snapshots := companies.Group("/:companyId/snapshots")
	snapshots.POST("", snapshotHandler.CreateSnapshot)
	snapshots.GET("", snapshotHandler.GetSnapshots)
	snapshots.GET("/at", snapshotHandler.GetSnapshotAtDate)
	snapshots.GET("/timeline", snapshotHandler.GetDilutionTimeline)

	grants := companies.Group("/:companyId/grants")
	grants.POST("", optionGrantHandler.CreateGrant)
	grants.GET("", optionGrantHandler.GetGrants)
	grants.GET("/:id/vesting", optionGrantHandler.GetVestingSummary)
	grants.POST("/:id/exercise", optionGrantHandler.ExerciseGrant)

	log.Infof("Starting cap table API server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
