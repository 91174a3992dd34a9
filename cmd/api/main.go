package main

import (
	"log"
	"os"

	_ "erpledger/api/swagger" // swagger docs
	"erpledger/internal/database"
	"erpledger/internal/handler"
	"erpledger/internal/middleware"
	"erpledger/internal/repository"
	"erpledger/internal/service"
	"erpledger/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ERP Ledger API
// @version         1.0
// @description     Construction ERP backend: projects, BOQs, sales and purchase orders, invoicing and expenses.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	boqRepo := repository.NewBOQRepository(db)
	salesOrderRepo := repository.NewSalesOrderRepository(db)
	purchaseOrderRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	userService := service.NewUserService(userRepo)
	projectService := service.NewProjectService(projectRepo, auditService)
	partnerService := service.NewPartnerService(partnerRepo, auditService)
	taxService := service.NewTaxService(taxRuleRepo, auditService)
	boqService := service.NewBOQService(boqRepo, projectRepo, txManager, auditService, wsHub)
	salesOrderService := service.NewSalesOrderService(salesOrderRepo, partnerRepo, projectRepo, taxService, txManager, auditService, wsHub)
	purchaseOrderService := service.NewPurchaseOrderService(purchaseOrderRepo, partnerRepo, projectRepo, txManager, auditService, wsHub)
	invoiceService := service.NewInvoiceService(invoiceRepo, paymentRepo, salesOrderRepo, txManager, auditService, wsHub)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, partnerRepo, auditService)
	dashboardService := service.NewDashboardService(db)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	boqHandler := handler.NewBOQHandler(boqService)
	salesOrderHandler := handler.NewSalesOrderHandler(salesOrderService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	taxHandler := handler.NewTaxHandler(taxService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	projectHandler.RegisterRoutes(root)
	partnerHandler.RegisterRoutes(root)
	boqHandler.RegisterRoutes(root)
	salesOrderHandler.RegisterRoutes(root)
	purchaseOrderHandler.RegisterRoutes(root)
	invoiceHandler.RegisterRoutes(root)
	expenseHandler.RegisterRoutes(root)
	taxHandler.RegisterRoutes(root)
	dashboardHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
