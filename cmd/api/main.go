package main

import (
	"log"
	"os"

	_ "sosach/api/swagger" // swagger docs
	"sosach/internal/audit"
	"sosach/internal/database"
	"sosach/internal/handler"
	"sosach/internal/middleware"
	"sosach/internal/repository"
	"sosach/internal/scheduler"
	"sosach/internal/service"
	"sosach/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           So Sach API
// @version         1.0
// @description     Record-keeping backend with audit trail, task assignment and deadline reminders.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "sosach")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	bookRepo := repository.NewBookRepository(db)
	txManager := repository.NewTransactionManager(db)

	notificationService := service.NewNotificationService(notificationRepo, wsHub)

	sched := scheduler.New(
		taskRepo,
		notificationRepo,
		userRepo,
		notificationService,
		service.LogEmailSender{},
		service.LogSMSSender{},
		logger.Named("scheduler"),
		nil,
		scheduler.Config{},
	)
	sched.Start()
	defer sched.Stop()

	userService := service.NewUserService(userRepo)
	taskService := service.NewTaskService(taskRepo, notificationService, sched, txManager, nil)
	bookService := service.NewBookService(bookRepo, notificationService, nil)
	referenceService := service.NewReferenceService(db)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(db)

	// Audit trail middleware
	detector := audit.NewDetector(db, logger.Named("audit"))
	interceptor := audit.NewInterceptor(auditRepo, detector, middleware.CurrentUser, logger.Named("audit"), audit.Options{})
	defer interceptor.Wait()

	authMiddleware := middleware.Authenticate(userRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, authMiddleware)
	bookHandler := handler.NewBookHandler(bookService, authMiddleware)
	taskHandler := handler.NewTaskHandler(taskService, sched, authMiddleware)
	notificationHandler := handler.NewNotificationHandler(notificationService, authMiddleware)
	referenceHandler := handler.NewReferenceHandler(referenceService, authMiddleware)
	auditHandler := handler.NewAuditHandler(auditService, authMiddleware)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, authMiddleware)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Every API request passes through the audit trail
	router.Use(interceptor.Middleware())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	bookHandler.RegisterRoutes(router.Group(""))
	taskHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	referenceHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
