package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "taskdeck/docs"
	"taskdeck/internal/config"
	"taskdeck/internal/handlers"
	"taskdeck/internal/pdf"
	"taskdeck/internal/provider"
	"taskdeck/internal/repositories"
	"taskdeck/internal/routes"
	"taskdeck/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	taskRepo := repositories.NewTaskRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// === Provider ===
	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token, cfg.Provider.DryRun)

	// === Services ===
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, nil)
	taskService := services.NewTaskService(taskRepo, providerClient, nil)

	reportGen := pdf.NewReportGenerator(cfg.Reports.RootDir)
	reportService := services.NewReportService(taskRepo, reportGen, nil)

	notifier := services.NewNotifierService(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DigestTo,
	)

	sweep := services.NewSweepService(taskRepo, taskService, notifier, nil)
	if cfg.Sweep.Enabled {
		if err := sweep.Start(cfg.Sweep.Schedule); err != nil {
			log.Fatal("failed to start sweep: ", err)
		}
		defer sweep.Stop()
	}

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	reportHandler := handlers.NewReportHandler(reportService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authService, authHandler, taskHandler, reportHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
