package main

import (
	"os"

	"triviarcade/config"
	"triviarcade/engine"
	"triviarcade/handlers"
	"triviarcade/logger"
	"triviarcade/middleware"
	"triviarcade/models"
	"triviarcade/monitoring"
	"triviarcade/oracle"
	"triviarcade/routes"
	"triviarcade/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present; real env vars win either way
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger.Init(cfg.Server.Mode)
	defer logger.Log.Sync()

	// "triviarcade console" runs the synchronous terminal game instead of the API
	if len(os.Args) > 1 && os.Args[1] == "console" {
		runConsole(cfg)
		return
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(&models.GameSession{}, &models.AnswerLog{}); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := config.InitRedis(cfg)

	// Wire the engine: Redis checkpoints, gorm session rows, LLM oracle
	checkpoints := engine.NewRedisCheckpointStore(redisClient, cfg.Game.CheckpointTTL)
	gateway := oracle.NewClient(oracle.Config{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
	})
	sessionService := services.NewSessionService(db)
	gameEngine := engine.New(checkpoints, sessionService, gateway, cfg.Game.MaxQuestions)

	hub := services.NewHub()
	go hub.Run()

	gameService := services.NewGameService(gameEngine, sessionService, hub)
	gameHandler := handlers.NewGameHandler(gameService)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(monitoring.MetricsMiddleware())

	routes.SetupRoutes(router, gameHandler, hub)

	logger.Log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Log.Fatal("failed to start server", zap.Error(err))
	}
}
