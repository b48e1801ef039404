package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizforge/internal/adapter"
	"quizforge/internal/adapter/llm"
	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/handler"
	"quizforge/internal/logger"
	"quizforge/internal/middleware"
	"quizforge/internal/quizgen"
	"quizforge/internal/repository"
	"quizforge/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	generator, err := newTextGenerator(cfg)
	if err != nil {
		log.Fatal("Failed to initialize LLM provider", zap.Error(err))
	}
	log.Info("LLM provider initialized", zap.String("provider", cfg.LLM.Provider))

	client := quizgen.NewClient(generator, cfg.Generation.MaxRetries)
	orchestrator := quizgen.NewOrchestrator(client)

	// Redis is optional: without it results are simply regenerated.
	var resultCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, result caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			resultCache = adapter.NewRedisCacheAdapter(redisClient)
			log.Info("Result cache enabled", zap.String("address", cfg.Redis.Address))
		}
	}

	// The archive is optional too: an empty path disables persistence.
	var archive domain.QuizArchive
	if cfg.Archive.Path != "" {
		db, err := repository.NewSQLiteDB(cfg.Archive.Path)
		if err != nil {
			log.Fatal("Failed to open quiz archive", zap.Error(err))
		}
		defer db.Close()
		archive = repository.NewArchiveDatabaseAdapter(db)
		log.Info("Quiz archive enabled", zap.String("path", cfg.Archive.Path))
	}

	defaults := domain.GenerationOptions{
		MaxMCQ:               cfg.Generation.MaxMCQ,
		MaxShort:             cfg.Generation.MaxShort,
		SingleCallTokenLimit: cfg.Generation.SingleCallTokenLimit,
		ChunkTargetTokens:    cfg.Generation.ChunkTargetTokens,
		PerChunkMCQ:          cfg.Generation.PerChunkMCQ,
		PerChunkShort:        cfg.Generation.PerChunkShort,
		MapConcurrency:       cfg.Generation.MapConcurrency,
		Temperature:          cfg.Generation.Temperature,
	}

	quizService := service.NewQuizService(orchestrator, resultCache, archive, defaults, cfg.Cache.ResultTTL)
	jobService := service.NewJobService(quizService, 10*time.Minute)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler.NewQuizHandler(quizService, jobService).RegisterRoutes(app)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("Server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := jobService.Shutdown(shutdownCtx); err != nil {
		log.Warn("Jobs still running at shutdown", zap.Error(err))
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

func newTextGenerator(cfg *config.Config) (domain.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAITextGenerator(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model)
	case "ollama":
		return llm.NewOllamaTextGenerator(cfg.LLM.Ollama.ServerURL, cfg.LLM.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}
