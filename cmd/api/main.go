package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/handlers"
	"github.com/storyforge/storyforge/internal/logger"
	"github.com/storyforge/storyforge/internal/middleware"
	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting StoryForge API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"storage_backend", cfg.StorageBackend)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, log)
		log.Info("Using OpenAI LLM provider")
	case "anthropic":
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	case "mock":
		// Deterministic canned responses, for local frontend work.
		llmService = services.NewMockLLMService()
		log.Warn("Using mock LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"openai", "anthropic", "mock"})
		os.Exit(1)
	}

	var store storage.Storage
	switch strings.ToLower(cfg.StorageBackend) {
	case "redis":
		store = storage.NewRedisStore(cfg.RedisURL, log)
	default:
		store, err = storage.NewFileStore(cfg.DataDir, log)
		if err != nil {
			log.Error("Failed to open data directory", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	generator, err := services.NewGenerator(llmService, log)
	if err != nil {
		log.Error("Failed to load generation schemas", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	projectsHandler := handlers.NewProjectsHandler(store, log)
	mux.Handle("/v1/projects", projectsHandler)
	mux.Handle("/v1/projects/", projectsHandler)

	contextHandler := handlers.NewContextHandler(store, log)
	mux.Handle("/v1/context", contextHandler)
	mux.Handle("/v1/context/", contextHandler)

	mux.Handle("/v1/background/", handlers.NewBackgroundHandler(store, generator, log))
	mux.Handle("/v1/chain/", handlers.NewChainHandler(store, generator, log))
	mux.Handle("/v1/scene/", handlers.NewSceneHandler(store, generator, log))

	charactersHandler := handlers.NewCharactersHandler(store, generator, log)
	mux.Handle("/v1/characters", charactersHandler)
	mux.Handle("/v1/characters/", charactersHandler)

	sheetsHandler := handlers.NewSheetsHandler(store, log)
	mux.Handle("/v1/sheets", sheetsHandler)
	mux.Handle("/v1/sheets/", sheetsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation requests wait on the LLM
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
