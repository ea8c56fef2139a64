package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/moodjournal-backend/internal/db"
	"github.com/yungbote/moodjournal-backend/internal/handlers"
	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/observability"
	"github.com/yungbote/moodjournal-backend/internal/repos"
	"github.com/yungbote/moodjournal-backend/internal/semindex"
	"github.com/yungbote/moodjournal-backend/internal/semindex/memory"
	"github.com/yungbote/moodjournal-backend/internal/semindex/qdrant"
	"github.com/yungbote/moodjournal-backend/internal/server"
	"github.com/yungbote/moodjournal-backend/internal/services"
	"github.com/yungbote/moodjournal-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "moodjournal-backend",
		Environment: logMode,
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	moodEntryRepo := repos.NewMoodEntryRepo(theDB, log)

	// Services
	log.Info("Setting up services...")
	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}

	// Semantic index: qdrant when configured, in-memory otherwise. The
	// journal tolerates index failures either way.
	var index semindex.Index
	if os.Getenv("QDRANT_URL") != "" {
		cfg, err := qdrant.ResolveConfigFromEnv()
		if err != nil {
			log.Error("Invalid qdrant config", "error", err)
			os.Exit(1)
		}
		index, err = qdrant.NewStore(log, cfg, aiClient)
		if err != nil {
			log.Error("Could not init qdrant index", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("QDRANT_URL not set, falling back to in-memory semantic index")
		index = memory.NewStorage(log, aiClient)
	}

	generator := services.NewStoryActivityGenerator(log, aiClient)
	ragGenerator := services.NewRAGGenerator(log, aiClient, index)
	musicRecommender := services.NewMusicRecommender(log)
	journalService := services.NewJournalService(log, moodEntryRepo, index)

	// Handlers
	log.Info("Setting up handlers...")
	generateHandler := handlers.NewGenerateHandler(log, generator, ragGenerator, musicRecommender, journalService)
	journalHandler := handlers.NewJournalHandler(log, journalService)
	musicHandler := handlers.NewMusicHandler(log, musicRecommender)

	// Router
	router := server.NewRouter(server.RouterConfig{
		GenerateHandler: generateHandler,
		JournalHandler:  journalHandler,
		MusicHandler:    musicHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
