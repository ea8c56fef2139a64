package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/moodjournal-backend/internal/db"
	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/repos"
	"github.com/yungbote/moodjournal-backend/internal/semindex/qdrant"
	"github.com/yungbote/moodjournal-backend/internal/services"
)

// Re-mirrors journal rows into the semantic index. Index writes during
// normal operation are best-effort, so the index can miss entries; this tool
// reconciles it from the relational source of truth.
func main() {
	limit := flag.Int("limit", 100, "maximum number of entries to backfill")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	moodEntryRepo := repos.NewMoodEntryRepo(dbService.DB(), log)

	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}
	cfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		log.Error("Invalid qdrant config", "error", err)
		os.Exit(1)
	}
	index, err := qdrant.NewStore(log, cfg, aiClient)
	if err != nil {
		log.Error("Could not init qdrant index", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	entries, err := moodEntryRepo.ListRecent(ctx, nil, *limit, "")
	if err != nil {
		log.Error("Failed to read journal entries", "error", err)
		os.Exit(1)
	}
	log.Info("Backfilling semantic index", "entries", len(entries))

	failed := 0
	for _, entry := range entries {
		doc := services.MirrorDocument(entry)
		if err := index.Upsert(ctx, doc); err != nil {
			log.Warn("Failed to backfill entry", "uid", doc.ID, "error", err)
			failed++
			continue
		}
		log.Info("Backfilled entry", "uid", doc.ID)
	}

	log.Info("Backfill complete", "migrated", len(entries)-failed, "failed", failed)
}
