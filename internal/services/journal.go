package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/repos"
	"github.com/yungbote/moodjournal-backend/internal/semindex"
	"github.com/yungbote/moodjournal-backend/internal/types"
)

const indexDateLayout = "2006-01-02 15:04:05"

// JournalService persists mood entries and mirrors them into the semantic
// index. The relational row is the durable source of truth; the index write
// is best-effort and may lag (cmd/backfill_index reconciles the two).
type JournalService interface {
	SaveEntry(ctx context.Context, moodText, storyTheme, activityTheme string, musicSummary *string) (*types.MoodEntry, error)
	ListRecent(ctx context.Context, limit int, moodFilter string) ([]*types.MoodEntry, error)
}

type journalService struct {
	log       *logger.Logger
	entryRepo repos.MoodEntryRepo
	index     semindex.Index
}

func NewJournalService(log *logger.Logger, entryRepo repos.MoodEntryRepo, index semindex.Index) JournalService {
	return &journalService{
		log:       log.With("service", "JournalService"),
		entryRepo: entryRepo,
		index:     index,
	}
}

func (s *journalService) SaveEntry(ctx context.Context, moodText, storyTheme, activityTheme string, musicSummary *string) (*types.MoodEntry, error) {
	if strings.TrimSpace(moodText) == "" {
		return nil, fmt.Errorf("mood text is required")
	}

	entry, err := s.entryRepo.Create(ctx, nil, &types.MoodEntry{
		MoodText:      moodText,
		StoryTheme:    storyTheme,
		ActivityTheme: activityTheme,
		MusicSummary:  musicSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("insert mood entry: %w", err)
	}

	if err := s.index.Upsert(ctx, MirrorDocument(entry)); err != nil {
		s.log.Warn("Failed to mirror entry to semantic index, continuing",
			"mood_id", entry.MoodID,
			"error", err,
		)
	}

	return entry, nil
}

func (s *journalService) ListRecent(ctx context.Context, limit int, moodFilter string) ([]*types.MoodEntry, error) {
	return s.entryRepo.ListRecent(ctx, nil, limit, moodFilter)
}

// MirrorDocument builds the semantic-index document for an entry: the
// content blob used for embedding plus the individual fields as metadata.
func MirrorDocument(entry *types.MoodEntry) semindex.Document {
	dateTime := entry.DateTime.Format(indexDateLayout)
	content := fmt.Sprintf(
		"Mood: %s\nStory theme: %s\nActivity theme: %s\nDate: %s",
		entry.MoodText,
		entry.StoryTheme,
		entry.ActivityTheme,
		dateTime,
	)
	return semindex.Document{
		ID:      entry.VectorID(),
		Content: content,
		Metadata: map[string]any{
			"mood_text":      entry.MoodText,
			"story_theme":    entry.StoryTheme,
			"activity_theme": entry.ActivityTheme,
			"date_time":      dateTime,
			"uid":            entry.VectorID(),
		},
	}
}

// DeriveStoryTheme keeps the first sentence of a generated story as the
// short label stored with the entry.
func DeriveStoryTheme(story string) string {
	theme, _, _ := strings.Cut(story, ".")
	return strings.TrimSpace(theme)
}

// DeriveActivityTheme keeps the first clause of a generated activity
// suggestion.
func DeriveActivityTheme(activity string) string {
	theme, _, _ := strings.Cut(activity, ",")
	return strings.TrimSpace(theme)
}
