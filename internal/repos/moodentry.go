package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/types"
)

type MoodEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.MoodEntry) (*types.MoodEntry, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int, moodFilter string) ([]*types.MoodEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, moodID uint) (*types.MoodEntry, error)
}

type moodEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMoodEntryRepo(db *gorm.DB, baseLog *logger.Logger) MoodEntryRepo {
	repoLog := baseLog.With("repo", "MoodEntryRepo")
	return &moodEntryRepo{db: db, log: repoLog}
}

func (mr *moodEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.MoodEntry) (*types.MoodEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}

	return entry, nil
}

func (mr *moodEntryRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int, moodFilter string) ([]*types.MoodEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if limit <= 0 {
		limit = 10
	}

	query := transaction.WithContext(ctx).Model(&types.MoodEntry{})
	if filter := strings.TrimSpace(moodFilter); filter != "" {
		query = query.Where("LOWER(mood_text) LIKE ?", "%"+strings.ToLower(filter)+"%")
	}

	var results []*types.MoodEntry
	if err := query.
		Order("date_time DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *moodEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, moodID uint) (*types.MoodEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var entry types.MoodEntry
	if err := transaction.WithContext(ctx).
		Where("mood_id = ?", moodID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
