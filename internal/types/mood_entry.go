package types

import (
	"strconv"
	"time"
)

type MoodEntry struct {
	MoodID        uint      `gorm:"column:mood_id;primaryKey;autoIncrement" json:"mood_id"`
	DateTime      time.Time `gorm:"column:date_time;not null;autoCreateTime" json:"date_time"`
	MoodText      string    `gorm:"column:mood_text;not null" json:"mood_text"`
	StoryTheme    string    `gorm:"column:story_theme;not null" json:"story_theme"`
	ActivityTheme string    `gorm:"column:activity_theme;not null" json:"activity_theme"`
	MusicSummary  *string   `gorm:"column:music_summary" json:"music_summary,omitempty"`
}

func (MoodEntry) TableName() string {
	return "mood_journal"
}

// VectorID is the deterministic id the entry is mirrored under in the
// semantic index.
func (e *MoodEntry) VectorID() string {
	return "mood_" + strconv.FormatUint(uint64(e.MoodID), 10)
}
