package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/services"
)

type JournalHandler struct {
	log            *logger.Logger
	journalService services.JournalService
}

func NewJournalHandler(log *logger.Logger, journalService services.JournalService) *JournalHandler {
	return &JournalHandler{
		log:            log.With("handler", "JournalHandler"),
		journalService: journalService,
	}
}

type saveEntryRequest struct {
	Mood          string  `json:"mood"`
	StoryTheme    string  `json:"story_theme"`
	ActivityTheme string  `json:"activity_theme"`
	MusicSummary  *string `json:"music_summary"`
}

// POST /api/journal
// Explicit save, used for keeping a RAG result in the history.
func (h *JournalHandler) SaveEntry(c *gin.Context) {
	var req saveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Mood) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("please enter your mood"))
		return
	}

	entry, err := h.journalService.SaveEntry(
		c.Request.Context(),
		strings.TrimSpace(req.Mood),
		req.StoryTheme,
		req.ActivityTheme,
		req.MusicSummary,
	)
	if err != nil {
		h.log.Error("Failed to save mood entry", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

const maxListLimit = 100

// GET /api/journal?limit=10&mood=rainy
// History, newest first, optionally filtered by mood substring.
func (h *JournalHandler) ListEntries(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("limit must be a positive integer"))
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	entries, err := h.journalService.ListRecent(c.Request.Context(), limit, c.Query("mood"))
	if err != nil {
		h.log.Error("Failed to list mood entries", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}
