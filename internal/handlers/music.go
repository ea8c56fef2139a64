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

type MusicHandler struct {
	log              *logger.Logger
	musicRecommender services.MusicRecommender
}

func NewMusicHandler(log *logger.Logger, musicRecommender services.MusicRecommender) *MusicHandler {
	return &MusicHandler{
		log:              log.With("handler", "MusicHandler"),
		musicRecommender: musicRecommender,
	}
}

// GET /api/music?mood=Happy&language=Hindi&limit=4
func (h *MusicHandler) Recommend(c *gin.Context) {
	mood := strings.TrimSpace(c.Query("mood"))
	if mood == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("please enter your mood"))
		return
	}
	language := c.Query("language")
	if language == "" {
		language = "Any"
	}
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	tracks, usedTag := h.musicRecommender.Recommend(c.Request.Context(), mood, language, limit)
	RespondOK(c, gin.H{
		"tracks":   tracks,
		"tag_used": usedTag,
	})
}
