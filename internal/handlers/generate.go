package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/services"
)

type GenerateHandler struct {
	log              *logger.Logger
	generator        services.StoryActivityGenerator
	ragGenerator     services.RAGGenerator
	musicRecommender services.MusicRecommender
	journalService   services.JournalService
}

func NewGenerateHandler(
	log *logger.Logger,
	generator services.StoryActivityGenerator,
	ragGenerator services.RAGGenerator,
	musicRecommender services.MusicRecommender,
	journalService services.JournalService,
) *GenerateHandler {
	return &GenerateHandler{
		log:              log.With("handler", "GenerateHandler"),
		generator:        generator,
		ragGenerator:     ragGenerator,
		musicRecommender: musicRecommender,
		journalService:   journalService,
	}
}

type generateRequest struct {
	Mood     string `json:"mood"`
	Language string `json:"language"`
}

// POST /api/generate
// Baseline pipeline: story + activity + music, then persist the entry and
// mirror it into the semantic index.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("please enter your mood"))
		return
	}
	language := req.Language
	if language == "" {
		language = "Any"
	}

	result, err := h.generator.Generate(c.Request.Context(), mood)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}

	tracks, usedTag := h.musicRecommender.Recommend(c.Request.Context(), mood, language, 4)

	var musicSummary *string
	if len(tracks) > 0 {
		summary := fmt.Sprintf("%s - %s", tracks[0].Title, tracks[0].Artist)
		musicSummary = &summary
	}

	entry, err := h.journalService.SaveEntry(
		c.Request.Context(),
		mood,
		services.DeriveStoryTheme(result.Story),
		services.DeriveActivityTheme(result.Activity),
		musicSummary,
	)
	if err != nil {
		h.log.Error("Failed to save mood entry", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}

	RespondOK(c, gin.H{
		"story":    result.Story,
		"activity": result.Activity,
		"tracks":   tracks,
		"tag_used": usedTag,
		"entry":    entry,
	})
}

type generateRAGRequest struct {
	Mood string `json:"mood"`
	K    int    `json:"k"`
}

// POST /api/generate/rag
// Retrieval-augmented generation. Does not persist: saving a RAG result is a
// separate, explicit POST /api/journal.
func (h *GenerateHandler) GenerateRAG(c *gin.Context) {
	var req generateRAGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("please enter your mood"))
		return
	}

	result, retrieved, err := h.ragGenerator.GenerateWithContext(c.Request.Context(), mood, req.K)
	if err != nil {
		RespondGenerationError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"result":    result,
		"retrieved": retrieved,
	})
}
