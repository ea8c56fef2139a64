package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/semindex"
)

const (
	// substituted for the context block when retrieval yields nothing
	noContextPlaceholder = "No past moods available."

	ragPromptTemplate = "You are MoodAI. Use the 'context' (past mood journal entries) to personalize the output.\n\n" +
		"Context:\n%s\n\n" +
		"Current mood: %s\n\n" +
		"Task:\n1) Write a short creative story (2-4 short paragraphs) reflecting the user's current mood.\n" +
		"2) Suggest 1-2 simple, real-life activities the user could do right now.\n\n" +
		"Return a JSON object with keys: story (string), story_theme (string - short), activities (array of short strings).\n" +
		"Only output valid JSON (no extra commentary)."
)

// RAGResult is the parsed model output. When the model response is not valid
// JSON, Raw carries the unparsed text and the other fields are empty; callers
// treat Raw == "" as success.
type RAGResult struct {
	Story      string   `json:"story,omitempty"`
	StoryTheme string   `json:"story_theme,omitempty"`
	Activities []string `json:"activities,omitempty"`
	Raw        string   `json:"raw,omitempty"`
}

type RAGGenerator interface {
	GenerateWithContext(ctx context.Context, mood string, k int) (*RAGResult, []map[string]any, error)
}

type ragGenerator struct {
	log      *logger.Logger
	aiClient AIClient
	index    semindex.Index
}

func NewRAGGenerator(log *logger.Logger, ai AIClient, index semindex.Index) RAGGenerator {
	return &ragGenerator{
		log:      log.With("service", "RAGGenerator"),
		aiClient: ai,
		index:    index,
	}
}

// GenerateWithContext retrieves the k most similar past moods, folds them
// into one prompt with the current mood, and issues exactly one model call.
// Retrieval failure degrades to generation without context; a model failure
// surfaces as ErrGenerationUnavailable; a JSON-parse failure never errors and
// comes back as RAGResult{Raw: ...}.
func (g *ragGenerator) GenerateWithContext(ctx context.Context, mood string, k int) (*RAGResult, []map[string]any, error) {
	if k <= 0 {
		k = 3
	}

	docs, err := g.index.QuerySimilar(ctx, mood, k)
	if err != nil {
		g.log.Warn("Semantic index retrieval failed, generating without context", "error", err)
		docs = nil
	}

	contextBlock := buildContextBlock(docs)
	prompt := fmt.Sprintf(ragPromptTemplate, contextBlock, mood)

	completion, err := g.aiClient.Chat(ctx, []AIMessage{
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	result := parseRAGResponse(completion.Content)

	retrieved := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		retrieved = append(retrieved, d.Metadata)
	}
	return result, retrieved, nil
}

func buildContextBlock(docs []semindex.Document) string {
	if len(docs) == 0 {
		return noContextPlaceholder
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		dateTime, _ := d.Metadata["date_time"].(string)
		parts = append(parts, fmt.Sprintf("%s: %s", dateTime, d.Content))
	}
	return strings.Join(parts, "\n\n")
}

func parseRAGResponse(raw string) *RAGResult {
	candidate := stripJSONFences(raw)
	var result RAGResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return &RAGResult{Raw: raw}
	}
	result.Raw = ""
	return &result
}

// stripJSONFences removes a surrounding markdown code fence, which models
// sometimes add despite the no-commentary instruction.
func stripJSONFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
