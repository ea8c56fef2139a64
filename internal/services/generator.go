package services

import (
	"context"
	"fmt"

	"github.com/yungbote/moodjournal-backend/internal/logger"
)

const (
	storyPromptTemplate    = "User mood: %s\nWrite a short, creative story reflecting this mood."
	activityPromptTemplate = "User mood: %s\nSuggest 1-2 real-life activities matching this mood."
)

type GenerationResult struct {
	Story    string `json:"story"`
	Activity string `json:"activity"`
}

// StoryActivityGenerator is the baseline (no retrieval) generation path: two
// fixed prompts executed in sequence against the model.
type StoryActivityGenerator interface {
	Generate(ctx context.Context, mood string) (*GenerationResult, error)
}

type storyActivityGenerator struct {
	log      *logger.Logger
	aiClient AIClient
}

func NewStoryActivityGenerator(log *logger.Logger, ai AIClient) StoryActivityGenerator {
	return &storyActivityGenerator{
		log:      log.With("service", "StoryActivityGenerator"),
		aiClient: ai,
	}
}

func (g *storyActivityGenerator) Generate(ctx context.Context, mood string) (*GenerationResult, error) {
	story, err := g.complete(ctx, fmt.Sprintf(storyPromptTemplate, mood))
	if err != nil {
		return nil, err
	}
	activity, err := g.complete(ctx, fmt.Sprintf(activityPromptTemplate, mood))
	if err != nil {
		return nil, err
	}
	return &GenerationResult{Story: story, Activity: activity}, nil
}

func (g *storyActivityGenerator) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := g.aiClient.Chat(ctx, []AIMessage{
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}
