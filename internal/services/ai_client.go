package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/utils"
)

// ErrGenerationUnavailable marks a model-invocation failure (transport,
// timeout, non-2xx). Callers decide whether to retry; nothing in this
// package retries or degrades silently.
var ErrGenerationUnavailable = errors.New("generation unavailable")

type AIClient interface {
	Chat(ctx context.Context, messages []AIMessage, opts *AIOptions) (*AICompletion, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type AIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AIOptions struct {
	Temperature float32
	MaxTokens   int
}

type AICompletion struct {
	Content string
}

type aiClient struct {
	httpClient     *http.Client
	log            *logger.Logger
	apiKey         string
	baseURL        string
	chatModel      string
	embeddingModel string
}

func NewAIClient(log *logger.Logger) (AIClient, error) {
	serviceLog := log.With("service", "AIClient")
	apiKey := utils.GetEnv("OPENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	baseURL := utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1", log)
	chatModel := utils.GetEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini", log)
	embeddingModel := utils.GetEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small", log)
	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60, log)

	return &aiClient{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		log:            serviceLog,
		apiKey:         apiKey,
		baseURL:        baseURL,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

type chatRequest struct {
	Model       string      `json:"model"`
	Messages    []AIMessage `json:"messages"`
	Temperature float32     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *aiClient) Chat(ctx context.Context, messages []AIMessage, opts *AIOptions) (*AICompletion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	req := chatRequest{
		Model:    c.chatModel,
		Messages: messages,
	}
	if opts != nil {
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
	}

	var resp chatResponse
	if err := c.do(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response contained no choices", ErrGenerationUnavailable)
	}
	return &AICompletion{Content: resp.Choices[0].Message.Content}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *aiClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	req := embeddingsRequest{
		Model: c.embeddingModel,
		Input: inputs,
	}
	var resp embeddingsResponse
	if err := c.do(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = vec
		}
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}

// do issues a single request. No retry: the call either succeeds within the
// client timeout or the failure is surfaced to the caller.
func (c *aiClient) do(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("model api http %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("model api decode error: %w", err)
	}
	return nil
}
