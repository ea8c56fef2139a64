package semindex

import (
	"context"
)

// Document is one mood mirrored into the semantic index: free-text content
// plus the structured fields kept individually for display.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Index is the semantic store over past moods. Upsert overwrites any prior
// document with the same ID. QuerySimilar returns up to k documents picked
// by maximal-marginal-relevance over a larger candidate pool, so the
// retrieved context is not a set of near-duplicates.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	QuerySimilar(ctx context.Context, text string, k int) ([]Document, error)
}

// Embedder turns text into vectors. Satisfied by services.AIClient.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// DefaultLambda weights relevance against diversity in MMR selection.
const DefaultLambda = 0.5

// FetchK is the candidate pool size queried before MMR narrows to k.
func FetchK(k int) int {
	fetchK := 3 * k
	if fetchK < 10 {
		fetchK = 10
	}
	return fetchK
}
