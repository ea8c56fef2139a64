package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/semindex"
)

type entry struct {
	doc    semindex.Document
	vector []float32
}

// Storage is a brute-force in-memory semindex.Index. It backs tests and
// deployments without a qdrant instance; contents do not survive a restart.
type Storage struct {
	mu       sync.RWMutex
	log      *logger.Logger
	embedder semindex.Embedder
	entries  map[string]entry
	order    []string
}

func NewStorage(log *logger.Logger, embedder semindex.Embedder) *Storage {
	return &Storage{
		log:      log.With("service", "MemoryIndex"),
		embedder: embedder,
		entries:  make(map[string]entry),
	}
}

func (s *Storage) Upsert(ctx context.Context, doc semindex.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	vecs, err := s.embedder.Embed(ctx, []string{doc.Content})
	if err != nil {
		return fmt.Errorf("embed document %q: %w", doc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.entries[doc.ID] = entry{doc: doc, vector: vecs[0]}
	return nil
}

func (s *Storage) QuerySimilar(ctx context.Context, text string, k int) ([]semindex.Document, error) {
	if k <= 0 {
		k = 3
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := vecs[0]

	s.mu.RLock()
	candidates := make([]semindex.Candidate, 0, len(s.entries))
	for _, id := range s.order {
		e := s.entries[id]
		candidates = append(candidates, semindex.Candidate{Doc: e.doc, Vector: e.vector})
	}
	s.mu.RUnlock()

	// narrow to the fetch pool by plain relevance first, then diversify
	sort.SliceStable(candidates, func(i, j int) bool {
		return semindex.CosineSimilarity(query, candidates[i].Vector) >
			semindex.CosineSimilarity(query, candidates[j].Vector)
	})
	if fetchK := semindex.FetchK(k); len(candidates) > fetchK {
		candidates = candidates[:fetchK]
	}

	return semindex.SelectMMR(query, candidates, k, semindex.DefaultLambda), nil
}

// Len reports how many documents are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
