package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/services"
	"github.com/yungbote/moodjournal-backend/internal/types"
)

type fakeGenerator struct {
	calls  int
	result *services.GenerationResult
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (*services.GenerationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRAGGenerator struct {
	calls  int
	gotK   int
	result *services.RAGResult
	err    error
}

func (f *fakeRAGGenerator) GenerateWithContext(_ context.Context, _ string, k int) (*services.RAGResult, []map[string]any, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.result, []map[string]any{{"uid": "mood_1"}}, nil
}

type fakeMusicRecommender struct {
	calls    int
	gotLimit int
	tracks   []services.Track
	tag      string
}

func (f *fakeMusicRecommender) Recommend(_ context.Context, _, _ string, limit int) ([]services.Track, string) {
	f.calls++
	f.gotLimit = limit
	return f.tracks, f.tag
}

type fakeJournalService struct {
	calls        int
	gotSummary   *string
	gotListLimit int
	entry        *types.MoodEntry
	err          error
}

func (f *fakeJournalService) SaveEntry(_ context.Context, _, _, _ string, musicSummary *string) (*types.MoodEntry, error) {
	f.calls++
	f.gotSummary = musicSummary
	if f.err != nil {
		return nil, f.err
	}
	return f.entry, nil
}

func (f *fakeJournalService) ListRecent(_ context.Context, limit int, _ string) ([]*types.MoodEntry, error) {
	f.gotListLimit = limit
	return nil, nil
}

func newHandlerTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler(c)
	return w
}

func TestGenerateRejectsBlankMoodBeforePipeline(t *testing.T) {
	gen := &fakeGenerator{}
	music := &fakeMusicRecommender{}
	journal := &fakeJournalService{}
	h := NewGenerateHandler(newHandlerTestLogger(t), gen, &fakeRAGGenerator{}, music, journal)

	w := performJSON(t, h.Generate, http.MethodPost, "/api/generate", map[string]any{"mood": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, w.Code)
	}
	if gen.calls != 0 || music.calls != 0 || journal.calls != 0 {
		t.Fatalf("pipeline should not run for blank mood")
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "invalid_request" {
		t.Fatalf("error code: want=%q got=%q", "invalid_request", envelope.Error.Code)
	}
}

func TestGenerateHappyPathPersistsWithMusicSummary(t *testing.T) {
	gen := &fakeGenerator{result: &services.GenerationResult{
		Story:    "The rain stopped. Everything felt lighter.",
		Activity: "Go for a walk, then write a page",
	}}
	music := &fakeMusicRecommender{
		tracks: []services.Track{{Title: "Tum Hi Ho", Artist: "Arijit Singh"}},
		tag:    "bollywood",
	}
	journal := &fakeJournalService{entry: &types.MoodEntry{MoodID: 1, MoodText: "calm"}}
	h := NewGenerateHandler(newHandlerTestLogger(t), gen, &fakeRAGGenerator{}, music, journal)

	w := performJSON(t, h.Generate, http.MethodPost, "/api/generate", map[string]any{"mood": "calm", "language": "Hindi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, w.Code, w.Body.String())
	}
	if music.gotLimit != 4 {
		t.Fatalf("music limit: want=4 got=%d", music.gotLimit)
	}
	if journal.calls != 1 {
		t.Fatalf("journal calls: want=1 got=%d", journal.calls)
	}
	if journal.gotSummary == nil || *journal.gotSummary != "Tum Hi Ho - Arijit Singh" {
		t.Fatalf("music summary: got=%v", journal.gotSummary)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["tag_used"] != "bollywood" {
		t.Fatalf("tag_used: got=%v", payload["tag_used"])
	}
	if payload["story"] != gen.result.Story {
		t.Fatalf("story: got=%v", payload["story"])
	}
}

func TestGenerateNoTracksSavesNilSummary(t *testing.T) {
	gen := &fakeGenerator{result: &services.GenerationResult{Story: "s", Activity: "a"}}
	journal := &fakeJournalService{entry: &types.MoodEntry{MoodID: 1}}
	h := NewGenerateHandler(newHandlerTestLogger(t), gen, &fakeRAGGenerator{}, &fakeMusicRecommender{}, journal)

	w := performJSON(t, h.Generate, http.MethodPost, "/api/generate", map[string]any{"mood": "calm"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, w.Code)
	}
	if journal.gotSummary != nil {
		t.Fatalf("music summary: want nil, got=%q", *journal.gotSummary)
	}
}

func TestGenerateModelOutageMapsToBadGateway(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: upstream 500", services.ErrGenerationUnavailable)}
	journal := &fakeJournalService{}
	h := NewGenerateHandler(newHandlerTestLogger(t), gen, &fakeRAGGenerator{}, &fakeMusicRecommender{}, journal)

	w := performJSON(t, h.Generate, http.MethodPost, "/api/generate", map[string]any{"mood": "calm"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: want=%d got=%d", http.StatusBadGateway, w.Code)
	}
	if journal.calls != 0 {
		t.Fatalf("nothing should be persisted when generation fails")
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "generation_unavailable" {
		t.Fatalf("error code: want=%q got=%q", "generation_unavailable", envelope.Error.Code)
	}
}

func TestGenerateRAGDoesNotPersist(t *testing.T) {
	rag := &fakeRAGGenerator{result: &services.RAGResult{Story: "s", StoryTheme: "t"}}
	journal := &fakeJournalService{}
	h := NewGenerateHandler(newHandlerTestLogger(t), &fakeGenerator{}, rag, &fakeMusicRecommender{}, journal)

	w := performJSON(t, h.GenerateRAG, http.MethodPost, "/api/generate/rag", map[string]any{"mood": "calm", "k": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, w.Code, w.Body.String())
	}
	if rag.gotK != 5 {
		t.Fatalf("k: want=5 got=%d", rag.gotK)
	}
	if journal.calls != 0 {
		t.Fatalf("rag endpoint must not persist")
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, ok := payload["retrieved"]; !ok {
		t.Fatalf("payload missing retrieved metadata")
	}
}
