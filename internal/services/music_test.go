package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/yungbote/moodjournal-backend/internal/logger"
)

func TestCandidateTags(t *testing.T) {
	cases := []struct {
		name     string
		mood     string
		language string
		want     []string
	}{
		{
			name:     "known_mood_known_language",
			mood:     "Happy",
			language: "Hindi",
			want:     []string{"happy bollywood", "bollywood", "happy", "pop"},
		},
		{
			name:     "any_language_skips_language_tags",
			mood:     "Happy",
			language: "Any",
			want:     []string{"happy", "pop"},
		},
		{
			name:     "unknown_mood_falls_back_to_input",
			mood:     "  MELANCHOLY ",
			language: "Klingon",
			want:     []string{"melancholy", "pop"},
		},
		{
			name:     "kpop",
			mood:     "Party",
			language: "K-Pop",
			want:     []string{"party kpop", "kpop", "party", "pop"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := candidateTags(tc.mood, tc.language)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("candidateTags(%q, %q)=%v, want %v", tc.mood, tc.language, got, tc.want)
			}
		})
	}
}

func TestRecommendTriesCandidatesInOrderAndStops(t *testing.T) {
	var tagsRequested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "tag.gettoptracks":
			tag := r.URL.Query().Get("tag")
			tagsRequested = append(tagsRequested, tag)
			if tag == "bollywood" {
				fmt.Fprint(w, `{"tracks":{"track":[{"name":"Tum Hi Ho","artist":{"name":"Arijit Singh"},"url":"https://last.fm/t/1","listeners":"12345"}]}}`)
				return
			}
			fmt.Fprint(w, `{"tracks":{"track":[]}}`)
		case "track.getInfo":
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	m := newTestRecommender(t, server.URL)
	tracks, usedTag := m.Recommend(context.Background(), "Happy", "Hindi", 4)

	wantTags := []string{"happy bollywood", "bollywood"}
	if !reflect.DeepEqual(tagsRequested, wantTags) {
		t.Fatalf("tags requested: want=%v got=%v", wantTags, tagsRequested)
	}
	if usedTag != "bollywood" {
		t.Fatalf("used tag: want=%q got=%q", "bollywood", usedTag)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks length: want=1 got=%d", len(tracks))
	}
	if tracks[0].Title != "Tum Hi Ho" || tracks[0].Artist != "Arijit Singh" {
		t.Fatalf("track mismatch: got=%+v", tracks[0])
	}
	if tracks[0].Listeners != "12,345" {
		t.Fatalf("listeners formatting: want=%q got=%q", "12,345", tracks[0].Listeners)
	}
	if tracks[0].Image != defaultTrackImageURL {
		t.Fatalf("image fallback: want default, got=%q", tracks[0].Image)
	}
}

func TestRecommendNormalizesFiltersAndDeduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "tag.gettoptracks":
			if got, want := r.URL.Query().Get("limit"), "6"; got != want {
				t.Errorf("request limit: want=%s got=%s", want, got)
			}
			// flat + nested artist shapes, junk entries, a duplicate, and
			// more usable tracks than the caller asked for
			fmt.Fprint(w, `{"tracks":{"track":[
				{"name":"Song A","artist":"Artist One","url":"https://last.fm/a"},
				{"name":"","artist":"No Title"},
				{"name":"No Artist","artist":""},
				{"name":"Summer Playlist 2024","artist":"Artist Two"},
				{"name":"Hits","artist":"Various Artists"},
				{"name":"song a","artist":"ARTIST ONE"},
				{"name":"Song B","artist":{"name":"Artist Two"},"url":"https://last.fm/b"},
				{"name":"Song C","artist":{"name":"Artist Three"}}
			]}}`)
		case "track.getInfo":
			if r.URL.Query().Get("track") == "Song B" {
				fmt.Fprint(w, `{"track":{"listeners":"999","album":{"image":[{"#text":"https://img/small","size":"small"},{"#text":"https://img/large","size":"extralarge"}]}}}`)
				return
			}
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	m := newTestRecommender(t, server.URL)
	tracks, usedTag := m.Recommend(context.Background(), "Chill", "Any", 2)

	if usedTag != "chill" {
		t.Fatalf("used tag: want=%q got=%q", "chill", usedTag)
	}
	if len(tracks) != 2 {
		t.Fatalf("tracks length: want=2 got=%d", len(tracks))
	}
	if tracks[0].Title != "Song A" || tracks[0].Artist != "Artist One" {
		t.Fatalf("first track mismatch: got=%+v", tracks[0])
	}
	if tracks[1].Title != "Song B" || tracks[1].Artist != "Artist Two" {
		t.Fatalf("second track mismatch: got=%+v", tracks[1])
	}
	if tracks[0].Listeners != "N/A" {
		t.Fatalf("missing listeners: want=%q got=%q", "N/A", tracks[0].Listeners)
	}
	if tracks[1].Listeners != "999" {
		t.Fatalf("enriched listeners: want=%q got=%q", "999", tracks[1].Listeners)
	}
	if tracks[1].Image != "https://img/large" {
		t.Fatalf("album image: want=%q got=%q", "https://img/large", tracks[1].Image)
	}
	if tracks[0].URL != "https://last.fm/a" {
		t.Fatalf("track url: got=%q", tracks[0].URL)
	}
}

func TestRecommendSurvivesTransportFailure(t *testing.T) {
	// nothing listens here; every candidate tag fails
	m := newTestRecommender(t, "http://127.0.0.1:1")
	tracks, usedTag := m.Recommend(context.Background(), "Happy", "Hindi", 4)
	if tracks != nil {
		t.Fatalf("tracks: want nil, got=%v", tracks)
	}
	if usedTag != "" {
		t.Fatalf("used tag: want empty, got=%q", usedTag)
	}
}

func TestRecommendExhaustsAllCandidates(t *testing.T) {
	var tagsRequested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("method") == "tag.gettoptracks" {
			tagsRequested = append(tagsRequested, r.URL.Query().Get("tag"))
		}
		fmt.Fprint(w, `{"tracks":{"track":[]}}`)
	}))
	defer server.Close()

	m := newTestRecommender(t, server.URL)
	tracks, usedTag := m.Recommend(context.Background(), "Sad", "Spanish", 3)
	if len(tracks) != 0 || usedTag != "" {
		t.Fatalf("want empty result, got tracks=%v tag=%q", tracks, usedTag)
	}
	wantTags := []string{"sad latin", "latin", "sad", "pop"}
	if !reflect.DeepEqual(tagsRequested, wantTags) {
		t.Fatalf("tags requested: want=%v got=%v", wantTags, tagsRequested)
	}
}

func TestFormatListeners(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "12345", want: "12,345"},
		{in: "1234567", want: "1,234,567"},
		{in: "7", want: "7"},
		{in: "", want: "N/A"},
		{in: "N/A", want: "N/A"},
		{in: "many", want: "many"},
	}
	for _, tc := range cases {
		if got := formatListeners(tc.in); got != tc.want {
			t.Fatalf("formatListeners(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func newTestRecommender(t *testing.T, baseURL string) MusicRecommender {
	t.Helper()
	t.Setenv("LASTFM_API_KEY", "test-key")
	t.Setenv("LASTFM_BASE_URL", baseURL)
	return NewMusicRecommender(newTestLogger(t))
}

func newTestLogger(t *testing.T) *logger.Logger {
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
