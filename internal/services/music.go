package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yungbote/moodjournal-backend/internal/logger"
	"github.com/yungbote/moodjournal-backend/internal/utils"
)

const defaultTrackImageURL = "https://upload.wikimedia.org/wikipedia/commons/thumb/4/4e/Music_icon.png/600px-Music_icon.png"

var moodTags = map[string]string{
	"Happy":     "happy",
	"Sad":       "sad",
	"Romantic":  "romantic",
	"Chill":     "chill",
	"Energetic": "energetic",
	"Party":     "party",
	"Workout":   "workout",
	"Calm":      "calm",
}

var languageTags = map[string]string{
	"English": "english",
	"Hindi":   "bollywood",
	"Punjabi": "bhangra",
	"Spanish": "latin",
	"K-Pop":   "kpop",
}

type Track struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	Listeners string `json:"listeners"`
	Image     string `json:"image"`
	Mood      string `json:"mood"`
	Language  string `json:"language"`
}

// MusicRecommender queries the Last.fm tag catalog with increasingly generic
// tags until one yields usable tracks. Recommend never fails: transport and
// catalog errors only skip the candidate tag, and full exhaustion returns an
// empty list with an empty tag.
type MusicRecommender interface {
	Recommend(ctx context.Context, mood, language string, limit int) ([]Track, string)
}

type musicRecommender struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewMusicRecommender(log *logger.Logger) MusicRecommender {
	serviceLog := log.With("service", "MusicRecommender")
	apiKey := utils.GetEnv("LASTFM_API_KEY", "", log)
	if apiKey == "" {
		serviceLog.Warn("LASTFM_API_KEY is not set, music recommendations will come back empty")
	}
	baseURL := utils.GetEnv("LASTFM_BASE_URL", "https://ws.audioscrobbler.com/2.0/", log)
	return &musicRecommender{
		log:        serviceLog,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// candidateTags orders tags most-specific first: mood+language and language
// only when a language tag is known, then the mood tag, then a generic
// fallback.
func candidateTags(mood, language string) []string {
	moodTag, ok := moodTags[mood]
	if !ok {
		moodTag = strings.ToLower(strings.TrimSpace(mood))
	}
	languageTag := languageTags[language]

	var candidates []string
	if languageTag != "" {
		candidates = append(candidates, moodTag+" "+languageTag)
		candidates = append(candidates, languageTag)
	}
	candidates = append(candidates, moodTag)
	candidates = append(candidates, "pop")
	return candidates
}

func (m *musicRecommender) Recommend(ctx context.Context, mood, language string, limit int) ([]Track, string) {
	if limit <= 0 {
		limit = 5
	}

	for _, tag := range candidateTags(mood, language) {
		raw, err := m.fetchTopTracks(ctx, tag, limit*3)
		if err != nil {
			m.log.Debug("Tag lookup failed, trying next candidate", "tag", tag, "error", err)
			continue
		}
		if len(raw) == 0 {
			continue
		}

		recs := m.normalizeTracks(ctx, raw, mood, language, limit)
		if len(recs) > 0 {
			return recs, tag
		}
	}

	return nil, ""
}

// normalizeTracks converts the provider's loosely-shaped entries into the
// one internal Track shape, rejecting junk and de-duplicating on the way.
func (m *musicRecommender) normalizeTracks(ctx context.Context, raw []lastfmTrack, mood, language string, limit int) []Track {
	recs := make([]Track, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, t := range raw {
		title := strings.TrimSpace(t.Name)
		artist := strings.TrimSpace(t.Artist.Name)
		if title == "" || artist == "" {
			continue
		}
		// compilations and playlist dumps crowd out actual tracks
		if strings.Contains(strings.ToLower(title), "playlist") ||
			strings.Contains(strings.ToLower(artist), "various") {
			continue
		}
		dedupeKey := strings.ToLower(title) + "|" + strings.ToLower(artist)
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}

		trackURL := t.URL
		if trackURL == "" {
			trackURL = "#"
		}

		info := m.fetchTrackInfo(ctx, artist, title)
		listeners := info.Listeners
		if listeners == "" {
			listeners = info.Playcount
		}
		if listeners == "" {
			listeners = t.Listeners
		}
		if listeners == "" {
			listeners = t.Playcount
		}

		recs = append(recs, Track{
			Title:     title,
			Artist:    artist,
			URL:       trackURL,
			Listeners: formatListeners(listeners),
			Image:     pickImage(info, t.Image),
			Mood:      mood,
			Language:  language,
		})
		if len(recs) >= limit {
			break
		}
	}
	return recs
}

type lastfmArtist struct {
	Name string
}

// The artist field arrives either as a plain string or as an object with a
// name, depending on the endpoint.
func (a *lastfmArtist) UnmarshalJSON(data []byte) error {
	var flat string
	if err := json.Unmarshal(data, &flat); err == nil {
		a.Name = flat
		return nil
	}
	var nested struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	a.Name = nested.Name
	return nil
}

type lastfmImage struct {
	Text string `json:"#text"`
	Size string `json:"size"`
}

type lastfmTrack struct {
	Name      string        `json:"name"`
	Artist    lastfmArtist  `json:"artist"`
	URL       string        `json:"url"`
	Listeners string        `json:"listeners"`
	Playcount string        `json:"playcount"`
	Image     []lastfmImage `json:"image"`
}

type lastfmTrackInfo struct {
	Listeners string        `json:"listeners"`
	Playcount string        `json:"playcount"`
	Image     []lastfmImage `json:"image"`
	Album     struct {
		Image []lastfmImage `json:"image"`
	} `json:"album"`
}

func (m *musicRecommender) fetchTopTracks(ctx context.Context, tag string, limit int) ([]lastfmTrack, error) {
	params := url.Values{}
	params.Set("method", "tag.gettoptracks")
	params.Set("tag", tag)
	params.Set("api_key", m.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Tracks struct {
			Track []lastfmTrack `json:"track"`
		} `json:"tracks"`
	}
	if err := m.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Track, nil
}

// fetchTrackInfo enriches a track with listener counts and album art.
// Best-effort: any failure yields an empty info and the caller falls back to
// whatever the top-tracks entry carried.
func (m *musicRecommender) fetchTrackInfo(ctx context.Context, artist, title string) lastfmTrackInfo {
	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("api_key", m.apiKey)
	params.Set("format", "json")

	var resp struct {
		Track lastfmTrackInfo `json:"track"`
	}
	if err := m.get(ctx, params, &resp); err != nil {
		m.log.Debug("track.getInfo failed", "artist", artist, "track", title, "error", err)
		return lastfmTrackInfo{}
	}
	return resp.Track
}

func (m *musicRecommender) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lastfm http status=%d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("lastfm decode error: %w", err)
	}
	return nil
}

// formatListeners renders digit strings with thousands separators, keeps
// other non-empty values as-is, and defaults to "N/A".
func formatListeners(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "N/A"
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return humanize.Comma(n)
	}
	return trimmed
}

// pickImage prefers the album art from track.getInfo, then the track image,
// using the last (largest) variant; missing art falls back to a fixed icon.
func pickImage(info lastfmTrackInfo, trackImages []lastfmImage) string {
	if img := lastImage(info.Album.Image); img != "" {
		return img
	}
	if img := lastImage(info.Image); img != "" {
		return img
	}
	if img := lastImage(trackImages); img != "" {
		return img
	}
	return defaultTrackImageURL
}

func lastImage(images []lastfmImage) string {
	for i := len(images) - 1; i >= 0; i-- {
		if u := strings.TrimSpace(images[i].Text); u != "" {
			return u
		}
	}
	return ""
}
