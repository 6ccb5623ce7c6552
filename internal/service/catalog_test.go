package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/api"
)

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestNormalizeTitleDefaultsDescription(t *testing.T) {
	id := uuid.New()

	title := normalizeTitle(titleRaw{ID: id, Name: "Lost Memory"})
	if title.Description != "" {
		t.Errorf("Description = %q, want empty string for absent field", title.Description)
	}
	if title.ID != id || title.Name != "Lost Memory" {
		t.Errorf("identifying fields dropped: %+v", title)
	}

	title = normalizeTitle(titleRaw{ID: id, Name: "Lost Memory", Description: strPtr("fragments")})
	if title.Description != "fragments" {
		t.Errorf("Description = %q, want passthrough", title.Description)
	}
}

func TestNormalizeEpisodeDefaults(t *testing.T) {
	episode := normalizeEpisode(episodeRaw{ID: uuid.New(), EpisodeNumber: 3})
	if episode.Name != "Episode 3" {
		t.Errorf("Name = %q, want synthesized \"Episode 3\"", episode.Name)
	}
	if episode.DurationMs != 0 {
		t.Errorf("DurationMs = %d, want 0 default", episode.DurationMs)
	}

	episode = normalizeEpisode(episodeRaw{
		ID:            uuid.New(),
		EpisodeNumber: 1,
		Name:          strPtr("S1E1 - First Clue"),
		DurationMs:    int64Ptr(2700000),
	})
	if episode.Name != "S1E1 - First Clue" {
		t.Errorf("Name = %q, want passthrough", episode.Name)
	}
	if episode.DurationMs != 2700000 {
		t.Errorf("DurationMs = %d, want passthrough", episode.DurationMs)
	}
}

func TestListTitlesUnwrapsEnvelope(t *testing.T) {
	id := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/titles" {
			t.Errorf("path = %q, want /api/titles", r.URL.Path)
		}
		fmt.Fprintf(w, `{"items":[{"id":%q,"name":"Mystery Casebook"}],"next_cursor":"abc"}`, id)
	}))
	defer server.Close()

	catalog := NewCatalogService(api.NewClient(server.URL, nil, zap.NewNop()), zap.NewNop())
	titles, err := catalog.ListTitles(context.Background())
	if err != nil {
		t.Fatalf("ListTitles failed: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("got %d titles, want 1", len(titles))
	}
	if titles[0].ID != id || titles[0].Description != "" {
		t.Errorf("title = %+v, want id kept and description defaulted", titles[0])
	}
}

func TestListEpisodesBuildsPathAndNormalizes(t *testing.T) {
	titleID := uuid.New()
	episodeID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := fmt.Sprintf("/api/titles/%s/episodes", titleID)
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		fmt.Fprintf(w, `{"title_id":%q,"episodes":[{"id":%q,"title_id":%q,"season":1,"episode_number":7}]}`,
			titleID, episodeID, titleID)
	}))
	defer server.Close()

	catalog := NewCatalogService(api.NewClient(server.URL, nil, zap.NewNop()), zap.NewNop())
	episodes, err := catalog.ListEpisodes(context.Background(), titleID)
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	if episodes[0].Name != "Episode 7" || episodes[0].ID != episodeID {
		t.Errorf("episode = %+v, want synthesized name and kept id", episodes[0])
	}
}
