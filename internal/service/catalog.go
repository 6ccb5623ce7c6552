package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/api"
	"github.com/netplus/netplus-client-go/internal/domain"
)

// CatalogService lists titles and episodes, normalizing the wire envelopes
// into render-ready models. Pagination cursors are not forwarded; callers
// always receive the first page.
type CatalogService struct {
	api    *api.Client
	logger *zap.Logger
}

func NewCatalogService(apiClient *api.Client, logger *zap.Logger) *CatalogService {
	return &CatalogService{api: apiClient, logger: logger}
}

// titleRaw mirrors the wire shape; optional fields are pointers so that
// absence survives decoding and the normalizer can fill defaults.
type titleRaw struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   string    `json:"created_at"`
}

type paginatedTitles struct {
	Items      []titleRaw `json:"items"`
	NextCursor *string    `json:"next_cursor"`
}

type episodeRaw struct {
	ID            uuid.UUID `json:"id"`
	TitleID       uuid.UUID `json:"title_id"`
	Season        int       `json:"season"`
	EpisodeNumber int       `json:"episode_number"`
	Name          *string   `json:"name"`
	DurationMs    *int64    `json:"duration_ms"`
	VideoURL      string    `json:"video_url"`
}

type episodesEnvelope struct {
	TitleID  uuid.UUID    `json:"title_id"`
	Episodes []episodeRaw `json:"episodes"`
}

func (s *CatalogService) ListTitles(ctx context.Context) ([]domain.Title, error) {
	var resp paginatedTitles
	if err := s.api.Do(ctx, "/api/titles", nil, &resp); err != nil {
		return nil, err
	}

	titles := make([]domain.Title, len(resp.Items))
	for i, raw := range resp.Items {
		titles[i] = normalizeTitle(raw)
	}
	return titles, nil
}

func (s *CatalogService) ListEpisodes(ctx context.Context, titleID uuid.UUID) ([]domain.Episode, error) {
	var resp episodesEnvelope
	path := fmt.Sprintf("/api/titles/%s/episodes", titleID)
	if err := s.api.Do(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	episodes := make([]domain.Episode, len(resp.Episodes))
	for i, raw := range resp.Episodes {
		episodes[i] = normalizeEpisode(raw)
	}
	return episodes, nil
}

func normalizeTitle(raw titleRaw) domain.Title {
	title := domain.Title{
		ID:        raw.ID,
		Name:      raw.Name,
		CreatedAt: raw.CreatedAt,
	}
	if raw.Description != nil {
		title.Description = *raw.Description
	}
	return title
}

func normalizeEpisode(raw episodeRaw) domain.Episode {
	episode := domain.Episode{
		ID:            raw.ID,
		TitleID:       raw.TitleID,
		Season:        raw.Season,
		EpisodeNumber: raw.EpisodeNumber,
		Name:          fmt.Sprintf("Episode %d", raw.EpisodeNumber),
		VideoURL:      raw.VideoURL,
	}
	if raw.Name != nil {
		episode.Name = *raw.Name
	}
	if raw.DurationMs != nil {
		episode.DurationMs = *raw.DurationMs
	}
	return episode
}
