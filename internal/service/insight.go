package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/api"
	"github.com/netplus/netplus-client-go/internal/domain"
)

// InsightService covers the narrative endpoints: relationship graph, recap,
// Q&A and character cards. Responses are complete by backend contract and
// pass through without normalization; API errors propagate unchanged.
type InsightService struct {
	api    *api.Client
	logger *zap.Logger
}

func NewInsightService(apiClient *api.Client, logger *zap.Logger) *InsightService {
	return &InsightService{api: apiClient, logger: logger}
}

// GraphQuery identifies the graph to fetch. An unset optional must be
// omitted from the query string entirely: the backend distinguishes an
// absent parameter from a present-but-empty one. Zero is a valid timestamp,
// which is why CurrentTimeMs is a pointer and not a plain int64.
type GraphQuery struct {
	TitleID       uuid.UUID
	EpisodeID     uuid.UUID
	CurrentTimeMs *int64
}

func (q GraphQuery) values() url.Values {
	values := url.Values{}
	if q.TitleID != uuid.Nil {
		values.Set("title_id", q.TitleID.String())
	}
	if q.EpisodeID != uuid.Nil {
		values.Set("episode_id", q.EpisodeID.String())
	}
	if q.CurrentTimeMs != nil {
		values.Set("current_time_ms", strconv.FormatInt(*q.CurrentTimeMs, 10))
	}
	return values
}

func (s *InsightService) Graph(ctx context.Context, query GraphQuery) (*domain.GraphResponse, error) {
	var resp domain.GraphResponse
	err := s.api.Do(ctx, "/api/graph", &api.RequestOptions{Query: query.values()}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *InsightService) CreateRecap(ctx context.Context, req domain.RecapRequest) (*domain.RecapResponse, error) {
	var resp domain.RecapResponse
	err := s.api.Do(ctx, "/api/recap", &api.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *InsightService) Ask(ctx context.Context, req domain.QARequest) (*domain.QAResponse, error) {
	var resp domain.QAResponse
	err := s.api.Do(ctx, "/api/qa", &api.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CharacterCardQuery follows the same omission rule as GraphQuery. The
// character id is a path parameter and always required.
type CharacterCardQuery struct {
	CharacterID   uuid.UUID
	EpisodeID     uuid.UUID
	CurrentTimeMs *int64
}

func (q CharacterCardQuery) values() url.Values {
	values := url.Values{}
	if q.EpisodeID != uuid.Nil {
		values.Set("episode_id", q.EpisodeID.String())
	}
	if q.CurrentTimeMs != nil {
		values.Set("current_time_ms", strconv.FormatInt(*q.CurrentTimeMs, 10))
	}
	return values
}

func (s *InsightService) CharacterCard(ctx context.Context, query CharacterCardQuery) (*domain.CharacterCardResponse, error) {
	var resp domain.CharacterCardResponse
	path := fmt.Sprintf("/api/characters/%s", query.CharacterID)
	err := s.api.Do(ctx, path, &api.RequestOptions{Query: query.values()}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
