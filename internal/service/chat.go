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

// ChatService manages Q&A conversations anchored to a playback position.
type ChatService struct {
	api    *api.Client
	logger *zap.Logger
}

func NewChatService(apiClient *api.Client, logger *zap.Logger) *ChatService {
	return &ChatService{api: apiClient, logger: logger}
}

type ChatSessionCreate struct {
	TitleID       uuid.UUID      `json:"title_id"`
	EpisodeID     uuid.UUID      `json:"episode_id"`
	UserID        string         `json:"user_id"`
	CurrentTimeMs int64          `json:"current_time_ms"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// ChatSessionFilter narrows session listing. Unset fields are omitted from
// the query string entirely.
type ChatSessionFilter struct {
	TitleID   uuid.UUID
	EpisodeID uuid.UUID
	UserID    string
}

func (f ChatSessionFilter) values() url.Values {
	values := url.Values{}
	if f.TitleID != uuid.Nil {
		values.Set("title_id", f.TitleID.String())
	}
	if f.EpisodeID != uuid.Nil {
		values.Set("episode_id", f.EpisodeID.String())
	}
	if f.UserID != "" {
		values.Set("user_id", f.UserID)
	}
	return values
}

type ChatMessageCreate struct {
	Role              string     `json:"role"`
	Content           string     `json:"content"`
	CurrentTimeMs     int64      `json:"current_time_ms"`
	Model             string     `json:"model,omitempty"`
	PromptTokens      int        `json:"prompt_tokens,omitempty"`
	CompletionTokens  int        `json:"completion_tokens,omitempty"`
	RelatedRelationID *uuid.UUID `json:"related_relation_id,omitempty"`
}

type chatSessionList struct {
	Items []domain.ChatSession `json:"items"`
}

type chatMessageList struct {
	SessionID uuid.UUID            `json:"session_id"`
	Items     []domain.ChatMessage `json:"items"`
}

func (s *ChatService) CreateSession(ctx context.Context, req ChatSessionCreate) (*domain.ChatSession, error) {
	var resp domain.ChatSession
	err := s.api.Do(ctx, "/api/chat/sessions", &api.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ChatService) ListSessions(ctx context.Context, filter ChatSessionFilter) ([]domain.ChatSession, error) {
	var resp chatSessionList
	err := s.api.Do(ctx, "/api/chat/sessions", &api.RequestOptions{Query: filter.values()}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *ChatService) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.ChatSession, error) {
	var resp domain.ChatSession
	path := fmt.Sprintf("/api/chat/sessions/%s", sessionID)
	if err := s.api.Do(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMessages returns a session's messages oldest first. A limit of zero
// leaves the page size to the backend default.
func (s *ChatService) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var resp chatMessageList
	path := fmt.Sprintf("/api/chat/sessions/%s/messages", sessionID)
	if err := s.api.Do(ctx, path, &api.RequestOptions{Query: values}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *ChatService) CreateMessage(ctx context.Context, sessionID uuid.UUID, req ChatMessageCreate) (*domain.ChatMessage, error) {
	var resp domain.ChatMessage
	path := fmt.Sprintf("/api/chat/sessions/%s/messages", sessionID)
	err := s.api.Do(ctx, path, &api.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
