package domain

import "github.com/google/uuid"

// ChatSession is one Q&A conversation anchored to a title, episode and
// playback position.
type ChatSession struct {
	ID            uuid.UUID      `json:"id"`
	TitleID       uuid.UUID      `json:"title_id"`
	EpisodeID     uuid.UUID      `json:"episode_id"`
	UserID        string         `json:"user_id"`
	CurrentTimeMs int64          `json:"current_time_ms"`
	Meta          map[string]any `json:"meta"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

// ChatMessage is one turn within a chat session.
type ChatMessage struct {
	ID                uuid.UUID  `json:"id"`
	SessionID         uuid.UUID  `json:"session_id"`
	Role              string     `json:"role"`
	Content           string     `json:"content"`
	CurrentTimeMs     int64      `json:"current_time_ms"`
	Model             string     `json:"model,omitempty"`
	PromptTokens      int        `json:"prompt_tokens,omitempty"`
	CompletionTokens  int        `json:"completion_tokens,omitempty"`
	RelatedRelationID *uuid.UUID `json:"related_relation_id,omitempty"`
	CreatedAt         string     `json:"created_at,omitempty"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
