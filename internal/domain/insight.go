package domain

import "github.com/google/uuid"

// GraphNode is one character in the narrative graph at a playback position.
type GraphNode struct {
	ID          uuid.UUID `json:"id"`
	CharacterID uuid.UUID `json:"character_id"`
	Name        string    `json:"name"`
	Group       string    `json:"group,omitempty"`
}

// GraphEdge is a directed relation between two graph nodes.
type GraphEdge struct {
	ID       uuid.UUID `json:"id"`
	SourceID uuid.UUID `json:"source_id"`
	TargetID uuid.UUID `json:"target_id"`
	Relation string    `json:"relation"`
}

// GraphResponse is the narrative graph for an episode up to a playback
// position. The payload is complete by backend contract; no client-side
// normalization is applied.
type GraphResponse struct {
	TitleID       uuid.UUID   `json:"title_id"`
	EpisodeID     uuid.UUID   `json:"episode_id"`
	CurrentTimeMs int64       `json:"current_time_ms"`
	Nodes         []GraphNode `json:"nodes"`
	Edges         []GraphEdge `json:"edges"`
}

type RecapRequest struct {
	TitleID       uuid.UUID `json:"title_id"`
	EpisodeID     uuid.UUID `json:"episode_id"`
	CurrentTimeMs int64     `json:"current_time_ms"`
}

type RecapResponse struct {
	Recap string `json:"recap"`
	Model string `json:"model,omitempty"`
}

type QARequest struct {
	TitleID       uuid.UUID `json:"title_id"`
	EpisodeID     uuid.UUID `json:"episode_id"`
	CurrentTimeMs int64     `json:"current_time_ms"`
	Question      string    `json:"question"`
}

type QAResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model,omitempty"`
}

// CharacterRelation is one relation entry on a character card.
type CharacterRelation struct {
	CharacterID uuid.UUID `json:"character_id"`
	Name        string    `json:"name"`
	Relation    string    `json:"relation"`
}

// CharacterCardResponse describes a character as known at a playback
// position, spoiler-bounded by episode and timestamp.
type CharacterCardResponse struct {
	CharacterID uuid.UUID           `json:"character_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Relations   []CharacterRelation `json:"relations"`
}
