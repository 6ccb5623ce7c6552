package domain

import "github.com/google/uuid"

// Title is a render-ready catalog entry. Description is always present,
// defaulted to the empty string when the backend omits it.
type Title struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

// Episode is a render-ready episode entry. Name and DurationMs carry
// semantic defaults filled in by the catalog adapter.
type Episode struct {
	ID            uuid.UUID `json:"id"`
	TitleID       uuid.UUID `json:"title_id"`
	Season        int       `json:"season"`
	EpisodeNumber int       `json:"episode_number"`
	Name          string    `json:"name"`
	DurationMs    int64     `json:"duration_ms"`
	VideoURL      string    `json:"video_url,omitempty"`
}
