package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaKind classifies a library item for presentation purposes
type MediaKind string

const (
	// MediaKindMovie is a standalone film
	MediaKindMovie MediaKind = "movie"

	// MediaKindEpisode is an episode of a show
	MediaKindEpisode MediaKind = "episode"
)

// Valid reports whether the kind is one of the known media kinds
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindMovie, MediaKindEpisode:
		return true
	}
	return false
}

// Media represents one item in the on-demand library.
// Duration is the sole scheduling input; a zero duration is handled by the
// timeline builder via interstitial substitution, never treated as fatal.
type Media struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Title     string    `json:"title" gorm:"type:text;not null;column:title" validate:"required"`
	ShowName  *string   `json:"show_name,omitempty" gorm:"type:text;column:show_name"`
	Season    *int      `json:"season,omitempty" gorm:"type:integer;column:season"`
	Episode   *int      `json:"episode,omitempty" gorm:"type:integer;column:episode"`
	Kind      MediaKind `json:"kind" gorm:"type:text;not null;default:movie;column:kind"`
	Duration  int64     `json:"duration" gorm:"type:integer;not null;default:0;column:duration"` // seconds
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewMedia creates a new Media with generated UUID and timestamp
func NewMedia(title string, kind MediaKind, duration int64) *Media {
	return &Media{
		ID:        uuid.New(),
		Title:     title,
		Kind:      kind,
		Duration:  duration,
		CreatedAt: time.Now().UTC(),
	}
}

// Subtitle returns the episode designation (e.g. "S01E05") or an empty
// string for media without season/episode numbering
func (m *Media) Subtitle() string {
	if m.Season != nil && m.Episode != nil {
		return fmt.Sprintf("S%02dE%02d", *m.Season, *m.Episode)
	}
	return ""
}
