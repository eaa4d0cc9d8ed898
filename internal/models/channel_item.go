package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelItem represents one slot in a channel's cyclic playback order.
// Position ordering is significant: it is the on-air order, not membership.
type ChannelItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID uint      `json:"channel_id" gorm:"not null;column:channel_id" validate:"required"`
	MediaID   uuid.UUID `json:"media_id" gorm:"type:text;not null;column:media_id" validate:"required"`
	Position  int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, not stored in database
	Media *Media `json:"media,omitempty" gorm:"-"`
}

// NewChannelItem creates a new ChannelItem with generated UUID and timestamp
func NewChannelItem(channelID uint, mediaID uuid.UUID, position int) *ChannelItem {
	return &ChannelItem{
		ID:        uuid.New(),
		ChannelID: channelID,
		MediaID:   mediaID,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}
}
