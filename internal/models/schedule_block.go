package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryKind distinguishes real programs from filler
type EntryKind string

const (
	// EntryKindProgram is a scheduled library item
	EntryKindProgram EntryKind = "program"

	// EntryKindInterstitial is filler with no backing content reference
	EntryKindInterstitial EntryKind = "interstitial"
)

// ScheduledEntry is one on-air interval within a block.
//
// StartTime and EndTime are the item's global on-air interval. An entry that
// crosses a block boundary is stored in both adjacent blocks with identical
// times; the boundary is a storage artifact, never a presentation gap.
type ScheduledEntry struct {
	MediaID        *uuid.UUID `json:"media_id,omitempty"`
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Kind           EntryKind  `json:"kind"`
	Classification MediaKind  `json:"classification,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Duration       int64      `json:"duration"` // seconds
	ItemIndex      int        `json:"item_index"`
}

// Contains reports whether at falls inside this entry's on-air interval
func (e *ScheduledEntry) Contains(at time.Time) bool {
	return !at.Before(e.StartTime) && at.Before(e.EndTime)
}

// EntryList is a JSON-serialized slice of entries stored in a single column
type EntryList []ScheduledEntry

// Value implements driver.Valuer for database storage
func (l EntryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (l *EntryList) Scan(value interface{}) error {
	if value == nil {
		*l = EntryList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported entry list type %T", value)
	}
	return json.Unmarshal(data, l)
}

// ScheduleBlock is one fixed-duration, grid-aligned chunk of a channel's
// timeline. SeedIndex/SeedOffset capture the cursor state at BlockStart and
// NextIndex/NextOffset the cursor state at BlockEnd, so forward progress can
// always be reconstructed from persisted state without replaying history.
type ScheduleBlock struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID      uint      `json:"channel_id" gorm:"not null;uniqueIndex:idx_blocks_channel_start;column:channel_id"`
	BlockStart     time.Time `json:"block_start" gorm:"type:datetime;not null;uniqueIndex:idx_blocks_channel_start;column:block_start"`
	BlockEnd       time.Time `json:"block_end" gorm:"type:datetime;not null;column:block_end"`
	ContentVersion int64     `json:"content_version" gorm:"type:integer;not null;column:content_version"`
	SeedIndex      int       `json:"seed_index" gorm:"type:integer;not null;column:seed_index"`
	SeedOffset     int64     `json:"seed_offset" gorm:"type:integer;not null;column:seed_offset"` // seconds
	NextIndex      int       `json:"next_index" gorm:"type:integer;not null;column:next_index"`
	NextOffset     int64     `json:"next_offset" gorm:"type:integer;not null;column:next_offset"` // seconds
	Entries        EntryList `json:"entries" gorm:"type:text;not null;column:entries"`
	CreatedAt      time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewScheduleBlock creates a block for the given channel and window
func NewScheduleBlock(channelID uint, start, end time.Time, contentVersion int64) *ScheduleBlock {
	return &ScheduleBlock{
		ID:             uuid.New(),
		ChannelID:      channelID,
		BlockStart:     start.UTC(),
		BlockEnd:       end.UTC(),
		ContentVersion: contentVersion,
		Entries:        EntryList{},
		CreatedAt:      time.Now().UTC(),
	}
}

// Covers reports whether at falls inside [BlockStart, BlockEnd)
func (b *ScheduleBlock) Covers(at time.Time) bool {
	return !at.Before(b.BlockStart) && at.Before(b.BlockEnd)
}
