package models

import (
	"time"
)

// ChannelKind describes how a channel's lineup is produced
type ChannelKind string

const (
	// ChannelKindAuto is a channel generated automatically from the library
	ChannelKindAuto ChannelKind = "auto"

	// ChannelKindPreset is a channel generated from a genre/preset selection
	ChannelKindPreset ChannelKind = "preset"

	// ChannelKindCustom is a channel with a hand-picked lineup
	ChannelKindCustom ChannelKind = "custom"
)

// Valid reports whether the kind is one of the known channel kinds
func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelKindAuto, ChannelKindPreset, ChannelKindCustom:
		return true
	}
	return false
}

// Channel represents a simulated linear TV channel.
// The ordered item list lives in channel_items; ContentVersion increments
// every time that list changes so the scheduler can detect stale blocks.
type Channel struct {
	ID             uint        `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	Number         int         `json:"number" gorm:"type:integer;not null;uniqueIndex;column:number" validate:"gte=1"`
	Name           string      `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Kind           ChannelKind `json:"kind" gorm:"type:text;not null;default:custom;column:kind"`
	ContentVersion int64       `json:"content_version" gorm:"type:integer;not null;default:0;column:content_version"`
	CreatedAt      time.Time   `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt      time.Time   `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates a new Channel with timestamps set
func NewChannel(number int, name string, kind ChannelKind) *Channel {
	now := time.Now().UTC()
	return &Channel{
		Number:    number,
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
