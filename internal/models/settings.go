package models

import (
	"time"
)

// Settings represents the runtime-editable scheduling options.
// A single row (id=1) holds the options recognized by the scheduler; values
// are seconds where durations are concerned.
type Settings struct {
	ID                  int       `json:"id" gorm:"type:integer;primaryKey;default:1;column:id"`
	BlockDuration       int64     `json:"block_duration" gorm:"type:integer;not null;default:28800;column:block_duration"`
	HorizonBlocks       int       `json:"horizon_blocks" gorm:"type:integer;not null;default:3;column:horizon_blocks"`
	RetentionWindow     int64     `json:"retention_window" gorm:"type:integer;not null;default:86400;column:retention_window"`
	InterstitialFill    int64     `json:"interstitial_fill" gorm:"type:integer;not null;default:120;column:interstitial_fill"`
	ProgramBreak        int64     `json:"program_break" gorm:"type:integer;not null;default:0;column:program_break"`
	AutoRegenerate      bool      `json:"auto_regenerate" gorm:"type:integer;not null;default:1;column:auto_regenerate"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DefaultSettings returns settings with default values: 8 hour blocks, a
// 3-block horizon, 24 hours of history and 2 minute interstitials.
func DefaultSettings() *Settings {
	return &Settings{
		ID:               1,
		BlockDuration:    28800,
		HorizonBlocks:    3,
		RetentionWindow:  86400,
		InterstitialFill: 120,
		ProgramBreak:     0,
		AutoRegenerate:   true,
		UpdatedAt:        time.Now().UTC(),
	}
}
