package db

import (
	"context"
	"fmt"
	"time"

	"github.com/airwave-tv/airwave/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository handles database operations for schedule blocks.
// Blocks for a channel are contiguous and non-overlapping when ordered by
// block_start; the unique index on (channel_id, block_start) makes upserts
// idempotent.
type BlockRepository struct {
	db *DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// GetCovering retrieves the block whose [block_start, block_end) window
// contains the given instant, or ErrNotFound if the horizon does not reach
// that far
func (r *BlockRepository) GetCovering(ctx context.Context, channelID uint, at time.Time) (*models.ScheduleBlock, error) {
	var block models.ScheduleBlock
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND block_start <= ? AND block_end > ?", channelID, at.UTC(), at.UTC()).
		First(&block)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &block, nil
}

// GetByStart retrieves the block starting exactly at the given grid instant
func (r *BlockRepository) GetByStart(ctx context.Context, channelID uint, start time.Time) (*models.ScheduleBlock, error) {
	var block models.ScheduleBlock
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND block_start = ?", channelID, start.UTC()).
		First(&block)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &block, nil
}

// GetRange retrieves all blocks overlapping [from, to), ordered by block_start
func (r *BlockRepository) GetRange(ctx context.Context, channelID uint, from, to time.Time) ([]*models.ScheduleBlock, error) {
	var blocks []*models.ScheduleBlock
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND block_end > ? AND block_start < ?", channelID, from.UTC(), to.UTC()).
		Order("block_start ASC").
		Find(&blocks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get block range: %w", MapGormError(result.Error))
	}
	return blocks, nil
}

// GetAllByChannel retrieves every persisted block for a channel in timeline order
func (r *BlockRepository) GetAllByChannel(ctx context.Context, channelID uint) ([]*models.ScheduleBlock, error) {
	var blocks []*models.ScheduleBlock
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("block_start ASC").
		Find(&blocks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get channel blocks: %w", MapGormError(result.Error))
	}
	return blocks, nil
}

// ReplaceWindow commits one regeneration for a channel: every block starting
// at or after from is deleted and the newly computed blocks are upserted, all
// in a single transaction. On failure the previously persisted blocks remain
// intact and queryable.
func (r *BlockRepository) ReplaceWindow(ctx context.Context, channelID uint, from time.Time, blocks []*models.ScheduleBlock) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.
			Where("channel_id = ? AND block_start >= ?", channelID, from.UTC()).
			Delete(&models.ScheduleBlock{}).Error; err != nil {
			return fmt.Errorf("failed to clear stale blocks: %w", MapGormError(err))
		}

		if len(blocks) == 0 {
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "channel_id"}, {Name: "block_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"block_end", "content_version", "seed_index", "seed_offset",
				"next_index", "next_offset", "entries",
			}),
		}).Create(blocks).Error; err != nil {
			return fmt.Errorf("failed to upsert blocks: %w", MapGormError(err))
		}

		return nil
	})
}

// DeleteBefore prunes blocks fully elapsed before the cutoff, across all
// channels. Returns the number of pruned blocks.
func (r *BlockRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("block_end <= ?", cutoff.UTC()).
		Delete(&models.ScheduleBlock{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune blocks: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// DeleteByChannel removes every block for a channel
func (r *BlockRepository) DeleteByChannel(ctx context.Context, channelID uint) error {
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&models.ScheduleBlock{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel blocks: %w", MapGormError(result.Error))
	}
	return nil
}
