package db

import (
	"context"
	"fmt"

	"github.com/airwave-tv/airwave/internal/models"
	"gorm.io/gorm"
)

// ChannelItemRepository handles database operations for channel lineups
type ChannelItemRepository struct {
	db *DB
}

// NewChannelItemRepository creates a new channel item repository
func NewChannelItemRepository(db *DB) *ChannelItemRepository {
	return &ChannelItemRepository{db: db}
}

// GetByChannelID retrieves all items for a channel, ordered by position
func (r *ChannelItemRepository) GetByChannelID(ctx context.Context, channelID uint) ([]*models.ChannelItem, error) {
	var items []*models.ChannelItem
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get channel items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetWithMedia retrieves a channel's items in playback order with media
// metadata attached. This is the scheduler's view of the content list.
func (r *ChannelItemRepository) GetWithMedia(ctx context.Context, channelID uint) ([]*models.ChannelItem, error) {
	items, err := r.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	mediaIDs := make([]string, len(items))
	for i, item := range items {
		mediaIDs[i] = item.MediaID.String()
	}

	var mediaList []*models.Media
	result := r.db.WithContext(ctx).Where("id IN ?", mediaIDs).Find(&mediaList)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load media for channel items: %w", MapGormError(result.Error))
	}

	byID := make(map[string]*models.Media, len(mediaList))
	for _, m := range mediaList {
		byID[m.ID.String()] = m
	}
	for _, item := range items {
		item.Media = byID[item.MediaID.String()]
	}

	return items, nil
}

// ReplaceForChannel replaces a channel's entire item list in a single
// transaction and bumps the channel's content version. Returns the new
// version so callers can tell whether schedule blocks are stale.
func (r *ChannelItemRepository) ReplaceForChannel(ctx context.Context, channelID uint, items []*models.ChannelItem) (int64, error) {
	var newVersion int64
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID).Delete(&models.ChannelItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear channel items: %w", MapGormError(err))
		}

		if len(items) > 0 {
			if err := tx.Create(items).Error; err != nil {
				return fmt.Errorf("failed to insert channel items: %w", MapGormError(err))
			}
		}

		result := tx.Model(&models.Channel{}).
			Where("id = ?", channelID).
			Update("content_version", gorm.Expr("content_version + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to bump content version: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var channel models.Channel
		if err := tx.Where("id = ?", channelID).First(&channel).Error; err != nil {
			return MapGormError(err)
		}
		newVersion = channel.ContentVersion
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// DeleteByChannelID deletes all items for a channel
func (r *ChannelItemRepository) DeleteByChannelID(ctx context.Context, channelID uint) error {
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&models.ChannelItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel items: %w", MapGormError(result.Error))
	}
	return nil
}
