// Package channel implements business logic for channel lifecycle and
// lineup management.
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/models"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// ChannelService handles business logic for channel operations. Content
// list changes flow through here so the schedule is regenerated exactly
// once per change.
type ChannelService struct {
	repos     *db.Repositories
	scheduler *schedule.Manager
}

// NewChannelService creates a new channel service instance
func NewChannelService(repos *db.Repositories, scheduler *schedule.Manager) *ChannelService {
	return &ChannelService{
		repos:     repos,
		scheduler: scheduler,
	}
}

// CreateChannel creates a new channel with validation
func (s *ChannelService) CreateChannel(ctx context.Context, number int, name string, kind models.ChannelKind) (*models.Channel, error) {
	if number < 1 {
		return nil, fmt.Errorf("failed to create channel: %w", ErrInvalidChannelNumber)
	}
	if kind == "" {
		kind = models.ChannelKindCustom
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("failed to create channel: %w", ErrInvalidChannelKind)
	}

	if err := s.validateNameUniqueness(ctx, name, 0); err != nil {
		logger.Log.Warn().
			Str("name", name).
			Msg("Channel creation failed: duplicate name")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	channel := models.NewChannel(number, name, kind)
	if err := s.repos.Channels.Create(ctx, channel); err != nil {
		if db.IsDuplicate(err) {
			logger.Log.Warn().
				Int("number", number).
				Msg("Channel creation failed: duplicate number")
			return nil, fmt.Errorf("failed to create channel: %w", ErrDuplicateChannelNumber)
		}
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create channel in database")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	logger.Log.Info().
		Uint("channel_id", channel.ID).
		Int("number", channel.Number).
		Str("name", channel.Name).
		Str("kind", string(channel.Kind)).
		Msg("Channel created successfully")

	return channel, nil
}

// GetByID retrieves a channel by its ID
func (s *ChannelService) GetByID(ctx context.Context, id uint) (*models.Channel, error) {
	channel, err := s.repos.Channels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to get channel by ID")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// GetByNumber retrieves a channel by its display number
func (s *ChannelService) GetByNumber(ctx context.Context, number int) (*models.Channel, error) {
	channel, err := s.repos.Channels.GetByNumber(ctx, number)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Int("number", number).
			Msg("Failed to get channel by number")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// List retrieves all channels in display number order
func (s *ChannelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	logger.Log.Debug().
		Int("count", len(channels)).
		Msg("Listed channels")

	return channels, nil
}

// UpdateChannel updates a channel's number, name, or kind with validation.
// Lineup changes go through ReplaceItems instead.
func (s *ChannelService) UpdateChannel(ctx context.Context, channel *models.Channel) error {
	existing, err := s.GetByID(ctx, channel.ID)
	if err != nil {
		return err
	}

	if channel.Number < 1 {
		return fmt.Errorf("failed to update channel: %w", ErrInvalidChannelNumber)
	}
	if !channel.Kind.Valid() {
		return fmt.Errorf("failed to update channel: %w", ErrInvalidChannelKind)
	}

	if !strings.EqualFold(existing.Name, channel.Name) {
		if err := s.validateNameUniqueness(ctx, channel.Name, channel.ID); err != nil {
			logger.Log.Warn().
				Uint("channel_id", channel.ID).
				Str("name", channel.Name).
				Msg("Channel update failed: duplicate name")
			return fmt.Errorf("failed to update channel: %w", err)
		}
	}

	// Content version is owned by lineup replacement, never by metadata edits
	channel.ContentVersion = existing.ContentVersion
	channel.UpdatedAt = time.Now().UTC()

	if err := s.repos.Channels.Update(ctx, channel); err != nil {
		if db.IsDuplicate(err) {
			return fmt.Errorf("failed to update channel: %w", ErrDuplicateChannelNumber)
		}
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channel.ID).
			Msg("Failed to update channel in database")
		return fmt.Errorf("failed to update channel: %w", err)
	}

	logger.Log.Info().
		Uint("channel_id", channel.ID).
		Str("name", channel.Name).
		Msg("Channel updated successfully")

	return nil
}

// DeleteChannel deletes a channel and all of its persisted schedule state
func (s *ChannelService) DeleteChannel(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	// Delete from database (cascade to items and blocks handled by DB)
	if err := s.repos.Channels.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to delete channel from database")
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	if err := s.scheduler.DropChannel(ctx, id); err != nil {
		logger.Log.Warn().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to drop schedule state for deleted channel")
	}

	logger.Log.Info().
		Uint("channel_id", id).
		Msg("Channel deleted successfully")

	return nil
}

// ReplaceItems atomically replaces a channel's lineup with the given media
// IDs in on-air order, bumps the content version, and regenerates the
// channel's schedule. The airing program is never cut short: new content
// takes effect from its end.
func (s *ChannelService) ReplaceItems(ctx context.Context, channelID uint, mediaIDs []uuid.UUID) (*models.Channel, error) {
	if _, err := s.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	if err := s.validateMediaExist(ctx, mediaIDs); err != nil {
		return nil, fmt.Errorf("failed to replace channel items: %w", err)
	}

	items := make([]*models.ChannelItem, len(mediaIDs))
	for i, mediaID := range mediaIDs {
		items[i] = models.NewChannelItem(channelID, mediaID, i)
	}

	newVersion, err := s.repos.ChannelItems.ReplaceForChannel(ctx, channelID, items)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channelID).
			Msg("Failed to replace channel items")
		return nil, fmt.Errorf("failed to replace channel items: %w", err)
	}

	logger.Log.Info().
		Uint("channel_id", channelID).
		Int("item_count", len(items)).
		Int64("content_version", newVersion).
		Msg("Channel lineup replaced")

	// Regenerate from the currently airing block forward. A concurrent
	// regeneration coalesces; the in-flight holder re-runs with the new
	// lineup before releasing.
	if err := s.scheduler.RegenerateChannel(ctx, channelID); err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channelID).
			Msg("Failed to regenerate schedule after lineup change")
		return nil, fmt.Errorf("lineup replaced but regeneration failed: %w", err)
	}

	return s.GetByID(ctx, channelID)
}

// GetItems retrieves a channel's lineup in on-air order with media attached
func (s *ChannelService) GetItems(ctx context.Context, channelID uint) ([]*models.ChannelItem, error) {
	if _, err := s.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	items, err := s.repos.ChannelItems.GetWithMedia(ctx, channelID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channelID).
			Msg("Failed to get channel items")
		return nil, fmt.Errorf("failed to get channel items: %w", err)
	}

	return items, nil
}

// validateNameUniqueness checks if a channel name is unique (case-insensitive)
// excludeID allows excluding a specific channel ID (for updates)
func (s *ChannelService) validateNameUniqueness(ctx context.Context, name string, excludeID uint) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate name uniqueness: %w", err)
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))

	for _, channel := range channels {
		if channel.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(channel.Name)) == nameLower {
			return ErrDuplicateChannelName
		}
	}

	return nil
}

// validateMediaExist verifies every referenced media ID is in the library
func (s *ChannelService) validateMediaExist(ctx context.Context, mediaIDs []uuid.UUID) error {
	exists, err := s.repos.Media.ExistsByIDs(ctx, mediaIDs)
	if err != nil {
		return fmt.Errorf("failed to validate media: %w", err)
	}
	for _, id := range mediaIDs {
		if !exists[id] {
			return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
		}
	}
	return nil
}
