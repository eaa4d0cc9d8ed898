// Package guide implements the read side of the scheduling engine: the
// program guide views assembled from persisted schedule blocks.
package guide

import (
	"context"
	"fmt"

	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/models"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// Service assembles guide views from persisted blocks. It is purely a
// reader; it never triggers generation.
type Service struct {
	repos    *db.Repositories
	resolver *schedule.Resolver
}

// NewService creates a new guide service
func NewService(repos *db.Repositories, resolver *schedule.Resolver) *Service {
	return &Service{repos: repos, resolver: resolver}
}

// GetSchedule returns the channel's full materialized timeline in on-air
// order. Entries duplicated across block boundaries appear once: an entry
// starting before the block it is stored in is a continuation from the
// previous block and is skipped unless it opens the timeline.
func (s *Service) GetSchedule(ctx context.Context, channelID uint) ([]models.ScheduledEntry, error) {
	if err := s.channelExists(ctx, channelID); err != nil {
		return nil, err
	}

	blocks, err := s.repos.Blocks.GetAllByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}

	var entries []models.ScheduledEntry
	for i, block := range blocks {
		for _, entry := range block.Entries {
			if i > 0 && entry.StartTime.Before(block.BlockStart) {
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// GetNow returns what the channel is airing right now
func (s *Service) GetNow(ctx context.Context, channelID uint) (*schedule.NowPlaying, error) {
	if err := s.channelExists(ctx, channelID); err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, channelID)
}

// GetUpcoming returns the currently airing entry followed by up to limit
// entries after it, walking forward across block boundaries
func (s *Service) GetUpcoming(ctx context.Context, channelID uint, limit int) ([]models.ScheduledEntry, error) {
	if err := s.channelExists(ctx, channelID); err != nil {
		return nil, err
	}

	now, err := s.resolver.Resolve(ctx, channelID)
	if err != nil {
		return nil, err
	}

	entries := []models.ScheduledEntry{now.Entry}
	cursor := now.Entry.EndTime

	for len(entries) < limit+1 {
		block, err := s.repos.Blocks.GetCovering(ctx, channelID, cursor)
		if err != nil {
			if db.IsNotFound(err) {
				break // horizon exhausted
			}
			return nil, fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
		}

		advanced := false
		for _, entry := range block.Entries {
			if entry.StartTime.Before(cursor) {
				continue
			}
			entries = append(entries, entry)
			cursor = entry.EndTime
			advanced = true
			if len(entries) == limit+1 {
				break
			}
		}
		if !advanced {
			// The cursor sits inside the block's final entry, which
			// continues into the next block
			cursor = block.BlockEnd
		}
	}

	return entries, nil
}

func (s *Service) channelExists(ctx context.Context, channelID uint) error {
	if _, err := s.repos.Channels.GetByID(ctx, channelID); err != nil {
		if db.IsNotFound(err) {
			return schedule.ErrChannelNotFound
		}
		return fmt.Errorf("failed to get channel %d: %w", channelID, err)
	}
	return nil
}
