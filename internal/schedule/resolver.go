package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/metrics"
	"github.com/airwave-tv/airwave/internal/models"
)

// NowPlaying describes what a channel is airing at a queried instant
type NowPlaying struct {
	ChannelID uint                  `json:"channel_id"`
	Entry     models.ScheduledEntry `json:"entry"`
	// Offset is how far into the entry the instant falls, in seconds
	Offset int64 `json:"offset"`
}

// Resolver answers "what is airing on channel C at time T" with a single
// indexed block lookup against persisted state. It never triggers
// generation and is safe to call concurrently with regeneration: each
// lookup sees either the old or the new committed block, both internally
// consistent.
type Resolver struct {
	blocks *db.BlockRepository
}

// NewResolver creates a new now-playing resolver
func NewResolver(blocks *db.BlockRepository) *Resolver {
	return &Resolver{blocks: blocks}
}

// Resolve returns what the channel is airing right now
func (r *Resolver) Resolve(ctx context.Context, channelID uint) (*NowPlaying, error) {
	return r.ResolveAt(ctx, channelID, time.Now().UTC())
}

// ResolveAt returns the entry covering the given instant and the viewer's
// offset into it. Returns ErrNotScheduled when no block covers the instant
// or the covering block is empty, and ErrStoreUnavailable when the store
// cannot be read.
func (r *Resolver) ResolveAt(ctx context.Context, channelID uint, at time.Time) (*NowPlaying, error) {
	at = at.UTC()

	block, err := r.blocks.GetCovering(ctx, channelID, at)
	if err != nil {
		if db.IsNotFound(err) {
			metrics.ResolverQueriesTotal.WithLabelValues(metrics.ResultNotScheduled).Inc()
			return nil, ErrNotScheduled
		}
		metrics.ResolverQueriesTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for i := range block.Entries {
		entry := block.Entries[i]
		if !entry.Contains(at) {
			continue
		}
		metrics.ResolverQueriesTotal.WithLabelValues(metrics.ResultHit).Inc()
		return &NowPlaying{
			ChannelID: channelID,
			Entry:     entry,
			Offset:    int64(at.Sub(entry.StartTime) / time.Second),
		}, nil
	}

	// A covering block with no entry for the instant means the channel's
	// content list was empty when the block was built
	metrics.ResolverQueriesTotal.WithLabelValues(metrics.ResultNotScheduled).Inc()
	return nil, ErrNotScheduled
}
