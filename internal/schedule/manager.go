package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airwave-tv/airwave/internal/config"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/metrics"
	"github.com/airwave-tv/airwave/internal/models"
	"golang.org/x/sync/errgroup"
)

// Notifier receives best-effort change events after a successful
// regeneration. Delivery failures are never scheduling errors.
type Notifier interface {
	ScheduleChanged(channelID uint)
}

// Options are the effective scheduling options for one generation pass.
// Durations are expressed as time.Duration; the builder works in seconds.
type Options struct {
	BlockDuration    time.Duration
	HorizonBlocks    int
	RetentionWindow  time.Duration
	InterstitialFill time.Duration
	ProgramBreak     time.Duration
	AutoRegenerate   bool
	MaxConcurrent    int
}

// OptionsFromConfig derives scheduler options from process configuration
func OptionsFromConfig(cfg *config.ScheduleConfig) Options {
	return Options{
		BlockDuration:    cfg.BlockDuration,
		HorizonBlocks:    cfg.HorizonBlocks,
		RetentionWindow:  cfg.RetentionWindow,
		InterstitialFill: cfg.InterstitialFill,
		ProgramBreak:     cfg.ProgramBreak,
		AutoRegenerate:   cfg.AutoRegenerate,
		MaxConcurrent:    cfg.MaxConcurrent,
	}
}

func (o Options) buildOptions() BuildOptions {
	return BuildOptions{
		InterstitialFill: int64(o.InterstitialFill / time.Second),
		ProgramBreak:     int64(o.ProgramBreak / time.Second),
	}
}

// channelLock serializes regeneration per channel. A request arriving while
// one is in flight is coalesced into "run again after the current one
// completes" rather than run in parallel.
type channelLock struct {
	mu      sync.Mutex
	running bool
	pending bool
}

// Manager orchestrates the timeline builder against the block store: it
// generates missing future blocks, regenerates blocks after content changes,
// and guarantees one active generation per channel at a time.
type Manager struct {
	repos    *db.Repositories
	defaults Options
	notifier Notifier

	mu    sync.Mutex
	locks map[uint]*channelLock
}

// NewManager creates a new schedule manager. The notifier may be nil.
func NewManager(repos *db.Repositories, defaults Options, notifier Notifier) *Manager {
	return &Manager{
		repos:    repos,
		defaults: defaults,
		notifier: notifier,
		locks:    make(map[uint]*channelLock),
	}
}

// EffectiveOptions returns the scheduling options currently in force: the
// process defaults overridden by the settings row where present. A settings
// read failure falls back to the defaults rather than blocking scheduling.
func (m *Manager) EffectiveOptions(ctx context.Context) Options {
	opts := m.defaults

	settings, err := m.repos.Settings.Get(ctx)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Failed to load settings, using configured defaults")
		return opts
	}

	if settings.BlockDuration > 0 {
		opts.BlockDuration = time.Duration(settings.BlockDuration) * time.Second
	}
	if settings.HorizonBlocks > 0 {
		opts.HorizonBlocks = settings.HorizonBlocks
	}
	if settings.RetentionWindow > 0 {
		opts.RetentionWindow = time.Duration(settings.RetentionWindow) * time.Second
	}
	if settings.InterstitialFill > 0 {
		opts.InterstitialFill = time.Duration(settings.InterstitialFill) * time.Second
	}
	if settings.ProgramBreak >= 0 {
		opts.ProgramBreak = time.Duration(settings.ProgramBreak) * time.Second
	}
	opts.AutoRegenerate = settings.AutoRegenerate

	return opts
}

// EnsureHorizon generates any missing or stale blocks so that the channel's
// schedule is materialized for the configured lookahead window. It is
// idempotent: a channel whose horizon is already current is left untouched.
func (m *Manager) EnsureHorizon(ctx context.Context, channelID uint) error {
	return m.withChannelLock(channelID, func() error {
		return m.generate(ctx, channelID, time.Now().UTC(), false)
	})
}

// RegenerateChannel rebuilds the channel's schedule from the currently
// airing block forward. Fully elapsed blocks are left untouched. Safe to
// call repeatedly; a call with no intervening content change persists
// identical blocks.
func (m *Manager) RegenerateChannel(ctx context.Context, channelID uint) error {
	return m.withChannelLock(channelID, func() error {
		return m.generate(ctx, channelID, time.Now().UTC(), true)
	})
}

// RegenerateAll regenerates every channel with bounded parallelism. One
// channel's failure never aborts the batch; the returned error summarizes
// how many channels failed.
func (m *Manager) RegenerateAll(ctx context.Context) error {
	return m.forEachChannel(ctx, m.RegenerateChannel)
}

// EnsureHorizonAll extends every channel's horizon with bounded parallelism
func (m *Manager) EnsureHorizonAll(ctx context.Context) error {
	return m.forEachChannel(ctx, m.EnsureHorizon)
}

func (m *Manager) forEachChannel(ctx context.Context, fn func(context.Context, uint) error) error {
	channels, err := m.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	opts := m.EffectiveOptions(ctx)

	var mu sync.Mutex
	var failed int

	g := &errgroup.Group{}
	g.SetLimit(opts.MaxConcurrent)
	for _, ch := range channels {
		id := ch.ID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := fn(ctx, id); err != nil {
				logger.Log.Error().
					Err(err).
					Uint("channel_id", id).
					Msg("Channel schedule generation failed")
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // nolint:errcheck // per-channel errors are captured above

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("schedule batch interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("schedule generation failed for %d of %d channels", failed, len(channels))
	}
	return nil
}

// Prune deletes blocks that fell out of the retention window
func (m *Manager) Prune(ctx context.Context) (int64, error) {
	opts := m.EffectiveOptions(ctx)
	cutoff := time.Now().UTC().Add(-opts.RetentionWindow)

	pruned, err := m.repos.Blocks.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune blocks: %w", err)
	}
	if pruned > 0 {
		metrics.BlocksPrunedTotal.Add(float64(pruned))
		logger.Log.Info().
			Int64("pruned", pruned).
			Time("cutoff", cutoff).
			Msg("Pruned elapsed schedule blocks")
	}
	return pruned, nil
}

// DropChannel removes all persisted schedule state for a deleted channel
// and its in-process lock
func (m *Manager) DropChannel(ctx context.Context, channelID uint) error {
	if err := m.repos.Blocks.DeleteByChannel(ctx, channelID); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.locks, channelID)
	m.mu.Unlock()
	return nil
}

// lockFor returns the regeneration lock for a channel, creating it on first use
func (m *Manager) lockFor(channelID uint) *channelLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[channelID]
	if !ok {
		l = &channelLock{}
		m.locks[channelID] = l
	}
	return l
}

// withChannelLock runs fn with at most one generation in flight per channel.
// A request arriving while one runs marks the lock pending and returns
// immediately; the in-flight holder re-runs fn once more before releasing.
func (m *Manager) withChannelLock(channelID uint, fn func() error) error {
	l := m.lockFor(channelID)

	l.mu.Lock()
	if l.running {
		l.pending = true
		l.mu.Unlock()
		metrics.RegenerationsTotal.WithLabelValues(metrics.OutcomeCoalesced).Inc()
		logger.Log.Debug().
			Uint("channel_id", channelID).
			Msg("Regeneration already in flight, coalescing")
		return nil
	}
	l.running = true
	l.mu.Unlock()

	for {
		err := fn()

		l.mu.Lock()
		if l.pending {
			l.pending = false
			l.mu.Unlock()
			continue
		}
		l.running = false
		l.mu.Unlock()
		return err
	}
}

// generate is the single generation path for both horizon extension and
// forced regeneration. It computes the aligned block grid around now,
// decides which blocks are missing or stale, rebuilds from the first such
// block forward, and commits the result transactionally.
func (m *Manager) generate(ctx context.Context, channelID uint, now time.Time, force bool) error {
	ch, err := m.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return ErrChannelNotFound
		}
		metrics.RegenerationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to get channel %d: %w", channelID, err)
	}

	opts := m.EffectiveOptions(ctx)

	changed, err := m.generateChannel(ctx, ch, now, opts, force)
	if err != nil {
		metrics.RegenerationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		logger.Log.Error().
			Err(err).
			Uint("channel_id", ch.ID).
			Str("name", ch.Name).
			Msg("Schedule generation failed")
		return fmt.Errorf("failed to generate schedule for channel %d: %w", ch.ID, err)
	}

	if !changed {
		metrics.RegenerationsTotal.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil
	}

	metrics.RegenerationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	if m.notifier != nil {
		m.notifier.ScheduleChanged(ch.ID)
	}
	return nil
}

func (m *Manager) generateChannel(ctx context.Context, ch *models.Channel, now time.Time, opts Options, force bool) (bool, error) {
	items, err := m.repos.ChannelItems.GetWithMedia(ctx, ch.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load content list: %w", err)
	}

	base := now.UTC().Truncate(opts.BlockDuration)
	horizonEnd := base.Add(time.Duration(opts.HorizonBlocks) * opts.BlockDuration)

	existing, err := m.repos.Blocks.GetRange(ctx, ch.ID, base, horizonEnd)
	if err != nil {
		return false, fmt.Errorf("failed to read existing blocks: %w", err)
	}
	byStart := make(map[time.Time]*models.ScheduleBlock, len(existing))
	for _, b := range existing {
		byStart[b.BlockStart.UTC()] = b
	}

	// An empty content list means the channel has no schedule at all;
	// clear anything previously materialized.
	if len(items) == 0 {
		if len(existing) == 0 {
			return false, nil
		}
		if err := m.repos.Blocks.ReplaceWindow(ctx, ch.ID, base, nil); err != nil {
			return false, err
		}
		logger.Log.Info().
			Uint("channel_id", ch.ID).
			Msg("Cleared schedule for channel with empty content list")
		return true, nil
	}

	// Find the first block in the horizon that needs rebuilding
	first := -1
	for i := 0; i < opts.HorizonBlocks; i++ {
		start := base.Add(time.Duration(i) * opts.BlockDuration)
		block, ok := byStart[start]
		if force || !ok || block.ContentVersion != ch.ContentVersion {
			first = i
			break
		}
	}
	if first < 0 {
		return false, nil
	}

	firstStart := base.Add(time.Duration(first) * opts.BlockDuration)
	cursor := m.cursorAt(ctx, ch.ID, firstStart, opts)
	bopts := opts.buildOptions()

	blocks := make([]*models.ScheduleBlock, 0, opts.HorizonBlocks-first)
	for i := first; i < opts.HorizonBlocks; i++ {
		start := base.Add(time.Duration(i) * opts.BlockDuration)
		end := start.Add(opts.BlockDuration)

		block := models.NewScheduleBlock(ch.ID, start, end, ch.ContentVersion)
		block.SeedIndex = cursor.ItemIndex
		block.SeedOffset = cursor.Offset

		if i == first {
			if old, ok := byStart[start]; ok && old.Covers(now) {
				if preserved, resumed, ok := preserveAiring(old, items, now, end, bopts); ok {
					// Keep the old seed: the preserved head was
					// produced from it, not from the new list.
					block.SeedIndex = old.SeedIndex
					block.SeedOffset = old.SeedOffset
					rest, next := Build(items, resumed.cursor, resumed.at, end, bopts)
					block.Entries = append(preserved, rest...)
					cursor = next
					block.NextIndex = cursor.ItemIndex
					block.NextOffset = cursor.Offset
					blocks = append(blocks, block)
					continue
				}
			}
		}

		entries, next := Build(items, cursor, start, end, bopts)
		block.Entries = entries
		cursor = next
		block.NextIndex = cursor.ItemIndex
		block.NextOffset = cursor.Offset
		blocks = append(blocks, block)
	}

	if err := m.repos.Blocks.ReplaceWindow(ctx, ch.ID, firstStart, blocks); err != nil {
		return false, err
	}
	metrics.BlocksWrittenTotal.Add(float64(len(blocks)))

	logger.Log.Info().
		Uint("channel_id", ch.ID).
		Str("name", ch.Name).
		Int64("content_version", ch.ContentVersion).
		Int("blocks", len(blocks)).
		Time("from", firstStart).
		Time("until", horizonEnd).
		Bool("forced", force).
		Msg("Schedule blocks generated")

	return true, nil
}

// cursorAt determines the cursor state at a block boundary: the persisted
// end cursor of the preceding block when one exists, or the top of the
// content list on a cold start. Cursors are always re-derivable from
// persisted state; nothing depends on in-memory state surviving a restart.
func (m *Manager) cursorAt(ctx context.Context, channelID uint, start time.Time, opts Options) Cursor {
	prev, err := m.repos.Blocks.GetByStart(ctx, channelID, start.Add(-opts.BlockDuration))
	if err != nil {
		if !db.IsNotFound(err) {
			logger.Log.Warn().
				Err(err).
				Uint("channel_id", channelID).
				Time("block_start", start).
				Msg("Failed to read preceding block, starting cursor from top")
		}
		return Cursor{}
	}
	return Cursor{ItemIndex: prev.NextIndex, Offset: prev.NextOffset}
}

// resumePoint is where generation continues after a preserved entry
type resumePoint struct {
	at     time.Time
	cursor Cursor
}

// preserveAiring keeps the old block's entries up to and including the entry
// airing at now, so a content change never cuts the current program short.
// The airing entry is clamped at the block end if it crosses it; new content
// then starts at the boundary. Returns ok=false when the old block has no
// entry covering now.
func preserveAiring(old *models.ScheduleBlock, items []*models.ChannelItem, now, blockEnd time.Time, opts BuildOptions) (models.EntryList, resumePoint, bool) {
	airingIdx := -1
	for i := range old.Entries {
		if old.Entries[i].Contains(now) {
			airingIdx = i
			break
		}
	}
	if airingIdx < 0 {
		return nil, resumePoint{}, false
	}

	preserved := make(models.EntryList, airingIdx+1)
	copy(preserved, old.Entries[:airingIdx+1])

	airing := &preserved[airingIdx]
	n := len(items)
	idx := airing.ItemIndex

	sameSlot := airing.Kind == models.EntryKindProgram && idx < n &&
		items[idx].Media != nil && items[idx].Media.Duration == airing.Duration

	resumeAt := airing.EndTime
	var cursor Cursor
	if sameSlot {
		// The airing item still sits at the same slot with the same
		// length. Resuming at the end of its program segment keeps an
		// unchanged lineup's regeneration byte-identical; normalization
		// advances into the trailing break or the next item.
		cursor = Cursor{ItemIndex: idx, Offset: airing.Duration}
		if resumeAt.After(blockEnd) {
			// Crossing entry keeps its full global interval; the
			// cursor records the mid-program position at the boundary
			// so the next block opens with the continuation.
			cursor.Offset = int64(blockEnd.Sub(airing.StartTime) / time.Second)
			resumeAt = blockEnd
		}
	} else {
		// The lineup changed under the airing entry: new content starts
		// from the item after the one that was airing, wrapped into the
		// new list
		cursor = Cursor{ItemIndex: (idx + 1) % n}
		if resumeAt.After(blockEnd) {
			// The replaced item no longer exists to continue into the
			// next block, so it ends at the boundary and the new
			// lineup takes over from there
			airing.EndTime = blockEnd
			airing.Duration = int64(blockEnd.Sub(airing.StartTime) / time.Second)
			resumeAt = blockEnd
		}
	}

	return preserved, resumePoint{at: resumeAt, cursor: cursor}, true
}
