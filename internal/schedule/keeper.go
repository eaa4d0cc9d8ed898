package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/metrics"
)

// Keeper is the background loop that keeps every channel's schedule horizon
// materialized and prunes fully elapsed blocks past the retention window. It
// only ever writes through the manager, so it can never conflict with an
// on-demand regeneration and never blocks the read path.
type Keeper struct {
	manager  *Manager
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.Mutex
	stopped  bool
}

// NewKeeper creates a horizon keeper ticking at the given interval
func NewKeeper(manager *Manager, interval time.Duration) *Keeper {
	return &Keeper{
		manager:  manager,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs an immediate pass and then begins the periodic loop
func (k *Keeper) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stopped {
		return ErrKeeperStopped
	}

	k.ticker = time.NewTicker(k.interval)
	go k.run()

	logger.Log.Info().
		Dur("interval", k.interval).
		Msg("Horizon keeper started")

	return nil
}

// Stop gracefully shuts down the keeper, waiting for an in-flight pass
func (k *Keeper) Stop() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return
	}
	k.stopped = true
	k.mu.Unlock()

	close(k.stopChan)
	if k.ticker != nil {
		<-k.doneChan
		k.ticker.Stop()
	}

	logger.Log.Info().Msg("Horizon keeper stopped")
}

func (k *Keeper) run() {
	defer close(k.doneChan)

	// First pass immediately so restarts do not wait a full interval to
	// backfill the horizon
	k.pass()

	for {
		select {
		case <-k.stopChan:
			logger.Log.Debug().Msg("Horizon keeper loop stopping")
			return
		case <-k.ticker.C:
			k.pass()
		}
	}
}

// pass runs one maintenance sweep: extend every channel's horizon, then
// prune elapsed blocks. Per-channel failures are logged inside the manager
// and never abort the sweep.
func (k *Keeper) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), k.interval)
	defer cancel()

	start := time.Now()

	opts := k.manager.EffectiveOptions(ctx)
	if !opts.AutoRegenerate {
		logger.Log.Debug().Msg("Auto-regeneration disabled, skipping horizon pass")
		return
	}

	if err := k.manager.EnsureHorizonAll(ctx); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Horizon pass completed with failures")
	}

	if _, err := k.manager.Prune(ctx); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to prune elapsed blocks")
	}

	metrics.HorizonPassDuration.Observe(time.Since(start).Seconds())
}
