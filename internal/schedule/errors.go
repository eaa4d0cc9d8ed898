package schedule

import "errors"

// Custom scheduling errors
var (
	// ErrChannelNotFound indicates the requested channel does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNotScheduled indicates no persisted block covers the requested
	// instant: the horizon has not reached that far or the channel has an
	// empty content list. Callers must treat this as "no program", not as
	// a failure.
	ErrNotScheduled = errors.New("nothing scheduled at this time")

	// ErrStoreUnavailable indicates the block store could not be reached;
	// distinct from ErrNotScheduled so callers can render "guide
	// temporarily unavailable" rather than "no program"
	ErrStoreUnavailable = errors.New("schedule store unavailable")

	// ErrKeeperStopped indicates the horizon keeper was already stopped
	ErrKeeperStopped = errors.New("horizon keeper is stopped")
)

// IsNotScheduled checks if the error is a not scheduled error
func IsNotScheduled(err error) bool {
	return errors.Is(err, ErrNotScheduled)
}

// IsStoreUnavailable checks if the error is a store availability error
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
