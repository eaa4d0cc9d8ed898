// Package schedule implements the deterministic scheduling engine that turns
// a channel's finite, ordered content list into an effectively infinite,
// gapless timeline, creating the illusion of a continuously broadcasting
// television channel.
package schedule

import (
	"time"

	"github.com/airwave-tv/airwave/internal/models"
)

// interstitialTitle is the display title for synthesized filler entries
const interstitialTitle = "Station Break"

// Cursor is the (item index, in-slot offset) pointer describing where a
// channel's cyclic playlist is positioned at a point in time. A slot is the
// item's on-air duration plus the configured trailing break, so the cursor
// carries cleanly across window boundaries even mid-break.
type Cursor struct {
	ItemIndex int   `json:"item_index"`
	Offset    int64 `json:"offset"` // seconds into the slot
}

// BuildOptions control filler synthesis during timeline construction
type BuildOptions struct {
	// InterstitialFill is the on-air length, in seconds, substituted for
	// items with zero or unknown duration
	InterstitialFill int64

	// ProgramBreak is the filler length, in seconds, inserted between two
	// distinct content items. Zero disables breaks.
	ProgramBreak int64
}

// Build produces a contiguous, non-overlapping sequence of scheduled entries
// filling [windowStart, windowEnd), starting from cursor, and returns the
// cursor state at windowEnd.
//
// Build is deterministic and side-effect free: identical inputs always yield
// identical output, so repeated or retried calls can never desynchronize
// viewers. It cannot fail on valid input; callers must ensure
// windowStart < windowEnd. Entry start/end times are the item's global
// on-air interval: an entry whose span crosses windowEnd reappears,
// unchanged, in the following window.
func Build(items []*models.ChannelItem, cursor Cursor, windowStart, windowEnd time.Time, opts BuildOptions) ([]models.ScheduledEntry, Cursor) {
	if len(items) == 0 || !windowStart.Before(windowEnd) {
		return nil, cursor
	}

	if opts.InterstitialFill <= 0 {
		opts.InterstitialFill = 1
	}

	idx, off := normalize(items, cursor, opts)

	var entries []models.ScheduledEntry
	clock := windowStart.UTC()
	end := windowEnd.UTC()

	for clock.Before(end) {
		item := items[idx]
		progDur, kind := slotProgram(item, opts)
		slotDur := progDur + opts.ProgramBreak

		var entry models.ScheduledEntry
		var segEnd int64 // slot offset at which the current segment ends
		if off < progDur {
			entryStart := clock.Add(-time.Duration(off) * time.Second)
			entry = models.ScheduledEntry{
				Kind:      kind,
				StartTime: entryStart,
				EndTime:   entryStart.Add(time.Duration(progDur) * time.Second),
				Duration:  progDur,
				ItemIndex: idx,
			}
			if kind == models.EntryKindProgram && item.Media != nil {
				id := item.Media.ID
				entry.MediaID = &id
				entry.Title = item.Media.Title
				entry.Subtitle = item.Media.Subtitle()
				entry.Classification = item.Media.Kind
			} else {
				entry.Title = interstitialTitle
			}
			segEnd = progDur
		} else {
			breakOff := off - progDur
			breakStart := clock.Add(-time.Duration(breakOff) * time.Second)
			entry = models.ScheduledEntry{
				Kind:      models.EntryKindInterstitial,
				Title:     interstitialTitle,
				StartTime: breakStart,
				EndTime:   breakStart.Add(time.Duration(opts.ProgramBreak) * time.Second),
				Duration:  opts.ProgramBreak,
				ItemIndex: idx,
			}
			segEnd = slotDur
		}
		entries = append(entries, entry)

		// Advance the clock to the segment end or the window end,
		// whichever comes first; a truncated segment carries the same
		// cursor into the next window.
		remaining := segEnd - off
		windowLeft := int64(end.Sub(clock) / time.Second)
		if remaining > windowLeft {
			off += windowLeft
			clock = end
			break
		}

		clock = clock.Add(time.Duration(remaining) * time.Second)
		off = segEnd
		if off >= slotDur {
			idx = (idx + 1) % len(items)
			off = 0
		}
	}

	return entries, Cursor{ItemIndex: idx, Offset: off}
}

// slotProgram returns the effective on-air duration of an item and the entry
// kind it schedules as. Items with missing or non-positive durations are
// substituted with a fixed-length interstitial.
func slotProgram(item *models.ChannelItem, opts BuildOptions) (int64, models.EntryKind) {
	if item.Media == nil || item.Media.Duration <= 0 {
		return opts.InterstitialFill, models.EntryKindInterstitial
	}
	return item.Media.Duration, models.EntryKindProgram
}

// normalize clamps a cursor into the valid range for the given item list.
// A cursor built against an older list may point past the end of the list or
// past the end of its slot; wrapping forward keeps the result deterministic.
func normalize(items []*models.ChannelItem, cursor Cursor, opts BuildOptions) (int, int64) {
	n := len(items)
	idx := cursor.ItemIndex
	if idx < 0 || idx >= n {
		idx = 0
	}
	off := cursor.Offset
	if off < 0 {
		off = 0
	}

	var cycle int64
	for _, item := range items {
		progDur, _ := slotProgram(item, opts)
		cycle += progDur + opts.ProgramBreak
	}
	off %= cycle

	for {
		progDur, _ := slotProgram(items[idx], opts)
		slotDur := progDur + opts.ProgramBreak
		if off < slotDur {
			return idx, off
		}
		off -= slotDur
		idx = (idx + 1) % n
	}
}
