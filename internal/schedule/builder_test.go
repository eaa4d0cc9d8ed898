package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/airwave-tv/airwave/internal/models"
)

// makeItems builds a content list from durations in seconds. A zero
// duration produces an item whose media length is unknown.
func makeItems(durations ...int64) []*models.ChannelItem {
	items := make([]*models.ChannelItem, len(durations))
	for i, d := range durations {
		media := models.NewMedia(fmt.Sprintf("Item %d", i), models.MediaKindMovie, d)
		item := models.NewChannelItem(1, media.ID, i)
		item.Media = media
		items[i] = item
	}
	return items
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts.UTC()
}

func TestBuild_EmptyItems(t *testing.T) {
	start := time.Now().UTC()
	entries, next := Build(nil, Cursor{}, start, start.Add(time.Hour), BuildOptions{InterstitialFill: 120})

	assert.Empty(t, entries)
	assert.Equal(t, Cursor{}, next)
}

func TestBuild_InvalidWindow(t *testing.T) {
	items := makeItems(1800)
	start := time.Now().UTC()

	entries, next := Build(items, Cursor{ItemIndex: 0, Offset: 42}, start, start, BuildOptions{InterstitialFill: 120})

	assert.Empty(t, entries)
	assert.Equal(t, Cursor{ItemIndex: 0, Offset: 42}, next)
}

func TestBuild_WorkedExample(t *testing.T) {
	// Two items: A is 30 minutes, B is 45 minutes
	items := makeItems(1800, 2700)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	windowEnd := windowStart.Add(2 * time.Hour)

	entries, next := Build(items, Cursor{}, windowStart, windowEnd, BuildOptions{InterstitialFill: 120})
	require.Len(t, entries, 4)

	// A 00:00-00:30, B 00:30-01:15, A 01:15-01:45, B 01:45-02:30
	assert.Equal(t, "Item 0", entries[0].Title)
	assert.Equal(t, windowStart, entries[0].StartTime)
	assert.Equal(t, windowStart.Add(30*time.Minute), entries[0].EndTime)

	assert.Equal(t, "Item 1", entries[1].Title)
	assert.Equal(t, windowStart.Add(30*time.Minute), entries[1].StartTime)
	assert.Equal(t, windowStart.Add(75*time.Minute), entries[1].EndTime)

	assert.Equal(t, "Item 0", entries[2].Title)
	assert.Equal(t, windowStart.Add(105*time.Minute), entries[2].EndTime)

	// The final entry crosses the window end with its full global interval
	assert.Equal(t, "Item 1", entries[3].Title)
	assert.Equal(t, windowStart.Add(105*time.Minute), entries[3].StartTime)
	assert.Equal(t, windowStart.Add(150*time.Minute), entries[3].EndTime)

	// Cursor points 15 minutes into item B
	assert.Equal(t, Cursor{ItemIndex: 1, Offset: 900}, next)

	// Resolving 00:40 inside this window lands 10 minutes into B
	at := windowStart.Add(40 * time.Minute)
	var covering *models.ScheduledEntry
	for i := range entries {
		if entries[i].Contains(at) {
			covering = &entries[i]
			break
		}
	}
	require.NotNil(t, covering)
	assert.Equal(t, "Item 1", covering.Title)
	assert.Equal(t, 10*time.Minute, at.Sub(covering.StartTime))
}

func TestBuild_Deterministic(t *testing.T) {
	items := makeItems(1800, 2700, 600)
	windowStart := mustParse(t, "2026-01-01T08:00:00Z")
	windowEnd := windowStart.Add(8 * time.Hour)
	cursor := Cursor{ItemIndex: 1, Offset: 300}
	opts := BuildOptions{InterstitialFill: 120, ProgramBreak: 30}

	first, firstNext := Build(items, cursor, windowStart, windowEnd, opts)
	second, secondNext := Build(items, cursor, windowStart, windowEnd, opts)

	assert.Equal(t, first, second)
	assert.Equal(t, firstNext, secondNext)
}

func TestBuild_Contiguity(t *testing.T) {
	items := makeItems(1800, 2700, 540)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	windowEnd := windowStart.Add(8 * time.Hour)

	entries, _ := Build(items, Cursor{}, windowStart, windowEnd, BuildOptions{InterstitialFill: 120})
	require.NotEmpty(t, entries)

	// First entry covers the window start, last covers the window end
	assert.False(t, entries[0].StartTime.After(windowStart))
	assert.True(t, entries[len(entries)-1].EndTime.After(windowEnd) ||
		entries[len(entries)-1].EndTime.Equal(windowEnd))

	// No gaps, no overlaps
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].EndTime, entries[i].StartTime,
			"gap or overlap between entries %d and %d", i-1, i)
	}
}

func TestBuild_CursorCarriesAcrossWindows(t *testing.T) {
	items := makeItems(1800, 2700)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	boundary := windowStart.Add(2 * time.Hour)
	opts := BuildOptions{InterstitialFill: 120}

	first, cursor := Build(items, Cursor{}, windowStart, boundary, opts)
	second, _ := Build(items, cursor, boundary, boundary.Add(2*time.Hour), opts)

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	// The entry crossing the boundary appears in both windows with an
	// identical global interval
	last := first[len(first)-1]
	require.True(t, last.EndTime.After(boundary))
	assert.Equal(t, last.StartTime, second[0].StartTime)
	assert.Equal(t, last.EndTime, second[0].EndTime)
	assert.Equal(t, last.MediaID, second[0].MediaID)

	// Stitching the windows together is indistinguishable from one long
	// window built in a single call
	whole, _ := Build(items, Cursor{}, windowStart, boundary.Add(2*time.Hour), opts)
	stitched := append([]models.ScheduledEntry{}, first...)
	stitched = append(stitched, second[1:]...)
	assert.Equal(t, whole, stitched)
}

func TestBuild_InterstitialSubstitution(t *testing.T) {
	// Middle item has unknown duration
	items := makeItems(1800, 0, 2700)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")

	entries, _ := Build(items, Cursor{}, windowStart, windowStart.Add(90*time.Minute), BuildOptions{InterstitialFill: 120})
	require.True(t, len(entries) >= 3)

	sub := entries[1]
	assert.Equal(t, models.EntryKindInterstitial, sub.Kind)
	assert.Equal(t, interstitialTitle, sub.Title)
	assert.Nil(t, sub.MediaID)
	assert.Equal(t, int64(120), sub.Duration)

	// Timeline stays contiguous through the substitution
	assert.Equal(t, entries[0].EndTime, sub.StartTime)
	assert.Equal(t, sub.EndTime, entries[2].StartTime)
}

func TestBuild_ProgramBreaks(t *testing.T) {
	items := makeItems(1800, 2700)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	opts := BuildOptions{InterstitialFill: 120, ProgramBreak: 60}

	entries, _ := Build(items, Cursor{}, windowStart, windowStart.Add(80*time.Minute), opts)
	require.True(t, len(entries) >= 3)

	assert.Equal(t, models.EntryKindProgram, entries[0].Kind)
	assert.Equal(t, models.EntryKindInterstitial, entries[1].Kind)
	assert.Equal(t, int64(60), entries[1].Duration)
	assert.Equal(t, models.EntryKindProgram, entries[2].Kind)
	assert.Equal(t, entries[0].EndTime, entries[1].StartTime)
	assert.Equal(t, entries[1].EndTime, entries[2].StartTime)
}

func TestBuild_CyclicCoverage(t *testing.T) {
	items := makeItems(600, 900, 300)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")

	entries, _ := Build(items, Cursor{}, windowStart, windowStart.Add(3*time.Hour), BuildOptions{InterstitialFill: 120})

	seen := make(map[int]int)
	for _, e := range entries {
		seen[e.ItemIndex]++
	}
	for i := range items {
		assert.Greater(t, seen[i], 1, "item %d should cycle repeatedly", i)
	}
}

func TestBuild_NormalizesStaleCursor(t *testing.T) {
	items := makeItems(1800, 2700)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	opts := BuildOptions{InterstitialFill: 120}

	fresh, _ := Build(items, Cursor{}, windowStart, windowStart.Add(time.Hour), opts)

	// Index past the end of a shrunken list wraps to the top
	stale, _ := Build(items, Cursor{ItemIndex: 7, Offset: 0}, windowStart, windowStart.Add(time.Hour), opts)
	assert.Equal(t, fresh, stale)

	// Offset past the whole cycle wraps deterministically
	cycle := int64(1800 + 2700)
	wrapped, _ := Build(items, Cursor{ItemIndex: 0, Offset: cycle * 3}, windowStart, windowStart.Add(time.Hour), opts)
	assert.Equal(t, fresh, wrapped)
}

func TestBuild_SingleItemLongerThanWindow(t *testing.T) {
	items := makeItems(4 * 3600)
	windowStart := mustParse(t, "2026-01-01T00:00:00Z")
	windowEnd := windowStart.Add(time.Hour)

	entries, next := Build(items, Cursor{}, windowStart, windowEnd, BuildOptions{InterstitialFill: 120})
	require.Len(t, entries, 1)

	assert.Equal(t, windowStart, entries[0].StartTime)
	assert.Equal(t, windowStart.Add(4*time.Hour), entries[0].EndTime)
	assert.Equal(t, Cursor{ItemIndex: 0, Offset: 3600}, next)
}

func BenchmarkBuild(b *testing.B) {
	durations := make([]int64, 50)
	for i := range durations {
		durations[i] = int64(600 + i*60)
	}
	items := makeItems(durations...)
	windowStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(8 * time.Hour)
	opts := BuildOptions{InterstitialFill: 120}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Build(items, Cursor{}, windowStart, windowEnd, opts)
	}
}
