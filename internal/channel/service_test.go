package channel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/models"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// setupTestService creates a service with a test database
func setupTestService(t *testing.T) (*ChannelService, *db.Repositories) {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	scheduler := schedule.NewManager(repos, schedule.Options{
		BlockDuration:    8 * time.Hour,
		HorizonBlocks:    3,
		RetentionWindow:  24 * time.Hour,
		InterstitialFill: 2 * time.Minute,
		AutoRegenerate:   true,
		MaxConcurrent:    4,
	}, nil)
	service := NewChannelService(repos, scheduler)

	return service, repos
}

func createMedia(t *testing.T, repos *db.Repositories, title string, duration int64) *models.Media {
	t.Helper()
	media := models.NewMedia(title, models.MediaKindMovie, duration)
	require.NoError(t, repos.Media.Create(context.Background(), media))
	return media
}

func TestCreateChannel_Success(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 7, "Movies", models.ChannelKindCustom)

	require.NoError(t, err)
	assert.NotZero(t, ch.ID)
	assert.Equal(t, 7, ch.Number)
	assert.Equal(t, "Movies", ch.Name)
	assert.Equal(t, models.ChannelKindCustom, ch.Kind)
	assert.Zero(t, ch.ContentVersion)
	assert.False(t, ch.CreatedAt.IsZero())
}

func TestCreateChannel_DefaultsKind(t *testing.T) {
	service, _ := setupTestService(t)

	ch, err := service.CreateChannel(context.Background(), 1, "Defaulted", "")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelKindCustom, ch.Kind)
}

func TestCreateChannel_Validation(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 0, "Bad Number", models.ChannelKindCustom)
	assert.True(t, IsInvalidNumber(err))

	_, err = service.CreateChannel(ctx, 1, "Bad Kind", "shuffle")
	assert.True(t, IsInvalidKind(err))
}

func TestCreateChannel_DuplicateName(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 1, "Movies", models.ChannelKindCustom)
	require.NoError(t, err)

	// Case-insensitive match
	_, err = service.CreateChannel(ctx, 2, "MOVIES", models.ChannelKindCustom)
	assert.True(t, IsDuplicateName(err))
}

func TestCreateChannel_DuplicateNumber(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateChannel(ctx, 5, "First", models.ChannelKindCustom)
	require.NoError(t, err)

	_, err = service.CreateChannel(ctx, 5, "Second", models.ChannelKindCustom)
	assert.True(t, IsDuplicateNumber(err))
}

func TestGetByNumber(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateChannel(ctx, 42, "Answer", models.ChannelKindPreset)
	require.NoError(t, err)

	found, err := service.GetByNumber(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = service.GetByNumber(ctx, 99)
	assert.True(t, IsChannelNotFound(err))
}

func TestUpdateChannel_PreservesContentVersion(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 1, "Before", models.ChannelKindCustom)
	require.NoError(t, err)

	media := createMedia(t, repos, "Film", 1800)
	ch, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{media.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), ch.ContentVersion)

	// A metadata edit must not look like a lineup change
	ch.Name = "After"
	ch.ContentVersion = 0
	require.NoError(t, service.UpdateChannel(ctx, ch))

	fresh, err := service.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", fresh.Name)
	assert.Equal(t, int64(1), fresh.ContentVersion)
}

func TestDeleteChannel_CascadesScheduleState(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 1, "Doomed", models.ChannelKindCustom)
	require.NoError(t, err)

	media := createMedia(t, repos, "Film", 1800)
	_, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{media.ID})
	require.NoError(t, err)

	blocks, err := repos.Blocks.GetAllByChannel(ctx, ch.ID)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	require.NoError(t, service.DeleteChannel(ctx, ch.ID))

	_, err = service.GetByID(ctx, ch.ID)
	assert.True(t, IsChannelNotFound(err))

	blocks, err = repos.Blocks.GetAllByChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	items, err := repos.ChannelItems.GetByChannelID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReplaceItems_BumpsVersionAndRegenerates(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 1, "Movies", models.ChannelKindCustom)
	require.NoError(t, err)

	a := createMedia(t, repos, "A", 1800)
	b := createMedia(t, repos, "B", 2700)

	ch, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ch.ContentVersion)

	// Schedule was generated inline
	blocks, err := repos.Blocks.GetAllByChannel(ctx, ch.ID)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	for _, block := range blocks {
		assert.Equal(t, ch.ContentVersion, block.ContentVersion)
	}

	items, err := service.GetItems(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].MediaID)
	assert.Equal(t, b.ID, items[1].MediaID)
	require.NotNil(t, items[0].Media)
	assert.Equal(t, int64(1800), items[0].Media.Duration)

	// Replacing again bumps the version again
	ch, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), ch.ContentVersion)
}

func TestReplaceItems_UnknownMedia(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 1, "Movies", models.ChannelKindCustom)
	require.NoError(t, err)

	_, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{uuid.New()})
	assert.True(t, IsMediaNotFound(err))
}

func TestReplaceItems_EmptyListClearsSchedule(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	ch, err := service.CreateChannel(ctx, 1, "Movies", models.ChannelKindCustom)
	require.NoError(t, err)

	media := createMedia(t, repos, "Film", 1800)
	_, err = service.ReplaceItems(ctx, ch.ID, []uuid.UUID{media.ID})
	require.NoError(t, err)

	_, err = service.ReplaceItems(ctx, ch.ID, nil)
	require.NoError(t, err)

	blocks, err := repos.Blocks.GetAllByChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
