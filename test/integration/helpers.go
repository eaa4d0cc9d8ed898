//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/airwave-tv/airwave/internal/api"
	"github.com/airwave-tv/airwave/internal/channel"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/events"
	"github.com/airwave-tv/airwave/internal/guide"
	"github.com/airwave-tv/airwave/internal/models"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// setupTestDB creates a file-backed test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve the migrations directory relative to this file so tests work
	// regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)                     // test/integration
	rootDir := filepath.Dir(filepath.Dir(testDir))        // repo root
	migrationsPath := "file://" + filepath.Join(rootDir, "migrations")

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	repos := db.NewRepositories(database)

	cleanup := func() {
		database.Close()
	}

	return database, repos, cleanup
}

// testEnv bundles the wired services behind a single router the way the
// server assembles them
type testEnv struct {
	router    *gin.Engine
	repos     *db.Repositories
	hub       *events.Hub
	scheduler *schedule.Manager
}

// setupTestEnv wires the full API surface against a fresh database
func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, repos, cleanup := setupTestDB(t)

	hub := events.NewHub()
	go hub.Run()

	scheduler := schedule.NewManager(repos, schedule.Options{
		BlockDuration:    8 * time.Hour,
		HorizonBlocks:    3,
		RetentionWindow:  24 * time.Hour,
		InterstitialFill: 2 * time.Minute,
		AutoRegenerate:   true,
		MaxConcurrent:    4,
	}, hub)
	resolver := schedule.NewResolver(repos.Blocks)
	channelService := channel.NewChannelService(repos, scheduler)
	guideService := guide.NewService(repos, resolver)

	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	api.SetupHealthRoutes(apiGroup, database)
	api.SetupMediaRoutes(apiGroup, repos)
	api.SetupChannelRoutes(apiGroup, channelService)
	api.SetupScheduleRoutes(apiGroup, guideService, scheduler)
	api.SetupSettingsRoutes(apiGroup, repos)
	api.SetupEventRoutes(apiGroup, hub)

	env := &testEnv{
		router:    router,
		repos:     repos,
		hub:       hub,
		scheduler: scheduler,
	}

	teardown := func() {
		hub.Stop()
		cleanup()
	}

	return env, teardown
}

// createTestMediaInDB creates a media item directly in the database
func createTestMediaInDB(t *testing.T, repos *db.Repositories, title string, kind models.MediaKind, duration int64) *models.Media {
	t.Helper()

	mediaItem := models.NewMedia(title, kind, duration)
	require.NoError(t, repos.Media.Create(context.Background(), mediaItem),
		"Failed to create test media in database")

	return mediaItem
}
