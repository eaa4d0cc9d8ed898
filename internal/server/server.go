// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/airwave-tv/airwave/internal/api"
	"github.com/airwave-tv/airwave/internal/channel"
	"github.com/airwave-tv/airwave/internal/config"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/events"
	"github.com/airwave-tv/airwave/internal/guide"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/middleware"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	hub            *events.Hub
	scheduler      *schedule.Manager
	resolver       *schedule.Resolver
	keeper         *schedule.Keeper
	channelService *channel.ChannelService
	guideService   *guide.Service
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	hub := events.NewHub()
	scheduler := schedule.NewManager(repos, schedule.OptionsFromConfig(&cfg.Schedule), hub)
	resolver := schedule.NewResolver(repos.Blocks)
	keeper := schedule.NewKeeper(scheduler, cfg.Schedule.AutoRegenerateInterval)
	channelService := channel.NewChannelService(repos, scheduler)
	guideService := guide.NewService(repos, resolver)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		hub:            hub,
		scheduler:      scheduler,
		resolver:       resolver,
		keeper:         keeper,
		channelService: channelService,
		guideService:   guideService,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Prometheus scrape endpoint outside the API group
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupMediaRoutes(apiGroup, s.repos)
	api.SetupChannelRoutes(apiGroup, s.channelService)
	api.SetupScheduleRoutes(apiGroup, s.guideService, s.scheduler)
	api.SetupSettingsRoutes(apiGroup, s.repos)
	api.SetupEventRoutes(apiGroup, s.hub)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	// Start the event hub before anything can trigger a regeneration
	go s.hub.Run()

	// Start the horizon keeper
	if err := s.keeper.Start(); err != nil {
		return fmt.Errorf("failed to start horizon keeper: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Stop the horizon keeper
	if s.keeper != nil {
		s.keeper.Stop()
	}

	// Disconnect event subscribers
	if s.hub != nil {
		s.hub.Stop()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
