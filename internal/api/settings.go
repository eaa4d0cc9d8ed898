package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/logger"
)

// UpdateSettingsRequest represents a request to update scheduler settings
// (partial update, durations in seconds)
type UpdateSettingsRequest struct {
	BlockDuration    *int64 `json:"block_duration,omitempty" binding:"omitempty,gte=60"`
	HorizonBlocks    *int   `json:"horizon_blocks,omitempty" binding:"omitempty,gte=1"`
	RetentionWindow  *int64 `json:"retention_window,omitempty" binding:"omitempty,gte=0"`
	InterstitialFill *int64 `json:"interstitial_fill,omitempty" binding:"omitempty,gte=1"`
	ProgramBreak     *int64 `json:"program_break,omitempty" binding:"omitempty,gte=0"`
	AutoRegenerate   *bool  `json:"auto_regenerate,omitempty"`
}

// SettingsHandler handles scheduler settings API requests
type SettingsHandler struct {
	repos *db.Repositories
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(repos *db.Repositories) *SettingsHandler {
	return &SettingsHandler{repos: repos}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.repos.Settings.Get(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to get settings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve settings",
		})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings
//
// Changed options apply to future generation passes; already persisted
// blocks keep their committed grid until regenerated.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.repos.Settings.Get(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to get settings for update")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve settings",
		})
		return
	}

	// Apply partial updates
	if req.BlockDuration != nil {
		settings.BlockDuration = *req.BlockDuration
	}
	if req.HorizonBlocks != nil {
		settings.HorizonBlocks = *req.HorizonBlocks
	}
	if req.RetentionWindow != nil {
		settings.RetentionWindow = *req.RetentionWindow
	}
	if req.InterstitialFill != nil {
		settings.InterstitialFill = *req.InterstitialFill
	}
	if req.ProgramBreak != nil {
		settings.ProgramBreak = *req.ProgramBreak
	}
	if req.AutoRegenerate != nil {
		settings.AutoRegenerate = *req.AutoRegenerate
	}

	if err := h.repos.Settings.Update(ctx, settings); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to update settings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update settings",
		})
		return
	}

	logger.Log.Info().
		Int64("block_duration", settings.BlockDuration).
		Int("horizon_blocks", settings.HorizonBlocks).
		Bool("auto_regenerate", settings.AutoRegenerate).
		Msg("Scheduler settings updated")

	c.JSON(http.StatusOK, settings)
}

// SetupSettingsRoutes registers settings routes
func SetupSettingsRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewSettingsHandler(repos)

	apiGroup.GET("/settings", handler.GetSettings)
	apiGroup.PUT("/settings", handler.UpdateSettings)
}
