package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/airwave-tv/airwave/internal/guide"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/models"
	"github.com/airwave-tv/airwave/internal/schedule"
)

// ScheduleResponse represents a channel's materialized timeline
type ScheduleResponse struct {
	ChannelID uint                    `json:"channel_id"`
	Entries   []models.ScheduledEntry `json:"entries"`
}

// NowResponse represents the currently airing entry on a channel.
// Airing is false when the channel has nothing scheduled; a viewer sees an
// idle channel, not an error.
type NowResponse struct {
	ChannelID uint                   `json:"channel_id"`
	Airing    bool                   `json:"airing"`
	Entry     *models.ScheduledEntry `json:"entry,omitempty"`
	Offset    int64                  `json:"offset,omitempty"` // seconds into the entry
}

// UpcomingResponse represents the airing entry plus the next entries
type UpcomingResponse struct {
	ChannelID uint                    `json:"channel_id"`
	Entries   []models.ScheduledEntry `json:"entries"`
}

// RegenerateResponse acknowledges a regeneration request
type RegenerateResponse struct {
	Message string `json:"message"`
}

// ScheduleHandler handles guide and regeneration API requests
type ScheduleHandler struct {
	guideService *guide.Service
	manager      *schedule.Manager
}

// NewScheduleHandler creates a new schedule handler instance
func NewScheduleHandler(guideService *guide.Service, manager *schedule.Manager) *ScheduleHandler {
	return &ScheduleHandler{
		guideService: guideService,
		manager:      manager,
	}
}

// writeGuideError maps guide/resolver errors to responses. Store failures
// surface as 503 so clients can distinguish "guide down" from "nothing on".
func writeGuideError(c *gin.Context, err error, channelID uint, op string) {
	switch {
	case errors.Is(err, schedule.ErrChannelNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
	case schedule.IsStoreUnavailable(err):
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channelID).
			Str("operation", op).
			Msg("Schedule store unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "Schedule store temporarily unavailable",
		})
	default:
		logger.Log.Error().
			Err(err).
			Uint("channel_id", channelID).
			Str("operation", op).
			Msg("Guide query failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to query schedule",
		})
	}
}

// GetSchedule handles GET /api/channels/:id/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := h.guideService.GetSchedule(ctx, id)
	if err != nil {
		writeGuideError(c, err, id, "get_schedule")
		return
	}

	if entries == nil {
		entries = []models.ScheduledEntry{}
	}
	c.JSON(http.StatusOK, ScheduleResponse{
		ChannelID: id,
		Entries:   entries,
	})
}

// GetNow handles GET /api/channels/:id/now
func (h *ScheduleHandler) GetNow(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	now, err := h.guideService.GetNow(ctx, id)
	if err != nil {
		if schedule.IsNotScheduled(err) {
			c.JSON(http.StatusOK, NowResponse{
				ChannelID: id,
				Airing:    false,
			})
			return
		}
		writeGuideError(c, err, id, "get_now")
		return
	}

	c.JSON(http.StatusOK, NowResponse{
		ChannelID: id,
		Airing:    true,
		Entry:     &now.Entry,
		Offset:    now.Offset,
	})
}

// GetUpcoming handles GET /api/channels/:id/upcoming
func (h *ScheduleHandler) GetUpcoming(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit < 1 || limit > 100 {
		limit = 5
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.guideService.GetUpcoming(ctx, id, limit)
	if err != nil {
		if schedule.IsNotScheduled(err) {
			c.JSON(http.StatusOK, UpcomingResponse{
				ChannelID: id,
				Entries:   []models.ScheduledEntry{},
			})
			return
		}
		writeGuideError(c, err, id, "get_upcoming")
		return
	}

	c.JSON(http.StatusOK, UpcomingResponse{
		ChannelID: id,
		Entries:   entries,
	})
}

// RegenerateChannel handles POST /api/channels/:id/regenerate
func (h *ScheduleHandler) RegenerateChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.manager.RegenerateChannel(ctx, id); err != nil {
		if errors.Is(err, schedule.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to regenerate channel schedule")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "regenerate_failed",
			Message: "Failed to regenerate schedule",
		})
		return
	}

	c.JSON(http.StatusOK, RegenerateResponse{
		Message: "Schedule regenerated successfully",
	})
}

// RegenerateAll handles POST /api/schedule/regenerate
func (h *ScheduleHandler) RegenerateAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	if err := h.manager.RegenerateAll(ctx); err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Batch schedule regeneration completed with failures")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "regenerate_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, RegenerateResponse{
		Message: "All channel schedules regenerated successfully",
	})
}

// SetupScheduleRoutes registers guide and regeneration routes
func SetupScheduleRoutes(apiGroup *gin.RouterGroup, guideService *guide.Service, manager *schedule.Manager) {
	handler := NewScheduleHandler(guideService, manager)

	apiGroup.GET("/channels/:id/schedule", handler.GetSchedule)
	apiGroup.GET("/channels/:id/now", handler.GetNow)
	apiGroup.GET("/channels/:id/upcoming", handler.GetUpcoming)
	apiGroup.POST("/channels/:id/regenerate", handler.RegenerateChannel)
	apiGroup.POST("/schedule/regenerate", handler.RegenerateAll)
}
