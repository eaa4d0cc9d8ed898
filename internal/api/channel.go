package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/airwave-tv/airwave/internal/channel"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/models"
)

// Request/Response DTOs

// CreateChannelRequest represents a request to create a new channel
type CreateChannelRequest struct {
	Number int    `json:"number" binding:"required,gte=1"`
	Name   string `json:"name" binding:"required"`
	Kind   string `json:"kind,omitempty"`
}

// UpdateChannelRequest represents a request to update channel metadata (partial update)
type UpdateChannelRequest struct {
	Number *int    `json:"number,omitempty"`
	Name   *string `json:"name,omitempty"`
	Kind   *string `json:"kind,omitempty"`
}

// ReplaceItemsRequest represents a request to replace a channel's lineup.
// Media IDs are taken in on-air order; an empty list clears the lineup.
type ReplaceItemsRequest struct {
	MediaIDs []string `json:"media_ids"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID             uint      `json:"id"`
	Number         int       `json:"number"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	ContentVersion int64     `json:"content_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*ChannelResponse `json:"channels"`
}

// ChannelItemResponse represents a lineup item with embedded media details
type ChannelItemResponse struct {
	ID        string        `json:"id"`
	ChannelID uint          `json:"channel_id"`
	MediaID   string        `json:"media_id"`
	Position  int           `json:"position"`
	CreatedAt time.Time     `json:"created_at"`
	Media     *models.Media `json:"media,omitempty"`
}

// ChannelItemsResponse represents a channel's lineup
type ChannelItemsResponse struct {
	Items         []*ChannelItemResponse `json:"items"`
	TotalDuration int64                  `json:"total_duration_seconds"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	channelService *channel.ChannelService
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(channelService *channel.ChannelService) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
	}
}

// parseChannelID parses the :id path parameter; writes the error response
// itself on failure
func parseChannelID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid channel ID format",
		})
		return 0, false
	}
	return uint(id), true
}

// toChannelResponse converts a channel model to API response format
func toChannelResponse(ch *models.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:             ch.ID,
		Number:         ch.Number,
		Name:           ch.Name,
		Kind:           string(ch.Kind),
		ContentVersion: ch.ContentVersion,
		CreatedAt:      ch.CreatedAt,
		UpdatedAt:      ch.UpdatedAt,
	}
}

// toChannelItemResponse converts a lineup item model to API response format
func toChannelItemResponse(item *models.ChannelItem) *ChannelItemResponse {
	return &ChannelItemResponse{
		ID:        item.ID.String(),
		ChannelID: item.ChannelID,
		MediaID:   item.MediaID.String(),
		Position:  item.Position,
		CreatedAt: item.CreatedAt,
		Media:     item.Media,
	}
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newChannel, err := h.channelService.CreateChannel(ctx, req.Number, req.Name, models.ChannelKind(req.Kind))
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create channel")

		switch {
		case errors.Is(err, channel.ErrDuplicateChannelName):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
		case errors.Is(err, channel.ErrDuplicateChannelNumber):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_number",
				Message: "A channel with this number already exists",
			})
		case errors.Is(err, channel.ErrInvalidChannelNumber):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_number",
				Message: "Channel number must be positive",
			})
		case errors.Is(err, channel.ErrInvalidChannelKind):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_kind",
				Message: "Channel kind must be auto, preset, or custom",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to create channel",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, toChannelResponse(newChannel))
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channels, err := h.channelService.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel list",
		})
		return
	}

	responses := make([]*ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = toChannelResponse(ch)
	}

	c.JSON(http.StatusOK, ChannelListResponse{
		Channels: responses,
	})
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to get channel by ID")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel",
		})
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// UpdateChannel handles PUT /api/channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to get channel for update")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel",
		})
		return
	}

	// Apply partial updates
	if req.Number != nil {
		ch.Number = *req.Number
	}
	if req.Name != nil {
		ch.Name = *req.Name
	}
	if req.Kind != nil {
		ch.Kind = models.ChannelKind(*req.Kind)
	}

	if err := h.channelService.UpdateChannel(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to update channel")

		switch {
		case errors.Is(err, channel.ErrDuplicateChannelName):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
		case errors.Is(err, channel.ErrDuplicateChannelNumber):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_number",
				Message: "A channel with this number already exists",
			})
		case errors.Is(err, channel.ErrInvalidChannelNumber):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_number",
				Message: "Channel number must be positive",
			})
		case errors.Is(err, channel.ErrInvalidChannelKind):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_kind",
				Message: "Channel kind must be auto, preset, or custom",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to update channel",
			})
		}
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// DeleteChannel handles DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.channelService.DeleteChannel(ctx, id); err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to delete channel")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete channel",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Channel deleted successfully",
	})
}

// GetItems handles GET /api/channels/:id/items
func (h *ChannelHandler) GetItems(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.channelService.GetItems(ctx, id)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Msg("Failed to get channel items")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel items",
		})
		return
	}

	var totalDuration int64
	responses := make([]*ChannelItemResponse, len(items))
	for i, item := range items {
		responses[i] = toChannelItemResponse(item)
		if item.Media != nil {
			totalDuration += item.Media.Duration
		}
	}

	c.JSON(http.StatusOK, ChannelItemsResponse{
		Items:         responses,
		TotalDuration: totalDuration,
	})
}

// ReplaceItems handles PUT /api/channels/:id/items
//
// Replacing the lineup regenerates the channel's schedule; the response is
// sent after regeneration completes so clients observing the guide next see
// the new lineup reflected.
func (h *ChannelHandler) ReplaceItems(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	var req ReplaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	mediaIDs := make([]uuid.UUID, 0, len(req.MediaIDs))
	for _, idStr := range req.MediaIDs {
		mediaID, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_media_id",
				Message: fmt.Sprintf("Invalid media ID format: %s", idStr),
			})
			return
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	// Regeneration happens inline, so allow more than the usual read budget
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	ch, err := h.channelService.ReplaceItems(ctx, id, mediaIDs)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Uint("channel_id", id).
			Int("item_count", len(mediaIDs)).
			Msg("Failed to replace channel items")

		switch {
		case errors.Is(err, channel.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
		case errors.Is(err, channel.ErrMediaNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "media_not_found",
				Message: "One or more media items not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "replace_failed",
				Message: "Failed to replace channel items",
			})
		}
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// SetupChannelRoutes registers channel-related routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, channelService *channel.ChannelService) {
	handler := NewChannelHandler(channelService)

	// Channel CRUD endpoints
	apiGroup.POST("/channels", handler.CreateChannel)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:id", handler.GetChannel)
	apiGroup.PUT("/channels/:id", handler.UpdateChannel)
	apiGroup.DELETE("/channels/:id", handler.DeleteChannel)

	// Lineup endpoints
	apiGroup.GET("/channels/:id/items", handler.GetItems)
	apiGroup.PUT("/channels/:id/items", handler.ReplaceItems)
}
