package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/airwave-tv/airwave/internal/db"
	"github.com/airwave-tv/airwave/internal/logger"
	"github.com/airwave-tv/airwave/internal/models"
)

// Request/Response DTOs

// CreateMediaRequest represents a request to register a library item
type CreateMediaRequest struct {
	Title    string  `json:"title" binding:"required"`
	ShowName *string `json:"show_name,omitempty"`
	Season   *int    `json:"season,omitempty"`
	Episode  *int    `json:"episode,omitempty"`
	Kind     string  `json:"kind" binding:"required"`
	Duration int64   `json:"duration" binding:"gte=0"` // seconds; 0 means unknown
}

// UpdateMediaRequest represents a request to update media metadata
type UpdateMediaRequest struct {
	Title    *string `json:"title,omitempty"`
	ShowName *string `json:"show_name,omitempty"`
	Season   *int    `json:"season,omitempty"`
	Episode  *int    `json:"episode,omitempty"`
	Duration *int64  `json:"duration,omitempty"`
}

// MediaListResponse represents a paginated list of media items
type MediaListResponse struct {
	Items  []*models.Media `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// DeleteResponse represents a successful delete operation
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MediaHandler handles media catalog API requests
type MediaHandler struct {
	repos *db.Repositories
}

// NewMediaHandler creates a new media handler instance
func NewMediaHandler(repos *db.Repositories) *MediaHandler {
	return &MediaHandler{
		repos: repos,
	}
}

// CreateMedia handles POST /api/media
func (h *MediaHandler) CreateMedia(c *gin.Context) {
	var req CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	kind := models.MediaKind(req.Kind)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_kind",
			Message: "Media kind must be movie or episode",
		})
		return
	}

	item := models.NewMedia(req.Title, kind, req.Duration)
	item.ShowName = req.ShowName
	item.Season = req.Season
	item.Episode = req.Episode

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Media.Create(ctx, item); err != nil {
		logger.Log.Error().
			Err(err).
			Str("title", req.Title).
			Msg("Failed to create media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create media",
		})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListMedia handles GET /api/media with pagination
func (h *MediaHandler) ListMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.repos.Media.List(ctx, limit, offset)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media list",
		})
		return
	}

	total, err := h.repos.Media.Count(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to count media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to count media",
		})
		return
	}

	c.JSON(http.StatusOK, MediaListResponse{
		Items:  items,
		Total:  int(total),
		Limit:  limit,
		Offset: offset,
	})
}

// GetMedia handles GET /api/media/:id
func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid media ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repos.Media.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("media_id", id.String()).
			Msg("Failed to get media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateMedia handles PUT /api/media/:id
func (h *MediaHandler) UpdateMedia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid media ID format",
		})
		return
	}

	var req UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repos.Media.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("media_id", id.String()).
			Msg("Failed to get media for update")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media",
		})
		return
	}

	// Apply partial updates
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.ShowName != nil {
		item.ShowName = req.ShowName
	}
	if req.Season != nil {
		item.Season = req.Season
	}
	if req.Episode != nil {
		item.Episode = req.Episode
	}
	if req.Duration != nil {
		item.Duration = *req.Duration
	}

	if err := h.repos.Media.Update(ctx, item); err != nil {
		logger.Log.Error().
			Err(err).
			Str("media_id", id.String()).
			Msg("Failed to update media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update media",
		})
		return
	}

	// Duration edits change slot lengths the next time schedules rebuild;
	// existing blocks keep their committed timings until regeneration.
	c.JSON(http.StatusOK, item)
}

// DeleteMedia handles DELETE /api/media/:id
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid media ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Media.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}
		if db.IsForeignKey(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "in_use",
				Message: "Media is referenced by a channel lineup",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("media_id", id.String()).
			Msg("Failed to delete media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete media",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Media deleted successfully",
	})
}

// SetupMediaRoutes registers media catalog routes
func SetupMediaRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewMediaHandler(repos)

	apiGroup.POST("/media", handler.CreateMedia)
	apiGroup.GET("/media", handler.ListMedia)
	apiGroup.GET("/media/:id", handler.GetMedia)
	apiGroup.PUT("/media/:id", handler.UpdateMedia)
	apiGroup.DELETE("/media/:id", handler.DeleteMedia)
}
